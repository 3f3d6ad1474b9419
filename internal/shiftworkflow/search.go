package shiftworkflow

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/solpercival/thoth/internal/shift"
	"github.com/solpercival/thoth/pkg/provider/browser"
)

const (
	shiftSearchPath = "/shifts/search"
	shiftDateFilter = "#date-range-filter"
	shiftResultsRow = "#shift-results tbody tr"
)

var shiftResultsCells = []string{".col-shift-id", ".col-client", ".col-date", ".col-time", ".col-type"}

// searchShifts navigates to the shift-search page keyed by staffName,
// submits the interval into the grid's server-side date filter, and parses
// the resulting rows. The caller is responsible for applying the local
// safety filter; searchShifts returns every row the site reports.
func (w *Workflow) searchShifts(ctx context.Context, sess browser.Session, staffName string, iv shift.Interval) ([]shift.Record, error) {
	searchURL := w.site.BaseURL + shiftSearchPath + "?staff=" + url.QueryEscape(staffName)
	if err := sess.Navigate(ctx, searchURL); err != nil {
		return nil, fmt.Errorf("%w: navigate to shift search: %w", ErrNavigationTimeout, err)
	}

	filterValue := fmt.Sprintf("%s to %s",
		iv.Start.Format(shift.DisplayDateLayout), iv.End.Format(shift.DisplayDateLayout))
	if err := sess.Fill(ctx, shiftDateFilter, filterValue); err != nil {
		return nil, fmt.Errorf("%w: fill date filter: %w", ErrNavigationTimeout, err)
	}
	if err := sess.WaitVisible(ctx, shiftResultsRow); err != nil {
		// An empty, zero-row result is a legitimate "no shifts in range"
		// outcome, not a navigation failure; callers distinguish it by the
		// empty slice returned below.
		return nil, nil
	}

	rows, err := sess.ReadRows(ctx, shiftResultsRow, shiftResultsCells)
	if err != nil {
		return nil, fmt.Errorf("%w: read shift results: %w", ErrNavigationTimeout, err)
	}

	records := make([]shift.Record, 0, len(rows))
	for _, row := range rows {
		if len(row) < len(shiftResultsCells) {
			continue
		}
		records = append(records, parseShiftRow(row))
	}
	return records, nil
}

// parseShiftRow converts one result-grid row into a shift.Record. A date
// that fails to parse in DisplayDateLayout leaves HasDate false; the record
// is still retained (per the Shift record data model) but excluded from
// date-range filtering.
func parseShiftRow(row []string) shift.Record {
	rec := shift.Record{
		ShiftID:    strings.TrimSpace(row[0]),
		ClientName: strings.TrimSpace(row[1]),
		Time:       strings.TrimSpace(row[3]),
		Type:       strings.TrimSpace(row[4]),
	}
	dateStr := strings.TrimSpace(row[2])
	if d, err := time.ParseInLocation(shift.DisplayDateLayout, dateStr, time.Local); err == nil {
		rec.Date = d
		rec.HasDate = true
	}
	return rec
}

// filterByInterval applies the local safety filter: every returned record
// has a parseable date within iv, regardless of what the server-side filter
// already did.
func filterByInterval(records []shift.Record, iv shift.Interval) []shift.Record {
	filtered := make([]shift.Record, 0, len(records))
	for _, r := range records {
		if r.InInterval(iv) {
			filtered = append(filtered, r)
		}
	}
	return filtered
}
