package shiftworkflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/antzucaro/matchr"

	"github.com/solpercival/thoth/internal/shift"
	"github.com/solpercival/thoth/pkg/provider/browser"
)

// staffTitles are stripped from the front of a raw staff name before it is
// stored in shift.Staff.FullName, per the "Title stripping" testable
// property.
var staffTitles = []string{"Ms", "Mr", "Mrs", "Dr", "Prof"}

// fuzzyNameThreshold is the minimum Jaro-Winkler similarity accepted
// between the search input and the row actually returned by the site, as a
// sanity check against a stale or mismatched grid row.
const fuzzyNameThreshold = 0.55

const (
	staffSearchPath  = "/staff/search"
	staffSearchInput = "#staff-search"
	staffResultsRow  = "#staff-results tbody tr"
)

var staffResultsCells = []string{".col-id", ".col-name", ".col-email", ".col-team", ".col-mobile"}

// lookupStaff resolves callerPhone to a shift.Staff record via the
// staff-search page.
func (w *Workflow) lookupStaff(ctx context.Context, sess browser.Session, callerPhone string) (shift.Staff, error) {
	if err := sess.Navigate(ctx, w.site.BaseURL+staffSearchPath); err != nil {
		return shift.Staff{}, fmt.Errorf("%w: navigate to staff search: %w", ErrNavigationTimeout, err)
	}
	if err := sess.Fill(ctx, staffSearchInput, callerPhone); err != nil {
		return shift.Staff{}, fmt.Errorf("%w: fill staff search: %w", ErrNavigationTimeout, err)
	}
	if err := sess.WaitVisible(ctx, staffResultsRow); err != nil {
		return shift.Staff{}, fmt.Errorf("%w: %w", ErrStaffNotFound, err)
	}

	rows, err := sess.ReadRows(ctx, staffResultsRow, staffResultsCells)
	if err != nil {
		return shift.Staff{}, fmt.Errorf("%w: read staff results: %w", ErrStaffNotFound, err)
	}
	if len(rows) == 0 || len(rows[0]) < len(staffResultsCells) {
		return shift.Staff{}, fmt.Errorf("%w: no results for %q", ErrStaffNotFound, callerPhone)
	}

	row := rows[0]
	staff := shift.Staff{
		ID:       strings.TrimSpace(row[0]),
		FullName: stripTitle(strings.TrimSpace(row[1])),
		Email:    strings.TrimSpace(row[2]),
		Team:     strings.TrimSpace(row[3]),
		Mobile:   strings.TrimSpace(row[4]),
	}
	if staff.ID == "" || staff.FullName == "" {
		return shift.Staff{}, fmt.Errorf("%w: incomplete row for %q", ErrStaffNotFound, callerPhone)
	}

	if score := matchr.JaroWinkler(callerPhone, staff.Mobile, false); staff.Mobile != "" && score < fuzzyNameThreshold {
		w.logger.Warn("shiftworkflow: staff mobile does not closely match caller phone",
			"caller_phone", callerPhone, "staff_mobile", staff.Mobile, "score", score)
	}

	return staff, nil
}

// stripTitle removes a leading "<Title>. " prefix, for Title in staffTitles,
// from name.
func stripTitle(name string) string {
	for _, title := range staffTitles {
		prefix := title + "."
		if strings.HasPrefix(name, prefix) {
			rest := strings.TrimSpace(name[len(prefix):])
			if rest != "" {
				return rest
			}
		}
	}
	return name
}
