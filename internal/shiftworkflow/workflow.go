// Package shiftworkflow implements the ordered composition of login,
// staff-by-phone lookup, date reasoning, date-filtered shift search, and
// cancellation submission described as the Shift Workflow.
package shiftworkflow

import (
	"context"
	"log/slog"
	"time"

	"github.com/solpercival/thoth/internal/config"
	"github.com/solpercival/thoth/internal/conversation"
	"github.com/solpercival/thoth/internal/datereasoner"
	"github.com/solpercival/thoth/pkg/provider/browser"
	"github.com/solpercival/thoth/pkg/provider/mailer"
)

const (
	defaultLoginTimeout = 20 * time.Second
	defaultSendTimeout  = 15 * time.Second
)

// Workflow is the browser- and mail-backed implementation of
// conversation.Workflow. A fresh browser.Session is opened and closed for
// the duration of each Lookup call; it is never retained across calls.
type Workflow struct {
	browsers browser.Provider
	mailer   mailer.Mailer
	reasoner *datereasoner.Reasoner

	site config.SiteConfig
	mail config.MailConfig

	logger *slog.Logger
}

// New constructs a Workflow. reasoner is owned exclusively by this Workflow;
// its Chat history must never be shared with the Conversation Core's.
func New(browsers browser.Provider, mail mailer.Mailer, reasoner *datereasoner.Reasoner, site config.SiteConfig, mailCfg config.MailConfig, logger *slog.Logger) *Workflow {
	if logger == nil {
		logger = slog.Default()
	}
	return &Workflow{
		browsers: browsers,
		mailer:   mail,
		reasoner: reasoner,
		site:     site,
		mail:     mailCfg,
		logger:   logger,
	}
}

// Lookup implements conversation.Workflow. It authenticates, resolves
// callerPhone to a staff record, reasons about the date range in utterance,
// and returns the server- and locally-filtered shifts in that range.
func (w *Workflow) Lookup(ctx context.Context, callerPhone, utterance string) (conversation.LookupResult, error) {
	sess, err := w.authenticate(ctx)
	if err != nil {
		return conversation.LookupResult{}, err
	}
	defer sess.Close()

	staff, err := w.lookupStaff(ctx, sess, callerPhone)
	if err != nil {
		return conversation.LookupResult{}, err
	}

	result := w.reasoner.Infer(ctx, utterance)

	allShifts, err := w.searchShifts(ctx, sess, staff.FullName, result.Interval)
	if err != nil {
		return conversation.LookupResult{}, err
	}

	return conversation.LookupResult{
		Staff:          staff,
		Interval:       result.Interval,
		AllShifts:      allShifts,
		FilteredShifts: filterByInterval(allShifts, result.Interval),
		Intent:         result.Intent,
	}, nil
}

func (w *Workflow) sendTimeout() time.Duration {
	if w.mail.SendTimeout > 0 {
		return w.mail.SendTimeout
	}
	return defaultSendTimeout
}

// Compile-time assertion: Workflow satisfies conversation.Workflow.
var _ conversation.Workflow = (*Workflow)(nil)
