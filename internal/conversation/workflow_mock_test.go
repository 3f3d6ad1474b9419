package conversation

import (
	"context"

	"github.com/solpercival/thoth/internal/shift"
)

// stubWorkflow is a minimal in-package test double for Workflow.
type stubWorkflow struct {
	lookupResult LookupResult
	lookupErr    error
	cancelErr    error

	lookupCalls []string
	cancelCalls int
}

func (s *stubWorkflow) Lookup(_ context.Context, _, utterance string) (LookupResult, error) {
	s.lookupCalls = append(s.lookupCalls, utterance)
	return s.lookupResult, s.lookupErr
}

func (s *stubWorkflow) Cancel(_ context.Context, _ shift.Staff, _ shift.Record, _ string) error {
	s.cancelCalls++
	return s.cancelErr
}
