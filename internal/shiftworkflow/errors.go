package shiftworkflow

import "errors"

// Sentinel errors distinguishing the ways the Shift Workflow can fail.
var (
	ErrAuthFailed        = errors.New("shiftworkflow: authentication failed")
	ErrStaffNotFound     = errors.New("shiftworkflow: staff not found")
	ErrNavigationTimeout = errors.New("shiftworkflow: navigation timed out")
	ErrSubmissionFailed  = errors.New("shiftworkflow: cancellation submission failed")
)
