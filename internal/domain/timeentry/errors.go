package timeentry

import "errors"

var (
	ErrNotFound          = errors.New("time entry not found")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrMissingAssignment = errors.New("technician must be assigned before submission")
	ErrMissingHours      = errors.New("hours worked required before submission")
	ErrPermissionDenied  = errors.New("permission denied")
	ErrReasonRequired    = errors.New("rejection reason required")
	ErrNotDraft          = errors.New("only draft entries can be modified")
)
