package pay

import "errors"

var (
	// ErrIncompleteJobData means the job has no billing amount yet; the
	// job surfaces as "cannot calculate" rather than a zeroed row.
	ErrIncompleteJobData = errors.New("job billing amount required for pay calculation")
	ErrJobNotFound       = errors.New("job not found")
	ErrJobCancelled      = errors.New("cancelled jobs are excluded from pay calculation")
)
