package pay

// TechPoolShare is the company/technician split applied to job net. The
// business rule is a flat half today; it is named here so a future
// per-company setting only has to thread a value through Inputs.
const TechPoolShare = 0.5

const (
	WarnUnassignedEntry = "unassigned_entry"
	WarnRateNotFound    = "rate_not_found"
	WarnIncompleteJob   = "incomplete_job"
)
