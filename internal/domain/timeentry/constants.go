package timeentry

const (
	StatusDraft     = "draft"
	StatusSubmitted = "submitted"
	StatusVerified  = "verified"
	StatusBilled    = "billed"
	StatusPaid      = "paid"
)

// PayableStatuses are the statuses the pay engine and historical reports
// consider. Draft, submitted and rejected-back-to-draft entries never pay.
var PayableStatuses = []string{StatusVerified, StatusBilled, StatusPaid}

const (
	ActionCreated   = "time_entry.created"
	ActionUpdated   = "time_entry.updated"
	ActionDeleted   = "time_entry.deleted"
	ActionSubmitted = "time_entry.submitted"
	ActionVerified  = "time_entry.verified"
	ActionRejected  = "time_entry.rejected"
	ActionBilled    = "time_entry.billed"
	ActionPaid      = "time_entry.paid"
)
