package timeentry

import "time"

// Entry is one technician work record against a job. TechID 0 means the
// entry came in unassigned (import path) and cannot leave draft until a
// technician is set.
type Entry struct {
	ID               int64      `json:"entryId"`
	JobID            int64      `json:"jobId"`
	TechID           int64      `json:"techId,omitempty"`
	PeriodID         int64      `json:"periodId,omitempty"`
	DateWorked       time.Time  `json:"dateWorked"`
	TimeIn           string     `json:"timeIn,omitempty"`
	TimeOut          string     `json:"timeOut,omitempty"`
	HoursWorked      *float64   `json:"hoursWorked"`
	Mileage          float64    `json:"mileage"`
	PerDiem          float64    `json:"perDiem"`
	PersonalExpenses float64    `json:"personalExpenses"`
	Status           string     `json:"status"`
	Notes            string     `json:"notes,omitempty"`
	RejectionReason  string     `json:"rejectionReason,omitempty"`
	VerifiedBy       int64      `json:"verifiedBy,omitempty"`
	VerifiedAt       *time.Time `json:"verifiedAt,omitempty"`
	CreatedBy        int64      `json:"createdBy,omitempty"`
	UpdatedBy        int64      `json:"updatedBy,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
}

func (e Entry) Assigned() bool {
	return e.TechID != 0
}

func (e Entry) Hours() float64 {
	if e.HoursWorked == nil {
		return 0
	}
	return *e.HoursWorked
}

type Filter struct {
	TechID     int64
	JobID      int64
	PeriodID   int64
	Status     string
	Unassigned bool
	FromDate   *time.Time
	ToDate     *time.Time
}

// BulkOutcome reports per-entry results of a bulk transition. A failed
// entry never blocks the rest of the batch.
type BulkOutcome struct {
	Succeeded []int64     `json:"succeeded"`
	Errors    []BulkError `json:"errors"`
}

type BulkError struct {
	EntryID int64  `json:"entryId"`
	Reason  string `json:"reason"`
}
