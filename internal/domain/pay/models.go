package pay

import (
	"time"

	"worktrack/internal/domain/rates"
)

// JobFinancials is the slice of a job the engine needs.
type JobFinancials struct {
	JobID         int64    `json:"jobId"`
	TicketNumber  string   `json:"ticketNumber,omitempty"`
	Description   string   `json:"description,omitempty"`
	BillingAmount *float64 `json:"billingAmount"`
	Expenses      float64  `json:"expenses"`
	Commissions   float64  `json:"commissions"`
	Cancelled     bool     `json:"-"`
}

// EntryInput is one payable time entry as the engine sees it. TechID 0
// marks an unassigned entry, which is excluded with a warning.
type EntryInput struct {
	EntryID          int64
	TechID           int64
	DateWorked       time.Time
	Hours            float64
	Mileage          float64
	PerDiem          float64
	PersonalExpenses float64
}

// Inputs is the full snapshot a calculation runs over. The engine never
// reaches outside it, which is what makes CalculateJobPay reproducible.
type Inputs struct {
	Job         JobFinancials
	Entries     []EntryInput
	MinRates    map[int64]float64
	TechNames   map[int64]string
	RateHistory rates.History
}

type Warning struct {
	Code    string `json:"code"`
	EntryID int64  `json:"entryId,omitempty"`
	TechID  int64  `json:"techId,omitempty"`
	Message string `json:"message"`
}

// TechPay is the per-(job, technician) result row. All currency fields
// are rounded to cents; ProfitShare is informational and not part of
// TotalPay.
type TechPay struct {
	TechID           int64   `json:"techId"`
	TechName         string  `json:"techName"`
	Hours            float64 `json:"hours"`
	EffectiveRate    float64 `json:"effectiveRate"`
	BasePay          float64 `json:"basePay"`
	Mileage          float64 `json:"mileage"`
	MileagePay       float64 `json:"mileagePay"`
	PerDiem          float64 `json:"perDiem"`
	PersonalExpenses float64 `json:"personalExpenses"`
	ProfitShare      float64 `json:"profitShare"`
	TotalPay         float64 `json:"totalPay"`
	UsingMinimum     bool    `json:"usingMinimum"`
	EntryIDs         []int64 `json:"entryIds"`
}

type Totals struct {
	TotalHours            float64 `json:"totalHours"`
	TotalBasePay          float64 `json:"totalBasePay"`
	TotalMileagePay       float64 `json:"totalMileagePay"`
	TotalPerDiem          float64 `json:"totalPerDiem"`
	TotalPersonalExpenses float64 `json:"totalPersonalExpenses"`
	TotalProfitShare      float64 `json:"totalProfitShare"`
	TotalPay              float64 `json:"totalPay"`
}

// Breakdown is the full result for one job.
type Breakdown struct {
	JobID       int64     `json:"jobId"`
	JobNet      float64   `json:"jobNet"`
	TechPool    float64   `json:"techPool"`
	Technicians []TechPay `json:"technicians"`
	Totals      Totals    `json:"totals"`
	Warnings    []Warning `json:"warnings,omitempty"`
}

// JobPayLine is one job's slice of a technician's pay summary.
type JobPayLine struct {
	JobID        int64     `json:"jobId"`
	TicketNumber string    `json:"ticketNumber,omitempty"`
	Description  string    `json:"description,omitempty"`
	FirstWorked  time.Time `json:"firstWorked"`
	LastWorked   time.Time `json:"lastWorked"`
	Pay          TechPay   `json:"pay"`
}

// TechSummary is a technician's date-ranged rollup across jobs.
type TechSummary struct {
	TechID   int64        `json:"techId"`
	TechName string       `json:"techName"`
	Jobs     []JobPayLine `json:"jobs"`
	Totals   Totals       `json:"totals"`
	Warnings []Warning    `json:"warnings,omitempty"`
}
