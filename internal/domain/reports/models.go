package reports

import (
	"time"

	"worktrack/internal/domain/pay"
)

// PayrollReport is the date-ranged payroll rollup: one block per
// technician, each with its per-job drilldown, plus grand totals that are
// the exact sum of the per-technician subtotals.
type PayrollReport struct {
	FromDate    time.Time         `json:"fromDate"`
	ToDate      time.Time         `json:"toDate"`
	Technicians []TechnicianBlock `json:"technicians"`
	GrandTotals pay.Totals        `json:"grandTotals"`
	Warnings    []pay.Warning     `json:"warnings,omitempty"`
}

type TechnicianBlock struct {
	TechID    int64            `json:"techId"`
	TechName  string           `json:"techName"`
	Jobs      []pay.JobPayLine `json:"jobs"`
	Subtotals pay.Totals       `json:"subtotals"`
}

// BillingLine is one job's row in the billing report.
type BillingLine struct {
	JobID         int64      `json:"jobId"`
	TicketNumber  string     `json:"ticketNumber,omitempty"`
	Description   string     `json:"description"`
	ClientName    string     `json:"clientName,omitempty"`
	JobDate       *time.Time `json:"jobDate,omitempty"`
	Status        string     `json:"jobStatus"`
	BillingAmount *float64   `json:"billingAmount"`
	Expenses      float64    `json:"expenses"`
	Commissions   float64    `json:"commissions"`
	JobNet        float64    `json:"jobNet"`
	TotalHours    float64    `json:"totalHours"`
	TechPay       float64    `json:"techPay"`
	Margin        float64    `json:"margin"`
}

type BillingReport struct {
	FromDate time.Time     `json:"fromDate"`
	ToDate   time.Time     `json:"toDate"`
	Jobs     []BillingLine `json:"jobs"`
	Totals   BillingTotals `json:"totals"`
	Warnings []pay.Warning `json:"warnings,omitempty"`
}

type BillingTotals struct {
	TotalBilling float64 `json:"totalBilling"`
	TotalNet     float64 `json:"totalNet"`
	TotalHours   float64 `json:"totalHours"`
	TotalTechPay float64 `json:"totalTechPay"`
	TotalMargin  float64 `json:"totalMargin"`
}

// HoursRow is the raw grain for the hours report: one technician's hours
// against one job on one day.
type HoursRow struct {
	TechID     int64     `json:"techId"`
	TechName   string    `json:"techName"`
	JobID      int64     `json:"jobId"`
	DateWorked time.Time `json:"dateWorked"`
	Hours      float64   `json:"hours"`
}

type DayHours struct {
	Date  time.Time `json:"date"`
	Hours float64   `json:"hours"`
}

type WeekHours struct {
	WeekStart time.Time `json:"weekStart"`
	Hours     float64   `json:"hours"`
}

type JobHours struct {
	JobID int64   `json:"jobId"`
	Hours float64 `json:"hours"`
}

type TechnicianHours struct {
	TechID     int64       `json:"techId"`
	TechName   string      `json:"techName"`
	ByDay      []DayHours  `json:"byDay"`
	ByWeek     []WeekHours `json:"byWeek"`
	ByJob      []JobHours  `json:"byJob"`
	TotalHours float64     `json:"totalHours"`
}

type HoursReport struct {
	FromDate    time.Time         `json:"fromDate"`
	ToDate      time.Time         `json:"toDate"`
	Technicians []TechnicianHours `json:"technicians"`
	TotalHours  float64           `json:"totalHours"`
}

// PlatformSummaryRow aggregates jobs per source platform.
type PlatformSummaryRow struct {
	PlatformID   int64   `json:"platformId"`
	PlatformName string  `json:"platformName"`
	JobCount     int     `json:"jobCount"`
	TotalBilling float64 `json:"totalBilling"`
	TotalHours   float64 `json:"totalHours"`
}
