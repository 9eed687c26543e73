package core

import "time"

const (
	JobStatusPending    = "pending"
	JobStatusAssigned   = "assigned"
	JobStatusInProgress = "in_progress"
	JobStatusCompleted  = "completed"
	JobStatusCancelled  = "cancelled"

	BillingFlatRate = "flat_rate"
	BillingHourly   = "hourly"
	BillingPerTask  = "per_task"

	TechStatusActive   = "active"
	TechStatusInactive = "inactive"

	PeriodStatusOpen     = "open"
	PeriodStatusClosed   = "closed"
	PeriodStatusArchived = "archived"
)

type Technician struct {
	ID         int64      `json:"techId"`
	Name       string     `json:"name"`
	Email      string     `json:"email,omitempty"`
	Phone      string     `json:"phone,omitempty"`
	HourlyRate float64    `json:"hourlyRate"`
	Status     string     `json:"status"`
	HireDate   *time.Time `json:"hireDate,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
}

type Platform struct {
	ID          int64  `json:"platformId"`
	Name        string `json:"name"`
	Code        string `json:"code"`
	Description string `json:"description,omitempty"`
	Status      string `json:"status"`
}

type Job struct {
	ID              int64      `json:"jobId"`
	PlatformID      int64      `json:"platformId"`
	PlatformJobCode string     `json:"platformJobCode,omitempty"`
	TicketNumber    string     `json:"ticketNumber,omitempty"`
	Description     string     `json:"description"`
	ClientName      string     `json:"clientName,omitempty"`
	Location        string     `json:"location,omitempty"`
	BillingType     string     `json:"billingType"`
	BillingAmount   *float64   `json:"billingAmount"`
	EstimatedHours  *float64   `json:"estimatedHours,omitempty"`
	Expenses        float64    `json:"expenses"`
	Commissions     float64    `json:"commissions"`
	Status          string     `json:"jobStatus"`
	JobDate         *time.Time `json:"jobDate,omitempty"`
	ExternalURL     string     `json:"externalUrl,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
}

type PayPeriod struct {
	ID        int64      `json:"periodId"`
	StartDate time.Time  `json:"startDate"`
	EndDate   time.Time  `json:"endDate"`
	Name      string     `json:"periodName,omitempty"`
	Status    string     `json:"status"`
	ClosedAt  *time.Time `json:"closedAt,omitempty"`
}

type User struct {
	ID           int64     `json:"userId"`
	TechID       int64     `json:"techId,omitempty"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	FullName     string    `json:"fullName,omitempty"`
	Role         string    `json:"role"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"createdAt"`
}

type JobFilter struct {
	PlatformID int64
	Status     string
	FromDate   *time.Time
	ToDate     *time.Time
}
