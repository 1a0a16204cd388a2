package dailyledger

import (
	"errors"
	"time"
)

// DaySummary is one quarry-day of the closing balance chain. Grain is
// (quarry, date); the chain is rebuilt, never edited in place.
type DaySummary struct {
	ID              int64     `json:"id"`
	QuarryID        int64     `json:"quarry_id"`
	Date            time.Time `json:"date"`
	SalesTotal      float64   `json:"sales_total"`
	ExpenseTotal    float64   `json:"expense_total"`
	CommissionTotal float64   `json:"commission_total"`
	FeeTotal        float64   `json:"fee_total"`
	FuelBalance     float64   `json:"fuel_balance"`
	BankedAmount    float64   `json:"banked_amount"`
	UnpaidAmount    float64   `json:"unpaid_amount"`
	OpeningBalance  float64   `json:"opening_balance"`
	ClosingBalance  float64   `json:"closing_balance"`
	Notes           string    `json:"notes"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// RecalcResult reports what a cascade run did.
type RecalcResult struct {
	QuarryID   int64      `json:"quarry_id"`
	From       time.Time  `json:"from"`
	To         time.Time  `json:"to"`
	Days       int        `json:"days"`
	Queued     bool       `json:"queued"`
	FailedDate *time.Time `json:"failed_date,omitempty"`
}

var (
	// ErrNotFound indicates no summary row for the requested day.
	ErrNotFound = errors.New("dailyledger: day summary not found")
	// ErrCascadeBusy indicates another cascade holds the tenant lock.
	ErrCascadeBusy = errors.New("dailyledger: cascade already running for quarry")
	// ErrFutureDate rejects recalculation starting after today.
	ErrFutureDate = errors.New("dailyledger: start date is in the future")
)
