package periods

import (
	"errors"
	"time"
)

// Type enumerates period granularities.
type Type string

const (
	TypeMonthly   Type = "MONTHLY"
	TypeQuarterly Type = "QUARTERLY"
	TypeAnnual    Type = "ANNUAL"
)

// Status enumerates valid period states.
type Status string

const (
	StatusOpen   Status = "OPEN"
	StatusClosed Status = "CLOSED"
)

// Period represents a fiscal period window for a quarry.
// (quarry, fiscal year, period number) is unique.
type Period struct {
	ID         int64
	QuarryID   int64
	Name       string
	StartDate  time.Time
	EndDate    time.Time
	FiscalYear int
	PeriodNo   int
	Type       Type
	Status     Status
	ClosedBy   *int64
	ClosedAt   *time.Time
	Notes      string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Closed reports whether the period locks its date range.
func (p Period) Closed() bool {
	return p.Status == StatusClosed
}

// Contains reports whether the date falls inside the period window.
func (p Period) Contains(date time.Time) bool {
	return !date.Before(p.StartDate) && !date.After(p.EndDate)
}

var (
	// ErrNotFound indicates missing period.
	ErrNotFound = errors.New("periods: period not found")
	// ErrPeriodClosed indicates the target date falls in a closed period.
	ErrPeriodClosed = errors.New("periods: period is closed")
	// ErrAlreadyClosed indicates a close of an already-closed period.
	ErrAlreadyClosed = errors.New("periods: period already closed")
	// ErrNotClosed indicates a reopen of an open period.
	ErrNotClosed = errors.New("periods: period is not closed")
	// ErrPeriodOverlap indicates the range conflicts with an existing period.
	ErrPeriodOverlap = errors.New("periods: period overlaps existing range")
	// ErrDuplicatePeriod indicates (quarry, fiscal year, number) already exists.
	ErrDuplicatePeriod = errors.New("periods: duplicate fiscal year and number")
	// ErrUnpostedEntriesInPeriod blocks close while unposted entries remain.
	ErrUnpostedEntriesInPeriod = errors.New("periods: unposted journal entries in period")
)
