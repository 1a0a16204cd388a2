package journal

import (
	"errors"
	"math"
	"time"
)

// balanceTolerance is the reconciliation epsilon for debit/credit totals.
const balanceTolerance = 0.01

// Kind separates generated entries from hand-written ones.
type Kind string

const (
	KindAuto   Kind = "AUTO"
	KindManual Kind = "MANUAL"
)

// SourceKind tags the operational record an auto entry derives from.
type SourceKind string

const (
	SourceNone      SourceKind = "NONE"
	SourceSale      SourceKind = "SALE"
	SourceExpense   SourceKind = "EXPENSE"
	SourceBanking   SourceKind = "BANKING"
	SourceFuelUsage SourceKind = "FUEL_USAGE"
)

// SourceRef is a tagged reference back to the triggering operational record.
// The zero value means no source (manual entries).
type SourceRef struct {
	Kind SourceKind
	ID   int64
}

// None reports whether the reference is empty.
func (r SourceRef) None() bool {
	return r.Kind == "" || r.Kind == SourceNone || r.ID == 0
}

// Line stores a debit or credit amount for one account. Exactly one side is
// non-zero per line.
type Line struct {
	ID        int64
	EntryID   int64
	AccountID int64
	LineNo    int
	Debit     float64
	Credit    float64
	Memo      string
}

// Entry captures a journal entry with posting metadata. Totals are derived
// from lines on read, never persisted.
type Entry struct {
	ID          int64
	QuarryID    int64
	Date        time.Time
	Reference   string
	Description string
	Kind        Kind
	Source      SourceRef
	Posted      bool
	PostedBy    *int64
	PostedAt    *time.Time
	FiscalYear  int
	PeriodNo    int
	CreatedBy   int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Lines       []Line
}

// TotalDebit sums the debit side of all lines.
func (e Entry) TotalDebit() float64 {
	var total float64
	for _, line := range e.Lines {
		total += line.Debit
	}
	return total
}

// TotalCredit sums the credit side of all lines.
func (e Entry) TotalCredit() float64 {
	var total float64
	for _, line := range e.Lines {
		total += line.Credit
	}
	return total
}

// IsBalanced reports whether total debits equal total credits within tolerance.
func (e Entry) IsBalanced() bool {
	return math.Abs(e.TotalDebit()-e.TotalCredit()) < balanceTolerance
}

var (
	// ErrNotFound indicates missing entry.
	ErrNotFound = errors.New("journal: entry not found")
	// ErrUnbalanced indicates debit != credit.
	ErrUnbalanced = errors.New("journal: entry lines must balance")
	// ErrTooFewLines indicates less than two lines.
	ErrTooFewLines = errors.New("journal: entry requires at least two lines")
	// ErrAlreadyPosted indicates posting a posted entry.
	ErrAlreadyPosted = errors.New("journal: entry already posted")
	// ErrNotPosted indicates unposting an unposted entry.
	ErrNotPosted = errors.New("journal: entry is not posted")
	// ErrPostedImmutable blocks mutation of a posted entry.
	ErrPostedImmutable = errors.New("journal: posted entry is immutable")
	// ErrSourceAlreadyLinked indicates the source already has an entry.
	ErrSourceAlreadyLinked = errors.New("journal: source already linked to an entry")
	// ErrNoAccountMapping indicates generation could not resolve an account.
	ErrNoAccountMapping = errors.New("journal: no account mapping for source")
	// ErrUnknownSource indicates an unrecognised source reference.
	ErrUnknownSource = errors.New("journal: unknown source kind")
)
