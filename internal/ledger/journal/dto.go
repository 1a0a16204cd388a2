package journal

import (
	"fmt"
	"math"
	"time"
)

// LineInput is one debit or credit leg submitted by a caller.
type LineInput struct {
	AccountID int64   `json:"account_id" validate:"required,gt=0"`
	Debit     float64 `json:"debit" validate:"gte=0"`
	Credit    float64 `json:"credit" validate:"gte=0"`
	Memo      string  `json:"memo" validate:"max=255"`
}

// CreateInput carries a manual journal entry.
type CreateInput struct {
	QuarryID    int64       `json:"quarry_id" validate:"required,gt=0"`
	Date        time.Time   `json:"-"`
	Description string      `json:"description" validate:"required,max=255"`
	Lines       []LineInput `json:"lines" validate:"required,min=2,dive"`
}

// Validate enforces line shape and the balance rule before any persistence.
func (in CreateInput) Validate() error {
	if len(in.Lines) < 2 {
		return ErrTooFewLines
	}
	var totalDebit, totalCredit float64
	for i, line := range in.Lines {
		if line.AccountID <= 0 {
			return fmt.Errorf("journal: line %d has no account", i+1)
		}
		if line.Debit < 0 || line.Credit < 0 {
			return fmt.Errorf("journal: line %d has a negative amount", i+1)
		}
		if (line.Debit > 0) == (line.Credit > 0) {
			return fmt.Errorf("journal: line %d must set exactly one of debit or credit", i+1)
		}
		totalDebit += line.Debit
		totalCredit += line.Credit
	}
	if math.Abs(totalDebit-totalCredit) >= balanceTolerance {
		return fmt.Errorf("%w: debit %.2f credit %.2f", ErrUnbalanced, totalDebit, totalCredit)
	}
	return nil
}
