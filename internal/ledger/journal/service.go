package journal

import (
	"context"
	"time"

	"github.com/mzeesam/QDeskPro-sub003/internal/shared"
)

// RepositoryPort abstracts transactional repository behaviour.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// AuditPort records ledger events for compliance.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// PeriodGuard blocks journal mutations dated inside closed periods.
type PeriodGuard interface {
	EnsureOpenForDate(ctx context.Context, quarryID int64, date time.Time) error
}

// Service coordinates creating, posting, unposting, and deleting entries.
type Service struct {
	repo     RepositoryPort
	accounts AccountResolver
	sources  SourceReader
	audit    AuditPort
	guard    PeriodGuard
	now      func() time.Time
}

// NewService constructs the journal service.
func NewService(repo RepositoryPort, accounts AccountResolver, sources SourceReader, audit AuditPort, guard PeriodGuard) *Service {
	return &Service{repo: repo, accounts: accounts, sources: sources, audit: audit, guard: guard, now: time.Now}
}

// WithNow overrides the clock for testing.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// CreateManual validates and persists a hand-written entry in the unposted state.
func (s *Service) CreateManual(ctx context.Context, actorID int64, input CreateInput) (Entry, error) {
	if err := input.Validate(); err != nil {
		return Entry{}, err
	}
	if s.guard != nil {
		if err := s.guard.EnsureOpenForDate(ctx, input.QuarryID, input.Date); err != nil {
			return Entry{}, err
		}
	}
	entry := Entry{
		QuarryID:    input.QuarryID,
		Date:        input.Date,
		Description: input.Description,
		Kind:        KindManual,
		FiscalYear:  input.Date.Year(),
		PeriodNo:    int(input.Date.Month()),
		CreatedBy:   actorID,
	}
	for i, line := range input.Lines {
		entry.Lines = append(entry.Lines, Line{
			AccountID: line.AccountID,
			LineNo:    i + 1,
			Debit:     line.Debit,
			Credit:    line.Credit,
			Memo:      line.Memo,
		})
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		inserted, err := tx.InsertEntry(ctx, entry)
		if err != nil {
			return err
		}
		if err := tx.InsertLines(ctx, inserted.ID, entry.Lines); err != nil {
			return err
		}
		inserted.Lines = entry.Lines
		entry = inserted
		return nil
	})
	if err != nil {
		return Entry{}, err
	}
	s.recordAudit(ctx, actorID, entry, "journal.create")
	return entry, nil
}

// Post marks an unposted entry as posted, making it visible to reports.
func (s *Service) Post(ctx context.Context, actorID, quarryID, entryID int64) (Entry, error) {
	var posted Entry
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		entry, err := tx.GetEntry(ctx, quarryID, entryID)
		if err != nil {
			return err
		}
		if entry.Posted {
			return ErrAlreadyPosted
		}
		if len(entry.Lines) < 2 {
			return ErrTooFewLines
		}
		if !entry.IsBalanced() {
			return ErrUnbalanced
		}
		if s.guard != nil {
			if err := s.guard.EnsureOpenForDate(ctx, entry.QuarryID, entry.Date); err != nil {
				return err
			}
		}
		at := s.now().UTC()
		if err := tx.SetPosted(ctx, entry.ID, actorID, at); err != nil {
			return err
		}
		entry.Posted = true
		entry.PostedBy = &actorID
		entry.PostedAt = &at
		posted = entry
		return nil
	})
	if err != nil {
		return Entry{}, err
	}
	s.recordAudit(ctx, actorID, posted, "journal.post")
	return posted, nil
}

// Unpost reverts a posted entry to the editable state. Blocked when the
// entry's date falls inside a closed period.
func (s *Service) Unpost(ctx context.Context, actorID, quarryID, entryID int64) (Entry, error) {
	var reverted Entry
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		entry, err := tx.GetEntry(ctx, quarryID, entryID)
		if err != nil {
			return err
		}
		if !entry.Posted {
			return ErrNotPosted
		}
		if s.guard != nil {
			if err := s.guard.EnsureOpenForDate(ctx, entry.QuarryID, entry.Date); err != nil {
				return err
			}
		}
		if err := tx.ClearPosted(ctx, entry.ID); err != nil {
			return err
		}
		entry.Posted = false
		entry.PostedBy = nil
		entry.PostedAt = nil
		reverted = entry
		return nil
	})
	if err != nil {
		return Entry{}, err
	}
	s.recordAudit(ctx, actorID, reverted, "journal.unpost")
	return reverted, nil
}

// Delete removes an unposted entry and its lines. Posted entries must be
// unposted first.
func (s *Service) Delete(ctx context.Context, actorID, quarryID, entryID int64) error {
	var removed Entry
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		entry, err := tx.GetEntry(ctx, quarryID, entryID)
		if err != nil {
			return err
		}
		if entry.Posted {
			return ErrPostedImmutable
		}
		removed = entry
		return tx.DeleteEntry(ctx, entry.ID)
	})
	if err != nil {
		return err
	}
	s.recordAudit(ctx, actorID, removed, "journal.delete")
	return nil
}

// Get loads one entry with lines.
func (s *Service) Get(ctx context.Context, quarryID, entryID int64) (Entry, error) {
	var entry Entry
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		found, err := tx.GetEntry(ctx, quarryID, entryID)
		if err != nil {
			return err
		}
		entry = found
		return nil
	})
	return entry, err
}

// List returns entries dated inside the range, oldest first.
func (s *Service) List(ctx context.Context, quarryID int64, from, to time.Time) ([]Entry, error) {
	var entries []Entry
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		found, err := tx.ListEntries(ctx, quarryID, from, to)
		if err != nil {
			return err
		}
		entries = found
		return nil
	})
	return entries, err
}

func (s *Service) recordAudit(ctx context.Context, actorID int64, entry Entry, action string) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		QuarryID: entry.QuarryID,
		Action:   action,
		Entity:   "journal_entry",
		EntityID: entry.ID,
		Meta: map[string]any{
			"reference": entry.Reference,
			"date":      entry.Date.Format("2006-01-02"),
			"kind":      string(entry.Kind),
		},
		At: s.now().UTC(),
	})
}
