package periods

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mzeesam/QDeskPro-sub003/internal/shared"
)

// AuditPort records period lifecycle events.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// CreateInput captures validation rules for new periods.
type CreateInput struct {
	QuarryID   int64
	Name       string
	StartDate  time.Time
	EndDate    time.Time
	FiscalYear int
	PeriodNo   int
	Type       Type
}

// Validate ensures the create input is coherent.
func (in CreateInput) Validate() error {
	if in.QuarryID == 0 {
		return errors.New("periods: quarry id required")
	}
	if strings.TrimSpace(in.Name) == "" {
		return errors.New("periods: name required")
	}
	if in.StartDate.IsZero() || in.EndDate.IsZero() {
		return errors.New("periods: start and end date required")
	}
	if in.StartDate.After(in.EndDate) {
		return errors.New("periods: start date cannot be after end date")
	}
	if in.FiscalYear <= 0 || in.PeriodNo <= 0 {
		return errors.New("periods: fiscal year and period number required")
	}
	switch in.Type {
	case TypeMonthly, TypeQuarterly, TypeAnnual:
	default:
		return fmt.Errorf("periods: unknown type %q", in.Type)
	}
	return nil
}

// Service orchestrates the open/close/reopen lifecycle and gates journal
// mutation by date.
type Service struct {
	repo  RepositoryPort
	audit AuditPort
	now   func() time.Time
}

// NewService constructs a Service instance.
func NewService(repo RepositoryPort, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit, now: time.Now}
}

// WithNow overrides the clock for deterministic tests.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Create inserts a new open period after validating overlap.
func (s *Service) Create(ctx context.Context, in CreateInput) (Period, error) {
	if err := in.Validate(); err != nil {
		return Period{}, err
	}
	conflict, err := s.repo.RangeConflict(ctx, in.QuarryID, in.StartDate, in.EndDate)
	if err != nil {
		return Period{}, err
	}
	if conflict {
		return Period{}, ErrPeriodOverlap
	}
	return s.repo.Insert(ctx, Period{
		QuarryID:   in.QuarryID,
		Name:       in.Name,
		StartDate:  in.StartDate,
		EndDate:    in.EndDate,
		FiscalYear: in.FiscalYear,
		PeriodNo:   in.PeriodNo,
		Type:       in.Type,
		Status:     StatusOpen,
	})
}

// Close locks the period's date range against journal mutation. Every entry
// dated inside the range must already be posted.
func (s *Service) Close(ctx context.Context, id, actorID int64, notes string) (Period, error) {
	period, err := s.repo.Get(ctx, id)
	if err != nil {
		return Period{}, err
	}
	if period.Closed() {
		return Period{}, ErrAlreadyClosed
	}
	unposted, err := s.repo.CountUnpostedEntries(ctx, period.QuarryID, period.StartDate, period.EndDate)
	if err != nil {
		return Period{}, err
	}
	if unposted > 0 {
		return Period{}, fmt.Errorf("%w: %d remaining", ErrUnpostedEntriesInPeriod, unposted)
	}
	closedAt := s.now()
	if err := s.repo.SetClosed(ctx, id, actorID, closedAt, notes); err != nil {
		return Period{}, err
	}
	period.Status = StatusClosed
	period.ClosedBy = &actorID
	period.ClosedAt = &closedAt
	period.Notes = notes
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:  actorID,
			QuarryID: period.QuarryID,
			Action:   "period.close",
			Entity:   "accounting_period",
			EntityID: id,
			Meta:     map[string]any{"notes": notes},
			At:       closedAt,
		})
	}
	return period, nil
}

// Reopen unlocks a closed period. Lets posted figures be revised, so the
// API layer restricts it to elevated roles.
func (s *Service) Reopen(ctx context.Context, id, actorID int64) (Period, error) {
	period, err := s.repo.Get(ctx, id)
	if err != nil {
		return Period{}, err
	}
	if !period.Closed() {
		return Period{}, ErrNotClosed
	}
	if err := s.repo.SetOpen(ctx, id); err != nil {
		return Period{}, err
	}
	period.Status = StatusOpen
	period.ClosedBy = nil
	period.ClosedAt = nil
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:  actorID,
			QuarryID: period.QuarryID,
			Action:   "period.reopen",
			Entity:   "accounting_period",
			EntityID: id,
			At:       s.now(),
		})
	}
	return period, nil
}

// EnsureOpenForDate gates journal mutation: a date inside a closed period is
// rejected with ErrPeriodClosed. Dates covered by no period are allowed;
// period creation is lazy in the operational flow.
func (s *Service) EnsureOpenForDate(ctx context.Context, quarryID int64, date time.Time) error {
	period, err := s.repo.FindByDate(ctx, quarryID, date)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return err
	}
	if period.Closed() {
		return ErrPeriodClosed
	}
	return nil
}

// Get loads one period.
func (s *Service) Get(ctx context.Context, id int64) (Period, error) {
	return s.repo.Get(ctx, id)
}

// List returns periods for a quarry, optionally filtered by fiscal year.
func (s *Service) List(ctx context.Context, quarryID int64, fiscalYear int) ([]Period, error) {
	return s.repo.List(ctx, quarryID, fiscalYear)
}
