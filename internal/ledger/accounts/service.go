package accounts

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// maxAncestorDepth bounds the parent walk during cycle detection.
const maxAncestorDepth = 32

// CreateInput groups fields for a new account.
type CreateInput struct {
	QuarryID      int64
	Code          string
	Name          string
	Category      Category
	Type          Type
	ParentID      *int64
	NormalBalance NormalBalance
	DisplayOrder  int
}

// Validate checks structural requirements before persistence.
func (in CreateInput) Validate() error {
	if in.QuarryID == 0 {
		return errors.New("accounts: quarry id required")
	}
	if strings.TrimSpace(in.Code) == "" {
		return errors.New("accounts: code required")
	}
	if strings.TrimSpace(in.Name) == "" {
		return errors.New("accounts: name required")
	}
	switch in.Category {
	case CategoryAsset, CategoryLiability, CategoryEquity, CategoryRevenue, CategoryCostOfSales, CategoryExpense:
	default:
		return fmt.Errorf("accounts: unknown category %q", in.Category)
	}
	if in.NormalBalance != NormalDebit && in.NormalBalance != NormalCredit {
		return fmt.Errorf("accounts: unknown normal balance %q", in.NormalBalance)
	}
	return nil
}

// UpdateInput groups mutable fields of an existing account.
type UpdateInput struct {
	ID           int64
	Name         string
	ParentID     *int64
	DisplayOrder int
	IsActive     bool
}

// Service owns the chart of accounts for a quarry.
type Service struct {
	repo RepositoryPort
}

// NewService constructs the accounts service.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// Create inserts an account after checking code uniqueness and parent sanity.
func (s *Service) Create(ctx context.Context, in CreateInput) (Account, error) {
	if err := in.Validate(); err != nil {
		return Account{}, err
	}
	if _, err := s.repo.GetByCode(ctx, in.QuarryID, in.Code); err == nil {
		return Account{}, ErrDuplicateCode
	} else if !errors.Is(err, ErrNotFound) {
		return Account{}, err
	}
	if in.ParentID != nil {
		if err := s.checkParent(ctx, in.QuarryID, 0, *in.ParentID); err != nil {
			return Account{}, err
		}
	}
	return s.repo.Insert(ctx, Account{
		QuarryID:      in.QuarryID,
		Code:          in.Code,
		Name:          in.Name,
		Category:      in.Category,
		Type:          in.Type,
		ParentID:      in.ParentID,
		NormalBalance: in.NormalBalance,
		DisplayOrder:  in.DisplayOrder,
	})
}

// Update mutates name, parent, order, and active flag. System accounts keep
// their category and parent and cannot be deactivated.
func (s *Service) Update(ctx context.Context, in UpdateInput) (Account, error) {
	current, err := s.repo.Get(ctx, in.ID)
	if err != nil {
		return Account{}, err
	}
	if strings.TrimSpace(in.Name) == "" {
		return Account{}, errors.New("accounts: name required")
	}
	if current.IsSystem && !sameParent(current.ParentID, in.ParentID) {
		return Account{}, ErrSystemAccount
	}
	// Deactivating a system account would break journal auto-generation,
	// which resolves its codes through the active chart.
	if current.IsSystem && !in.IsActive {
		return Account{}, ErrSystemAccount
	}
	if in.ParentID != nil {
		if err := s.checkParent(ctx, current.QuarryID, current.ID, *in.ParentID); err != nil {
			return Account{}, err
		}
	}
	current.Name = in.Name
	current.ParentID = in.ParentID
	current.DisplayOrder = in.DisplayOrder
	current.IsActive = in.IsActive
	if err := s.repo.Update(ctx, current); err != nil {
		return Account{}, err
	}
	return current, nil
}

// Delete removes an account unless it is a system account, has children,
// or is referenced by journal lines.
func (s *Service) Delete(ctx context.Context, id int64) error {
	account, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if account.IsSystem {
		return ErrSystemAccount
	}
	children, err := s.repo.CountChildren(ctx, id)
	if err != nil {
		return err
	}
	if children > 0 {
		return ErrHasChildren
	}
	lines, err := s.repo.CountJournalLines(ctx, id)
	if err != nil {
		return err
	}
	if lines > 0 {
		return ErrAccountReferenced
	}
	return s.repo.Delete(ctx, id)
}

// Get loads one account.
func (s *Service) Get(ctx context.Context, id int64) (Account, error) {
	return s.repo.Get(ctx, id)
}

// GetByCode resolves an account by its ledger code.
func (s *Service) GetByCode(ctx context.Context, quarryID int64, code string) (Account, error) {
	return s.repo.GetByCode(ctx, quarryID, code)
}

// List returns the quarry's active chart ordered for display.
func (s *Service) List(ctx context.Context, quarryID int64) ([]Account, error) {
	return s.repo.List(ctx, quarryID)
}

// checkParent validates the parent exists in the same quarry and that
// linking would not close a cycle. The ancestor walk is depth limited so a
// corrupted tree cannot loop forever.
func (s *Service) checkParent(ctx context.Context, quarryID, selfID, parentID int64) error {
	if selfID != 0 && parentID == selfID {
		return ErrParentCycle
	}
	cursor := parentID
	for depth := 0; depth < maxAncestorDepth; depth++ {
		parent, err := s.repo.Get(ctx, cursor)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return ErrParentNotFound
			}
			return err
		}
		if parent.QuarryID != quarryID {
			return ErrParentNotFound
		}
		if parent.ParentID == nil {
			return nil
		}
		cursor = *parent.ParentID
		if selfID != 0 && cursor == selfID {
			return ErrParentCycle
		}
	}
	return ErrParentCycle
}

func sameParent(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
