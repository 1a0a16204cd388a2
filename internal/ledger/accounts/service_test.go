package accounts

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

type memoryAccountRepo struct {
	accounts map[int64]Account
	lines    map[int64]int
	nextID   int64
}

func newMemoryAccountRepo() *memoryAccountRepo {
	return &memoryAccountRepo{accounts: make(map[int64]Account), lines: make(map[int64]int)}
}

func (r *memoryAccountRepo) Insert(ctx context.Context, account Account) (Account, error) {
	for _, existing := range r.accounts {
		if existing.QuarryID == account.QuarryID && existing.Code == account.Code {
			return Account{}, ErrDuplicateCode
		}
	}
	r.nextID++
	account.ID = r.nextID
	account.IsActive = true
	r.accounts[account.ID] = account
	return account, nil
}

func (r *memoryAccountRepo) InsertMany(ctx context.Context, accounts []Account) error {
	for _, account := range accounts {
		if _, err := r.Insert(ctx, account); err != nil {
			return err
		}
	}
	return nil
}

func (r *memoryAccountRepo) Update(ctx context.Context, account Account) error {
	if _, ok := r.accounts[account.ID]; !ok {
		return ErrNotFound
	}
	r.accounts[account.ID] = account
	return nil
}

func (r *memoryAccountRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := r.accounts[id]; !ok {
		return ErrNotFound
	}
	delete(r.accounts, id)
	return nil
}

func (r *memoryAccountRepo) Get(ctx context.Context, id int64) (Account, error) {
	account, ok := r.accounts[id]
	if !ok {
		return Account{}, ErrNotFound
	}
	return account, nil
}

func (r *memoryAccountRepo) GetByCode(ctx context.Context, quarryID int64, code string) (Account, error) {
	for _, account := range r.accounts {
		if account.QuarryID == quarryID && account.Code == code {
			return account, nil
		}
	}
	return Account{}, ErrNotFound
}

func (r *memoryAccountRepo) List(ctx context.Context, quarryID int64) ([]Account, error) {
	var out []Account
	for _, account := range r.accounts {
		if account.QuarryID == quarryID && account.IsActive {
			out = append(out, account)
		}
	}
	return out, nil
}

func (r *memoryAccountRepo) CountForQuarry(ctx context.Context, quarryID int64) (int, error) {
	count := 0
	for _, account := range r.accounts {
		if account.QuarryID == quarryID {
			count++
		}
	}
	return count, nil
}

func (r *memoryAccountRepo) CountChildren(ctx context.Context, id int64) (int, error) {
	count := 0
	for _, account := range r.accounts {
		if account.ParentID != nil && *account.ParentID == id {
			count++
		}
	}
	return count, nil
}

func (r *memoryAccountRepo) CountJournalLines(ctx context.Context, accountID int64) (int, error) {
	return r.lines[accountID], nil
}

func validInput(quarry int64, code string) CreateInput {
	return CreateInput{
		QuarryID:      quarry,
		Code:          code,
		Name:          "Account " + code,
		Category:      CategoryAsset,
		Type:          TypeCurrentAsset,
		NormalBalance: NormalDebit,
	}
}

func TestCreateRejectsDuplicateCode(t *testing.T) {
	repo := newMemoryAccountRepo()
	service := NewService(repo)
	ctx := context.Background()

	_, err := service.Create(ctx, validInput(1, "1000"))
	require.NoError(t, err)

	_, err = service.Create(ctx, validInput(1, "1000"))
	require.ErrorIs(t, err, ErrDuplicateCode)

	// Same code on another quarry is fine.
	_, err = service.Create(ctx, validInput(2, "1000"))
	require.NoError(t, err)
}

func TestCreateRejectsParentCycle(t *testing.T) {
	repo := newMemoryAccountRepo()
	service := NewService(repo)
	ctx := context.Background()

	root, err := service.Create(ctx, validInput(1, "1000"))
	require.NoError(t, err)

	childInput := validInput(1, "1000.1")
	childInput.ParentID = &root.ID
	child, err := service.Create(ctx, childInput)
	require.NoError(t, err)

	// Re-parenting the root under its own child closes a cycle.
	_, err = service.Update(ctx, UpdateInput{ID: root.ID, Name: root.Name, ParentID: &child.ID, IsActive: true})
	require.ErrorIs(t, err, ErrParentCycle)

	_, err = service.Update(ctx, UpdateInput{ID: root.ID, Name: root.Name, ParentID: &root.ID, IsActive: true})
	require.ErrorIs(t, err, ErrParentCycle)
}

func TestCreateRejectsForeignParent(t *testing.T) {
	repo := newMemoryAccountRepo()
	service := NewService(repo)
	ctx := context.Background()

	other, err := service.Create(ctx, validInput(2, "1000"))
	require.NoError(t, err)

	input := validInput(1, "1000")
	input.ParentID = &other.ID
	_, err = service.Create(ctx, input)
	require.ErrorIs(t, err, ErrParentNotFound)
}

func TestDeleteConstraints(t *testing.T) {
	repo := newMemoryAccountRepo()
	service := NewService(repo)
	ctx := context.Background()

	require.NoError(t, service.SeedDefaults(ctx, 1))

	cash, err := service.GetByCode(ctx, 1, CodeCash)
	require.NoError(t, err)
	require.ErrorIs(t, service.Delete(ctx, cash.ID), ErrSystemAccount)

	plain, err := service.Create(ctx, validInput(1, "1900"))
	require.NoError(t, err)

	childInput := validInput(1, "1910")
	childInput.ParentID = &plain.ID
	child, err := service.Create(ctx, childInput)
	require.NoError(t, err)
	require.ErrorIs(t, service.Delete(ctx, plain.ID), ErrHasChildren)

	repo.lines[child.ID] = 3
	require.ErrorIs(t, service.Delete(ctx, child.ID), ErrAccountReferenced)

	repo.lines[child.ID] = 0
	require.NoError(t, service.Delete(ctx, child.ID))
	require.NoError(t, service.Delete(ctx, plain.ID))
}

func TestSystemAccountStaysActive(t *testing.T) {
	repo := newMemoryAccountRepo()
	service := NewService(repo)
	ctx := context.Background()

	require.NoError(t, service.SeedDefaults(ctx, 1))

	cash, err := service.GetByCode(ctx, 1, CodeCash)
	require.NoError(t, err)

	_, err = service.Update(ctx, UpdateInput{ID: cash.ID, Name: cash.Name, IsActive: false})
	require.ErrorIs(t, err, ErrSystemAccount)

	// Renaming stays allowed.
	renamed, err := service.Update(ctx, UpdateInput{ID: cash.ID, Name: "Cash Box", IsActive: true})
	require.NoError(t, err)
	require.Equal(t, "Cash Box", renamed.Name)

	still, err := service.GetByCode(ctx, 1, CodeCash)
	require.NoError(t, err)
	require.True(t, still.IsActive)
}

func TestSeedDefaultsIsIdempotent(t *testing.T) {
	repo := newMemoryAccountRepo()
	service := NewService(repo)
	ctx := context.Background()

	require.NoError(t, service.SeedDefaults(ctx, 7))
	require.ErrorIs(t, service.SeedDefaults(ctx, 7), ErrAlreadySeeded)

	list, err := service.List(ctx, 7)
	require.NoError(t, err)
	require.Len(t, list, len(defaultChart))
	for _, account := range list {
		require.True(t, account.IsSystem)
	}
}

func TestExpenseCategoryMapping(t *testing.T) {
	code, ok := CodeForExpenseCategory("MAINTENANCE")
	require.True(t, ok)
	require.Equal(t, CodeMaintenance, code)

	_, ok = CodeForExpenseCategory("UNKNOWN_CATEGORY")
	require.False(t, ok)
}
