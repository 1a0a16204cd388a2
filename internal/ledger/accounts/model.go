package accounts

import (
	"errors"
	"time"
)

// Category enumerates top-level chart groupings.
type Category string

const (
	CategoryAsset       Category = "ASSET"
	CategoryLiability   Category = "LIABILITY"
	CategoryEquity      Category = "EQUITY"
	CategoryRevenue     Category = "REVENUE"
	CategoryCostOfSales Category = "COST_OF_SALES"
	CategoryExpense     Category = "EXPENSE"
)

// Type refines a category for report classification.
type Type string

const (
	TypeCurrentAsset      Type = "CURRENT_ASSET"
	TypeFixedAsset        Type = "FIXED_ASSET"
	TypeCurrentLiability  Type = "CURRENT_LIABILITY"
	TypeLongTermLiability Type = "LONG_TERM_LIABILITY"
	TypeEquity            Type = "EQUITY"
	TypeOperatingRevenue  Type = "OPERATING_REVENUE"
	TypeDirectCost        Type = "DIRECT_COST"
	TypeOperatingExpense  Type = "OPERATING_EXPENSE"
)

// NormalBalance marks which side grows the account.
type NormalBalance string

const (
	NormalDebit  NormalBalance = "DEBIT"
	NormalCredit NormalBalance = "CREDIT"
)

// Account models a chart of accounts node. Parent references form a forest;
// system accounts are seeded and cannot be deleted or re-categorised.
type Account struct {
	ID            int64
	QuarryID      int64
	Code          string
	Name          string
	Category      Category
	Type          Type
	ParentID      *int64
	IsSystem      bool
	NormalBalance NormalBalance
	DisplayOrder  int
	IsActive      bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

var (
	// ErrNotFound indicates missing account.
	ErrNotFound = errors.New("accounts: account not found")
	// ErrDuplicateCode indicates the (quarry, code) pair already exists.
	ErrDuplicateCode = errors.New("accounts: duplicate account code")
	// ErrParentCycle indicates the parent reference would close a cycle.
	ErrParentCycle = errors.New("accounts: parent reference creates a cycle")
	// ErrParentNotFound indicates the referenced parent is missing or foreign.
	ErrParentNotFound = errors.New("accounts: parent account not found")
	// ErrSystemAccount indicates a forbidden mutation of a system account.
	ErrSystemAccount = errors.New("accounts: system account is immutable")
	// ErrHasChildren indicates the account still has child accounts.
	ErrHasChildren = errors.New("accounts: account has child accounts")
	// ErrAccountReferenced indicates journal lines still reference the account.
	ErrAccountReferenced = errors.New("accounts: account referenced by journal lines")
	// ErrAlreadySeeded indicates the quarry already has a chart.
	ErrAlreadySeeded = errors.New("accounts: chart already initialised for quarry")
)

// Well-known system account codes used by journal auto-generation.
const (
	CodeCash              = "1000"
	CodeBank              = "1010"
	CodeReceivable        = "1100"
	CodeFuelInventory     = "1200"
	CodeEquipment         = "1500"
	CodeBrokerPayable     = "2000"
	CodeAccruedLoadersFee = "2100"
	CodeAccruedLandRate   = "2110"
	CodeOwnerEquity       = "3000"
	CodeSalesRevenue      = "4000"
	CodeFuelCost          = "5000"
	CodeLoadersFeeCost    = "5100"
	CodeCommissionExpense = "6000"
	CodeLandRateExpense   = "6100"
	CodeMaintenance       = "6200"
	CodeSalaries          = "6210"
	CodeUtilities         = "6220"
	CodeAdmin             = "6230"
)

// expenseCategoryCodes maps operational expense categories to ledger codes.
var expenseCategoryCodes = map[string]string{
	"MAINTENANCE": CodeMaintenance,
	"SALARIES":    CodeSalaries,
	"UTILITIES":   CodeUtilities,
	"ADMIN":       CodeAdmin,
	"LAND_RATE":   CodeLandRateExpense,
	"COMMISSION":  CodeCommissionExpense,
}

// CodeForExpenseCategory resolves the ledger code for an expense category.
func CodeForExpenseCategory(category string) (string, bool) {
	code, ok := expenseCategoryCodes[category]
	return code, ok
}
