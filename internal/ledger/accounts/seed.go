package accounts

import "context"

type seedEntry struct {
	code     string
	name     string
	category Category
	typ      Type
	normal   NormalBalance
}

// defaultChart is the standard quarry chart installed on first use.
var defaultChart = []seedEntry{
	{CodeCash, "Cash on Hand", CategoryAsset, TypeCurrentAsset, NormalDebit},
	{CodeBank, "Bank", CategoryAsset, TypeCurrentAsset, NormalDebit},
	{CodeReceivable, "Accounts Receivable", CategoryAsset, TypeCurrentAsset, NormalDebit},
	{CodeFuelInventory, "Fuel Inventory", CategoryAsset, TypeCurrentAsset, NormalDebit},
	{CodeEquipment, "Plant & Equipment", CategoryAsset, TypeFixedAsset, NormalDebit},
	{CodeBrokerPayable, "Broker Commission Payable", CategoryLiability, TypeCurrentLiability, NormalCredit},
	{CodeAccruedLoadersFee, "Accrued Loaders Fee", CategoryLiability, TypeCurrentLiability, NormalCredit},
	{CodeAccruedLandRate, "Accrued Land Rate Fee", CategoryLiability, TypeCurrentLiability, NormalCredit},
	{CodeOwnerEquity, "Owner Equity", CategoryEquity, TypeEquity, NormalCredit},
	{CodeSalesRevenue, "Material Sales Revenue", CategoryRevenue, TypeOperatingRevenue, NormalCredit},
	{CodeFuelCost, "Fuel Cost of Sales", CategoryCostOfSales, TypeDirectCost, NormalDebit},
	{CodeLoadersFeeCost, "Loaders Fee", CategoryCostOfSales, TypeDirectCost, NormalDebit},
	{CodeCommissionExpense, "Broker Commission Expense", CategoryExpense, TypeOperatingExpense, NormalDebit},
	{CodeLandRateExpense, "Land Rate Expense", CategoryExpense, TypeOperatingExpense, NormalDebit},
	{CodeMaintenance, "Maintenance & Repairs", CategoryExpense, TypeOperatingExpense, NormalDebit},
	{CodeSalaries, "Salaries & Wages", CategoryExpense, TypeOperatingExpense, NormalDebit},
	{CodeUtilities, "Utilities", CategoryExpense, TypeOperatingExpense, NormalDebit},
	{CodeAdmin, "Administrative Expenses", CategoryExpense, TypeOperatingExpense, NormalDebit},
}

// SeedDefaults installs the standard chart for a quarry. Idempotent: a
// quarry with any existing accounts is rejected rather than extended.
func (s *Service) SeedDefaults(ctx context.Context, quarryID int64) error {
	count, err := s.repo.CountForQuarry(ctx, quarryID)
	if err != nil {
		return err
	}
	if count > 0 {
		return ErrAlreadySeeded
	}
	seed := make([]Account, 0, len(defaultChart))
	for order, entry := range defaultChart {
		seed = append(seed, Account{
			QuarryID:      quarryID,
			Code:          entry.code,
			Name:          entry.name,
			Category:      entry.category,
			Type:          entry.typ,
			IsSystem:      true,
			NormalBalance: entry.normal,
			DisplayOrder:  (order + 1) * 10,
		})
	}
	return s.repo.InsertMany(ctx, seed)
}
