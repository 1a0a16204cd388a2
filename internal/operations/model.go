package operations

import "time"

// Quarry carries the tenant's fee configuration consumed by journal
// generation and the payables summary. The quarry record itself is owned
// by an external module.
type Quarry struct {
	ID                int64
	Name              string
	LoadersFeePerUnit float64
	LandRatePerUnit   float64
	IsActive          bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Audit is the shared created/modified field set embedded in operational rows.
type Audit struct {
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Sale is a material sale recorded by the sales module.
type Sale struct {
	ID               int64
	QuarryID         int64
	Date             time.Time
	Reference        string
	VehicleReg       string
	BrokerName       string
	Quantity         float64
	UnitPrice        float64
	CommissionAmount float64
	LandRateApplies  bool
	Paid             bool
	PaidAmount       float64
	Audit
}

// GrossAmount derives the sale value. Never persisted.
func (s Sale) GrossAmount() float64 {
	return s.Quantity * s.UnitPrice
}

// Outstanding derives the unpaid remainder of the sale.
func (s Sale) Outstanding() float64 {
	out := s.GrossAmount() - s.PaidAmount
	if out < 0 {
		return 0
	}
	return out
}

// Expense is an operating expense recorded by the expenses module.
type Expense struct {
	ID          int64
	QuarryID    int64
	Date        time.Time
	Category    string
	Amount      float64
	Description string
	Audit
}

// BankingDeposit moves cash on hand into the bank.
type BankingDeposit struct {
	ID        int64
	QuarryID  int64
	Date      time.Time
	Amount    float64
	Reference string
	Audit
}

// FuelUsage records fuel drawn from inventory. Cost is nil for uncosted
// draws, which generate no journal entry.
type FuelUsage struct {
	ID       int64
	QuarryID int64
	Date     time.Time
	Litres   float64
	Cost     *float64
	Audit
}

// DayTotals aggregates one quarry-day of operational activity for the
// daily-ledger chain.
type DayTotals struct {
	SalesTotal      float64
	PaidTotal       float64
	UnpaidTotal     float64
	ExpenseTotal    float64
	CommissionTotal float64
	LoadersFeeTotal float64
	LandRateTotal   float64
	FuelCostTotal   float64
	BankedTotal     float64
}

// Earnings nets the day's income against its operating cost.
func (d DayTotals) Earnings() float64 {
	return d.SalesTotal - d.ExpenseTotal - d.CommissionTotal - d.LoadersFeeTotal - d.LandRateTotal - d.FuelCostTotal
}
