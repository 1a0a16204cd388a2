package reports

import (
	"errors"
	"time"

	"github.com/mzeesam/QDeskPro-sub003/internal/ledger/accounts"
)

// reconciliation epsilon shared by all report checks.
const tolerance = 0.01

// ErrReportInconsistent flags a report whose internal totals do not
// reconcile. It signals ledger corruption, not caller error.
var ErrReportInconsistent = errors.New("reports: report totals do not reconcile")

// AccountBalance aggregates posted journal lines for one account.
type AccountBalance struct {
	AccountID     int64
	Code          string
	Name          string
	Category      accounts.Category
	Type          accounts.Type
	NormalBalance accounts.NormalBalance
	Debit         float64
	Credit        float64
}

// Net folds the two columns onto the account's normal side. A debit-normal
// account with a credit surplus nets negative, and vice versa.
func (b AccountBalance) Net() float64 {
	if b.NormalBalance == accounts.NormalCredit {
		return b.Credit - b.Debit
	}
	return b.Debit - b.Credit
}

// TrialBalanceRow shows one account's net on a single column.
type TrialBalanceRow struct {
	AccountID int64   `json:"account_id"`
	Code      string  `json:"code"`
	Name      string  `json:"name"`
	Debit     float64 `json:"debit"`
	Credit    float64 `json:"credit"`
}

// TrialBalance is the full listing plus totals.
type TrialBalance struct {
	QuarryID    int64             `json:"quarry_id"`
	From        time.Time         `json:"from"`
	To          time.Time         `json:"to"`
	Rows        []TrialBalanceRow `json:"rows"`
	TotalDebit  float64           `json:"total_debit"`
	TotalCredit float64           `json:"total_credit"`
}

// ReportLine is a labelled amount with an optional comparative value.
type ReportLine struct {
	Code        string   `json:"code,omitempty"`
	Label       string   `json:"label"`
	Amount      float64  `json:"amount"`
	Comparative *float64 `json:"comparative,omitempty"`
}

// ProfitLoss is the income statement for a range.
type ProfitLoss struct {
	QuarryID        int64        `json:"quarry_id"`
	From            time.Time    `json:"from"`
	To              time.Time    `json:"to"`
	Revenue         []ReportLine `json:"revenue"`
	CostOfSales     []ReportLine `json:"cost_of_sales"`
	Expenses        []ReportLine `json:"expenses"`
	TotalRevenue    float64      `json:"total_revenue"`
	TotalCost       float64      `json:"total_cost_of_sales"`
	TotalExpenses   float64      `json:"total_expenses"`
	GrossProfit     float64      `json:"gross_profit"`
	OperatingProfit float64      `json:"operating_profit"`
	GrossMargin     float64      `json:"gross_margin_pct"`
	OperatingMargin float64      `json:"operating_margin_pct"`
}

// BalanceSheet is the statement of financial position as of a date.
type BalanceSheet struct {
	QuarryID              int64        `json:"quarry_id"`
	AsOf                  time.Time    `json:"as_of"`
	CurrentAssets         []ReportLine `json:"current_assets"`
	NonCurrentAssets      []ReportLine `json:"non_current_assets"`
	CurrentLiabilities    []ReportLine `json:"current_liabilities"`
	NonCurrentLiabilities []ReportLine `json:"non_current_liabilities"`
	Equity                []ReportLine `json:"equity"`
	TotalAssets           float64      `json:"total_assets"`
	TotalLiabilities      float64      `json:"total_liabilities"`
	TotalEquity           float64      `json:"total_equity"`
}

// CashFlow is the simplified cash movement statement for a range.
type CashFlow struct {
	QuarryID    int64        `json:"quarry_id"`
	From        time.Time    `json:"from"`
	To          time.Time    `json:"to"`
	OpeningCash float64      `json:"opening_cash"`
	Operating   []ReportLine `json:"operating"`
	Investing   []ReportLine `json:"investing"`
	Financing   []ReportLine `json:"financing"`
	NetChange   float64      `json:"net_change"`
	ClosingCash float64      `json:"closing_cash"`
}

// AgingBucket labels one receivables age band.
type AgingBucket string

const (
	BucketCurrent AgingBucket = "CURRENT"
	Bucket1To30   AgingBucket = "1_30"
	Bucket31To60  AgingBucket = "31_60"
	Bucket61To90  AgingBucket = "61_90"
	BucketOver90  AgingBucket = "90_PLUS"
)

// agingBuckets is the reporting order of the bands.
var agingBuckets = []AgingBucket{BucketCurrent, Bucket1To30, Bucket31To60, Bucket61To90, BucketOver90}

// AgingRow holds one debtor's outstanding sales split by age.
type AgingRow struct {
	VehicleReg string                  `json:"vehicle_reg"`
	Buckets    map[AgingBucket]float64 `json:"buckets"`
	Total      float64                 `json:"total"`
}

// ReceivablesAging is the AR aging report as of a date.
type ReceivablesAging struct {
	QuarryID int64                   `json:"quarry_id"`
	AsOf     time.Time               `json:"as_of"`
	Rows     []AgingRow              `json:"rows"`
	Buckets  map[AgingBucket]float64 `json:"buckets"`
	Total    float64                 `json:"total"`
}

// BrokerPayableRow aggregates unpaid commissions owed to one broker.
type BrokerPayableRow struct {
	BrokerName string  `json:"broker_name"`
	SaleCount  int     `json:"sale_count"`
	Commission float64 `json:"commission"`
}

// PayablesSummary is the AP view for a range: broker commissions plus fee
// accruals derived from quantities and configured per-unit rates.
type PayablesSummary struct {
	QuarryID          int64              `json:"quarry_id"`
	From              time.Time          `json:"from"`
	To                time.Time          `json:"to"`
	Brokers           []BrokerPayableRow `json:"brokers"`
	TotalCommission   float64            `json:"total_commission"`
	AccruedLoadersFee float64            `json:"accrued_loaders_fee"`
	AccruedLandRate   float64            `json:"accrued_land_rate"`
	TotalPayable      float64            `json:"total_payable"`
}
