package reports

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Formatter renders report amounts with thousands separators for export and
// UI consumers.
type Formatter struct {
	printer *message.Printer
}

// NewFormatter constructs an English-locale formatter.
func NewFormatter() *Formatter {
	return &Formatter{printer: message.NewPrinter(language.English)}
}

// Amount renders 1234567.5 as "1,234,567.50".
func (f *Formatter) Amount(v float64) string {
	return f.printer.Sprintf("%.2f", v)
}

// Percent renders a margin with one decimal place.
func (f *Formatter) Percent(v float64) string {
	return f.printer.Sprintf("%.1f%%", v)
}

// FormattedLine is a report line with display-ready amounts.
type FormattedLine struct {
	Code        string `json:"code,omitempty"`
	Label       string `json:"label"`
	Amount      string `json:"amount"`
	Comparative string `json:"comparative,omitempty"`
}

// FormatLines renders a section for display.
func (f *Formatter) FormatLines(lines []ReportLine) []FormattedLine {
	out := make([]FormattedLine, 0, len(lines))
	for _, line := range lines {
		formatted := FormattedLine{Code: line.Code, Label: line.Label, Amount: f.Amount(line.Amount)}
		if line.Comparative != nil {
			formatted.Comparative = f.Amount(*line.Comparative)
		}
		out = append(out, formatted)
	}
	return out
}

// FormattedProfitLoss is the display rendering of a ProfitLoss.
type FormattedProfitLoss struct {
	Revenue         []FormattedLine `json:"revenue"`
	CostOfSales     []FormattedLine `json:"cost_of_sales"`
	Expenses        []FormattedLine `json:"expenses"`
	TotalRevenue    string          `json:"total_revenue"`
	GrossProfit     string          `json:"gross_profit"`
	OperatingProfit string          `json:"operating_profit"`
	GrossMargin     string          `json:"gross_margin"`
	OperatingMargin string          `json:"operating_margin"`
}

// FormatProfitLoss renders a ProfitLoss for display.
func (f *Formatter) FormatProfitLoss(pl ProfitLoss) FormattedProfitLoss {
	return FormattedProfitLoss{
		Revenue:         f.FormatLines(pl.Revenue),
		CostOfSales:     f.FormatLines(pl.CostOfSales),
		Expenses:        f.FormatLines(pl.Expenses),
		TotalRevenue:    f.Amount(pl.TotalRevenue),
		GrossProfit:     f.Amount(pl.GrossProfit),
		OperatingProfit: f.Amount(pl.OperatingProfit),
		GrossMargin:     f.Percent(pl.GrossMargin),
		OperatingMargin: f.Percent(pl.OperatingMargin),
	}
}
