package billing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-pos/internal/tax"
)

var oneHundred = decimal.NewFromInt(100)

// LineInput describes one cart line with its resolved price and tax rules.
type LineInput struct {
	ProductID   string
	ProductName string
	Quantity    int
	UnitPrice   decimal.Decimal
	Rules       []tax.Rule
}

// Summary aggregates the computed bill components for a whole cart.
type Summary struct {
	Lines        []Line
	Subtotal     decimal.Decimal
	TaxTotal     decimal.Decimal
	GrandTotal   decimal.Decimal
	TaxBreakdown []AppliedTax
}

// Compute prices a whole cart. It is pure: no I/O, no clock, no randomness.
//
// Per rule, percentage taxes apply to the line subtotal and fixed taxes apply
// once per line regardless of quantity. The breakdown merges amounts by tax
// name across lines and categories, preserving first-seen order. Every
// reported amount is rounded to two decimals independently; the sum of the
// rounded parts may therefore differ from the rounded grand total by a few
// cents, which is accepted rather than corrected.
func Compute(inputs []LineInput) (Summary, error) {
	if len(inputs) == 0 {
		return Summary{}, fmt.Errorf("billing: no items to compute")
	}

	var (
		subtotal  = decimal.Zero
		taxTotal  = decimal.Zero
		lines     = make([]Line, 0, len(inputs))
		order     = make([]string, 0, 4)
		breakdown = map[string]*AppliedTax{}
	)

	for _, in := range inputs {
		line, lineTax, err := computeLine(in)
		if err != nil {
			return Summary{}, err
		}
		subtotal = subtotal.Add(line.Total)
		taxTotal = taxTotal.Add(lineTax)
		lines = append(lines, line)

		for _, rule := range in.Rules {
			amount := taxAmount(rule, line.Total)
			entry, ok := breakdown[rule.Name]
			if !ok {
				entry = &AppliedTax{TaxName: rule.Name, TaxPercentage: percentageOf(rule)}
				breakdown[rule.Name] = entry
				order = append(order, rule.Name)
			}
			entry.TaxAmount = entry.TaxAmount.Add(amount)
		}
	}

	rows := make([]AppliedTax, 0, len(order))
	for _, name := range order {
		entry := breakdown[name]
		entry.TaxAmount = entry.TaxAmount.Round(2)
		rows = append(rows, *entry)
	}

	return Summary{
		Lines:        lines,
		Subtotal:     subtotal,
		TaxTotal:     taxTotal,
		GrandTotal:   subtotal.Add(taxTotal).Round(2),
		TaxBreakdown: rows,
	}, nil
}

func computeLine(in LineInput) (Line, decimal.Decimal, error) {
	if in.Quantity <= 0 {
		return Line{}, decimal.Zero, fmt.Errorf("billing: quantity must be positive for product %s", in.ProductID)
	}
	total := in.UnitPrice.Mul(decimal.NewFromInt(int64(in.Quantity)))

	lineTax := decimal.Zero
	taxes := make([]AppliedTax, 0, len(in.Rules))
	for _, rule := range in.Rules {
		amount := taxAmount(rule, total)
		lineTax = lineTax.Add(amount)
		taxes = append(taxes, AppliedTax{
			TaxName:       rule.Name,
			TaxPercentage: percentageOf(rule),
			TaxAmount:     amount.Round(2),
		})
	}

	return Line{
		ProductID:   in.ProductID,
		ProductName: in.ProductName,
		Quantity:    in.Quantity,
		Price:       in.UnitPrice,
		Total:       total,
		Taxes:       taxes,
	}, lineTax, nil
}

func taxAmount(rule tax.Rule, lineTotal decimal.Decimal) decimal.Decimal {
	if rule.Kind == tax.Percentage {
		return lineTotal.Mul(rule.Value).Div(oneHundred)
	}
	// Fixed amount is charged once per line, not per unit.
	return rule.Value
}

func percentageOf(rule tax.Rule) decimal.Decimal {
	if rule.Kind == tax.Percentage {
		return rule.Value
	}
	return decimal.Zero
}
