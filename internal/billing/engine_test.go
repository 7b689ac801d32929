package billing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-pos/internal/tax"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func pct(name, value string) tax.Rule {
	return tax.Rule{ID: name, Name: name, Kind: tax.Percentage, Value: dec(value), Active: true}
}

func fixed(name, value string) tax.Rule {
	return tax.Rule{ID: name, Name: name, Kind: tax.Fixed, Value: dec(value), Active: true}
}

func TestComputeSingleLinePercentage(t *testing.T) {
	sum, err := Compute([]LineInput{{
		ProductID:   "p1",
		ProductName: "Widget",
		Quantity:    2,
		UnitPrice:   dec("100"),
		Rules:       []tax.Rule{pct("GST", "18")},
	}})
	require.NoError(t, err)

	require.True(t, sum.Subtotal.Equal(dec("200")))
	require.True(t, sum.TaxTotal.Equal(dec("36")))
	require.True(t, sum.GrandTotal.Equal(dec("236")))
	require.Len(t, sum.Lines, 1)
	require.Len(t, sum.Lines[0].Taxes, 1)
	require.True(t, sum.Lines[0].Taxes[0].TaxAmount.Equal(dec("36")))
}

func TestComputeFixedTaxChargedOncePerLine(t *testing.T) {
	sum, err := Compute([]LineInput{{
		ProductID: "p1",
		Quantity:  7,
		UnitPrice: dec("10"),
		Rules:     []tax.Rule{fixed("Eco Levy", "5")},
	}})
	require.NoError(t, err)

	require.True(t, sum.Subtotal.Equal(dec("70")))
	require.True(t, sum.TaxTotal.Equal(dec("5")), "fixed tax does not scale with quantity, got %s", sum.TaxTotal)
	require.True(t, sum.GrandTotal.Equal(dec("75")))
	require.True(t, sum.TaxBreakdown[0].TaxPercentage.IsZero())
}

func TestComputeBreakdownMergesByName(t *testing.T) {
	// Same tax name in two different categories collapses into one row.
	sum, err := Compute([]LineInput{
		{ProductID: "p1", Quantity: 1, UnitPrice: dec("100"), Rules: []tax.Rule{pct("GST", "18")}},
		{ProductID: "p2", Quantity: 1, UnitPrice: dec("50"), Rules: []tax.Rule{pct("GST", "18"), pct("Service", "10")}},
	})
	require.NoError(t, err)

	require.Len(t, sum.TaxBreakdown, 2)
	require.Equal(t, "GST", sum.TaxBreakdown[0].TaxName)
	require.True(t, sum.TaxBreakdown[0].TaxAmount.Equal(dec("27")), "18+9 merged, got %s", sum.TaxBreakdown[0].TaxAmount)
	require.Equal(t, "Service", sum.TaxBreakdown[1].TaxName)
	require.True(t, sum.TaxBreakdown[1].TaxAmount.Equal(dec("5")))
}

func TestComputeBreakdownPreservesFirstSeenOrder(t *testing.T) {
	sum, err := Compute([]LineInput{
		{ProductID: "p1", Quantity: 1, UnitPrice: dec("10"), Rules: []tax.Rule{pct("Zeta", "5")}},
		{ProductID: "p2", Quantity: 1, UnitPrice: dec("10"), Rules: []tax.Rule{pct("Alpha", "5"), pct("Zeta", "5")}},
	})
	require.NoError(t, err)

	require.Equal(t, "Zeta", sum.TaxBreakdown[0].TaxName)
	require.Equal(t, "Alpha", sum.TaxBreakdown[1].TaxName)
}

func TestComputeRoundsPerLineTaxIndependently(t *testing.T) {
	// 33.33 * 3 = 99.99; 18% = 17.9982, reported per line as 18.00 while the
	// grand total keeps the unrounded sum until the end.
	sum, err := Compute([]LineInput{{
		ProductID: "p1",
		Quantity:  3,
		UnitPrice: dec("33.33"),
		Rules:     []tax.Rule{pct("GST", "18")},
	}})
	require.NoError(t, err)

	require.True(t, sum.Lines[0].Taxes[0].TaxAmount.Equal(dec("18.00")))
	require.True(t, sum.GrandTotal.Equal(dec("117.99")), "99.99 + 17.9982 rounded, got %s", sum.GrandTotal)
}

func TestComputeMultipleRulesStack(t *testing.T) {
	sum, err := Compute([]LineInput{{
		ProductID: "p1",
		Quantity:  1,
		UnitPrice: dec("200"),
		Rules:     []tax.Rule{pct("GST", "18"), fixed("Handling", "2.50")},
	}})
	require.NoError(t, err)

	require.True(t, sum.TaxTotal.Equal(dec("38.50")))
	require.True(t, sum.GrandTotal.Equal(dec("238.50")))
	require.Len(t, sum.Lines[0].Taxes, 2)
}

func TestComputeUntaxedLine(t *testing.T) {
	sum, err := Compute([]LineInput{{ProductID: "p1", Quantity: 2, UnitPrice: dec("9.99")}})
	require.NoError(t, err)

	require.True(t, sum.TaxTotal.IsZero())
	require.Empty(t, sum.TaxBreakdown)
	require.True(t, sum.GrandTotal.Equal(dec("19.98")))
}

func TestComputeRejectsEmptyCart(t *testing.T) {
	_, err := Compute(nil)
	require.Error(t, err)
}

func TestComputeRejectsNonPositiveQuantity(t *testing.T) {
	_, err := Compute([]LineInput{{ProductID: "p1", Quantity: 0, UnitPrice: dec("10")}})
	require.Error(t, err)

	_, err = Compute([]LineInput{{ProductID: "p1", Quantity: -2, UnitPrice: dec("10")}})
	require.Error(t, err)
}
