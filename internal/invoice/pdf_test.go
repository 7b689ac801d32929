package invoice

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-pos/internal/billing"
)

func TestRenderProducesPDF(t *testing.T) {
	bill := billing.Bill{
		BillID:       "b-123",
		StoreID:      "s-1",
		CustomerName: "Jo",
		CreatedAt:    time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		Items: []billing.Line{{
			ProductID:   "p-1",
			ProductName: "Widget",
			Quantity:    2,
			Price:       decimal.RequireFromString("100"),
			Total:       decimal.RequireFromString("200"),
			Taxes: []billing.AppliedTax{{
				TaxName:       "GST",
				TaxPercentage: decimal.RequireFromString("18"),
				TaxAmount:     decimal.RequireFromString("36"),
			}},
		}},
		Subtotal:   decimal.RequireFromString("200"),
		TaxAmount:  decimal.RequireFromString("36"),
		GrandTotal: decimal.RequireFromString("236"),
		TaxBreakdown: []billing.AppliedTax{{
			TaxName:       "GST",
			TaxPercentage: decimal.RequireFromString("18"),
			TaxAmount:     decimal.RequireFromString("36"),
		}},
	}

	data, err := Render(bill)
	require.NoError(t, err)
	require.NotEmpty(t, data)
	require.Equal(t, "%PDF", string(data[:4]))
}

func TestRenderWithoutCustomer(t *testing.T) {
	bill := billing.Bill{
		BillID:     "b-456",
		CreatedAt:  time.Now(),
		Items:      []billing.Line{{ProductName: "Thing", Quantity: 1, Price: decimal.New(5, 0), Total: decimal.New(5, 0)}},
		GrandTotal: decimal.New(5, 0),
	}
	data, err := Render(bill)
	require.NoError(t, err)
	require.NotEmpty(t, data)
}
