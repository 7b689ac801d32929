// Package invoice renders a committed bill as a PDF attachment for the
// invoice email.
package invoice

import (
	"bytes"
	"fmt"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-pos/internal/billing"
)

// Currency prefix used on rendered amounts. The core fonts are cp1252 so the
// rupee sign cannot be embedded without a custom font.
const currencyPrefix = "Rs."

// Render produces the invoice PDF for a bill.
func Render(bill billing.Bill) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(13, 13, 13)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 20)
	pdf.CellFormat(0, 10, "Invoice", "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "", 12)
	pdf.CellFormat(0, 6, "Bill ID: "+bill.BillID, "", 1, "L", false, 0, "")
	customer := bill.CustomerName
	if customer == "" {
		customer = "Walk-in"
	}
	pdf.CellFormat(0, 6, "Customer: "+customer, "", 1, "L", false, 0, "")
	if bill.CustomerPhone != "" {
		pdf.CellFormat(0, 6, "Phone: "+bill.CustomerPhone, "", 1, "L", false, 0, "")
	}
	if bill.CustomerEmail != "" {
		pdf.CellFormat(0, 6, "Email: "+bill.CustomerEmail, "", 1, "L", false, 0, "")
	}
	pdf.CellFormat(0, 6, "Date: "+bill.CreatedAt.Format("02 Jan 2006 15:04"), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	widths := []float64{74, 18, 30, 30, 32}
	headers := []string{"Product", "Qty", "Price", "Tax", "Total"}
	pdf.SetFont("Helvetica", "B", 11)
	for i, h := range headers {
		pdf.CellFormat(widths[i], 7, h, "B", 0, "L", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 11)
	for _, item := range bill.Items {
		lineTax := decimal.Zero
		for _, t := range item.Taxes {
			lineTax = lineTax.Add(t.TaxAmount)
		}
		cells := []string{
			item.ProductName,
			fmt.Sprintf("%d", item.Quantity),
			money(item.Price),
			money(lineTax),
			money(item.Total.Add(lineTax)),
		}
		for i, c := range cells {
			pdf.CellFormat(widths[i], 6, c, "", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	if len(bill.TaxBreakdown) > 0 {
		pdf.Ln(3)
		pdf.SetFont("Helvetica", "B", 11)
		pdf.CellFormat(0, 6, "Tax breakdown", "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 11)
		for _, row := range bill.TaxBreakdown {
			label := row.TaxName
			if !row.TaxPercentage.IsZero() {
				label = fmt.Sprintf("%s (%s%%)", row.TaxName, row.TaxPercentage.String())
			}
			pdf.CellFormat(110, 6, label, "", 0, "L", false, 0, "")
			pdf.CellFormat(0, 6, money(row.TaxAmount), "", 1, "R", false, 0, "")
		}
	}

	pdf.Ln(5)
	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 8, "Grand Total: "+money(bill.GrandTotal), "", 1, "R", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("invoice: render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func money(d decimal.Decimal) string {
	return currencyPrefix + d.StringFixed(2)
}
