package billing

import (
	"time"

	"github.com/shopspring/decimal"
)

// AppliedTax is one tax applied to a line or aggregated into the breakdown.
// TaxPercentage is zero for fixed-amount rules.
type AppliedTax struct {
	TaxName       string          `json:"taxName"`
	TaxPercentage decimal.Decimal `json:"taxPercentage"`
	TaxAmount     decimal.Decimal `json:"taxAmount"`
}

// Line is one bill line. Name and unit price are denormalised copies taken at
// creation time so the bill stays readable after catalog changes.
type Line struct {
	ProductID   string          `json:"productId"`
	ProductName string          `json:"productName"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	Total       decimal.Decimal `json:"total"`
	Taxes       []AppliedTax    `json:"taxes"`
}

// Bill is the immutable record of a completed sale. It is written exactly once
// at checkout and only ever read back.
type Bill struct {
	BillID        string          `json:"billId"`
	StoreID       string          `json:"storeId"`
	Items         []Line          `json:"items"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	TaxAmount     decimal.Decimal `json:"taxAmount"`
	GrandTotal    decimal.Decimal `json:"grandTotal"`
	CustomerName  string          `json:"customerName,omitempty"`
	CustomerPhone string          `json:"customerPhone,omitempty"`
	CustomerEmail string          `json:"customerEmail,omitempty"`
	TaxBreakdown  []AppliedTax    `json:"taxBreakdown"`
	CreatedAt     time.Time       `json:"createdAt"`
}
