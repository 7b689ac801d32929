package billing

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-pos/internal/common"
	"github.com/noah-isme/backend-pos/internal/repo"
)

// Store persists bills. Bills are append-only: there is no update or delete.
type Store struct{}

// Insert writes the bill inside the caller's transaction. The generated
// billId is the client-facing identifier; the serial primary key stays
// internal.
func (Store) Insert(ctx context.Context, db repo.DB, bill *Bill) error {
	items, err := json.Marshal(bill.Items)
	if err != nil {
		return fmt.Errorf("billing: encode items: %w", err)
	}
	breakdown, err := json.Marshal(bill.TaxBreakdown)
	if err != nil {
		return fmt.Errorf("billing: encode tax breakdown: %w", err)
	}
	_, err = db.Exec(ctx, `
		INSERT INTO bills (
			bill_id, store_id, items, subtotal, tax_amount, grand_total,
			customer_name, customer_phone, customer_email, tax_breakdown, created_at
		) VALUES ($1, $2::uuid, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		bill.BillID, bill.StoreID, items,
		bill.Subtotal, bill.TaxAmount, bill.GrandTotal,
		bill.CustomerName, bill.CustomerPhone, bill.CustomerEmail,
		breakdown, bill.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("billing: insert bill: %w", err)
	}
	return nil
}

// ListByStore returns one page of the store's bills, newest first.
func (Store) ListByStore(ctx context.Context, db repo.DB, storeID string, limit, offset int) ([]Bill, error) {
	rows, err := db.Query(ctx, `
		SELECT bill_id, store_id::text, items, subtotal, tax_amount, grand_total,
		       customer_name, customer_phone, customer_email, tax_breakdown, created_at
		FROM bills
		WHERE store_id = $1::uuid
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3`, storeID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bills := make([]Bill, 0, 16)
	for rows.Next() {
		bill, err := scanBill(rows)
		if err != nil {
			return nil, err
		}
		bills = append(bills, bill)
	}
	return bills, rows.Err()
}

// CountByStore returns the total number of bills the store holds.
func (Store) CountByStore(ctx context.Context, db repo.DB, storeID string) (int, error) {
	var total int
	err := db.QueryRow(ctx, `SELECT COUNT(*) FROM bills WHERE store_id = $1::uuid`, storeID).Scan(&total)
	return total, err
}

// GetByBillID looks a bill up by its client-facing identifier.
func (Store) GetByBillID(ctx context.Context, db repo.DB, billID string) (Bill, error) {
	row := db.QueryRow(ctx, `
		SELECT bill_id, store_id::text, items, subtotal, tax_amount, grand_total,
		       customer_name, customer_phone, customer_email, tax_breakdown, created_at
		FROM bills
		WHERE bill_id = $1`, billID)
	bill, err := scanBill(row)
	if err != nil {
		if repo.IsNoRows(err) {
			return Bill{}, common.NotFoundError("bill not found")
		}
		return Bill{}, err
	}
	return bill, nil
}

// ProductSales is an aggregated sales row used for trend insights.
type ProductSales struct {
	ProductName string          `json:"productName"`
	Units       int64           `json:"units"`
	Revenue     decimal.Decimal `json:"revenue"`
}

// TopProductSales aggregates recent line items by product name, most units
// first, capped at limit. Feeds the insight prompt with a compact summary.
func (Store) TopProductSales(ctx context.Context, db repo.DB, storeID string, since time.Time, limit int) ([]ProductSales, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := db.Query(ctx, `
		SELECT item->>'productName' AS product_name,
		       SUM((item->>'quantity')::bigint) AS units,
		       SUM((item->>'total')::numeric) AS revenue
		FROM bills, jsonb_array_elements(items) AS item
		WHERE store_id = $1::uuid AND created_at >= $2
		GROUP BY 1
		ORDER BY units DESC
		LIMIT $3`, storeID, since, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]ProductSales, 0, limit)
	for rows.Next() {
		var ps ProductSales
		if err := rows.Scan(&ps.ProductName, &ps.Units, &ps.Revenue); err != nil {
			return nil, err
		}
		out = append(out, ps)
	}
	return out, rows.Err()
}

// Recipient is a past customer reachable by email.
type Recipient struct {
	Name  string
	Email string
}

// CustomerEmails returns the store's past customers with a distinct,
// lower-cased email address.
func (Store) CustomerEmails(ctx context.Context, db repo.DB, storeID string) ([]Recipient, error) {
	rows, err := db.Query(ctx, `
		SELECT DISTINCT ON (lower(customer_email))
		       COALESCE(NULLIF(customer_name, ''), 'Customer'), lower(customer_email)
		FROM bills
		WHERE store_id = $1::uuid AND customer_email <> ''
		ORDER BY lower(customer_email), created_at DESC`, storeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Recipient, 0, 32)
	for rows.Next() {
		var r Recipient
		if err := rows.Scan(&r.Name, &r.Email); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBill(row rowScanner) (Bill, error) {
	var (
		bill      Bill
		items     []byte
		breakdown []byte
	)
	err := row.Scan(
		&bill.BillID, &bill.StoreID, &items,
		&bill.Subtotal, &bill.TaxAmount, &bill.GrandTotal,
		&bill.CustomerName, &bill.CustomerPhone, &bill.CustomerEmail,
		&breakdown, &bill.CreatedAt,
	)
	if err != nil {
		return Bill{}, err
	}
	if err := json.Unmarshal(items, &bill.Items); err != nil {
		return Bill{}, fmt.Errorf("billing: decode items: %w", err)
	}
	if err := json.Unmarshal(breakdown, &bill.TaxBreakdown); err != nil {
		return Bill{}, fmt.Errorf("billing: decode tax breakdown: %w", err)
	}
	return bill, nil
}
