package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/noah-isme/backend-pos/internal/repo"
)

// ErrInsufficient signals that a reservation exceeds available stock for a
// key. The checkout orchestrator translates it into the client-facing error
// naming the product.
var ErrInsufficient = errors.New("inventory: insufficient stock")

// Key identifies one inventory counter.
type Key struct {
	StoreID    string
	ProductID  string
	CategoryID string
}

// Record is one inventory row.
type Record struct {
	Key
	ProductName string    `json:"productName"`
	Quantity    int32     `json:"quantity"`
	LastUpdated time.Time `json:"lastUpdated"`
}

// Reservation pairs a key with the quantity a checkout wants to take. The
// product name rides along for error messages.
type Reservation struct {
	Key
	ProductName string
	Quantity    int32
}

// Store mutates and reads inventory rows in Postgres.
type Store struct{}

// Reserve decrements the counter by qty if and only if at least qty remains,
// as a single conditional update. A missing row and a short row are the same
// failure: ErrInsufficient. Run it inside the checkout transaction so a later
// failure rolls the decrement back.
func (Store) Reserve(ctx context.Context, db repo.DB, key Key, qty int32) error {
	if qty <= 0 {
		return fmt.Errorf("inventory: reserve quantity must be positive, got %d", qty)
	}
	tag, err := db.Exec(ctx, `
		UPDATE inventory
		SET quantity = quantity - $4, last_updated = now()
		WHERE store_id = $1::uuid AND product_id = $2::uuid AND category_id = $3::uuid
		  AND quantity >= $4`,
		key.StoreID, key.ProductID, key.CategoryID, qty)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrInsufficient
	}
	return nil
}

// Adjust applies a restock or correction delta, creating the row when absent.
// The counter may never go negative; a delta that would take it below zero is
// refused.
func (Store) Adjust(ctx context.Context, db repo.DB, key Key, delta int32) (Record, error) {
	row := db.QueryRow(ctx, `
		INSERT INTO inventory (store_id, product_id, category_id, quantity, last_updated)
		VALUES ($1::uuid, $2::uuid, $3::uuid, GREATEST($4, 0), now())
		ON CONFLICT (store_id, product_id, category_id) DO UPDATE
		SET quantity = inventory.quantity + $4, last_updated = now()
		WHERE inventory.quantity + $4 >= 0
		RETURNING store_id::text, product_id::text, category_id::text, quantity, last_updated`,
		key.StoreID, key.ProductID, key.CategoryID, delta)

	var rec Record
	err := row.Scan(&rec.StoreID, &rec.ProductID, &rec.CategoryID, &rec.Quantity, &rec.LastUpdated)
	if err != nil {
		if repo.IsNoRows(err) {
			return Record{}, ErrInsufficient
		}
		return Record{}, err
	}
	return rec, nil
}

// Get reads one counter.
func (Store) Get(ctx context.Context, db repo.DB, key Key) (Record, error) {
	row := db.QueryRow(ctx, `
		SELECT i.store_id::text, i.product_id::text, i.category_id::text,
		       p.name, i.quantity, i.last_updated
		FROM inventory i
		JOIN products p ON p.id = i.product_id
		WHERE i.store_id = $1::uuid AND i.product_id = $2::uuid AND i.category_id = $3::uuid`,
		key.StoreID, key.ProductID, key.CategoryID)

	var rec Record
	err := row.Scan(&rec.StoreID, &rec.ProductID, &rec.CategoryID, &rec.ProductName, &rec.Quantity, &rec.LastUpdated)
	if err != nil {
		return Record{}, err
	}
	return rec, nil
}

// ListByStore returns every inventory row for the store joined with product
// names for display.
func (Store) ListByStore(ctx context.Context, db repo.DB, storeID string) ([]Record, error) {
	return queryRecords(ctx, db, `
		SELECT i.store_id::text, i.product_id::text, i.category_id::text,
		       p.name, i.quantity, i.last_updated
		FROM inventory i
		JOIN products p ON p.id = i.product_id
		WHERE i.store_id = $1::uuid
		ORDER BY p.name`, storeID)
}

// Search filters a store's inventory by product name, case-insensitively.
func (Store) Search(ctx context.Context, db repo.DB, storeID, q string) ([]Record, error) {
	return queryRecords(ctx, db, `
		SELECT i.store_id::text, i.product_id::text, i.category_id::text,
		       p.name, i.quantity, i.last_updated
		FROM inventory i
		JOIN products p ON p.id = i.product_id
		WHERE i.store_id = $1::uuid AND p.name ILIKE '%' || $2 || '%'
		ORDER BY p.name`, storeID, q)
}

func queryRecords(ctx context.Context, db repo.DB, sql string, args ...any) ([]Record, error) {
	rows, err := db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Record, 0, 32)
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.StoreID, &rec.ProductID, &rec.CategoryID, &rec.ProductName, &rec.Quantity, &rec.LastUpdated); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
