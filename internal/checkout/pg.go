package checkout

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/noah-isme/backend-pos/internal/billing"
	"github.com/noah-isme/backend-pos/internal/catalog"
	"github.com/noah-isme/backend-pos/internal/common"
	"github.com/noah-isme/backend-pos/internal/inventory"
	"github.com/noah-isme/backend-pos/internal/repo"
)

// PGCommitter commits a checkout against Postgres: every stock decrement and
// the bill insert run in one transaction. A reservation that cannot be
// satisfied rolls everything back, so no partial decrement ever survives.
type PGCommitter struct {
	Pool      *pgxpool.Pool
	Inventory inventory.Store
	Bills     billing.Store
}

// Commit implements Committer.
func (c PGCommitter) Commit(ctx context.Context, reservations []inventory.Reservation, bill *billing.Bill) error {
	tx, err := c.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("checkout: begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	for _, res := range reservations {
		if err := c.Inventory.Reserve(ctx, tx, res.Key, res.Quantity); err != nil {
			if errors.Is(err, inventory.ErrInsufficient) {
				return common.InsufficientStockError(
					fmt.Sprintf("insufficient stock for product %s", res.ProductName))
			}
			return err
		}
	}
	if err := c.Bills.Insert(ctx, tx, bill); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// PGProducts binds the catalog service to a fixed DB handle for checkout
// product lookups.
type PGProducts struct {
	DB      repo.DB
	Catalog *catalog.Service
}

// ProductForSale implements ProductSource.
func (p PGProducts) ProductForSale(ctx context.Context, productID string) (catalog.Product, error) {
	return p.Catalog.ProductForSale(ctx, p.DB, productID)
}
