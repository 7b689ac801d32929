package catalog

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-pos/internal/common"
	"github.com/noah-isme/backend-pos/internal/repo"
)

// Product is the catalog read model: the priced, categorised item a cashier
// can ring up.
type Product struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Price        decimal.Decimal `json:"price"`
	CategoryID   string          `json:"categoryId"`
	CategoryName string          `json:"categoryName"`
	Active       bool            `json:"active"`
}

// StoreSummary is a store row for the stores listing.
type StoreSummary struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address,omitempty"`
}

// Service reads products and stores, with a Redis cache in front of the
// listing queries. The cache is read-through; checkout lookups always hit the
// database so a just-deactivated product cannot be sold from a stale entry.
type Service struct {
	DB    repo.DB
	Cache *Cache
}

const productSelect = `
	SELECT p.id::text, p.name, p.price, p.category_id::text, c.name, p.is_active
	FROM products p
	JOIN categories c ON c.id = p.category_id`

// ProductForSale fetches one product for checkout. Unknown and inactive
// products are both NOT_FOUND so the client cannot distinguish retired
// products from never-existing ones.
func (s *Service) ProductForSale(ctx context.Context, db repo.DB, productID string) (Product, error) {
	row := db.QueryRow(ctx, productSelect+` WHERE p.id = $1::uuid AND p.is_active`, productID)
	var p Product
	err := row.Scan(&p.ID, &p.Name, &p.Price, &p.CategoryID, &p.CategoryName, &p.Active)
	if err != nil {
		if repo.IsNoRows(err) {
			return Product{}, common.NotFoundError(fmt.Sprintf("product %s not found", productID))
		}
		return Product{}, err
	}
	return p, nil
}

// ListProducts returns the active catalog, cached per store.
func (s *Service) ListProducts(ctx context.Context, storeID string) ([]Product, error) {
	key := "catalog:products:" + storeID
	var cached []Product
	if ok, _ := s.Cache.GetJSON(ctx, key, &cached); ok {
		return cached, nil
	}
	products, err := s.queryProducts(ctx, productSelect+`
		JOIN inventory i ON i.product_id = p.id AND i.store_id = $1::uuid
		WHERE p.is_active
		ORDER BY p.name`, storeID)
	if err != nil {
		return nil, err
	}
	_ = s.Cache.SetJSON(ctx, key, products)
	return products, nil
}

// SearchProducts filters active products by name. Search results are not
// cached; the query space is unbounded.
func (s *Service) SearchProducts(ctx context.Context, storeID, q string) ([]Product, error) {
	return s.queryProducts(ctx, productSelect+`
		JOIN inventory i ON i.product_id = p.id AND i.store_id = $1::uuid
		WHERE p.is_active AND p.name ILIKE '%' || $2 || '%'
		ORDER BY p.name`, storeID, q)
}

// ListStores returns all stores.
func (s *Service) ListStores(ctx context.Context) ([]StoreSummary, error) {
	rows, err := s.DB.Query(ctx, `SELECT id::text, name, COALESCE(address, '') FROM stores ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]StoreSummary, 0, 8)
	for rows.Next() {
		var st StoreSummary
		if err := rows.Scan(&st.ID, &st.Name, &st.Address); err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

func (s *Service) queryProducts(ctx context.Context, sql string, args ...any) ([]Product, error) {
	rows, err := s.DB.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Product, 0, 32)
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Price, &p.CategoryID, &p.CategoryName, &p.Active); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
