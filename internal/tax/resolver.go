package tax

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-pos/internal/repo"
)

// Kind discriminates how a tax rule's value is applied.
type Kind string

const (
	// Percentage applies value as a percentage of the line subtotal.
	Percentage Kind = "percentage"
	// Fixed applies value as a flat amount once per line.
	Fixed Kind = "fixed"
)

// Rule is one tax rule attached to a product category.
type Rule struct {
	ID         string
	Name       string
	CategoryID string
	Kind       Kind
	Value      decimal.Decimal
	Active     bool
}

// Store reads tax rules from Postgres.
type Store struct{}

// ActiveRules returns every active rule for the category ordered by name then
// id, so a cart prices deterministically. An untaxed category yields an empty
// slice, not an error.
func (Store) ActiveRules(ctx context.Context, db repo.DB, categoryID string) ([]Rule, error) {
	rows, err := db.Query(ctx, `
		SELECT id::text, name, category_id::text, kind, value
		FROM tax_rules
		WHERE category_id = $1::uuid AND is_active
		ORDER BY name, id`, categoryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rules := make([]Rule, 0, 4)
	for rows.Next() {
		var r Rule
		var kind string
		if err := rows.Scan(&r.ID, &r.Name, &r.CategoryID, &kind, &r.Value); err != nil {
			return nil, err
		}
		r.Kind = Kind(kind)
		r.Active = true
		rules = append(rules, r)
	}
	return rules, rows.Err()
}

// Resolver binds the store to a pool-like DB so callers outside the checkout
// transaction can resolve rules without managing a connection.
type Resolver struct {
	DB    repo.DB
	Store Store
}

// ActiveRules implements the rule source contract used by checkout.
func (r Resolver) ActiveRules(ctx context.Context, categoryID string) ([]Rule, error) {
	return r.Store.ActiveRules(ctx, r.DB, categoryID)
}
