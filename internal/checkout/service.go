package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-pos/internal/billing"
	"github.com/noah-isme/backend-pos/internal/catalog"
	"github.com/noah-isme/backend-pos/internal/common"
	"github.com/noah-isme/backend-pos/internal/inventory"
	"github.com/noah-isme/backend-pos/internal/obs"
	"github.com/noah-isme/backend-pos/internal/tax"
)

// ItemInput is one requested cart line.
type ItemInput struct {
	ProductID string `json:"productId" validate:"required,uuid4"`
	Quantity  int    `json:"quantity" validate:"required,gt=0"`
}

// Input is a checkout request after JSON decoding.
type Input struct {
	StoreID       string      `json:"storeId" validate:"required,uuid4"`
	Items         []ItemInput `json:"items" validate:"required,min=1,dive"`
	CustomerName  string      `json:"customerName" validate:"omitempty,max=120"`
	CustomerPhone string      `json:"customerPhone" validate:"omitempty,max=32"`
	CustomerEmail string      `json:"customerEmail" validate:"omitempty,email"`
}

// ProductSource resolves products the cashier rings up.
type ProductSource interface {
	ProductForSale(ctx context.Context, productID string) (catalog.Product, error)
}

// RuleSource resolves the active tax rules for a category.
type RuleSource interface {
	ActiveRules(ctx context.Context, categoryID string) ([]tax.Rule, error)
}

// Committer applies the reservations and the bill insert as one atomic unit.
// Either every decrement and the bill land together, or nothing does.
type Committer interface {
	Commit(ctx context.Context, reservations []inventory.Reservation, bill *billing.Bill) error
}

// Delivery enqueues the invoice email after a committed checkout. Failures
// here never fail the checkout.
type Delivery interface {
	EnqueueInvoice(ctx context.Context, bill billing.Bill) error
}

// Service orchestrates a checkout: resolve products and rules, price the
// cart, commit atomically, then hand the invoice off for delivery.
type Service struct {
	Products ProductSource
	Rules    RuleSource
	Commit   Committer
	Delivery Delivery
	Logger   zerolog.Logger
	Now      func() time.Time
	NewID    func() string
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

func (s *Service) newID() string {
	if s.NewID != nil {
		return s.NewID()
	}
	return uuid.NewString()
}

// Checkout runs one sale end to end and returns the persisted bill.
func (s *Service) Checkout(ctx context.Context, in Input) (billing.Bill, error) {
	started := time.Now()
	bill, err := s.checkout(ctx, in)
	observeCheckout(started, err)
	return bill, err
}

func (s *Service) checkout(ctx context.Context, in Input) (billing.Bill, error) {
	if len(in.Items) == 0 {
		return billing.Bill{}, common.ValidationError("at least one item is required")
	}

	// Rules are memoised per category so a cart of many lines in one
	// category resolves them once.
	rulesByCategory := map[string][]tax.Rule{}
	lines := make([]billing.LineInput, 0, len(in.Items))
	reservations := make([]inventory.Reservation, 0, len(in.Items))

	for _, item := range in.Items {
		if item.Quantity <= 0 {
			return billing.Bill{}, common.ValidationError(fmt.Sprintf("quantity must be positive for product %s", item.ProductID))
		}
		product, err := s.Products.ProductForSale(ctx, item.ProductID)
		if err != nil {
			return billing.Bill{}, err
		}
		rules, ok := rulesByCategory[product.CategoryID]
		if !ok {
			rules, err = s.Rules.ActiveRules(ctx, product.CategoryID)
			if err != nil {
				return billing.Bill{}, err
			}
			rulesByCategory[product.CategoryID] = rules
		}
		lines = append(lines, billing.LineInput{
			ProductID:   product.ID,
			ProductName: product.Name,
			Quantity:    item.Quantity,
			UnitPrice:   product.Price,
			Rules:       rules,
		})
		reservations = append(reservations, inventory.Reservation{
			Key: inventory.Key{
				StoreID:    in.StoreID,
				ProductID:  product.ID,
				CategoryID: product.CategoryID,
			},
			ProductName: product.Name,
			Quantity:    int32(item.Quantity),
		})
	}

	summary, err := billing.Compute(lines)
	if err != nil {
		return billing.Bill{}, common.ValidationError(err.Error())
	}

	bill := billing.Bill{
		BillID:        s.newID(),
		StoreID:       in.StoreID,
		Items:         summary.Lines,
		Subtotal:      summary.Subtotal.Round(2),
		TaxAmount:     summary.TaxTotal.Round(2),
		GrandTotal:    summary.GrandTotal,
		CustomerName:  in.CustomerName,
		CustomerPhone: in.CustomerPhone,
		CustomerEmail: in.CustomerEmail,
		TaxBreakdown:  summary.TaxBreakdown,
		CreatedAt:     s.now(),
	}

	if err := s.Commit.Commit(ctx, reservations, &bill); err != nil {
		return billing.Bill{}, err
	}

	s.Logger.Info().
		Str("bill_id", bill.BillID).
		Str("store_id", bill.StoreID).
		Int("lines", len(bill.Items)).
		Str("grand_total", bill.GrandTotal.StringFixed(2)).
		Msg("checkout committed")

	if s.Delivery != nil && bill.CustomerEmail != "" {
		if err := s.Delivery.EnqueueInvoice(ctx, bill); err != nil {
			s.Logger.Warn().Err(err).Str("bill_id", bill.BillID).Msg("invoice delivery enqueue failed")
		}
	}
	return bill, nil
}

func observeCheckout(started time.Time, err error) {
	result := "success"
	switch {
	case err == nil:
	case isInsufficientStock(err):
		result = "insufficient_stock"
		if obs.StockRejectionsTotal != nil {
			obs.StockRejectionsTotal.Inc()
		}
	case common.IsAppError(err):
		result = "rejected"
	default:
		result = "error"
	}
	if obs.CheckoutTotal != nil {
		obs.CheckoutTotal.WithLabelValues(result).Inc()
	}
	if obs.CheckoutDuration != nil {
		obs.CheckoutDuration.WithLabelValues(result).Observe(float64(time.Since(started).Milliseconds()))
	}
}

func isInsufficientStock(err error) bool {
	var appErr *common.AppError
	if errors.As(err, &appErr) {
		return appErr.Code == common.CodeInsufficientStock
	}
	return false
}
