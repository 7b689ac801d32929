package insights

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/noah-isme/backend-pos/internal/billing"
	"github.com/noah-isme/backend-pos/internal/obs"
	"github.com/noah-isme/backend-pos/internal/repo"
)

// Event is one upcoming holiday or festival a cashier can plan a promotion
// around.
type Event struct {
	Name string `json:"name"`
	Date string `json:"date"`
	Type string `json:"type"`
	Note string `json:"note"`
}

// Static events served when generation is unavailable so the UI keeps
// working.
var fallbackEvents = []Event{
	{Name: "Dussehra", Date: "2025-10-02", Type: "Festival", Note: "Major Hindu festival"},
	{Name: "Diwali", Date: "2025-10-20", Type: "Festival", Note: "Festival of Lights"},
	{Name: "Guru Nanak Jayanti", Date: "2025-11-05", Type: "Festival", Note: "Sikh festival"},
	{Name: "Christmas", Date: "2025-12-25", Type: "Holiday", Note: "Public holiday"},
}

const fallbackInsights = "Approximate insights based on sales summary: Focus on replenishing top-selling product names, bundle complementary items, and promote 10-15% discounts on slower movers. (AI service temporarily unavailable)"

// Generator is the text generation contract; *GeminiClient satisfies it.
type Generator interface {
	Generate(ctx context.Context, prompt string, cfg GenerationConfig) (string, error)
}

// SalesSource feeds the trend prompt with aggregated recent sales.
type SalesSource interface {
	TopProductSales(ctx context.Context, storeID string, since time.Time, limit int) ([]billing.ProductSales, error)
}

// PGSales binds the bill store to a DB handle as a SalesSource.
type PGSales struct {
	DB    repo.DB
	Bills billing.Store
}

// TopProductSales implements SalesSource.
func (p PGSales) TopProductSales(ctx context.Context, storeID string, since time.Time, limit int) ([]billing.ProductSales, error) {
	return p.Bills.TopProductSales(ctx, p.DB, storeID, since, limit)
}

// Service produces insight texts from recent sales and the generator.
type Service struct {
	Gen   Generator
	Sales SalesSource
	Now   func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

// UpcomingEvents lists the next notable holidays and festivals. The second
// return reports whether the static fallback was served.
func (s *Service) UpcomingEvents(ctx context.Context) ([]Event, bool) {
	prompt := fmt.Sprintf(`You are a helpful assistant for a retail cashier in India.
Today is %s. List the next 8 notable upcoming Indian government holidays, national festivals, and widely observed events within the next 60 days.
Return only a compact JSON array with objects of shape:
[{ "name": string, "date": "YYYY-MM-DD", "type": "Holiday|Festival|Event", "note": string }]
No extra text, only valid JSON.`, s.now().Format("2006-01-02"))

	text, err := s.Gen.Generate(ctx, prompt, GenerationConfig{Temperature: 0.3, MaxOutputTokens: 512})
	if err != nil {
		observeInsight("events", "fallback")
		return fallbackEvents, true
	}
	events, err := parseEvents(text)
	if err != nil || len(events) == 0 {
		observeInsight("events", "fallback")
		return fallbackEvents, true
	}
	observeInsight("events", "generated")
	return events, false
}

// TrendInsights answers a free-form question about a store's recent sales,
// grounded on an aggregated summary of the last 90 days.
func (s *Service) TrendInsights(ctx context.Context, storeID, question string) (string, bool) {
	since := s.now().AddDate(0, 0, -90)
	summary, err := s.Sales.TopProductSales(ctx, storeID, since, 100)
	if err != nil {
		observeInsight("trends", "fallback")
		return fallbackInsights, true
	}
	summaryJSON, err := json.Marshal(summary)
	if err != nil {
		observeInsight("trends", "fallback")
		return fallbackInsights, true
	}

	goal := strings.TrimSpace(question)
	if goal == "" {
		goal = "Provide overall sales trend insights for this store based on recent sales."
	}
	prompt := fmt.Sprintf(`Using ONLY the store sales summary below, answer the user's question as specifically as possible. If the exact answer is not derivable, provide the CLOSEST POSSIBLE estimate from the available data and clearly label it as "approximate". Never refuse; always answer with your best available store-based insight.

Store ID: %s
Data window in summary: last 90 days (as of %s)

Sales summary (aggregated by productName):
%s

User question:
%s

Answer format:
- Short, direct bullets or a numbered list
- If estimating, include a brief note like "approximate based on last 90 days"`,
		storeID, s.now().Format("2006-01-02"), summaryJSON, goal)

	text, err := s.Gen.Generate(ctx, prompt, GenerationConfig{Temperature: 0.25, TopP: 0.9, MaxOutputTokens: 1024})
	if err != nil {
		observeInsight("trends", "fallback")
		return fallbackInsights, true
	}
	observeInsight("trends", "generated")
	return text, false
}

// parseEvents decodes the model output, tolerating prose around the JSON
// array by slicing from the first '[' to the last ']'.
func parseEvents(text string) ([]Event, error) {
	var events []Event
	if err := json.Unmarshal([]byte(text), &events); err == nil {
		return events, nil
	}
	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("insights: no JSON array in output")
	}
	if err := json.Unmarshal([]byte(text[start:end+1]), &events); err != nil {
		return nil, fmt.Errorf("insights: parse events: %w", err)
	}
	return events, nil
}

func observeInsight(kind, result string) {
	if obs.InsightRequestsTotal != nil {
		obs.InsightRequestsTotal.WithLabelValues(kind, result).Inc()
	}
}
