package obs

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// CheckoutTotal counts checkout transaction outcomes.
	CheckoutTotal *prometheus.CounterVec
	// CheckoutDuration records checkout latency in milliseconds by outcome.
	CheckoutDuration *prometheus.HistogramVec
	// StockRejectionsTotal counts reservations refused for insufficient inventory.
	StockRejectionsTotal prometheus.Counter
	// InvoiceDeliveriesTotal tracks invoice email delivery outcomes.
	InvoiceDeliveriesTotal *prometheus.CounterVec
	// InsightRequestsTotal counts insight text generation outcomes including fallbacks.
	InsightRequestsTotal *prometheus.CounterVec
	// CampaignEmailsTotal counts marketing campaign email send outcomes.
	CampaignEmailsTotal *prometheus.CounterVec
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		CheckoutTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkout_total",
			Help:      "Count of checkout transactions by outcome.",
		}, []string{"result"})
		CheckoutDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "checkout_duration_ms",
			Help:      "Checkout transaction latency in milliseconds.",
			Buckets:   []float64{10, 25, 50, 100, 250, 500, 1000, 2500},
		}, []string{"result"})
		StockRejectionsTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stock_rejections_total",
			Help:      "Number of checkouts refused for insufficient inventory.",
		})
		InvoiceDeliveriesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invoice_deliveries_total",
			Help:      "Count of invoice email delivery outcomes.",
		}, []string{"result"})
		InsightRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "insight_requests_total",
			Help:      "Count of insight text generation outcomes.",
		}, []string{"kind", "result"})
		CampaignEmailsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "campaign_emails_total",
			Help:      "Count of marketing campaign email send outcomes.",
		}, []string{"result"})

		mustRegisterCollector(reg, CheckoutTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				CheckoutTotal = v
			}
		})
		mustRegisterCollector(reg, CheckoutDuration, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.HistogramVec); ok {
				CheckoutDuration = v
			}
		})
		mustRegisterCollector(reg, StockRejectionsTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Counter); ok {
				StockRejectionsTotal = v
			}
		})
		mustRegisterCollector(reg, InvoiceDeliveriesTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				InvoiceDeliveriesTotal = v
			}
		})
		mustRegisterCollector(reg, InsightRequestsTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				InsightRequestsTotal = v
			}
		})
		mustRegisterCollector(reg, CampaignEmailsTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				CampaignEmailsTotal = v
			}
		})
	})
}

func mustRegisterCollector(reg prometheus.Registerer, collector prometheus.Collector, reuse func(prometheus.Collector)) {
	if err := reg.Register(collector); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if reuse != nil {
				reuse(are.ExistingCollector)
			}
			return
		}
		panic(fmt.Errorf("register domain metric: %w", err))
	}
}
