package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		ordersTotal,
		paymentsRevenueTotal,
		ordersExpired,
	)
}

var (
	ordersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orders_total",
			Help: "Order transitions by status (pending/paid/failed).",
		},
		[]string{"status"},
	)

	paymentsRevenueTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payments_revenue_total",
			Help: "The total monetary value of settled orders, labeled by currency.",
		},
		[]string{"currency"},
	)

	ordersExpired = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "orders_expired_total",
			Help: "Pending orders failed by the stale-order sweeper.",
		},
	)
)

func IncOrder(status string) {
	ordersTotal.WithLabelValues(norm(status)).Inc()
}

func AddPaymentRevenue(currency string, amount int64) {
	paymentsRevenueTotal.WithLabelValues(norm(currency)).Add(float64(amount))
}

func AddOrdersExpired(n int64) {
	ordersExpired.Add(float64(n))
}
