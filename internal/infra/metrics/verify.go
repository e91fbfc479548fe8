package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		verifyTotal,
		verifyBlocks,
	)
}

var (
	verifyTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "token_verify_total",
			Help: "Token verification calls by outcome reason and surface (http/bot).",
		},
		[]string{"reason", "surface"},
	)

	verifyBlocks = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "token_verify_blocks_total",
			Help: "Users escalated to the timed block by the attempt limiter.",
		},
	)
)

func IncVerify(reason, surface string) {
	verifyTotal.WithLabelValues(norm(reason), norm(surface)).Inc()
	if norm(reason) == "rate_limit" {
		verifyBlocks.Inc()
	}
}
