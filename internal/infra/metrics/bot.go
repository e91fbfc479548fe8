package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		botUpdates,
		botFloodDrops,
	)
}

var (
	botUpdates = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_updates_total",
			Help: "Inbound Telegram updates by kind (message/callback) and mode (polling/webhook).",
		},
		[]string{"kind", "mode"},
	)

	botFloodDrops = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bot_flood_drops_total",
			Help: "Updates dropped by the per-chat flood limiter.",
		},
	)
)

func IncBotUpdate(kind, mode string) {
	botUpdates.WithLabelValues(norm(kind), norm(mode)).Inc()
}

func IncBotFloodDrop() {
	botFloodDrops.Inc()
}
