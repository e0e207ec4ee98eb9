package utils

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	GamesStarted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coinbot_games_started_total",
			Help: "Game sessions started",
		},
		[]string{"game"},
	)
	GamesSettled = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coinbot_games_settled_total",
			Help: "Game sessions settled by outcome",
		},
		[]string{"game", "outcome"},
	)
	GamesAbandoned = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coinbot_games_abandoned_total",
			Help: "Game sessions abandoned after the wait expired",
		},
		[]string{"game"},
	)
	LedgerMutations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coinbot_ledger_mutations_total",
			Help: "Committed ledger mutations by kind",
		},
		[]string{"kind"},
	)
	CoinDrops = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coinbot_coin_drops_total",
			Help: "Coin drops by result",
		},
		[]string{"result"},
	)
	CommandLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "coinbot_command_seconds",
			Help:    "Slash command handling latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"command"},
	)
)

func init() {
	prometheus.MustRegister(GamesStarted)
	prometheus.MustRegister(GamesSettled)
	prometheus.MustRegister(GamesAbandoned)
	prometheus.MustRegister(LedgerMutations)
	prometheus.MustRegister(CoinDrops)
	prometheus.MustRegister(CommandLatency)
}
