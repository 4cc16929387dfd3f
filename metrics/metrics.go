package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	VotesRecorded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "devchallenge_votes_recorded_total",
			Help: "Votes accepted into the ledger, by tier.",
		},
		[]string{"tier"},
	)

	QuotaRejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "devchallenge_quota_rejections_total",
			Help: "Votes rejected because the daily tier cap was reached.",
		},
		[]string{"tier"},
	)

	PairsServed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "devchallenge_voting_pairs_served_total",
			Help: "Voting pairs handed out by the match resolver.",
		},
	)

	MatchesResolved = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "devchallenge_matches_resolved_total",
			Help: "Match results applied by the rating engine.",
		},
	)

	WSConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "devchallenge_ws_connections",
			Help: "Currently open WebSocket connections.",
		},
	)

	WSMessagesDropped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "devchallenge_ws_messages_dropped_total",
			Help: "Inbound WebSocket messages dropped as unparseable.",
		},
	)
)

// Register installs all collectors on the default registry. Call once at boot.
func Register() {
	prometheus.MustRegister(
		VotesRecorded,
		QuotaRejections,
		PairsServed,
		MatchesResolved,
		WSConnections,
		WSMessagesDropped,
	)
}
