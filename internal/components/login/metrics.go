package login

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// screensOpen tracks login screens currently held in memory.
	screensOpen = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "login_screens_open",
		Help: "Number of login screens currently open",
	})

	// stateTransitions counts controller state changes.
	stateTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "login_state_transitions_total",
		Help: "Total number of login form state transitions",
	}, []string{"from", "to"})

	// submitRejections counts submits refused before reaching the auth client.
	submitRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "login_submit_rejections_total",
		Help: "Total number of login submits rejected before authentication",
	}, []string{"reason"})
)

func recordTransition(from, to State) {
	stateTransitions.WithLabelValues(from.String(), to.String()).Inc()
}

func recordRejection(err error) {
	reason := "unknown"
	switch err {
	case ErrInvalidEmail:
		reason = "invalid_email"
	case ErrNoConnectivity:
		reason = "no_connectivity"
	case ErrSubmitInProgress:
		reason = "in_progress"
	}
	submitRejections.WithLabelValues(reason).Inc()
}
