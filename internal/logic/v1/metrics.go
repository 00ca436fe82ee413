package v1

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	authAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_attempts_total",
			Help: "Registration and login attempts by outcome",
		},
		[]string{"operation", "result"},
	)

	courseCompletionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "course_completions_total",
			Help: "Course completion requests by outcome (awarded or duplicate)",
		},
		[]string{"result"},
	)

	courseRatingsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "course_ratings_total",
			Help: "Ratings written, including overwrites",
		},
	)
)
