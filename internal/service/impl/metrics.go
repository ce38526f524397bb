package impl

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var postsCreated = promauto.NewCounter(prometheus.CounterOpts{
	Name: "board_posts_created",
	Help: "Number of accepted posts",
})

var postsRemoved = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "board_posts_removed",
	Help: "Number of removed posts",
}, []string{"cause"})

var votesApplied = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "board_votes_applied",
	Help: "Number of applied votes",
}, []string{"action"})

var eventsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "board_events_rejected",
	Help: "Number of rejected events",
}, []string{"reason"})

var eventsFailed = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "board_events_failed",
	Help: "Number of events failed with an error",
}, []string{"event"})

var queueLength = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "board_autodelete_queue_length",
	Help: "Number of posts waiting for auto delete",
})
