package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ClassificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tas_classifications_total",
			Help: "Domain classifications by resulting threat level",
		},
		[]string{"threat_level"},
	)

	LookupFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tas_lookup_failures_total",
			Help: "Evidence lookups that degraded to absent results",
		},
		[]string{"source"},
	)

	RegistrationCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tas_registration_cache_hits_total",
			Help: "Registration lookups served from the TTL cache",
		},
	)

	RegistrationCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tas_registration_cache_misses_total",
			Help: "Registration lookups that went to the network",
		},
	)

	AssessmentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tas_assessments_total",
			Help: "Threat assessments by resulting threat level",
		},
		[]string{"threat_level"},
	)

	ScoringDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tas_scoring_duration_seconds",
			Help:    "Time spent computing a threat assessment",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1},
		},
	)

	ClassifyDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tas_classify_duration_seconds",
			Help:    "Time spent classifying a domain, lookups included",
			Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
	)
)
