package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	indexRebuilds = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "slug_index_rebuilds_total",
		Help: "Forward index rebuild attempts by result",
	}, []string{"result"})

	indexEdges = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "slug_index_edges",
		Help: "Effective redirect mappings in the current forward index snapshot",
	})

	resolutions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "slug_resolutions_total",
		Help: "Read endpoint lookups by action",
	}, []string{"action"})

	mappingProposals = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "slug_mapping_proposals_total",
		Help: "Mapping writer outcomes",
	}, []string{"outcome"})
)
