package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PassesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "smeltingmetal_passes_total",
			Help: "Total number of recipe rewrite passes",
		},
		[]string{"trigger"},
	)

	PassDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "smeltingmetal_pass_duration_seconds",
			Help:    "Recipe rewrite pass duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"trigger"},
	)

	RecipesAddedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "smeltingmetal_recipes_added_total",
			Help: "Total number of synthesized recipes added to the table",
		},
		[]string{"rule"},
	)

	RecipesRemovedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "smeltingmetal_recipes_removed_total",
			Help: "Total number of recipes removed from the table",
		},
		[]string{"rule"},
	)

	RecipesSkippedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "smeltingmetal_recipes_skipped_total",
			Help: "Total number of recipes skipped because an item did not resolve",
		},
		[]string{"rule"},
	)

	StoreRecords = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "smeltingmetal_store_records",
			Help: "Resolved metal and gem records in the property store",
		},
		[]string{"kind"},
	)

	TableRecipes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "smeltingmetal_table_recipes",
			Help: "Recipes in the table after the last pass",
		},
	)
)

func RecordPass(trigger string, duration time.Duration, tableSize int) {
	PassesTotal.WithLabelValues(trigger).Inc()
	PassDuration.WithLabelValues(trigger).Observe(duration.Seconds())
	TableRecipes.Set(float64(tableSize))
}

func RecordRule(rule string, added, removed, skipped int) {
	if added > 0 {
		RecipesAddedTotal.WithLabelValues(rule).Add(float64(added))
	}
	if removed > 0 {
		RecipesRemovedTotal.WithLabelValues(rule).Add(float64(removed))
	}
	if skipped > 0 {
		RecipesSkippedTotal.WithLabelValues(rule).Add(float64(skipped))
	}
}

func SetStoreRecords(metals, gems int) {
	StoreRecords.WithLabelValues("metal").Set(float64(metals))
	StoreRecords.WithLabelValues("gem").Set(float64(gems))
}
