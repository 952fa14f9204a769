package metrics

import (
	"github.com/jackc/pgx/v5/pgxpool"
)

// RecordDBPoolMetrics samples the pgx pool counters into the
// DBPoolConnections gauge. The app polls this on an interval rather than
// registering a custom collector.
func RecordDBPoolMetrics(pool *pgxpool.Pool) {
	stats := pool.Stat()
	DBPoolConnections.WithLabelValues("in_use").Set(float64(stats.AcquiredConns()))
	DBPoolConnections.WithLabelValues("idle").Set(float64(stats.IdleConns()))
	DBPoolConnections.WithLabelValues("max").Set(float64(stats.MaxConns()))
}
