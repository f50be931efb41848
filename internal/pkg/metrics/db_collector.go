package metrics

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PoolStats is the subset of *pgxpool.Pool the collector reads.
type PoolStats interface {
	Stat() *pgxpool.Stat
}

// RecordDBPoolMetrics sets the pool gauges from one snapshot.
func RecordDBPoolMetrics(pool PoolStats) {
	s := pool.Stat()
	for state, v := range map[string]int32{
		"in_use": s.AcquiredConns(),
		"idle":   s.IdleConns(),
		"total":  s.TotalConns(),
		"max":    s.MaxConns(),
	} {
		DBPoolConnections.WithLabelValues(state).Set(float64(v))
	}
}

// CollectDBPool records pool gauges immediately and then every interval
// until ctx is done.
func CollectDBPool(ctx context.Context, pool PoolStats, interval time.Duration) {
	RecordDBPoolMetrics(pool)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			RecordDBPoolMetrics(pool)
		case <-ctx.Done():
			return
		}
	}
}
