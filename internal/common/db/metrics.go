package db

import (
	"time"

	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/mkravets/authd/internal/observability/metrics"
)

func StartPoolMetrics(pool *pgxpool.Pool, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for range ticker.C {
			stat := pool.Stat()
			metrics.DBPoolConnections.WithLabelValues("total").Set(float64(stat.TotalConns()))
			metrics.DBPoolConnections.WithLabelValues("idle").Set(float64(stat.IdleConns()))
			metrics.DBPoolConnections.WithLabelValues("acquired").Set(float64(stat.AcquiredConns()))
		}
	}()
}
