package db

import (
	"errors"
	"fmt"
	"time"

	pgx "github.com/jackc/pgx/v4"

	"github.com/mkravets/authd/internal/observability/metrics"
)

// HandleQueryError records query timing, translates pgx.ErrNoRows to the
// caller's not-found sentinel and wraps everything else.
func HandleQueryError(err error, notFoundErr error, operation string, startTime time.Time) error {
	metrics.DBQueryDurationSeconds.WithLabelValues(operation).Observe(time.Since(startTime).Seconds())

	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) && notFoundErr != nil {
		return notFoundErr
	}
	metrics.DBQueryErrorsTotal.WithLabelValues(operation).Inc()
	return fmt.Errorf("failed to %s: %w", operation, err)
}

func HandleExecError(err error, operation string, startTime time.Time) error {
	metrics.DBQueryDurationSeconds.WithLabelValues(operation).Observe(time.Since(startTime).Seconds())

	if err == nil {
		return nil
	}
	metrics.DBQueryErrorsTotal.WithLabelValues(operation).Inc()
	return fmt.Errorf("failed to %s: %w", operation, err)
}
