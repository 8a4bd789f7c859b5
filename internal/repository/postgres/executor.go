package postgres

import (
	"context"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"

	"github.com/jwalitptl/intake-api/pkg/metrics"
)

// Row is one result row keyed by column alias.
type Row map[string]interface{}

// Result holds every row a statement returned.
type Result struct {
	Rows     []Row
	RowCount int
}

// Executor runs one parameterized statement and collects its rows. Mutations
// use RETURNING so RowCount doubles as the affected-row count.
type Executor interface {
	Query(ctx context.Context, query string, args ...interface{}) (*Result, error)
}

type sqlxExecutor struct {
	db      *sqlx.DB
	logger  *zerolog.Logger
	metrics *metrics.Metrics
}

// NewExecutor wraps db. Each statement is logged at debug level with its
// duration and row count; bound values are never logged.
func NewExecutor(db *sqlx.DB, logger *zerolog.Logger, m *metrics.Metrics) Executor {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &sqlxExecutor{db: db, logger: logger, metrics: m}
}

func (e *sqlxExecutor) Query(ctx context.Context, query string, args ...interface{}) (*Result, error) {
	start := time.Now()
	op := operation(query)

	result, err := e.run(ctx, query, args)
	duration := time.Since(start)

	status := "success"
	if err != nil {
		status = "error"
	}
	if e.metrics != nil {
		e.metrics.DatabaseOperations.WithLabelValues(op, status).Inc()
		e.metrics.DatabaseLatency.WithLabelValues(op).Observe(duration.Seconds())
	}

	if err != nil {
		e.logger.Debug().
			Err(err).
			Str("query", query).
			Dur("duration", duration).
			Msg("query failed")
		return nil, err
	}

	e.logger.Debug().
		Str("query", query).
		Dur("duration", duration).
		Int("rows", result.RowCount).
		Msg("executed query")
	return result, nil
}

func (e *sqlxExecutor) run(ctx context.Context, query string, args []interface{}) (*Result, error) {
	rows, err := e.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := &Result{}
	for rows.Next() {
		row := Row{}
		if err := rows.MapScan(row); err != nil {
			return nil, err
		}
		result.Rows = append(result.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	result.RowCount = len(result.Rows)
	return result, nil
}

// operation labels a statement by its leading keyword.
func operation(query string) string {
	fields := strings.Fields(query)
	if len(fields) == 0 {
		return "unknown"
	}
	return strings.ToLower(fields[0])
}
