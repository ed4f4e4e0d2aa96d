package database

import (
	"context"
	"strings"
	"time"

	"github.com/healthreach/platform/internal/shared/metrics"
	"github.com/jackc/pgx/v5"
)

// queryTracer times every pool query and feeds the duration into the
// metrics registry, labelled by the leading SQL keyword to keep label
// cardinality bounded.
type queryTracer struct{}

type queryStartKey struct{}

type queryStart struct {
	operation string
	begin     time.Time
}

func (queryTracer) TraceQueryStart(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryStartData) context.Context {
	return context.WithValue(ctx, queryStartKey{}, queryStart{
		operation: sqlOperation(data.SQL),
		begin:     time.Now(),
	})
}

func (queryTracer) TraceQueryEnd(ctx context.Context, _ *pgx.Conn, _ pgx.TraceQueryEndData) {
	if s, ok := ctx.Value(queryStartKey{}).(queryStart); ok {
		metrics.RecordDBQuery(s.operation, time.Since(s.begin))
	}
}

// sqlOperation returns the first keyword of a statement, lowercased
func sqlOperation(sql string) string {
	fields := strings.Fields(sql)
	if len(fields) == 0 {
		return "unknown"
	}
	return strings.ToLower(fields[0])
}
