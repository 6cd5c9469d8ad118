//go:generate mockgen -source=$GOFILE -package=$GOPACKAGE -destination=./mock/$GOFILE

package logs

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	logsmodel "github.com/stacklog/stacklog/internal/model/logs"
	loggerpkg "github.com/stacklog/stacklog/internal/pkg/logger"
	"github.com/stacklog/stacklog/internal/pkg/redis"
	"github.com/stacklog/stacklog/internal/pkg/svc"
)

// Engine is the evaluation contract the transport layer consumes. The
// Service implements it directly; CachedEngine decorates it.
type Engine interface {
	Evaluate(ctx context.Context, query logsmodel.Query) (*logsmodel.LogResult, error)
	CreateUnit(ctx context.Context, name string) (*logsmodel.Unit, error)
	ListUnits(ctx context.Context) ([]*logsmodel.Unit, error)
}

// CachedEngine is a read-through Redis cache in front of an Engine. The
// engine itself stays stateless; caching is this separate layer. A short TTL
// bounds staleness so polling consumers still observe a growing store, and
// entries are only ever replaced by newer evaluations so sequential reads
// never regress chronologically. Cache failures degrade to the inner engine.
type CachedEngine struct {
	tp    trace.Tracer
	inner Engine
	rdb   *redis.Store
	ttl   time.Duration
}

// NewCachedEngine wraps inner with a Redis result cache.
func NewCachedEngine(inner Engine, rdb *redis.Store, ttl time.Duration) *CachedEngine {
	return &CachedEngine{
		tp:    otel.Tracer(svc.Info().GetName()),
		inner: inner,
		rdb:   rdb,
		ttl:   ttl,
	}
}

// Evaluate returns a cached result for the descriptor when one is fresh,
// otherwise evaluates through the inner engine and stores the outcome.
func (c *CachedEngine) Evaluate(ctx context.Context, query logsmodel.Query) (*logsmodel.LogResult, error) {
	ctx, span := c.tp.Start(ctx, "CachedEngine.Evaluate")
	defer span.End()

	logger := loggerpkg.FromContext(ctx)
	key := cacheKey(query)

	var cached logsmodel.LogResult
	getErr := c.rdb.Get(ctx, key, &cached)
	if getErr == nil {
		return &cached, nil
	}
	if status.Code(getErr) != codes.NotFound {
		logger.Warn("failed to read query result cache", zap.String("key", key), zap.Error(getErr))
	}

	res, err := c.inner.Evaluate(ctx, query)
	if err != nil {
		return nil, err
	}

	if setErr := c.rdb.Set(ctx, key, res, c.ttl); setErr != nil {
		logger.Warn("failed to write query result cache", zap.String("key", key), zap.Error(setErr))
	}

	return res, nil
}

// CreateUnit passes through to the inner engine.
func (c *CachedEngine) CreateUnit(ctx context.Context, name string) (*logsmodel.Unit, error) {
	return c.inner.CreateUnit(ctx, name)
}

// ListUnits passes through to the inner engine.
func (c *CachedEngine) ListUnits(ctx context.Context) ([]*logsmodel.Unit, error) {
	return c.inner.ListUnits(ctx)
}

// cacheKey derives a canonical cache key from the descriptor. Identical
// descriptors share a key; any differing parameter yields a distinct one.
func cacheKey(query logsmodel.Query) string {
	switch q := query.(type) {
	case *logsmodel.TailQuery:
		return fmt.Sprintf("logs:tail:%s:%d:%t", q.Unit, q.TailCount, q.IncludeTimestamps)
	case *logsmodel.SearchQuery:
		return fmt.Sprintf(
			"logs:search:%s:%s:%t:%t:%s",
			q.Unit,
			q.Combinator.ToString(),
			q.Invert,
			q.IncludeTimestamps,
			strings.Join(q.Terms, "\x1f"),
		)
	default:
		return "logs:unknown"
	}
}
