//go:generate mockgen -source=$GOFILE -package=$GOPACKAGE -destination=./mock/$GOFILE

package logs

import (
	"context"
	"database/sql"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	logsmodel "github.com/stacklog/stacklog/internal/model/logs"
	"github.com/stacklog/stacklog/internal/pkg/svc"
)

// Repository is the read contract any log storage backend must satisfy. Both
// streams come back from one call, each ordered oldest-first. Failure modes:
// codes.NotFound for an absent unit, codes.Unavailable for a transient
// backend failure, codes.Internal for a malformed backend response.
type Repository interface {
	ReadTail(ctx context.Context, unit string, maxLines int, withTimestamps bool) (stdout, stderr []*logsmodel.LogLine, err error)
	ReadFiltered(ctx context.Context, unit string, terms []string, combinator logsmodel.Combinator, invert, withTimestamps bool) (stdout, stderr []*logsmodel.LogLine, err error)
}

// Registry provides unit registry administration. Backends without a
// registry (the live mode) run without one.
type Registry interface {
	CreateUnit(ctx context.Context, name string) (*logsmodel.Unit, error)
	ListUnits(ctx context.Context) ([]*logsmodel.Unit, error)
}

// Service is the log query engine. It is stateless per call: each Evaluate
// translates one descriptor into exactly one repository read and normalizes
// the response.
type Service struct {
	validator *validator.Validate
	tp        trace.Tracer
	repo      Repository
	registry  Registry
}

// New creates a new logs service. registry may be nil when the backend has
// no unit registry.
func New(validator *validator.Validate, repo Repository, registry Registry) *Service {
	return &Service{
		validator: validator,
		tp:        otel.Tracer(svc.Info().GetName()),
		repo:      repo,
		registry:  registry,
	}
}

// TailQueryRequest holds the validated parameters of a tail query.
type TailQueryRequest struct {
	Unit      string `validate:"required"`
	TailCount int    `validate:"min=0"`
}

// SearchQueryRequest holds the validated parameters of a search query.
type SearchQueryRequest struct {
	Unit       string   `validate:"required"`
	Terms      []string `validate:"required,min=1,dive,required"`
	Combinator string   `validate:"required,oneof=and or"`
}

// Evaluate runs one query against the log store and returns a fresh,
// stream-partitioned result. A failed evaluation returns no result at all,
// never a half-populated one.
func (s *Service) Evaluate(ctx context.Context, query logsmodel.Query) (res *logsmodel.LogResult, err error) {
	ctx, span := s.tp.Start(ctx, "Service.Evaluate")
	defer func() {
		if err != nil {
			span.SetStatus(otelcodes.Error, err.Error())
			span.RecordError(err)
		}
		span.End()
	}()

	var stdout, stderr []*logsmodel.LogLine
	switch q := query.(type) {
	case *logsmodel.TailQuery:
		err = s.validator.Struct(&TailQueryRequest{
			Unit:      q.Unit,
			TailCount: q.TailCount,
		})
		if err != nil {
			err = status.Errorf(codes.InvalidArgument, "invalid query: %v", err)
			return nil, err
		}

		stdout, stderr, err = s.repo.ReadTail(ctx, q.Unit, q.TailCount, q.IncludeTimestamps)

	case *logsmodel.SearchQuery:
		terms := trimTerms(q.Terms)
		err = s.validator.Struct(&SearchQueryRequest{
			Unit:       q.Unit,
			Terms:      terms,
			Combinator: q.Combinator.ToString(),
		})
		if err != nil {
			err = status.Errorf(codes.InvalidArgument, "invalid query: %v", err)
			return nil, err
		}

		stdout, stderr, err = s.repo.ReadFiltered(ctx, q.Unit, terms, q.Combinator, q.Invert, q.IncludeTimestamps)

	default:
		err = status.Error(codes.InvalidArgument, "invalid query: unsupported descriptor")
		return nil, err
	}
	if err != nil {
		return nil, err
	}

	if stdout, err = normalizeLines(stdout, query.WithTimestamps()); err != nil {
		return nil, err
	}
	if stderr, err = normalizeLines(stderr, query.WithTimestamps()); err != nil {
		return nil, err
	}

	return &logsmodel.LogResult{
		Stdout: stdout,
		Stderr: stderr,
	}, nil
}

// CreateUnitRequest holds the validated parameters of a unit registration.
type CreateUnitRequest struct {
	Name string `validate:"required"`
}

// CreateUnit registers a new unit in the registry.
func (s *Service) CreateUnit(ctx context.Context, name string) (res *logsmodel.Unit, err error) {
	ctx, span := s.tp.Start(ctx, "Service.CreateUnit")
	defer func() {
		if err != nil {
			span.SetStatus(otelcodes.Error, err.Error())
			span.RecordError(err)
		}
		span.End()
	}()

	if s.registry == nil {
		err = status.Error(codes.Unimplemented, "unit registry is not configured")
		return nil, err
	}

	err = s.validator.Struct(&CreateUnitRequest{
		Name: strings.TrimSpace(name),
	})
	if err != nil {
		err = status.Errorf(codes.InvalidArgument, "invalid request: %v", err)
		return nil, err
	}

	res, err = s.registry.CreateUnit(ctx, strings.TrimSpace(name))
	if err != nil {
		return nil, err
	}

	return res, nil
}

// ListUnits returns all registered units.
func (s *Service) ListUnits(ctx context.Context) (res []*logsmodel.Unit, err error) {
	ctx, span := s.tp.Start(ctx, "Service.ListUnits")
	defer func() {
		if err != nil {
			span.SetStatus(otelcodes.Error, err.Error())
			span.RecordError(err)
		}
		span.End()
	}()

	if s.registry == nil {
		err = status.Error(codes.Unimplemented, "unit registry is not configured")
		return nil, err
	}

	res, err = s.registry.ListUnits(ctx)
	if err != nil {
		return nil, err
	}

	return res, nil
}

// trimTerms trims whitespace around every term, preserving order.
func trimTerms(terms []string) []string {
	trimmed := make([]string, len(terms))
	for i, term := range terms {
		trimmed[i] = strings.TrimSpace(term)
	}
	return trimmed
}

// normalizeLines enforces the timestamp invariant: when timestamps were not
// requested every line must carry none, and when they were requested a line
// without one is a malformed backend response.
func normalizeLines(lines []*logsmodel.LogLine, withTimestamps bool) ([]*logsmodel.LogLine, error) {
	if lines == nil {
		return []*logsmodel.LogLine{}, nil
	}

	for _, line := range lines {
		if !withTimestamps {
			line.Timestamp = sql.NullTime{}
			continue
		}
		if !line.Timestamp.Valid {
			return nil, status.Error(codes.Internal, "backend returned a line without a timestamp")
		}
	}

	return lines, nil
}
