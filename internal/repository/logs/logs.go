package logs

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/jackc/pgx/v5"

	logsmodel "github.com/stacklog/stacklog/internal/model/logs"
	"github.com/stacklog/stacklog/internal/pkg/clickhouse"
	"github.com/stacklog/stacklog/internal/pkg/postgres"
	svcpkg "github.com/stacklog/stacklog/internal/pkg/svc"
)

const (
	unitsTable    = postgres.TableUnits
	unitLogsTable = "unit_logs"
)

// Repository serves log queries from ClickHouse, with the unit registry in
// PostgreSQL.
type Repository struct {
	tp trace.Tracer
	pg *postgres.Postgres
	ch *clickhouse.Client
}

// New creates a new logs repository.
func New(pg *postgres.Postgres, ch *clickhouse.Client) *Repository {
	return &Repository{
		tp: otel.Tracer(svcpkg.Info().GetName()),
		pg: pg,
		ch: ch,
	}
}

// resolveUnit maps a unit reference (id or name) to its canonical id. A unit
// absent from the registry is NotFound; an empty log set for a registered
// unit must never read as NotFound, which is why existence is answered here
// and not by the log rows.
func (r *Repository) resolveUnit(ctx context.Context, unit string) (string, error) {
	query := fmt.Sprintf(`
		SELECT id::text
		FROM %s
		WHERE id::text = $1 OR name = $1
	`, unitsTable)

	var id string
	if err := r.pg.QueryRow(ctx, query, unit).Scan(&id); err != nil {
		if r.pg.IsNoRows(err) {
			return "", status.Errorf(codes.NotFound, "unit not found: %s", unit)
		}
		return "", status.Errorf(codes.Unavailable, "failed to look up unit: %v", err)
	}

	return id, nil
}

// CreateUnit registers a new unit by name.
func (r *Repository) CreateUnit(ctx context.Context, name string) (res *logsmodel.Unit, err error) {
	ctx, span := r.tp.Start(ctx, "Repository.CreateUnit")
	defer func() {
		if err != nil {
			span.SetStatus(otelcodes.Error, err.Error())
			span.RecordError(err)
		}
		span.End()
	}()

	query := fmt.Sprintf(`
		INSERT INTO %s (name)
		VALUES ($1)
		RETURNING id::text AS id, name, created_at, updated_at
	`, unitsTable)

	//nolint:errcheck // The error is handled in the next line
	rows, _ := r.pg.Query(ctx, query, name)
	res, err = pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[logsmodel.Unit])
	if err != nil {
		if r.pg.IsUniqueViolation(err) {
			err = status.Errorf(codes.AlreadyExists, "unit already exists: %s", name)
			return nil, err
		}
		err = status.Errorf(codes.Internal, "failed to create unit: %v", err)
		return nil, err
	}

	return res, nil
}

// ListUnits returns all registered units, newest first.
func (r *Repository) ListUnits(ctx context.Context) (res []*logsmodel.Unit, err error) {
	ctx, span := r.tp.Start(ctx, "Repository.ListUnits")
	defer func() {
		if err != nil {
			span.SetStatus(otelcodes.Error, err.Error())
			span.RecordError(err)
		}
		span.End()
	}()

	query := fmt.Sprintf(`
		SELECT id::text AS id, name, created_at, updated_at
		FROM %s
		ORDER BY created_at DESC
	`, unitsTable)

	//nolint:errcheck // The error is handled in the next line
	rows, _ := r.pg.Query(ctx, query)
	res, err = pgx.CollectRows(rows, pgx.RowToAddrOfStructByName[logsmodel.Unit])
	if err != nil {
		err = status.Errorf(codes.Internal, "failed to list units: %v", err)
		return nil, err
	}

	return res, nil
}
