package logs

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	otelcodes "go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	logsmodel "github.com/stacklog/stacklog/internal/model/logs"
)

// ReadTail returns the last maxLines lines per stream for the unit,
// oldest-first within the window. The two stream queries run in parallel.
func (r *Repository) ReadTail(
	ctx context.Context,
	unit string,
	maxLines int,
	withTimestamps bool,
) (stdout, stderr []*logsmodel.LogLine, err error) {
	ctx, span := r.tp.Start(ctx, "Repository.ReadTail")
	defer func() {
		if err != nil {
			span.SetStatus(otelcodes.Error, err.Error())
			span.RecordError(err)
		}
		span.End()
	}()

	unitID, err := r.resolveUnit(ctx, unit)
	if err != nil {
		return nil, nil, err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var streamErr error
		stdout, streamErr = r.readTailStream(gctx, unitID, logsmodel.StreamStdout, maxLines, withTimestamps)
		return streamErr
	})
	g.Go(func() error {
		var streamErr error
		stderr, streamErr = r.readTailStream(gctx, unitID, logsmodel.StreamStderr, maxLines, withTimestamps)
		return streamErr
	})
	if err = g.Wait(); err != nil {
		return nil, nil, err
	}

	return stdout, stderr, nil
}

// readTailStream fetches the trailing window of one stream. The rows come
// back newest-first so LIMIT bounds the window; they are reversed before
// returning.
func (r *Repository) readTailStream(
	ctx context.Context,
	unitID string,
	stream logsmodel.Stream,
	maxLines int,
	withTimestamps bool,
) ([]*logsmodel.LogLine, error) {
	columns := "message"
	if withTimestamps {
		columns = "timestamp, message"
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE unit_id = ? AND stream = ?
		ORDER BY timestamp DESC, sequence_num DESC
		LIMIT ?
	`, columns, unitLogsTable)

	rows, err := r.ch.Query(ctx, query, unitID, stream.ToString(), maxLines)
	if err != nil {
		return nil, status.Errorf(codes.Unavailable, "failed to query logs: %v", err)
	}
	defer rows.Close()

	lines, err := scanLogLines(rows, stream, withTimestamps)
	if err != nil {
		return nil, err
	}

	// Reverse to oldest-first
	for i, j := 0, len(lines)-1; i < j; i, j = i+1, j-1 {
		lines[i], lines[j] = lines[j], lines[i]
	}

	return lines, nil
}

// ReadFiltered returns all lines per stream matching the term filter,
// oldest-first, the same shape tail results have.
func (r *Repository) ReadFiltered(
	ctx context.Context,
	unit string,
	terms []string,
	combinator logsmodel.Combinator,
	invert bool,
	withTimestamps bool,
) (stdout, stderr []*logsmodel.LogLine, err error) {
	ctx, span := r.tp.Start(ctx, "Repository.ReadFiltered")
	defer func() {
		if err != nil {
			span.SetStatus(otelcodes.Error, err.Error())
			span.RecordError(err)
		}
		span.End()
	}()

	unitID, err := r.resolveUnit(ctx, unit)
	if err != nil {
		return nil, nil, err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var streamErr error
		stdout, streamErr = r.readFilteredStream(gctx, unitID, logsmodel.StreamStdout, terms, combinator, invert, withTimestamps)
		return streamErr
	})
	g.Go(func() error {
		var streamErr error
		stderr, streamErr = r.readFilteredStream(gctx, unitID, logsmodel.StreamStderr, terms, combinator, invert, withTimestamps)
		return streamErr
	})
	if err = g.Wait(); err != nil {
		return nil, nil, err
	}

	return stdout, stderr, nil
}

func (r *Repository) readFilteredStream(
	ctx context.Context,
	unitID string,
	stream logsmodel.Stream,
	terms []string,
	combinator logsmodel.Combinator,
	invert bool,
	withTimestamps bool,
) ([]*logsmodel.LogLine, error) {
	columns := "message"
	if withTimestamps {
		columns = "timestamp, message"
	}

	predicate, predicateArgs := searchPredicate(terms, combinator, invert)
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE unit_id = ? AND stream = ? AND %s
		ORDER BY timestamp ASC, sequence_num ASC
	`, columns, unitLogsTable, predicate)

	args := append([]any{unitID, stream.ToString()}, predicateArgs...)
	rows, err := r.ch.Query(ctx, query, args...)
	if err != nil {
		return nil, status.Errorf(codes.Unavailable, "failed to query logs: %v", err)
	}
	defer rows.Close()

	return scanLogLines(rows, stream, withTimestamps)
}

// searchPredicate compiles the term filter to a ClickHouse WHERE clause.
// Matching is case-sensitive substring containment, the same semantics the
// live backend applies in-process.
func searchPredicate(terms []string, combinator logsmodel.Combinator, invert bool) (string, []any) {
	clauses := make([]string, len(terms))
	args := make([]any, len(terms))
	for i, term := range terms {
		clauses[i] = "positionCaseSensitive(message, ?) > 0"
		args[i] = term
	}

	operator := " AND "
	if combinator == logsmodel.CombinatorOr {
		operator = " OR "
	}

	predicate := "(" + strings.Join(clauses, operator) + ")"
	if invert {
		predicate = "NOT " + predicate
	}

	return predicate, args
}

// rowScanner is the subset of driver.Rows scanLogLines needs.
type rowScanner interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanLogLines(rows rowScanner, stream logsmodel.Stream, withTimestamps bool) ([]*logsmodel.LogLine, error) {
	lines := make([]*logsmodel.LogLine, 0)
	for rows.Next() {
		line := &logsmodel.LogLine{Stream: stream}
		if withTimestamps {
			var ts time.Time
			if err := rows.Scan(&ts, &line.Text); err != nil {
				return nil, status.Errorf(codes.Internal, "failed to scan log row: %v", err)
			}
			line.Timestamp = sql.NullTime{Time: ts, Valid: true}
		} else {
			if err := rows.Scan(&line.Text); err != nil {
				return nil, status.Errorf(codes.Internal, "failed to scan log row: %v", err)
			}
		}
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, status.Errorf(codes.Unavailable, "failed to read log rows: %v", err)
	}

	return lines, nil
}
