package containers

import (
	"context"
	"strconv"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/client"
	"github.com/docker/docker/errdefs"
	"go.opentelemetry.io/otel"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	logsmodel "github.com/stacklog/stacklog/internal/model/logs"
	containerpkg "github.com/stacklog/stacklog/internal/pkg/container"
	svcpkg "github.com/stacklog/stacklog/internal/pkg/svc"
)

// tailAll requests the full history of a stream.
const tailAll = "all"

// Repository serves log queries straight from the Docker daemon for
// actively-running units. The container name is the unit id.
type Repository struct {
	tp  trace.Tracer
	cli *containerpkg.Client
}

// New creates a new containers repository.
func New(cli *containerpkg.Client) *Repository {
	return &Repository{
		tp:  otel.Tracer(svcpkg.Info().GetName()),
		cli: cli,
	}
}

// ReadTail returns the last maxLines lines per stream of the unit's
// container, oldest-first. The two stream fetches run in parallel.
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

	tail := strconv.Itoa(maxLines)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var streamErr error
		stdout, streamErr = r.fetchStream(gctx, unit, logsmodel.StreamStdout, tail, withTimestamps)
		return streamErr
	})
	g.Go(func() error {
		var streamErr error
		stderr, streamErr = r.fetchStream(gctx, unit, logsmodel.StreamStderr, tail, withTimestamps)
		return streamErr
	})
	if err = g.Wait(); err != nil {
		return nil, nil, err
	}

	return stdout, stderr, nil
}

// ReadFiltered fetches the full history per stream and applies the term
// filter in-process, with the same case-sensitive substring semantics the
// historical backend compiles into SQL.
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

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var streamErr error
		stdout, streamErr = r.fetchStream(gctx, unit, logsmodel.StreamStdout, tailAll, withTimestamps)
		return streamErr
	})
	g.Go(func() error {
		var streamErr error
		stderr, streamErr = r.fetchStream(gctx, unit, logsmodel.StreamStderr, tailAll, withTimestamps)
		return streamErr
	})
	if err = g.Wait(); err != nil {
		return nil, nil, err
	}

	return filterLines(stdout, terms, combinator, invert), filterLines(stderr, terms, combinator, invert), nil
}

// fetchStream reads one stream of the container's output and parses it into
// log lines.
func (r *Repository) fetchStream(
	ctx context.Context,
	unit string,
	stream logsmodel.Stream,
	tail string,
	withTimestamps bool,
) ([]*logsmodel.LogLine, error) {
	rc, err := r.cli.ContainerLogs(ctx, unit, container.LogsOptions{
		ShowStdout: stream == logsmodel.StreamStdout,
		ShowStderr: stream == logsmodel.StreamStderr,
		Timestamps: withTimestamps,
		Tail:       tail,
	})
	if err != nil {
		switch {
		case errdefs.IsNotFound(err):
			return nil, status.Errorf(codes.NotFound, "unit not found: %s", unit)
		case client.IsErrConnectionFailed(err):
			return nil, status.Errorf(codes.Unavailable, "docker daemon unavailable: %v", err)
		default:
			return nil, status.Errorf(codes.Internal, "failed to get container logs: %v", err)
		}
	}
	defer rc.Close()

	data, err := demuxStream(rc, stream)
	if err != nil {
		return nil, err
	}

	return parseLogLines(data, stream, withTimestamps)
}

func filterLines(lines []*logsmodel.LogLine, terms []string, combinator logsmodel.Combinator, invert bool) []*logsmodel.LogLine {
	filtered := make([]*logsmodel.LogLine, 0, len(lines))
	for _, line := range lines {
		if logsmodel.MatchLine(line.Text, terms, combinator, invert) {
			filtered = append(filtered, line)
		}
	}
	return filtered
}
