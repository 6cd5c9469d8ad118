package containers

import (
	"bytes"
	"database/sql"
	"io"
	"strings"
	"time"

	"github.com/docker/docker/pkg/stdcopy"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	logsmodel "github.com/stacklog/stacklog/internal/model/logs"
)

// demuxStream strips the daemon's stream multiplexing headers and returns the
// raw bytes of the requested stream. Only one of the two channels carries
// data since fetchStream requests a single stream per call.
func demuxStream(rc io.Reader, stream logsmodel.Stream) ([]byte, error) {
	var stdoutBuf, stderrBuf bytes.Buffer
	if _, err := stdcopy.StdCopy(&stdoutBuf, &stderrBuf, rc); err != nil {
		return nil, status.Errorf(codes.Internal, "failed to demultiplex container logs: %v", err)
	}

	if stream == logsmodel.StreamStderr {
		return stderrBuf.Bytes(), nil
	}
	return stdoutBuf.Bytes(), nil
}

// parseLogLines splits raw container output into log lines. When timestamps
// were requested the daemon prefixes every line with an RFC3339Nano instant
// and a space.
func parseLogLines(data []byte, stream logsmodel.Stream, withTimestamps bool) ([]*logsmodel.LogLine, error) {
	lines := make([]*logsmodel.LogLine, 0)
	for _, raw := range strings.Split(string(data), "\n") {
		raw = strings.TrimSuffix(raw, "\r")
		if raw == "" {
			continue
		}

		line := &logsmodel.LogLine{Stream: stream}
		if withTimestamps {
			prefix, text, found := strings.Cut(raw, " ")
			if !found {
				return nil, status.Errorf(codes.Internal, "malformed log line: missing timestamp prefix")
			}

			ts, err := time.Parse(time.RFC3339Nano, prefix)
			if err != nil {
				return nil, status.Errorf(codes.Internal, "malformed log timestamp: %v", err)
			}

			line.Timestamp = sql.NullTime{Time: ts, Valid: true}
			line.Text = text
		} else {
			line.Text = raw
		}

		lines = append(lines, line)
	}

	return lines, nil
}
