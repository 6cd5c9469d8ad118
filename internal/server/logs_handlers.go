package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/eapache/go-resiliency/retrier"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	logsmodel "github.com/stacklog/stacklog/internal/model/logs"
)

// handleTailLogs handles the tail logs request.
func (s *Server) handleTailLogs(w http.ResponseWriter, r *http.Request) {
	query, err := tailQueryFromRequest(r)
	if err != nil {
		handleError(w, err)
		return
	}

	res, err := s.engine.Evaluate(r.Context(), query)
	if err != nil {
		handleError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, res)
}

// handleSearchLogs handles the search logs request.
func (s *Server) handleSearchLogs(w http.ResponseWriter, r *http.Request) {
	unitID := r.PathValue("unit_id")
	if unitID == "" {
		http.Error(w, "unit ID not found", http.StatusBadRequest)
		return
	}

	timestamps, err := parseBoolParam(r, "timestamps")
	if err != nil {
		handleError(w, err)
		return
	}
	invert, err := parseBoolParam(r, "invert")
	if err != nil {
		handleError(w, err)
		return
	}

	combinator := logsmodel.CombinatorAnd
	if raw := r.URL.Query().Get("combinator"); raw != "" {
		combinator = logsmodel.Combinator(raw)
	}

	res, err := s.engine.Evaluate(r.Context(), &logsmodel.SearchQuery{
		Unit:              unitID,
		Terms:             splitTerms(r.URL.Query()["q"]),
		Combinator:        combinator,
		Invert:            invert,
		IncludeTimestamps: timestamps,
	})
	if err != nil {
		handleError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, res)
}

// unavailableClassifier retries only transient backend failures. Every other
// failure mode (absent unit, invalid query, malformed response) is final.
type unavailableClassifier struct{}

func (unavailableClassifier) Classify(err error) retrier.Action {
	if err == nil {
		return retrier.Succeed
	}
	if status.Code(err) == codes.Unavailable {
		return retrier.Retry
	}
	return retrier.Fail
}

// handleStreamLogs handles the follow-mode logs request. It re-evaluates the
// same tail descriptor on a fixed interval and emits only lines that are new
// relative to the previous poll, as server-sent events.
func (s *Server) handleStreamLogs(w http.ResponseWriter, r *http.Request) {
	query, err := tailQueryFromRequest(r)
	if err != nil {
		handleError(w, err)
		return
	}

	// The first evaluation runs before any SSE framing so descriptor and
	// unit errors still surface as plain HTTP errors.
	res, err := s.engine.Evaluate(r.Context(), query)
	if err != nil {
		handleError(w, err)
		return
	}

	// Set SSE headers before writing anything
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	// Disable compression for SSE
	w.Header().Del("Content-Encoding")
	w.Header().Del("Transfer-Encoding")

	// Response controller for streaming
	rc, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	ctx := r.Context()

	// Send initial connection event followed by the current window
	fmt.Fprintf(w, "event: connected\ndata: {\"status\":\"connected\"}\n\n")
	writeLogEvents(w, res.Stdout)
	writeLogEvents(w, res.Stderr)
	rc.Flush()

	prev := res

	// Transient backend failures are retried with backoff inside a single
	// poll; anything else ends the stream.
	ret := retrier.New(retrier.ExponentialBackoff(3, 100*time.Millisecond), unavailableClassifier{})

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			// Client disconnected
			return
		case <-ticker.C:
			var next *logsmodel.LogResult
			err := ret.RunCtx(ctx, func(ctx context.Context) error {
				var evalErr error
				next, evalErr = s.engine.Evaluate(ctx, query)
				return evalErr
			})
			if err != nil {
				fmt.Fprintf(w, "event: error\ndata: %s\n\n", err.Error())
				rc.Flush()
				return
			}

			freshOut, resetOut := deltaLines(prev.Stdout, next.Stdout)
			freshErr, resetErr := deltaLines(prev.Stderr, next.Stderr)

			// When a window no longer overlaps the previous one, lines were
			// missed; tell the consumer to start over from the full window.
			if resetOut || resetErr {
				fmt.Fprintf(w, "event: reset\ndata: {\"status\":\"window_advanced\"}\n\n")
				freshOut, freshErr = next.Stdout, next.Stderr
			}

			if len(freshOut) == 0 && len(freshErr) == 0 {
				// Keep intermediaries from timing out an idle stream
				fmt.Fprintf(w, ": heartbeat\n\n")
				rc.Flush()
				prev = next
				continue
			}

			writeLogEvents(w, freshOut)
			writeLogEvents(w, freshErr)
			rc.Flush()

			prev = next
		}
	}
}

// writeLogEvents writes one SSE log event per line.
func writeLogEvents(w http.ResponseWriter, lines []*logsmodel.LogLine) {
	for _, line := range lines {
		data, err := json.Marshal(line)
		if err != nil {
			fmt.Fprintf(w, "event: error\ndata: failed to marshal log line\n\n")
			continue
		}
		fmt.Fprintf(w, "event: log\ndata: %s\n\n", data)
	}
}

// tailQueryFromRequest builds a tail descriptor from the path and query
// parameters.
func tailQueryFromRequest(r *http.Request) (*logsmodel.TailQuery, error) {
	unitID := r.PathValue("unit_id")
	if unitID == "" {
		return nil, status.Error(codes.InvalidArgument, "unit ID not found")
	}

	lines, err := parseTailLines(r)
	if err != nil {
		return nil, err
	}
	timestamps, err := parseBoolParam(r, "timestamps")
	if err != nil {
		return nil, err
	}

	return &logsmodel.TailQuery{
		Unit:              unitID,
		TailCount:         lines,
		IncludeTimestamps: timestamps,
	}, nil
}
