package server

import (
	"compress/gzip"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	serverShutdownTimeout = 10 * time.Second

	// defaultTailLines is the tail window applied when the lines query
	// parameter is absent.
	defaultTailLines = 100
)

// parseTailLines parses the lines query parameter.
func parseTailLines(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("lines")
	if raw == "" {
		return defaultTailLines, nil
	}

	lines, err := strconv.Atoi(raw)
	if err != nil {
		return 0, status.Errorf(codes.InvalidArgument, "invalid lines parameter: %q", raw)
	}
	if lines < 0 {
		return 0, status.Errorf(codes.InvalidArgument, "lines must not be negative: %d", lines)
	}

	return lines, nil
}

// parseBoolParam parses an optional boolean query parameter.
func parseBoolParam(r *http.Request, name string) (bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return false, nil
	}

	value, err := strconv.ParseBool(raw)
	if err != nil {
		return false, status.Errorf(codes.InvalidArgument, "invalid %s parameter: %q", name, raw)
	}

	return value, nil
}

// splitTerms splits each raw search expression into terms on whitespace. The
// q parameter may repeat; every value contributes its fields in order.
func splitTerms(raw []string) []string {
	terms := make([]string, 0, len(raw))
	for _, value := range raw {
		terms = append(terms, strings.Fields(value)...)
	}
	return terms
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
	}
}

//nolint:gocyclo // handleErrors is a helper function to handle gRPC errors.
func handleError(w http.ResponseWriter, err error, message ...string) {
	msg := err.Error()
	if len(message) > 0 {
		msg = strings.Join(message, " ")
	}

	switch status.Code(err) {
	case codes.OK:
		return
	case codes.Unauthenticated:
		http.Error(w, msg, http.StatusUnauthorized)
	case codes.PermissionDenied:
		http.Error(w, msg, http.StatusForbidden)
	case codes.NotFound:
		http.Error(w, msg, http.StatusNotFound)
	case codes.AlreadyExists:
		http.Error(w, msg, http.StatusConflict)
	case codes.InvalidArgument:
		http.Error(w, msg, http.StatusBadRequest)
	case codes.Unimplemented:
		http.Error(w, msg, http.StatusNotImplemented)
	case codes.Unavailable:
		http.Error(w, msg, http.StatusServiceUnavailable)
	case codes.FailedPrecondition:
		http.Error(w, msg, http.StatusPreconditionFailed)
	case codes.ResourceExhausted:
		http.Error(w, msg, http.StatusTooManyRequests)
	case codes.Canceled:
		http.Error(w, msg, http.StatusRequestTimeout)
	case codes.DeadlineExceeded:
		http.Error(w, msg, http.StatusGatewayTimeout)
	case codes.Internal:
		http.Error(w, msg, http.StatusInternalServerError)
	case codes.DataLoss:
		http.Error(w, msg, http.StatusInternalServerError)
	case codes.Aborted:
		http.Error(w, msg, http.StatusInternalServerError)
	case codes.OutOfRange:
		http.Error(w, msg, http.StatusInternalServerError)
	case codes.Unknown:
		http.Error(w, msg, http.StatusInternalServerError)
	}
}

// customResponseWriter wraps http.ResponseWriter to capture status code.
type customResponseWriter struct {
	http.ResponseWriter
	status int
}

func (w *customResponseWriter) WriteHeader(statusCode int) {
	w.status = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *customResponseWriter) Write(b []byte) (int, error) {
	return w.ResponseWriter.Write(b)
}

// gzipResponseWriter combines gzip compression with status code capture.
type gzipResponseWriter struct {
	http.ResponseWriter
	gzipWriter *gzip.Writer
	status     int
}

func (w *gzipResponseWriter) Header() http.Header {
	return w.ResponseWriter.Header()
}

func (w *gzipResponseWriter) WriteHeader(statusCode int) {
	w.status = statusCode
	w.Header().Set("Content-Encoding", "gzip")
	w.Header().Del("Content-Length") // Will change after compression
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *gzipResponseWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.WriteHeader(http.StatusOK)
	}
	return w.gzipWriter.Write(b)
}
