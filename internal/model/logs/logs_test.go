package logs_test

import (
	"database/sql"
	"encoding/json"
	"strings"
	"testing"
	"time"

	logsmodel "github.com/stacklog/stacklog/internal/model/logs"
)

func TestMatchLine(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		terms      []string
		combinator logsmodel.Combinator
		invert     bool
		want       bool
	}{
		{
			name:       "or: single term matches",
			text:       "error: disk full",
			terms:      []string{"error"},
			combinator: logsmodel.CombinatorOr,
			want:       true,
		},
		{
			name:       "or: no term matches",
			text:       "ok",
			terms:      []string{"error"},
			combinator: logsmodel.CombinatorOr,
			want:       false,
		},
		{
			name:       "or: one of several terms matches",
			text:       "error: timeout",
			terms:      []string{"disk", "timeout"},
			combinator: logsmodel.CombinatorOr,
			want:       true,
		},
		{
			name:       "and: every term is a substring",
			text:       "error: timeout",
			terms:      []string{"error", "timeout"},
			combinator: logsmodel.CombinatorAnd,
			want:       true,
		},
		{
			name:       "and: one term missing",
			text:       "error: disk full",
			terms:      []string{"error", "timeout"},
			combinator: logsmodel.CombinatorAnd,
			want:       false,
		},
		{
			name:       "invert complements the combined predicate",
			text:       "ok",
			terms:      []string{"error"},
			combinator: logsmodel.CombinatorOr,
			invert:     true,
			want:       true,
		},
		{
			name:       "invert excludes a matching line",
			text:       "error: disk full",
			terms:      []string{"error"},
			combinator: logsmodel.CombinatorOr,
			invert:     true,
			want:       false,
		},
		{
			name:       "matching is case-sensitive",
			text:       "ERROR: disk full",
			terms:      []string{"error"},
			combinator: logsmodel.CombinatorOr,
			want:       false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := logsmodel.MatchLine(tt.text, tt.terms, tt.combinator, tt.invert)
			if got != tt.want {
				t.Errorf("MatchLine() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLogLineJSON(t *testing.T) {
	ts := time.Date(2025, 6, 1, 12, 30, 0, 123456789, time.UTC)

	t.Run("timestamp present round-trips", func(t *testing.T) {
		line := &logsmodel.LogLine{
			Stream:    logsmodel.StreamStdout,
			Timestamp: sql.NullTime{Time: ts, Valid: true},
			Text:      "error: disk full",
		}

		data, err := json.Marshal(line)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(string(data), `"timestamp"`) {
			t.Errorf("expected timestamp field in %s", data)
		}

		var got logsmodel.LogLine
		if err := json.Unmarshal(data, &got); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !got.Timestamp.Valid || !got.Timestamp.Time.Equal(ts) {
			t.Errorf("expected timestamp %v, got %+v", ts, got.Timestamp)
		}
	})

	t.Run("absent timestamp is omitted", func(t *testing.T) {
		line := &logsmodel.LogLine{
			Stream: logsmodel.StreamStderr,
			Text:   "ok",
		}

		data, err := json.Marshal(line)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if strings.Contains(string(data), `"timestamp"`) {
			t.Errorf("expected no timestamp field in %s", data)
		}

		var got logsmodel.LogLine
		if err := json.Unmarshal(data, &got); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.Timestamp.Valid {
			t.Errorf("expected absent timestamp, got %+v", got.Timestamp)
		}
	})
}
