package server

import (
	"database/sql"
	"testing"
	"time"

	logsmodel "github.com/stacklog/stacklog/internal/model/logs"
)

func stdoutLines(texts ...string) []*logsmodel.LogLine {
	out := make([]*logsmodel.LogLine, len(texts))
	for i, text := range texts {
		out[i] = &logsmodel.LogLine{Stream: logsmodel.StreamStdout, Text: text}
	}
	return out
}

func texts(lines []*logsmodel.LogLine) []string {
	out := make([]string, len(lines))
	for i, line := range lines {
		out[i] = line.Text
	}
	return out
}

func TestDeltaLines(t *testing.T) {
	// Test cases
	tests := []struct {
		name      string
		prev      []*logsmodel.LogLine
		next      []*logsmodel.LogLine
		want      []string
		wantReset bool
	}{
		{
			name:      "first poll: everything is new",
			prev:      nil,
			next:      stdoutLines("a", "b"),
			want:      []string{"a", "b"},
			wantReset: false,
		},
		{
			name:      "no change",
			prev:      stdoutLines("a", "b"),
			next:      stdoutLines("a", "b"),
			want:      []string{},
			wantReset: false,
		},
		{
			name:      "window slides forward",
			prev:      stdoutLines("a", "b", "c"),
			next:      stdoutLines("b", "c", "d"),
			want:      []string{"d"},
			wantReset: false,
		},
		{
			name:      "anchor gone: windows no longer overlap",
			prev:      stdoutLines("a", "b"),
			next:      stdoutLines("x", "y"),
			want:      []string{"x", "y"},
			wantReset: true,
		},
		{
			name:      "duplicate lines anchor on the last occurrence",
			prev:      stdoutLines("tick", "tick"),
			next:      stdoutLines("tick", "tick", "tick"),
			want:      []string{},
			wantReset: false,
		},
		{
			name:      "next empty after prev had lines",
			prev:      stdoutLines("a"),
			next:      stdoutLines(),
			want:      []string{},
			wantReset: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fresh, reset := deltaLines(tt.prev, tt.next)
			if reset != tt.wantReset {
				t.Errorf("expected reset %t, got %t", tt.wantReset, reset)
			}

			got := texts(fresh)
			if len(got) != len(tt.want) {
				t.Errorf("expected fresh lines %v, got %v", tt.want, got)
				return
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("expected fresh lines %v, got %v", tt.want, got)
					return
				}
			}
		})
	}
}

func TestDeltaLinesTimestampIdentity(t *testing.T) {
	ts := func(sec int) sql.NullTime {
		return sql.NullTime{Time: time.Date(2025, 6, 1, 12, 0, sec, 0, time.UTC), Valid: true}
	}

	// Identical text at different times is a different record, so the
	// anchor must not match it.
	prev := []*logsmodel.LogLine{
		{Stream: logsmodel.StreamStdout, Timestamp: ts(1), Text: "tick"},
	}
	next := []*logsmodel.LogLine{
		{Stream: logsmodel.StreamStdout, Timestamp: ts(2), Text: "tick"},
		{Stream: logsmodel.StreamStdout, Timestamp: ts(3), Text: "tick"},
	}

	fresh, reset := deltaLines(prev, next)
	if !reset {
		t.Errorf("expected reset when the anchored record is gone")
	}
	if len(fresh) != 2 {
		t.Errorf("expected 2 fresh lines, got %d", len(fresh))
	}
}
