package logs

import (
	"testing"

	logsmodel "github.com/stacklog/stacklog/internal/model/logs"
)

func TestSearchPredicate(t *testing.T) {
	tests := []struct {
		name       string
		terms      []string
		combinator logsmodel.Combinator
		invert     bool
		want       string
		wantArgs   int
	}{
		{
			name:       "single term",
			terms:      []string{"error"},
			combinator: logsmodel.CombinatorOr,
			want:       "(positionCaseSensitive(message, ?) > 0)",
			wantArgs:   1,
		},
		{
			name:       "and combinator joins with AND",
			terms:      []string{"error", "timeout"},
			combinator: logsmodel.CombinatorAnd,
			want:       "(positionCaseSensitive(message, ?) > 0 AND positionCaseSensitive(message, ?) > 0)",
			wantArgs:   2,
		},
		{
			name:       "or combinator joins with OR",
			terms:      []string{"error", "timeout"},
			combinator: logsmodel.CombinatorOr,
			want:       "(positionCaseSensitive(message, ?) > 0 OR positionCaseSensitive(message, ?) > 0)",
			wantArgs:   2,
		},
		{
			name:       "invert wraps the predicate in NOT",
			terms:      []string{"error"},
			combinator: logsmodel.CombinatorAnd,
			invert:     true,
			want:       "NOT (positionCaseSensitive(message, ?) > 0)",
			wantArgs:   1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, args := searchPredicate(tt.terms, tt.combinator, tt.invert)
			if got != tt.want {
				t.Errorf("searchPredicate() = %q, want %q", got, tt.want)
			}
			if len(args) != tt.wantArgs {
				t.Errorf("expected %d args, got %d", tt.wantArgs, len(args))
			}
			for i, arg := range args {
				if arg != tt.terms[i] {
					t.Errorf("expected arg %d to be %q, got %v", i, tt.terms[i], arg)
				}
			}
		})
	}
}
