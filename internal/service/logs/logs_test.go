package logs_test

import (
	"database/sql"
	"reflect"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/mock/gomock"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	logsmodel "github.com/stacklog/stacklog/internal/model/logs"
	"github.com/stacklog/stacklog/internal/service/logs"
	logsmock "github.com/stacklog/stacklog/internal/service/logs/mock"
)

func lines(stream logsmodel.Stream, texts ...string) []*logsmodel.LogLine {
	out := make([]*logsmodel.LogLine, len(texts))
	for i, text := range texts {
		out[i] = &logsmodel.LogLine{Stream: stream, Text: text}
	}
	return out
}

func TestEvaluateTail(t *testing.T) {
	ctrl := gomock.NewController(t)

	// Create a mock repository
	repo := logsmock.NewMockRepository(ctrl)

	// Create a new service
	s := logs.New(validator.New(), repo, nil)

	type want struct {
		stdout []string
		stderr []string
	}

	// Test cases
	tests := []struct {
		name     string
		query    *logsmodel.TailQuery
		mock     func(query *logsmodel.TailQuery)
		want     want
		isErr    bool
		wantCode codes.Code
	}{
		{
			name: "success: trailing window, oldest-first",
			query: &logsmodel.TailQuery{
				Unit:      "unit1",
				TailCount: 2,
			},
			mock: func(query *logsmodel.TailQuery) {
				repo.EXPECT().ReadTail(
					gomock.Any(),
					query.Unit,
					query.TailCount,
					false,
				).Return(
					lines(logsmodel.StreamStdout, "b", "c"),
					lines(logsmodel.StreamStderr),
					nil,
				)
			},
			want: want{
				stdout: []string{"b", "c"},
				stderr: []string{},
			},
			isErr: false,
		},
		{
			name: "success: tail count zero yields empty sequences",
			query: &logsmodel.TailQuery{
				Unit:      "unit1",
				TailCount: 0,
			},
			mock: func(query *logsmodel.TailQuery) {
				repo.EXPECT().ReadTail(
					gomock.Any(),
					query.Unit,
					0,
					false,
				).Return(nil, nil, nil)
			},
			want: want{
				stdout: []string{},
				stderr: []string{},
			},
			isErr: false,
		},
		{
			name: "error: negative tail count",
			query: &logsmodel.TailQuery{
				Unit:      "unit1",
				TailCount: -1,
			},
			mock:     func(_ *logsmodel.TailQuery) {},
			isErr:    true,
			wantCode: codes.InvalidArgument,
		},
		{
			name: "error: empty unit",
			query: &logsmodel.TailQuery{
				Unit:      "",
				TailCount: 10,
			},
			mock:     func(_ *logsmodel.TailQuery) {},
			isErr:    true,
			wantCode: codes.InvalidArgument,
		},
		{
			name: "error: unit not found",
			query: &logsmodel.TailQuery{
				Unit:      "missing",
				TailCount: 10,
			},
			mock: func(query *logsmodel.TailQuery) {
				repo.EXPECT().ReadTail(
					gomock.Any(),
					query.Unit,
					query.TailCount,
					false,
				).Return(nil, nil, status.Error(codes.NotFound, "unit not found"))
			},
			isErr:    true,
			wantCode: codes.NotFound,
		},
		{
			name: "error: backend unavailable",
			query: &logsmodel.TailQuery{
				Unit:      "unit1",
				TailCount: 10,
			},
			mock: func(query *logsmodel.TailQuery) {
				repo.EXPECT().ReadTail(
					gomock.Any(),
					query.Unit,
					query.TailCount,
					false,
				).Return(nil, nil, status.Error(codes.Unavailable, "backend unavailable"))
			},
			isErr:    true,
			wantCode: codes.Unavailable,
		},
	}

	defer ctrl.Finish()

	for _, tt := range tests {
		tt.mock(tt.query)
		t.Run(tt.name, func(t *testing.T) {
			res, err := s.Evaluate(t.Context(), tt.query)
			if tt.isErr {
				if err == nil {
					t.Errorf("expected error, got nil")
					return
				}
				if status.Code(err) != tt.wantCode {
					t.Errorf("expected code %v, got %v", tt.wantCode, status.Code(err))
				}
				if res != nil {
					t.Errorf("expected nil result on error, got %+v", res)
				}
				return
			}

			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}

			gotStdout := make([]string, len(res.Stdout))
			for i, line := range res.Stdout {
				gotStdout[i] = line.Text
			}
			gotStderr := make([]string, len(res.Stderr))
			for i, line := range res.Stderr {
				gotStderr[i] = line.Text
			}

			if !reflect.DeepEqual(gotStdout, tt.want.stdout) {
				t.Errorf("expected stdout %v, got %v", tt.want.stdout, gotStdout)
			}
			if !reflect.DeepEqual(gotStderr, tt.want.stderr) {
				t.Errorf("expected stderr %v, got %v", tt.want.stderr, gotStderr)
			}
		})
	}
}

func TestEvaluateSearch(t *testing.T) {
	ctrl := gomock.NewController(t)

	// Create a mock repository
	repo := logsmock.NewMockRepository(ctrl)

	// Create a new service
	s := logs.New(validator.New(), repo, nil)

	type want struct {
		stdout []string
	}

	// Test cases
	tests := []struct {
		name     string
		query    *logsmodel.SearchQuery
		mock     func(query *logsmodel.SearchQuery)
		want     want
		isErr    bool
		wantCode codes.Code
	}{
		{
			name: "success: or search matches in stored order",
			query: &logsmodel.SearchQuery{
				Unit:       "unit1",
				Terms:      []string{"error"},
				Combinator: logsmodel.CombinatorOr,
			},
			mock: func(query *logsmodel.SearchQuery) {
				repo.EXPECT().ReadFiltered(
					gomock.Any(),
					query.Unit,
					[]string{"error"},
					logsmodel.CombinatorOr,
					false,
					false,
				).Return(
					lines(logsmodel.StreamStdout, "error: disk full", "error: timeout"),
					lines(logsmodel.StreamStderr),
					nil,
				)
			},
			want: want{
				stdout: []string{"error: disk full", "error: timeout"},
			},
			isErr: false,
		},
		{
			name: "success: terms are trimmed before the read",
			query: &logsmodel.SearchQuery{
				Unit:       "unit1",
				Terms:      []string{"  error  ", "timeout"},
				Combinator: logsmodel.CombinatorAnd,
			},
			mock: func(query *logsmodel.SearchQuery) {
				repo.EXPECT().ReadFiltered(
					gomock.Any(),
					query.Unit,
					[]string{"error", "timeout"},
					logsmodel.CombinatorAnd,
					false,
					false,
				).Return(
					lines(logsmodel.StreamStdout, "error: timeout"),
					lines(logsmodel.StreamStderr),
					nil,
				)
			},
			want: want{
				stdout: []string{"error: timeout"},
			},
			isErr: false,
		},
		{
			name: "success: inverted search",
			query: &logsmodel.SearchQuery{
				Unit:       "unit1",
				Terms:      []string{"error"},
				Combinator: logsmodel.CombinatorOr,
				Invert:     true,
			},
			mock: func(query *logsmodel.SearchQuery) {
				repo.EXPECT().ReadFiltered(
					gomock.Any(),
					query.Unit,
					[]string{"error"},
					logsmodel.CombinatorOr,
					true,
					false,
				).Return(
					lines(logsmodel.StreamStdout, "ok"),
					lines(logsmodel.StreamStderr),
					nil,
				)
			},
			want: want{
				stdout: []string{"ok"},
			},
			isErr: false,
		},
		{
			name: "error: no terms",
			query: &logsmodel.SearchQuery{
				Unit:       "unit1",
				Terms:      nil,
				Combinator: logsmodel.CombinatorOr,
			},
			mock:     func(_ *logsmodel.SearchQuery) {},
			isErr:    true,
			wantCode: codes.InvalidArgument,
		},
		{
			name: "error: term empty after trimming",
			query: &logsmodel.SearchQuery{
				Unit:       "unit1",
				Terms:      []string{"error", "   "},
				Combinator: logsmodel.CombinatorOr,
			},
			mock:     func(_ *logsmodel.SearchQuery) {},
			isErr:    true,
			wantCode: codes.InvalidArgument,
		},
		{
			name: "error: invalid combinator",
			query: &logsmodel.SearchQuery{
				Unit:       "unit1",
				Terms:      []string{"error"},
				Combinator: logsmodel.Combinator("xor"),
			},
			mock:     func(_ *logsmodel.SearchQuery) {},
			isErr:    true,
			wantCode: codes.InvalidArgument,
		},
		{
			name: "error: unit not found",
			query: &logsmodel.SearchQuery{
				Unit:       "missing",
				Terms:      []string{"error"},
				Combinator: logsmodel.CombinatorOr,
			},
			mock: func(query *logsmodel.SearchQuery) {
				repo.EXPECT().ReadFiltered(
					gomock.Any(),
					query.Unit,
					[]string{"error"},
					logsmodel.CombinatorOr,
					false,
					false,
				).Return(nil, nil, status.Error(codes.NotFound, "unit not found"))
			},
			isErr:    true,
			wantCode: codes.NotFound,
		},
	}

	defer ctrl.Finish()

	for _, tt := range tests {
		tt.mock(tt.query)
		t.Run(tt.name, func(t *testing.T) {
			res, err := s.Evaluate(t.Context(), tt.query)
			if tt.isErr {
				if err == nil {
					t.Errorf("expected error, got nil")
					return
				}
				if status.Code(err) != tt.wantCode {
					t.Errorf("expected code %v, got %v", tt.wantCode, status.Code(err))
				}
				return
			}

			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}

			got := make([]string, len(res.Stdout))
			for i, line := range res.Stdout {
				got[i] = line.Text
			}
			if !reflect.DeepEqual(got, tt.want.stdout) {
				t.Errorf("expected stdout %v, got %v", tt.want.stdout, got)
			}
		})
	}
}

func TestEvaluateTimestampInvariant(t *testing.T) {
	ctrl := gomock.NewController(t)

	repo := logsmock.NewMockRepository(ctrl)
	s := logs.New(validator.New(), repo, nil)

	ts := time.Date(2025, 6, 1, 12, 30, 0, 0, time.UTC)

	t.Run("timestamps stripped when not requested", func(t *testing.T) {
		repo.EXPECT().ReadTail(gomock.Any(), "unit1", 10, false).Return(
			[]*logsmodel.LogLine{{
				Stream:    logsmodel.StreamStdout,
				Timestamp: sql.NullTime{Time: ts, Valid: true},
				Text:      "a",
			}},
			nil,
			nil,
		)

		res, err := s.Evaluate(t.Context(), &logsmodel.TailQuery{Unit: "unit1", TailCount: 10})
		if err != nil {
			t.Errorf("unexpected error: %v", err)
			return
		}
		if res.Stdout[0].Timestamp.Valid {
			t.Errorf("expected timestamp to be absent, got %+v", res.Stdout[0].Timestamp)
		}
	})

	t.Run("timestamps present on every line when requested", func(t *testing.T) {
		repo.EXPECT().ReadTail(gomock.Any(), "unit1", 10, true).Return(
			[]*logsmodel.LogLine{{
				Stream:    logsmodel.StreamStdout,
				Timestamp: sql.NullTime{Time: ts, Valid: true},
				Text:      "a",
			}},
			nil,
			nil,
		)

		res, err := s.Evaluate(t.Context(), &logsmodel.TailQuery{Unit: "unit1", TailCount: 10, IncludeTimestamps: true})
		if err != nil {
			t.Errorf("unexpected error: %v", err)
			return
		}
		if !res.Stdout[0].Timestamp.Valid {
			t.Errorf("expected timestamp to be present")
		}
	})

	t.Run("missing timestamp is a malformed backend response", func(t *testing.T) {
		repo.EXPECT().ReadTail(gomock.Any(), "unit1", 10, true).Return(
			lines(logsmodel.StreamStdout, "a"),
			nil,
			nil,
		)

		_, err := s.Evaluate(t.Context(), &logsmodel.TailQuery{Unit: "unit1", TailCount: 10, IncludeTimestamps: true})
		if status.Code(err) != codes.Internal {
			t.Errorf("expected code %v, got %v", codes.Internal, status.Code(err))
		}
	})

	defer ctrl.Finish()
}

func TestEvaluateIdempotence(t *testing.T) {
	ctrl := gomock.NewController(t)

	repo := logsmock.NewMockRepository(ctrl)
	s := logs.New(validator.New(), repo, nil)

	query := &logsmodel.TailQuery{Unit: "unit1", TailCount: 3}

	// An unchanged store answers both calls identically.
	repo.EXPECT().ReadTail(gomock.Any(), "unit1", 3, false).Return(
		lines(logsmodel.StreamStdout, "a", "b", "c"),
		lines(logsmodel.StreamStderr, "x"),
		nil,
	).Times(2)

	first, err := s.Evaluate(t.Context(), query)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := s.Evaluate(t.Context(), query)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Errorf("expected identical results, got %+v and %+v", first, second)
	}

	defer ctrl.Finish()
}

func TestCreateUnit(t *testing.T) {
	ctrl := gomock.NewController(t)

	repo := logsmock.NewMockRepository(ctrl)
	registry := logsmock.NewMockRegistry(ctrl)

	t.Run("success", func(t *testing.T) {
		s := logs.New(validator.New(), repo, registry)

		registry.EXPECT().CreateUnit(gomock.Any(), "api").Return(&logsmodel.Unit{ID: "unit_id", Name: "api"}, nil)

		unit, err := s.CreateUnit(t.Context(), "api")
		if err != nil {
			t.Errorf("unexpected error: %v", err)
			return
		}
		if unit.ID != "unit_id" {
			t.Errorf("expected unit ID unit_id, got %s", unit.ID)
		}
	})

	t.Run("error: empty name", func(t *testing.T) {
		s := logs.New(validator.New(), repo, registry)

		_, err := s.CreateUnit(t.Context(), "   ")
		if status.Code(err) != codes.InvalidArgument {
			t.Errorf("expected code %v, got %v", codes.InvalidArgument, status.Code(err))
		}
	})

	t.Run("error: registry not configured", func(t *testing.T) {
		s := logs.New(validator.New(), repo, nil)

		_, err := s.CreateUnit(t.Context(), "api")
		if status.Code(err) != codes.Unimplemented {
			t.Errorf("expected code %v, got %v", codes.Unimplemented, status.Code(err))
		}
	})

	defer ctrl.Finish()
}
