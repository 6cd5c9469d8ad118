package logs

import (
	"database/sql"
	"encoding/json"
	"strings"
	"time"
)

// Stream identifies one of the two output channels of a unit.
type Stream string

// Streams of a unit.
const (
	StreamStdout Stream = "stdout"
	StreamStderr Stream = "stderr"
)

// ToString converts the Stream to its string representation.
func (s Stream) ToString() string {
	return string(s)
}

// Combinator is the boolean operator joining multiple search terms.
type Combinator string

// Combinators for search queries.
const (
	CombinatorAnd Combinator = "and"
	CombinatorOr  Combinator = "or"
)

// ToString converts the Combinator to its string representation.
func (c Combinator) ToString() string {
	return string(c)
}

// LogLine is a single line of unit output. The timestamp is optional:
// Valid=false means the caller did not request timestamps, which is distinct
// from a zero time.
type LogLine struct {
	Stream    Stream       `db:"stream"`
	Timestamp sql.NullTime `db:"timestamp"`
	Text      string       `db:"message"`
}

// logLineJSON is the wire shape of a LogLine. The timestamp field is omitted
// entirely when absent so consumers can distinguish "not requested" from
// "unknown".
type logLineJSON struct {
	Stream    Stream `json:"stream"`
	Timestamp string `json:"timestamp,omitempty"`
	Text      string `json:"text"`
}

// MarshalJSON implements json.Marshaler.
func (l *LogLine) MarshalJSON() ([]byte, error) {
	out := logLineJSON{
		Stream: l.Stream,
		Text:   l.Text,
	}
	if l.Timestamp.Valid {
		out.Timestamp = l.Timestamp.Time.Format(time.RFC3339Nano)
	}

	return json.Marshal(out)
}

// UnmarshalJSON implements json.Unmarshaler.
func (l *LogLine) UnmarshalJSON(data []byte) error {
	var in logLineJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}

	l.Stream = in.Stream
	l.Text = in.Text
	l.Timestamp = sql.NullTime{}
	if in.Timestamp != "" {
		ts, err := time.Parse(time.RFC3339Nano, in.Timestamp)
		if err != nil {
			return err
		}
		l.Timestamp = sql.NullTime{Time: ts, Valid: true}
	}

	return nil
}

// LogResult is the stream-partitioned outcome of one query evaluation. Lines
// within each stream are chronological, oldest-first. A result is produced
// fresh per evaluation and never mutated in place.
type LogResult struct {
	Stdout []*LogLine `json:"stdout"`
	Stderr []*LogLine `json:"stderr"`
}

// Query is the descriptor of a single log request. It is a sealed union over
// TailQuery and SearchQuery so invalid combinations (search terms on a tail
// request) cannot be constructed.
type Query interface {
	// UnitID returns the addressed unit.
	UnitID() string

	// WithTimestamps reports whether returned lines must carry timestamps.
	WithTimestamps() bool

	isQuery()
}

// TailQuery requests the last TailCount lines per stream of a unit.
type TailQuery struct {
	Unit              string
	TailCount         int
	IncludeTimestamps bool
}

// UnitID returns the addressed unit.
func (q *TailQuery) UnitID() string { return q.Unit }

// WithTimestamps reports whether returned lines must carry timestamps.
func (q *TailQuery) WithTimestamps() bool { return q.IncludeTimestamps }

func (*TailQuery) isQuery() {}

// SearchQuery requests all historical lines of a unit matching the term
// filter.
type SearchQuery struct {
	Unit              string
	Terms             []string
	Combinator        Combinator
	Invert            bool
	IncludeTimestamps bool
}

// UnitID returns the addressed unit.
func (q *SearchQuery) UnitID() string { return q.Unit }

// WithTimestamps reports whether returned lines must carry timestamps.
func (q *SearchQuery) WithTimestamps() bool { return q.IncludeTimestamps }

func (*SearchQuery) isQuery() {}

// MatchLine reports whether text satisfies the terms under the combinator.
// Matching is case-sensitive substring containment; invert complements the
// combined predicate.
func MatchLine(text string, terms []string, combinator Combinator, invert bool) bool {
	var matched bool
	if combinator == CombinatorOr {
		for _, term := range terms {
			if strings.Contains(text, term) {
				matched = true
				break
			}
		}
	} else {
		matched = len(terms) > 0
		for _, term := range terms {
			if !strings.Contains(text, term) {
				matched = false
				break
			}
		}
	}

	if invert {
		return !matched
	}
	return matched
}

// Unit is a registered addressable entity whose output can be queried.
type Unit struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
