package server

import (
	logsmodel "github.com/stacklog/stacklog/internal/model/logs"
)

// sameLine reports whether two lines of one stream are the same record.
func sameLine(a, b *logsmodel.LogLine) bool {
	return a.Text == b.Text &&
		a.Timestamp.Valid == b.Timestamp.Valid &&
		a.Timestamp.Time.Equal(b.Timestamp.Time)
}

// deltaLines computes the lines of next that are new relative to prev, both
// being trailing windows of the same stream ordered oldest-first. It anchors
// on the newest line of prev: everything after its last occurrence in next is
// new. When the anchor is gone the windows no longer overlap, so the whole of
// next is returned with reset set, and the consumer starts over. An empty
// prev means the first poll; everything is new and nothing was missed.
func deltaLines(prev, next []*logsmodel.LogLine) (fresh []*logsmodel.LogLine, reset bool) {
	if len(prev) == 0 {
		return next, false
	}

	anchor := prev[len(prev)-1]
	for i := len(next) - 1; i >= 0; i-- {
		if sameLine(next[i], anchor) {
			return next[i+1:], false
		}
	}

	return next, true
}
