package containers

import (
	"bytes"
	"testing"
	"time"

	"github.com/docker/docker/pkg/stdcopy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	logsmodel "github.com/stacklog/stacklog/internal/model/logs"
)

func TestDemuxStream(t *testing.T) {
	t.Parallel()

	// Build a multiplexed frame the way the daemon does.
	var muxed bytes.Buffer
	stdoutW := stdcopy.NewStdWriter(&muxed, stdcopy.Stdout)
	stderrW := stdcopy.NewStdWriter(&muxed, stdcopy.Stderr)

	_, err := stdoutW.Write([]byte("out line\n"))
	require.NoError(t, err)
	_, err = stderrW.Write([]byte("err line\n"))
	require.NoError(t, err)

	raw := muxed.Bytes()

	data, err := demuxStream(bytes.NewReader(raw), logsmodel.StreamStdout)
	require.NoError(t, err)
	assert.Equal(t, "out line\n", string(data))

	data, err = demuxStream(bytes.NewReader(raw), logsmodel.StreamStderr)
	require.NoError(t, err)
	assert.Equal(t, "err line\n", string(data))
}

func TestParseLogLines(t *testing.T) {
	t.Parallel()

	t.Run("without timestamps", func(t *testing.T) {
		t.Parallel()

		lines, err := parseLogLines([]byte("a\nb\nc\n"), logsmodel.StreamStdout, false)
		require.NoError(t, err)
		require.Len(t, lines, 3)

		assert.Equal(t, "a", lines[0].Text)
		assert.Equal(t, "c", lines[2].Text)
		for _, line := range lines {
			assert.Equal(t, logsmodel.StreamStdout, line.Stream)
			assert.False(t, line.Timestamp.Valid)
		}
	})

	t.Run("with timestamps", func(t *testing.T) {
		t.Parallel()

		data := []byte("2025-06-01T12:30:00.123456789Z error: disk full\n2025-06-01T12:30:01.000000000Z ok\n")
		lines, err := parseLogLines(data, logsmodel.StreamStderr, true)
		require.NoError(t, err)
		require.Len(t, lines, 2)

		assert.Equal(t, "error: disk full", lines[0].Text)
		require.True(t, lines[0].Timestamp.Valid)
		assert.Equal(t, time.Date(2025, 6, 1, 12, 30, 0, 123456789, time.UTC), lines[0].Timestamp.Time)
		assert.Equal(t, "ok", lines[1].Text)
	})

	t.Run("carriage returns are stripped", func(t *testing.T) {
		t.Parallel()

		lines, err := parseLogLines([]byte("a\r\nb\r\n"), logsmodel.StreamStdout, false)
		require.NoError(t, err)
		require.Len(t, lines, 2)
		assert.Equal(t, "a", lines[0].Text)
	})

	t.Run("malformed timestamp is an error", func(t *testing.T) {
		t.Parallel()

		_, err := parseLogLines([]byte("not-a-timestamp rest\n"), logsmodel.StreamStdout, true)
		require.Error(t, err)
	})

	t.Run("empty output yields no lines", func(t *testing.T) {
		t.Parallel()

		lines, err := parseLogLines(nil, logsmodel.StreamStdout, false)
		require.NoError(t, err)
		assert.Empty(t, lines)
	})
}
