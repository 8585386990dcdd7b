package commands

import (
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sipdoor/sipdoor-go/pkg/eventlog"
)

// writeCapture creates a capture file with a representative event mix.
func writeCapture(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "doorbell.dlog")
	logger, err := eventlog.NewFileLogger(path)
	require.NoError(t, err)

	logger.Log(eventlog.NewAddressEvent("192.168.1.40", "192.168.1.1"))
	logger.Log(eventlog.NewCallEvent(eventlog.SourceSession, eventlog.CallStarted, "call-1", ""))
	logger.Log(eventlog.NewButtonEvent(eventlog.SourceSession, "#", 500))
	logger.Log(eventlog.NewCallEvent(eventlog.SourceSession, eventlog.CallCancelled, "call-2", "DECLINED"))
	logger.Log(eventlog.NewErrorEvent(eventlog.SourceSession, "read timeout", "read"))

	require.NoError(t, logger.Close())
	return path
}

func TestRunView(t *testing.T) {
	path := writeCapture(t)

	var out strings.Builder
	require.NoError(t, RunView(path, ViewFilter{}, &out))

	text := out.String()
	assert.Contains(t, text, "link up local=192.168.1.40 server=192.168.1.1")
	assert.Contains(t, text, "call STARTED id=call-1")
	assert.Contains(t, text, "button # duration=500ms")
	assert.Contains(t, text, "call CANCELLED id=call-2 reason=DECLINED")
	assert.Contains(t, text, "error read timeout in read")
}

func TestRunViewFiltered(t *testing.T) {
	path := writeCapture(t)

	source := eventlog.SourceLink
	var out strings.Builder
	require.NoError(t, RunView(path, ViewFilter{Source: &source}, &out))

	assert.Contains(t, out.String(), "LINK")
	assert.NotContains(t, out.String(), "call-1")
}

func TestParseFlags(t *testing.T) {
	s, err := ParseSourceFlag("session")
	require.NoError(t, err)
	assert.Equal(t, eventlog.SourceSession, s)

	_, err = ParseSourceFlag("bogus")
	assert.Error(t, err)

	c, err := ParseCategoryFlag("call")
	require.NoError(t, err)
	assert.Equal(t, eventlog.CategoryCall, c)

	_, err = ParseCategoryFlag("bogus")
	assert.Error(t, err)
}

func TestCollectStats(t *testing.T) {
	path := writeCapture(t)

	stats, err := Collect(path)
	require.NoError(t, err)

	assert.Equal(t, 5, stats.TotalEvents)
	assert.Equal(t, 2, stats.Calls)
	assert.Equal(t, 1, stats.CallsAnswered)
	assert.Equal(t, 1, stats.CallsCancelled)
	assert.Equal(t, 1, stats.ButtonPresses)
	assert.Equal(t, 1, stats.Errors)
	assert.Equal(t, 4, stats.EventsBySource[eventlog.SourceSession])
	assert.False(t, stats.TimeRange.Start.IsZero())

	var out strings.Builder
	require.NoError(t, RunStats(path, &out))
	assert.Contains(t, out.String(), "Total events: 5")
}

func TestExportJSONL(t *testing.T) {
	path := writeCapture(t)

	reader, err := eventlog.NewReader(path)
	require.NoError(t, err)
	defer reader.Close()

	var out strings.Builder
	require.NoError(t, Export(reader, &out))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 5)

	var rec exportRecord
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &rec))
	assert.Equal(t, "SESSION", rec.Source)
	assert.Equal(t, "STARTED", rec.CallKind)
	assert.Equal(t, "call-1", rec.CallID)
}
