package progress

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkoval-dev/replica/internal/event"
	"github.com/mkoval-dev/replica/internal/stats"
)

func TestFormatRate(t *testing.T) {
	assert.Equal(t, "0 B/s", FormatRate(0))
	assert.Equal(t, "512 B/s", FormatRate(512))
	assert.Equal(t, "1.00 KB/s", FormatRate(1024))
	assert.Equal(t, "10.0 MB/s", FormatRate(10*1024*1024))
}

func TestFormatETA(t *testing.T) {
	assert.Equal(t, "--", FormatETA(0))
	assert.Equal(t, "45s", FormatETA(45*time.Second))
	assert.Equal(t, "2m 05s", FormatETA(125*time.Second))
	assert.Equal(t, "1h 01m 05s", FormatETA(3665*time.Second))
}

func TestFormatCount(t *testing.T) {
	assert.Equal(t, "0", FormatCount(0))
	assert.Equal(t, "999", FormatCount(999))
	assert.Equal(t, "1,000", FormatCount(1000))
	assert.Equal(t, "1,234,567", FormatCount(1234567))
	assert.Equal(t, "-1,000", FormatCount(-1000))
}

func TestPlainPresenter_Events(t *testing.T) {
	var out, errOut bytes.Buffer
	c := stats.NewCollector()
	p := New(Config{Writer: &out, ErrWriter: &errOut, Stats: c, Verbose: true})

	events := make(chan event.Event, 8)
	events <- event.Event{Type: event.FileCopied, Path: "a/b.txt", Size: 2048}
	events <- event.Event{Type: event.FileFailed, Path: "c.txt", Error: errors.New("permission denied")}
	events <- event.Event{Type: event.VerifyFailed, Path: "d.txt"}
	close(events)

	require.NoError(t, p.Run(events))

	got := out.String()
	assert.Contains(t, got, "a/b.txt")
	assert.Contains(t, got, "2.0 KiB")
	assert.Contains(t, got, "failed: c.txt: permission denied")
	assert.Contains(t, got, "MISMATCH: d.txt")
}

func TestPlainPresenter_Summary(t *testing.T) {
	var out, errOut bytes.Buffer
	c := stats.NewCollector()
	c.AddDirsCreated(3)
	c.AddFilesCopied(10)
	c.AddBytesCopied(4096)
	c.AddFailed(1)

	p := New(Config{Writer: &out, ErrWriter: &errOut, Stats: c})
	summary := p.Summary()
	assert.Contains(t, summary, "3 dirs")
	assert.Contains(t, summary, "10 files")
	assert.Contains(t, summary, "FAILED")
}

func TestQuietPresenter(t *testing.T) {
	c := stats.NewCollector()
	p := New(Config{Quiet: true, Stats: c})

	events := make(chan event.Event, 2)
	events <- event.Event{Type: event.FileCopied, Path: "x"}
	close(events)

	require.NoError(t, p.Run(events))
	assert.Empty(t, p.Summary())
}

func TestSummaryLine_CleanRun(t *testing.T) {
	c := stats.NewCollector()
	c.AddFilesCopied(2)
	line := summaryLine(c)
	assert.False(t, strings.Contains(line, "FAILED"))
	assert.False(t, strings.Contains(line, "skipped"))
}
