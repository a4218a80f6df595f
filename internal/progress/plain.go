package progress

import (
	"fmt"
	"io"
	"time"

	"github.com/mkoval-dev/replica/internal/event"
	"github.com/mkoval-dev/replica/internal/stats"
)

// plainPresenter prints one line per notable event to stdout and periodic
// progress to stderr. On a TTY the progress interval tightens.
type plainPresenter struct {
	w       io.Writer
	errW    io.Writer
	stats   *stats.Collector
	isTTY   bool
	verbose bool
}

func (p *plainPresenter) Run(events <-chan event.Event) error {
	interval := 5 * time.Second
	if p.isTTY {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			p.handleEvent(ev)
		case <-ticker.C:
			p.stats.Tick()
			p.printProgress()
		}
	}
}

func (p *plainPresenter) handleEvent(ev event.Event) {
	switch ev.Type {
	case event.ScanStarted:
		fmt.Fprintln(p.errW, "scanning source...")
	case event.ScanComplete:
		snap := p.stats.Snapshot()
		fmt.Fprintf(p.errW, "scan complete: %s dirs, %s files, %s links, %s\n",
			FormatCount(snap.DirsTotal), FormatCount(snap.FilesTotal),
			FormatCount(snap.LinksTotal), stats.FormatBytes(snap.BytesTotal))
	case event.FileCopied:
		if p.verbose {
			fmt.Fprintf(p.w, "%s  %s\n", ev.Path, stats.FormatBytes(ev.Size))
		}
	case event.HardlinkCreated:
		if p.verbose {
			fmt.Fprintf(p.w, "%s  hardlink\n", ev.Path)
		}
	case event.LinkCreated:
		if p.verbose {
			fmt.Fprintf(p.w, "%s  link\n", ev.Path)
		}
	case event.FileFailed:
		errMsg := "error"
		if ev.Error != nil {
			errMsg = ev.Error.Error()
		}
		fmt.Fprintf(p.w, "failed: %s: %s\n", ev.Path, errMsg)
	case event.FileSkipped:
		if p.verbose {
			reason := ""
			if ev.Error != nil {
				reason = "  " + ev.Error.Error()
			}
			fmt.Fprintf(p.w, "skipped: %s%s\n", ev.Path, reason)
		}
	case event.FilePartial:
		if p.verbose {
			fmt.Fprintf(p.w, "partial: %s\n", ev.Path)
		}
	case event.VerifyStarted:
		fmt.Fprintln(p.errW, "verifying...")
	case event.VerifyFailed:
		fmt.Fprintf(p.w, "MISMATCH: %s\n", ev.Path)
	case event.VerifyOK:
		// silent in plain mode
	}
}

func (p *plainPresenter) printProgress() {
	snap := p.stats.Snapshot()
	if snap.BytesTotal > 0 {
		pct := float64(snap.BytesCopied) / float64(snap.BytesTotal) * 100
		speed := p.stats.RollingSpeed(10)
		eta := p.stats.ETA()
		fmt.Fprintf(p.errW, "progress: %.0f%% %s/%s %s/%s files %s eta %s\n",
			pct,
			stats.FormatBytes(snap.BytesCopied), stats.FormatBytes(snap.BytesTotal),
			FormatCount(snap.FilesCopied), FormatCount(snap.FilesTotal),
			FormatRate(speed),
			FormatETA(eta),
		)
	} else {
		fmt.Fprintf(p.errW, "progress: %s copied %s files\n",
			stats.FormatBytes(snap.BytesCopied),
			FormatCount(snap.FilesCopied),
		)
	}
}

func (p *plainPresenter) Summary() string {
	return summaryLine(p.stats)
}

func summaryLine(c *stats.Collector) string {
	snap := c.Snapshot()
	line := fmt.Sprintf("%s dirs, %s files, %s hardlinks, %s links, %s in %s",
		FormatCount(snap.DirsCreated),
		FormatCount(snap.FilesCopied),
		FormatCount(snap.Hardlinks),
		FormatCount(snap.Links),
		stats.FormatBytes(snap.BytesCopied),
		FormatDuration(c.Elapsed()),
	)
	if snap.Skipped > 0 {
		line += fmt.Sprintf(", %s skipped", FormatCount(snap.Skipped))
	}
	if snap.Partial > 0 {
		line += fmt.Sprintf(", %s partial", FormatCount(snap.Partial))
	}
	if snap.Failed > 0 {
		line += fmt.Sprintf(", %s FAILED", FormatCount(snap.Failed))
	}
	return line
}
