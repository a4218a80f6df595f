package engine

import (
	"context"
	"fmt"
	"os"

	"github.com/mkoval-dev/replica/internal/event"
	"github.com/mkoval-dev/replica/internal/filter"
	"github.com/mkoval-dev/replica/internal/stats"
)

// Config describes one replication run.
type Config struct {
	Source string
	Dest   string

	// Exclude holds wildcard patterns; matching is case-insensitive on
	// platforms whose filesystems usually are.
	Exclude []string

	OneFilesystem bool
	DryRun        bool
	Resume        bool
	Verify        bool
	BWLimit       int64

	ScanWorkers   int
	VerifyWorkers int

	Events chan<- event.Event
	Stats  *stats.Collector
}

// Result is the outcome of a replication run.
type Result struct {
	Totals ScanTotals
	Report *Report
	Verify VerifyResult
	Stats  stats.Snapshot
}

// Run executes a full replication: a totals pre-scan, the replication walk,
// and an optional checksum verification pass. It blocks until complete.
func Run(ctx context.Context, cfg Config) (Result, error) {
	srcInfo, err := os.Lstat(cfg.Source)
	if err != nil {
		return Result{}, fmt.Errorf("source: %w", err)
	}
	if !srcInfo.IsDir() {
		return Result{}, fmt.Errorf("source %s is not a directory", cfg.Source)
	}

	exclude, err := filter.New(cfg.Exclude, filter.FoldCaseDefault())
	if err != nil {
		return Result{}, fmt.Errorf("exclude patterns: %w", err)
	}

	if cfg.Stats == nil {
		cfg.Stats = stats.NewCollector()
	}

	emitEvent(cfg.Events, event.Event{Type: event.ScanStarted})
	totals, err := Scan(ctx, cfg.Source, exclude, cfg.OneFilesystem, cfg.ScanWorkers)
	if err != nil {
		return Result{Totals: totals}, err
	}
	cfg.Stats.SetTotals(totals.Dirs, totals.Files, totals.Links, totals.Bytes)
	emitEvent(cfg.Events, event.Event{Type: event.ScanComplete, Size: totals.Bytes})

	var journal *Journal
	if !cfg.DryRun {
		journal, err = OpenJournal(cfg.Source, cfg.Dest)
		if err != nil {
			// Replication works without session state; resume just won't.
			journal = nil
		}
	}

	walker, err := NewWalker(WalkerConfig{
		Source:        cfg.Source,
		Dest:          cfg.Dest,
		Exclude:       exclude,
		OneFilesystem: cfg.OneFilesystem,
		DryRun:        cfg.DryRun,
		Resume:        cfg.Resume,
		BWLimit:       cfg.BWLimit,
		Journal:       journal,
		Events:        cfg.Events,
		Stats:         cfg.Stats,
	})
	if err != nil {
		if journal != nil {
			journal.Close()
		}
		return Result{Totals: totals}, err
	}

	report := walker.Run(ctx)

	if journal != nil {
		if err := journal.Close(); err == nil && report.Ok() {
			// Clean run: nothing left to resume from.
			_ = journal.Remove()
		}
	}

	result := Result{
		Totals: totals,
		Report: report,
	}

	if cfg.Verify && !cfg.DryRun && report.Fatal == nil {
		result.Verify = Verify(ctx, VerifyConfig{
			SrcRoot: cfg.Source,
			DstRoot: cfg.Dest,
			Workers: cfg.VerifyWorkers,
			Exclude: exclude,
			Events:  cfg.Events,
			Stats:   cfg.Stats,
		})
	}

	result.Stats = cfg.Stats.Snapshot()
	return result, nil
}
