package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/mkoval-dev/replica/internal/filter"
)

// ScanTotals is the result of the pre-scan pass: how much work the
// replication walk will do, counted with the same classification rules the
// walk itself uses.
type ScanTotals struct {
	Dirs  int64
	Files int64
	Links int64
	Bytes int64
}

// scanJob is one directory waiting for a scan worker.
type scanJob struct {
	path string
	rel  string
}

// Scan walks the source tree with a worker pool and tallies totals for
// progress reporting. Unreadable entries are silently skipped here; the
// replication walk reports them properly.
func Scan(ctx context.Context, src string, exclude *filter.Set, oneFS bool, workers int) (ScanTotals, error) {
	rootInfo, err := os.Lstat(src)
	if err != nil {
		return ScanTotals{}, fmt.Errorf("source: %w", err)
	}
	if !rootInfo.IsDir() {
		return ScanTotals{}, fmt.Errorf("source %s is not a directory", src)
	}

	if workers <= 0 {
		workers = min(runtime.NumCPU(), 8)
	}

	s := &treeScanner{
		classifier: NewClassifier(src, exclude, oneFS, rootInfo),
	}

	workQueue := make(chan scanJob, workers*2)
	var outstanding sync.WaitGroup // directories queued but not yet scanned

	var workerWg sync.WaitGroup
	for range workers {
		workerWg.Add(1)
		go func() {
			defer workerWg.Done()
			for job := range workQueue {
				s.scanDir(ctx, job, workQueue, &outstanding)
				outstanding.Done()
			}
		}()
	}

	outstanding.Add(1)
	workQueue <- scanJob{path: src, rel: "."}

	outstanding.Wait()
	close(workQueue)
	workerWg.Wait()

	return ScanTotals{
		Dirs:  s.dirs.Load(),
		Files: s.files.Load(),
		Links: s.links.Load(),
		Bytes: s.bytes.Load(),
	}, ctx.Err()
}

// enqueueScan hands a directory to the pool without ever blocking the
// calling worker. Workers are the only consumers of the bounded queue, so a
// direct send from inside scanDir can wedge the whole pool on a wide
// directory: every worker blocked sending, nobody left to receive. The
// overflow path moves the send to a goroutine; outstanding guarantees the
// job is consumed before Scan returns, so the goroutine cannot leak.
func enqueueScan(workQueue chan<- scanJob, job scanJob) {
	select {
	case workQueue <- job:
	default:
		go func() { workQueue <- job }()
	}
}

type treeScanner struct {
	classifier *Classifier
	inodeSeen  sync.Map // FileID -> struct{}

	dirs  atomic.Int64
	files atomic.Int64
	links atomic.Int64
	bytes atomic.Int64
}

func (s *treeScanner) scanDir(ctx context.Context, job scanJob, workQueue chan<- scanJob, outstanding *sync.WaitGroup) {
	entries, err := os.ReadDir(job.path)
	if err != nil {
		return
	}

	for _, de := range entries {
		select {
		case <-ctx.Done():
			return
		default:
		}

		path := filepath.Join(job.path, de.Name())
		rel := de.Name()
		if job.rel != "." {
			rel = job.rel + "/" + de.Name()
		}

		info, err := de.Info()
		if err != nil {
			continue
		}

		entry, verdict, _ := s.classifier.Classify(path, rel, info)
		if verdict != VerdictReplicate {
			continue
		}

		switch entry.Kind {
		case KindDirectory:
			s.dirs.Add(1)
			outstanding.Add(1)
			enqueueScan(workQueue, scanJob{path: path, rel: rel})

		case KindSymlink, KindJunction:
			s.links.Add(1)

		case KindRegularFile:
			if entry.HasID && entry.Nlink > 1 {
				if _, seen := s.inodeSeen.LoadOrStore(entry.ID, struct{}{}); seen {
					s.links.Add(1)
					continue
				}
			}
			s.files.Add(1)
			s.bytes.Add(entry.Size)
		}
	}
}
