package engine

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/mkoval-dev/replica/internal/event"
	"github.com/mkoval-dev/replica/internal/filter"
	"github.com/mkoval-dev/replica/internal/stats"
)

// VerifyConfig controls the post-replication verification pass.
type VerifyConfig struct {
	SrcRoot string
	DstRoot string
	Workers int
	Exclude *filter.Set
	Events  chan<- event.Event
	Stats   *stats.Collector
}

// VerifyResult holds the outcome of a verification pass.
type VerifyResult struct {
	Verified int64
	Failed   int64
	Errors   []VerifyError
}

// VerifyError records a single checksum mismatch.
type VerifyError struct {
	Path    string
	SrcHash string
	DstHash string
}

// Verify walks the destination tree and compares BLAKE3 checksums against
// the source for every regular file. It fans out to cfg.Workers goroutines.
func Verify(ctx context.Context, cfg VerifyConfig) VerifyResult {
	emitEvent(cfg.Events, event.Event{Type: event.VerifyStarted})

	workers := cfg.Workers
	if workers <= 0 {
		workers = 4
	}
	if cfg.Stats == nil {
		cfg.Stats = stats.NewCollector()
	}

	files := collectVerifyFiles(ctx, cfg.DstRoot, cfg.SrcRoot, cfg.Exclude)

	taskCh := make(chan string, workers*2)
	var mu sync.Mutex
	var result VerifyResult
	var wg sync.WaitGroup

	record := func(relPath, srcHash, dstHash string, err error) {
		mu.Lock()
		result.Failed++
		result.Errors = append(result.Errors, VerifyError{
			Path:    relPath,
			SrcHash: srcHash,
			DstHash: dstHash,
		})
		mu.Unlock()
		cfg.Stats.AddVerifyFailed(1)
		emitEvent(cfg.Events, event.Event{
			Type:  event.VerifyFailed,
			Path:  relPath,
			Error: err,
		})
	}

	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for relPath := range taskCh {
				select {
				case <-ctx.Done():
					return
				default:
				}

				srcPath := filepath.Join(cfg.SrcRoot, relPath)
				dstPath := filepath.Join(cfg.DstRoot, relPath)

				srcHash, err := HashFile(srcPath)
				if err != nil {
					// Source vanished or unreadable since the copy.
					record(relPath, "error", "n/a", err)
					continue
				}

				dstHash, err := HashFile(dstPath)
				if err != nil {
					record(relPath, srcHash, "error", err)
					continue
				}

				if srcHash != dstHash {
					record(relPath, srcHash, dstHash, nil)
					continue
				}

				mu.Lock()
				result.Verified++
				mu.Unlock()
				cfg.Stats.AddVerified(1)
				emitEvent(cfg.Events, event.Event{
					Type: event.VerifyOK,
					Path: relPath,
				})
			}
		}()
	}

	for _, f := range files {
		select {
		case <-ctx.Done():
		case taskCh <- f:
		}
	}
	close(taskCh)
	wg.Wait()

	return result
}

// collectVerifyFiles walks the destination tree and returns relative paths
// of regular files that exist in the source and are not excluded.
func collectVerifyFiles(ctx context.Context, dstRoot, srcRoot string, exclude *filter.Set) []string {
	var files []string
	_ = filepath.WalkDir(dstRoot, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}

		relPath, err := filepath.Rel(dstRoot, path)
		if err != nil {
			return nil
		}
		relPath = filepath.ToSlash(relPath)

		if exclude != nil && exclude.Excluded(path, relPath, false) {
			return nil
		}

		// Only verify files that also exist in source.
		srcPath := filepath.Join(srcRoot, relPath)
		if _, err := os.Lstat(srcPath); err != nil {
			return nil
		}

		files = append(files, relPath)
		return nil
	})
	return files
}

func emitEvent(ch chan<- event.Event, e event.Event) {
	if ch == nil {
		return
	}
	e.Timestamp = time.Now()
	select {
	case ch <- e:
	default:
	}
}
