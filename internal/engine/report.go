package engine

import "fmt"

// Report aggregates the outcome of one replication run. Partial counts
// entries whose content was replicated but whose attributes could not be
// fully restored; those entries are not failures.
type Report struct {
	Dirs        int64
	FilesCopied int64
	Hardlinks   int64
	Links       int64 // symlinks + junctions
	Skipped     int64
	Failed      int64
	Partial     int64
	BytesCopied int64

	Failures []Failure

	// Fatal is set when the run aborted (destination root could not be
	// created, or the destination volume disappeared mid-run). The counts
	// above still reflect the work completed before the abort.
	Fatal error
}

// Ok reports whether every entry replicated cleanly.
func (r *Report) Ok() bool {
	return r.Fatal == nil && r.Failed == 0
}

func (r *Report) String() string {
	return fmt.Sprintf(
		"dirs=%d files=%d hardlinks=%d links=%d skipped=%d failed=%d partial=%d bytes=%d",
		r.Dirs, r.FilesCopied, r.Hardlinks, r.Links, r.Skipped, r.Failed, r.Partial, r.BytesCopied,
	)
}
