// Package collector implements the acquisition engine: the per-job
// resource budget, the fetch client with retry and atomic writes, the
// parquet to CSV normalizer, and the manager that runs jobs as
// supervised background tasks behind a FIFO queue.
package collector

// budget tracks cumulative bytes and file count for one running job. A
// zero bound means unbounded on that dimension. Periods within a job run
// strictly sequentially, so the tracker is owned by a single goroutine
// and needs no locking.
type budget struct {
	bytes    int64
	files    int
	maxBytes int64
	maxFiles int
}

func newBudget(maxBytes int64, maxFiles int) *budget {
	return &budget{maxBytes: maxBytes, maxFiles: maxFiles}
}

// mayProceed reports whether another file may be started. The check is
// strictly less-than and happens once per period before the fetch, so a
// file in flight is never interrupted for pushing a total past its
// bound; the overshoot is at most one file.
func (b *budget) mayProceed() bool {
	if b.maxFiles > 0 && b.files >= b.maxFiles {
		return false
	}
	if b.maxBytes > 0 && b.bytes >= b.maxBytes {
		return false
	}
	return true
}

// record adds one acquired file to the running totals. Files skipped as
// already present count too, they occupy the same budgeted space on disk
// as a fresh download.
func (b *budget) record(size int64) {
	b.bytes += size
	b.files++
}
