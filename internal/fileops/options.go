package fileops

import "github.com/twinpane/twinpane/internal/conflict"

// ProgressFunc receives progress updates from a running operation:
// percent is 0-100 over the whole batch, currentItem is a human-readable
// label for what the engine is working on. Invoked at least once per
// top-level item, and additionally per file while recursing.
type ProgressFunc func(percent int, currentItem string)

// Options tunes one engine call. The zero value is safe: conflicts are
// skipped, no progress is reported, and the default disk-space margin
// applies.
type Options struct {
	// Conflict is consulted on every destination collision. When nil,
	// OnConflict decides.
	Conflict conflict.Handler

	// OnConflict is the non-interactive fallback decision. The zero value
	// is conflict.Skip.
	OnConflict conflict.Decision

	// Progress receives batch progress updates. May be nil.
	Progress ProgressFunc

	// SafetyMargin multiplies required bytes in the pre-copy free-space
	// check. Values below 1.0 (including the zero value) fall back to 1.05.
	SafetyMargin float64
}

func (o Options) margin() float64 {
	if o.SafetyMargin < 1.0 {
		return 1.05
	}
	return o.SafetyMargin
}

func (o Options) report(percent int, item string) {
	if o.Progress != nil {
		if percent > 100 {
			percent = 100
		}
		o.Progress(percent, item)
	}
}

// progressTracker accumulates completed bytes against a pre-scanned total
// and translates them into percentage callbacks. Byte-weighted when the
// total is known, item-weighted otherwise.
type progressTracker struct {
	opts       Options
	totalBytes int64
	doneBytes  int64
	totalItems int
	doneItems  int
}

func (p *progressTracker) addBytes(n int64, item string) {
	p.doneBytes += n
	p.emit(item)
}

// note re-emits the current percentage with a new item label, without
// advancing the counters.
func (p *progressTracker) note(item string) {
	p.emit(item)
}

func (p *progressTracker) finishItem(item string) {
	p.doneItems++
	p.emit(item)
}

func (p *progressTracker) emit(item string) {
	switch {
	case p.totalBytes > 0:
		p.opts.report(int(p.doneBytes*100/p.totalBytes), item)
	case p.totalItems > 0:
		p.opts.report(p.doneItems*100/p.totalItems, item)
	default:
		p.opts.report(100, item)
	}
}
