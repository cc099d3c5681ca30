package regime

import "sync"

// Detector runs the breakpoint scan incrementally over a growing movement
// series. The live monitor feeds it one observation per sample interval;
// each observation re-scores the buffered series, which stays cheap because
// Scan is linear in the series length.
type Detector struct {
	mu      sync.Mutex
	scanner Scanner
	maxLen  int
	xs      []int
	labels  []string
	fired   bool
	firedAt int // buffer position of the reported change, shifts left on trim
}

// Change describes a detected regime change in a live series.
type Change struct {
	Index         int
	Label         string
	PLeft, PRight float64
	MDL           float64
}

// NewDetector creates a Detector bounded to maxLen buffered observations.
// When the buffer is full the oldest observations are discarded; the
// detector re-arms once a reported change leaves the buffer, so a
// long-running stream can flag successive changes without repeating one.
func NewDetector(scanner Scanner, maxLen int) *Detector {
	if maxLen <= 0 {
		maxLen = 1024
	}
	return &Detector{scanner: scanner, maxLen: maxLen}
}

// Observe appends one movement with its label and re-scans the buffer.
// Each detected change is reported exactly once.
func (d *Detector) Observe(x int, label string) (Change, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.xs = append(d.xs, x)
	d.labels = append(d.labels, label)
	if len(d.xs) > d.maxLen {
		drop := len(d.xs) - d.maxLen
		d.xs = d.xs[drop:]
		d.labels = d.labels[drop:]
		if d.fired {
			// Re-arm only once the reported change has scrolled out of
			// the buffer, so trimming never re-reports the same change.
			d.firedAt -= drop
			if d.firedAt <= 0 {
				d.fired = false
			}
		}
	}

	if d.fired || len(d.xs) < 2 {
		return Change{}, false
	}

	res, err := d.scanner.Scan(d.xs)
	if err != nil || res.ChangeIndex < 0 {
		return Change{}, false
	}

	d.fired = true
	d.firedAt = res.ChangeIndex
	pl, pr := Rates(d.xs, res.ChangeIndex)
	return Change{
		Index:  res.ChangeIndex,
		Label:  d.labels[res.ChangeIndex],
		PLeft:  pl,
		PRight: pr,
		MDL:    res.MDL[res.ChangeIndex-1],
	}, true
}

// Len returns the number of buffered observations.
func (d *Detector) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.xs)
}

// Reset clears the buffer and re-arms detection.
func (d *Detector) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.xs = d.xs[:0]
	d.labels = d.labels[:0]
	d.fired = false
	d.firedAt = 0
}
