package apiclient

import (
	"fmt"
	"sync"
	"time"
)

// Progress folds the byte counts of several concurrent or sequential uploads into a
// single percentage with speed and ETA.
type Progress struct {
	mu    sync.Mutex
	now   func() time.Time
	start time.Time
	sent  []int64
	total []int64
}

// Snapshot is a point-in-time view of a Progress
type Snapshot struct {
	Sent        int64
	Total       int64
	Percent     float64
	BytesPerSec float64
	ETA         time.Duration // zero when unknown or done
}

// NewProgress tracks len(sizes) files; a size may be refined later by Update
func NewProgress(sizes ...int64) *Progress {
	return newProgressAt(time.Now, sizes...)
}

func newProgressAt(now func() time.Time, sizes ...int64) *Progress {
	total := make([]int64, len(sizes))
	copy(total, sizes)
	return &Progress{
		now:   now,
		start: now(),
		sent:  make([]int64, len(sizes)),
		total: total,
	}
}

// Update records file i's progress. A positive total replaces the expected size.
func (p *Progress) Update(i int, sent, total int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if i < 0 || i >= len(p.sent) {
		return
	}
	if total > 0 {
		p.total[i] = total
	}
	if sent > p.total[i] {
		sent = p.total[i]
	}
	p.sent[i] = sent
}

// Done marks file i complete regardless of what was reported
func (p *Progress) Done(i int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if i >= 0 && i < len(p.sent) {
		p.sent[i] = p.total[i]
	}
}

// Func adapts file i to a ProgressFunc for UploadImage
func (p *Progress) Func(i int) ProgressFunc {
	return func(sent, total int64) {
		p.Update(i, sent, total)
	}
}

func (p *Progress) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()

	var snap Snapshot
	for i := range p.sent {
		snap.Sent += p.sent[i]
		snap.Total += p.total[i]
	}
	if snap.Total > 0 {
		snap.Percent = float64(snap.Sent) * 100 / float64(snap.Total)
	}

	elapsed := p.now().Sub(p.start).Seconds()
	if elapsed > 0 {
		snap.BytesPerSec = float64(snap.Sent) / elapsed
	}
	if remaining := snap.Total - snap.Sent; remaining > 0 && snap.BytesPerSec > 0 {
		snap.ETA = time.Duration(float64(remaining) / snap.BytesPerSec * float64(time.Second))
	}
	return snap
}

func (s Snapshot) String() string {
	eta := "--"
	if s.ETA > 0 {
		eta = s.ETA.Round(time.Second).String()
	}
	return fmt.Sprintf("%5.1f%%  %s/s  残り %s", s.Percent, formatBytes(int64(s.BytesPerSec)), eta)
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMGTPE"[exp])
}
