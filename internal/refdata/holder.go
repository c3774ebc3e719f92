package refdata

import (
	"os"
	"sync"
	"sync/atomic"
	"time"

	"megatex/internal/quote"
)

// Snapshot is one loaded generation of reference data. It is never
// modified after it is published.
type Snapshot struct {
	Data     *quote.ReferenceData
	Index    *Index
	Warnings []string
	LoadedAt time.Time
	stamps   []time.Time
}

// Holder publishes snapshots atomically. Readers call Current and keep
// using the snapshot they got, so a reload never lands in the middle of
// a computation.
type Holder struct {
	paths   Paths
	mu      sync.Mutex
	current atomic.Pointer[Snapshot]
}

// NewHolder performs the initial load. A LoadError here is fatal for the
// caller since there is nothing to quote against.
func NewHolder(paths Paths) (*Holder, error) {
	h := &Holder{paths: paths}
	if _, err := h.Reload(); err != nil {
		return nil, err
	}
	return h, nil
}

func (h *Holder) Paths() Paths { return h.paths }

func (h *Holder) Current() *Snapshot { return h.current.Load() }

// Reload loads the workbooks again and publishes the result. On failure
// the previous snapshot stays current and the error is returned.
func (h *Holder) Reload() (*Snapshot, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	stamps := h.stamps()
	data, warnings, err := Load(h.paths)
	if err != nil {
		if prev := h.current.Load(); prev != nil {
			// remember the failed generation so the watcher does not retry
			// until a file changes again
			next := *prev
			next.stamps = stamps
			h.current.Store(&next)
		}
		return nil, err
	}

	snap := &Snapshot{
		Data:     data,
		Index:    BuildIndex(data),
		Warnings: warnings,
		LoadedAt: time.Now(),
		stamps:   stamps,
	}
	h.current.Store(snap)
	return snap, nil
}

// Changed reports whether any workbook was modified, created or removed
// since the current snapshot was taken.
func (h *Holder) Changed() bool {
	snap := h.current.Load()
	if snap == nil {
		return true
	}
	now := h.stamps()
	for i := range now {
		if !now[i].Equal(snap.stamps[i]) {
			return true
		}
	}
	return false
}

func (h *Holder) stamps() []time.Time {
	paths := h.paths.list()
	out := make([]time.Time, len(paths))
	for i, p := range paths {
		if p == "" {
			continue
		}
		if st, err := os.Stat(p); err == nil {
			out[i] = st.ModTime()
		}
	}
	return out
}
