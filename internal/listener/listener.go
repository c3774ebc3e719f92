package listener

import (
	"context"
	"log"
	"time"

	"megatex/internal/refdata"
)

// Reloader is the part of *refdata.Holder the listener drives.
type Reloader interface {
	Changed() bool
	Reload() (*refdata.Snapshot, error)
}

// MetadataStore records the last successful reload. *storage.DB
// implements it.
type MetadataStore interface {
	SetMetadata(key, value string) error
}

const LastReloadKey = "last_reload_at"

// Service polls the reference workbooks and reloads them when one of
// them changes on disk.
type Service struct {
	holder   Reloader
	meta     MetadataStore
	interval time.Duration
}

func NewService(holder Reloader, meta MetadataStore, interval time.Duration) *Service {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Service{holder: holder, meta: meta, interval: interval}
}

// Run reloads on every tick until ctx is done. Cycle failures are
// logged and retried on the next tick, so Run has no error to report.
func (s *Service) Run(ctx context.Context) {
	for {
		if _, err := s.runCycle(); err != nil {
			log.Printf("reload cycle error: %v", err)
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(s.interval):
		}
	}
}

// runCycle reloads if needed and reports whether a new snapshot was
// published.
func (s *Service) runCycle() (bool, error) {
	if !s.holder.Changed() {
		return false, nil
	}
	snap, err := s.holder.Reload()
	if err != nil {
		return false, err
	}
	for _, w := range snap.Warnings {
		log.Printf("reference data warning: %s", w)
	}
	if s.meta != nil {
		if err := s.meta.SetMetadata(LastReloadKey, snap.LoadedAt.UTC().Format(time.RFC3339)); err != nil {
			return true, err
		}
	}
	log.Printf("reference data reloaded designs=%d materials=%d warnings=%d", len(snap.Data.Designs), len(snap.Data.Materials), len(snap.Warnings))
	return true, nil
}
