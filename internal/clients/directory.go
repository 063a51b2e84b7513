// Package clients provides the read-only client directory the scheduling
// core consumes: a mapping of client identifier to display name used to
// label locally authored appointments.
package clients

import (
	"context"
	"fmt"
	"sync"

	"github.com/lucasromanh/lucha-fit/internal/logging"
	"github.com/rs/zerolog"
)

// Record is one client entry.
type Record struct {
	ID       string
	FullName string
}

// Source supplies the directory contents, typically the sqlite ClientStore.
type Source interface {
	ListClients(ctx context.Context) ([]Record, error)
}

// Directory caches the id-to-name mapping in memory. It is read-only to the
// scheduling core; Refresh reloads it from the source.
type Directory struct {
	source Source
	logger zerolog.Logger

	mu     sync.RWMutex
	byID   map[string]string
	sorted []Record
}

// NewDirectory creates an empty directory backed by source.
func NewDirectory(source Source) *Directory {
	return &Directory{
		source: source,
		logger: logging.GetLogger("clients"),
		byID:   map[string]string{},
	}
}

// Refresh reloads the directory from its source.
func (d *Directory) Refresh(ctx context.Context) error {
	records, err := d.source.ListClients(ctx)
	if err != nil {
		return fmt.Errorf("failed to load client directory: %w", err)
	}

	byID := make(map[string]string, len(records))
	for _, r := range records {
		byID[r.ID] = r.FullName
	}

	d.mu.Lock()
	d.byID = byID
	d.sorted = records
	d.mu.Unlock()

	d.logger.Debug().Int("clients", len(records)).Msg("Client directory refreshed")
	return nil
}

// Name returns the display name for a client ID, with a generic fallback so
// an appointment whose client was deleted still renders a label.
func (d *Directory) Name(id string) string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if name, ok := d.byID[id]; ok && name != "" {
		return name
	}
	return "Cliente"
}

// All returns a snapshot of the directory entries in source order.
func (d *Directory) All() []Record {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]Record, len(d.sorted))
	copy(out, d.sorted)
	return out
}
