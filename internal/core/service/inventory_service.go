package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/tmnhat/pantry-scan/internal/core/domain"
	"github.com/tmnhat/pantry-scan/internal/port"
)

// ErrNoStoredInventory reports that the durable slot held nothing to restore.
// First runs hit this; callers log it and start with an empty collection.
var ErrNoStoredInventory = errors.New("no stored inventory to restore")

// InventoryService owns the ordered collection of saved records,
// most-recently-added first. Every mutation re-serializes the whole
// collection to the durable mirror; a failed mirror write is reported as
// ErrStorage but never rolls back the in-memory change.
type InventoryService struct {
	mu      sync.Mutex
	records []domain.InventoryRecord
	mirror  port.Mirror
}

func NewInventoryService(mirror port.Mirror) *InventoryService {
	return &InventoryService{mirror: mirror}
}

// Restore loads a previously persisted collection. An absent or empty slot
// returns ErrNoStoredInventory and an unreadable payload a wrapped
// ErrStorage; both are non-fatal warnings for the caller to log, and the
// collection starts empty either way.
func (s *InventoryService) Restore(ctx context.Context) error {
	payload, err := s.mirror.Load(ctx)
	if err != nil {
		return fmt.Errorf("%w: load: %v", domain.ErrStorage, err)
	}
	if len(payload) == 0 {
		return ErrNoStoredInventory
	}

	var records []domain.InventoryRecord
	if err := json.Unmarshal(payload, &records); err != nil {
		return fmt.Errorf("%w: stored inventory is unreadable: %v", domain.ErrStorage, err)
	}

	s.mu.Lock()
	s.records = records
	s.mu.Unlock()
	return nil
}

// List returns a copy of the collection, most-recently-added first.
func (s *InventoryService) List() []domain.InventoryRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.InventoryRecord, len(s.records))
	copy(out, s.records)
	return out
}

// ItemNames returns the names of all saved records in list order.
func (s *InventoryService) ItemNames() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(s.records))
	for _, r := range s.records {
		names = append(names, r.Name)
	}
	return names
}

// Add prepends a new record and persists the updated collection. On a mirror
// failure the record stays in memory and a wrapped ErrStorage is returned.
func (s *InventoryService) Add(ctx context.Context, record domain.InventoryRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = append([]domain.InventoryRecord{record}, s.records...)
	return s.persistLocked(ctx)
}

// Remove deletes the record with the matching id. A missing id is a no-op,
// not an error, and does not touch the mirror.
func (s *InventoryService) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, r := range s.records {
		if r.ID == id {
			s.records = append(s.records[:i], s.records[i+1:]...)
			return s.persistLocked(ctx)
		}
	}
	return nil
}

func (s *InventoryService) persistLocked(ctx context.Context) error {
	payload, err := json.Marshal(s.records)
	if err != nil {
		return fmt.Errorf("%w: encode: %v", domain.ErrStorage, err)
	}
	if err := s.mirror.Save(ctx, payload); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}
	return nil
}
