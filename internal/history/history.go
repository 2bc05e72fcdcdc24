// Package history keeps a bounded, newest-first list of past generations.
package history

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/manash/picfour/internal/storage"
	"github.com/manash/picfour/pkg/models"
)

const (
	// MaxEntries is the retention cap. Appending past it evicts the oldest.
	MaxEntries = 10

	storageKey = "picfour_history"
)

// Entry is an immutable record of one generation run.
type Entry struct {
	ID            string                `json:"id"`
	OriginalImage models.ImagePayload   `json:"originalImage"`
	Prompt        string                `json:"prompt"`
	Results       []models.ImagePayload `json:"results"`
	Timestamp     time.Time             `json:"timestamp"`
}

func NewEntry(original models.ImagePayload, prompt string, results []models.ImagePayload) Entry {
	return Entry{
		ID:            uuid.New().String(),
		OriginalImage: original,
		Prompt:        prompt,
		Results:       results,
		Timestamp:     time.Now(),
	}
}

// Store is a fixed-capacity most-recent-first cache over the persistence
// port. It is not safe for concurrent use.
type Store struct {
	store storage.Store
	max   int
}

func NewStore(store storage.Store) *Store {
	return NewStoreWithLimit(store, MaxEntries)
}

// NewStoreWithLimit caps retention at max entries instead of the default.
func NewStoreWithLimit(store storage.Store, max int) *Store {
	if max <= 0 {
		max = MaxEntries
	}
	return &Store{
		store: store,
		max:   max,
	}
}

// Load returns the persisted list, newest-first, capped at MaxEntries.
// Absent or unparsable state yields an empty list.
func (s *Store) Load(ctx context.Context) ([]Entry, error) {
	raw, ok, err := s.store.Get(ctx, storageKey)
	if err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}
	if !ok {
		return nil, nil
	}

	var entries []Entry
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return nil, nil
	}
	if len(entries) > s.max {
		entries = entries[:s.max]
	}
	return entries, nil
}

// Append inserts the entry at the front and truncates to capacity.
func (s *Store) Append(ctx context.Context, entry Entry) error {
	entries, err := s.Load(ctx)
	if err != nil {
		return err
	}

	entries = append([]Entry{entry}, entries...)
	if len(entries) > s.max {
		entries = entries[:s.max]
	}
	return s.save(ctx, entries)
}

// Clear empties the list and persists the empty state.
func (s *Store) Clear(ctx context.Context) error {
	return s.save(ctx, []Entry{})
}

func (s *Store) save(ctx context.Context, entries []Entry) error {
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("failed to encode history: %w", err)
	}
	if err := s.store.Set(ctx, storageKey, string(data)); err != nil {
		return fmt.Errorf("failed to persist history: %w", err)
	}
	return nil
}
