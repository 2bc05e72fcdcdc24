// Package quota enforces the daily per-install generation cap.
package quota

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/manash/picfour/internal/storage"
)

const (
	// DefaultDailyLimit is the number of generations allowed per calendar day.
	DefaultDailyLimit = 300

	storageKey = "picfour_quota"
)

// Record is the persisted quota state. Exactly one record exists per install.
type Record struct {
	Used      int       `json:"used"`
	Limit     int       `json:"limit"`
	LastReset time.Time `json:"lastReset"`
}

// Reconcile applies the lazy daily reset: when the record's reset date and now
// fall on different calendar days (in now's timezone), the counter starts
// over. Called on every read and write, so no background timer is needed.
func Reconcile(rec Record, now time.Time) Record {
	ry, rm, rd := rec.LastReset.In(now.Location()).Date()
	ny, nm, nd := now.Date()
	if ry != ny || rm != nm || rd != nd {
		return Record{Used: 0, Limit: rec.Limit, LastReset: now}
	}
	return rec
}

// Tracker owns the quota record behind the persistence port.
// It is not safe for concurrent use.
type Tracker struct {
	store storage.Store
	limit int

	// Clock is overridable in tests.
	Clock func() time.Time
}

func NewTracker(store storage.Store, limit int) *Tracker {
	if limit <= 0 {
		limit = DefaultDailyLimit
	}
	return &Tracker{
		store: store,
		limit: limit,
		Clock: time.Now,
	}
}

func (t *Tracker) Limit() int {
	return t.limit
}

// Remaining returns max(0, limit-used) after applying any pending reset.
func (t *Tracker) Remaining(ctx context.Context) (int, error) {
	rec, err := t.load(ctx)
	if err != nil {
		return 0, err
	}
	remaining := rec.Limit - rec.Used
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

// Consume spends one unit of quota. It reports false without mutation when
// the cap is already reached.
func (t *Tracker) Consume(ctx context.Context) (bool, error) {
	rec, err := t.load(ctx)
	if err != nil {
		return false, err
	}
	if rec.Used >= rec.Limit {
		return false, nil
	}
	rec.Used++
	if err := t.save(ctx, rec); err != nil {
		return false, err
	}
	return true, nil
}

// load reads and reconciles the record, persisting it whenever the stored
// form differs (first read, day change, corrupt state).
func (t *Tracker) load(ctx context.Context) (Record, error) {
	now := t.Clock()
	fresh := Record{Used: 0, Limit: t.limit, LastReset: now}

	raw, ok, err := t.store.Get(ctx, storageKey)
	if err != nil {
		return Record{}, fmt.Errorf("failed to read quota record: %w", err)
	}
	if !ok {
		return fresh, t.save(ctx, fresh)
	}

	var rec Record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil || rec.Limit <= 0 || rec.Used < 0 {
		// Corrupt state is reinitialized, never surfaced.
		return fresh, t.save(ctx, fresh)
	}

	// The configured limit is authoritative; a stored record written under an
	// older configuration follows it.
	relimited := rec.Limit != t.limit
	rec.Limit = t.limit

	reconciled := Reconcile(rec, now)
	if relimited || reconciled != rec {
		return reconciled, t.save(ctx, reconciled)
	}
	return rec, nil
}

func (t *Tracker) save(ctx context.Context, rec Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode quota record: %w", err)
	}
	if err := t.store.Set(ctx, storageKey, string(data)); err != nil {
		return fmt.Errorf("failed to persist quota record: %w", err)
	}
	return nil
}
