package inventory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store is the persistence boundary for class inventory. SaveClass must
// perform an atomic compare-and-swap on the record's version and return an
// error wrapping ErrConcurrentModification when the stored version has
// moved on. LoadClass returns an error wrapping ErrClassNotFound for a
// class that was never created.
type Store interface {
	LoadClass(ctx context.Context, runID uuid.UUID, class CoachClass) (*ClassRecord, error)
	SaveClass(ctx context.Context, rec *ClassRecord) error
}

// ErrClassNotFound reports a (train run, coach class) pair with no
// inventory.
var ErrClassNotFound = errors.New("class inventory not found")

type classKey struct {
	runID uuid.UUID
	class CoachClass
}

// classState serializes all mutations for one (run, class) pair. The
// mutex is held across compute-and-mutate plus the store write, which is
// the mutual-exclusion scope the allocator requires.
type classState struct {
	mu  sync.Mutex
	rec *ClassRecord
}

// Manager owns the in-memory class inventories and writes every mutation
// through to the store. Classes are independent: no cross-class or
// cross-run locking.
type Manager struct {
	store Store

	mu      sync.Mutex
	classes map[classKey]*classState
}

// NewManager creates a manager backed by the given store.
func NewManager(store Store) *Manager {
	return &Manager{
		store:   store,
		classes: make(map[classKey]*classState),
	}
}

// EnsureClass loads a class inventory from the store, creating it with the
// given capacity when absent. Safe to call repeatedly.
func (m *Manager) EnsureClass(ctx context.Context, runID uuid.UUID, class CoachClass, capacity, maxOrder int) error {
	m.mu.Lock()
	key := classKey{runID, class}
	if _, ok := m.classes[key]; ok {
		m.mu.Unlock()
		return nil
	}
	m.mu.Unlock()

	rec, err := m.store.LoadClass(ctx, runID, class)
	if err != nil {
		if !errors.Is(err, ErrClassNotFound) {
			return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
		rec = &ClassRecord{RunID: runID, Class: class, Capacity: capacity, MaxOrder: maxOrder}
		if err := m.store.SaveClass(ctx, rec); err != nil {
			return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
	}

	m.mu.Lock()
	if _, ok := m.classes[key]; !ok {
		m.classes[key] = &classState{rec: rec}
	}
	m.mu.Unlock()
	return nil
}

func (m *Manager) state(ctx context.Context, runID uuid.UUID, class CoachClass) (*classState, error) {
	key := classKey{runID, class}
	m.mu.Lock()
	st, ok := m.classes[key]
	m.mu.Unlock()
	if ok {
		return st, nil
	}

	rec, err := m.store.LoadClass(ctx, runID, class)
	if err != nil {
		if errors.Is(err, ErrClassNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if st, ok := m.classes[key]; ok {
		return st, nil
	}
	st = &classState{rec: rec}
	m.classes[key] = st
	return st, nil
}

// mutate runs op under the class lock and persists the record when op
// reports a mutation. On a store failure the in-memory record is rolled
// back; a version conflict additionally reloads the durable state so the
// next attempt starts fresh.
func (m *Manager) mutate(ctx context.Context, runID uuid.UUID, class CoachClass, op func(rec *ClassRecord) (bool, error)) error {
	st, err := m.state(ctx, runID, class)
	if err != nil {
		return err
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	prev := st.rec.clone()
	mutated, opErr := op(st.rec)
	if !mutated {
		return opErr
	}

	st.rec.Version++
	if saveErr := m.store.SaveClass(ctx, st.rec); saveErr != nil {
		st.rec = prev
		if errors.Is(saveErr, ErrConcurrentModification) {
			if rec, loadErr := m.store.LoadClass(ctx, runID, class); loadErr == nil {
				st.rec = rec
			}
			return fmt.Errorf("class %s/%s: %w", runID, class, ErrConcurrentModification)
		}
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, saveErr)
	}
	return opErr
}

// Availability quotes availability for a query range. The read takes a
// snapshot under the class lock but performs no store round-trip, so
// display traffic tolerates slight staleness instead of contending with
// bookings.
func (m *Manager) Availability(ctx context.Context, runID uuid.UUID, class CoachClass, from, to int) (Availability, error) {
	st, err := m.state(ctx, runID, class)
	if err != nil {
		return Availability{}, err
	}

	st.mu.Lock()
	rec := st.rec.clone()
	st.mu.Unlock()

	if err := rec.validateRange(from, to); err != nil {
		return Availability{}, err
	}
	rec.dropExpired(time.Now())
	return computeAvailability(rec, from, to), nil
}

// Reserve books seats for [from, to) or waitlists the request.
// Serialized per class for the full compute-select-hold sequence, so two
// concurrent reservations can never claim the same seat for overlapping
// ranges.
func (m *Manager) Reserve(ctx context.Context, bookingID, runID uuid.UUID, class CoachClass, from, to, seats int, holdTTL time.Duration) (ReserveOutcome, []uuid.UUID, []Promotion, error) {
	var (
		out      ReserveOutcome
		released []uuid.UUID
		promoted []Promotion
	)
	err := m.mutate(ctx, runID, class, func(rec *ClassRecord) (bool, error) {
		var opErr error
		out, released, promoted, opErr = rec.reserve(bookingID, from, to, seats, time.Now(), holdTTL)
		return opErr == nil, opErr
	})
	if err != nil {
		return ReserveOutcome{}, nil, nil, err
	}
	return out, released, promoted, nil
}

// Confirm flips a held booking to confirmed, or releases it with
// ErrHoldExpired when its expiry has passed.
func (m *Manager) Confirm(ctx context.Context, bookingID, runID uuid.UUID, class CoachClass) ([]int, []Promotion, error) {
	var (
		seatIdx  []int
		promoted []Promotion
	)
	err := m.mutate(ctx, runID, class, func(rec *ClassRecord) (bool, error) {
		var opErr error
		seatIdx, promoted, opErr = rec.confirm(bookingID, time.Now())
		// An expired confirm releases seats and promotes; that must
		// still be persisted.
		mutated := opErr == nil || errors.Is(opErr, ErrHoldExpired)
		return mutated, opErr
	})
	return seatIdx, promoted, err
}

// Cancel releases a booking's seats or waitlist ticket and promotes
// whatever now fits.
func (m *Manager) Cancel(ctx context.Context, bookingID, runID uuid.UUID, class CoachClass) ([]Promotion, error) {
	var promoted []Promotion
	err := m.mutate(ctx, runID, class, func(rec *ClassRecord) (bool, error) {
		var opErr error
		promoted, opErr = rec.cancel(bookingID, time.Now())
		return opErr == nil, opErr
	})
	return promoted, err
}

// ReleaseExpired drops all held intervals past their expiry for one class
// and runs waitlist promotion. Idempotent: releasing an already-released
// hold is a no-op.
func (m *Manager) ReleaseExpired(ctx context.Context, runID uuid.UUID, class CoachClass) ([]uuid.UUID, []Promotion, error) {
	var (
		released []uuid.UUID
		promoted []Promotion
	)
	err := m.mutate(ctx, runID, class, func(rec *ClassRecord) (bool, error) {
		released = rec.dropExpired(time.Now())
		promoted = rec.promote(time.Now())
		return len(released) > 0 || len(promoted) > 0, nil
	})
	return released, promoted, err
}
