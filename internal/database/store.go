package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/railbook/train-booking-system/internal/inventory"
)

var ErrNotFound = errors.New("not found")

// Store handles all database operations. Class inventory writes use an
// optimistic version check so that a lost race surfaces as
// inventory.ErrConcurrentModification instead of a silent overwrite.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a new store on the given pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Migrate creates the schema if it does not exist yet.
func (s *Store) Migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS train_runs (
			id UUID PRIMARY KEY,
			train_id TEXT NOT NULL,
			service_date DATE NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (train_id, service_date)
		)`,
		`CREATE TABLE IF NOT EXISTS class_inventories (
			train_run_id UUID NOT NULL REFERENCES train_runs(id),
			coach_class TEXT NOT NULL,
			capacity INT NOT NULL,
			max_order INT NOT NULL,
			version BIGINT NOT NULL,
			intervals JSONB NOT NULL DEFAULT '[]',
			waitlist JSONB NOT NULL DEFAULT '[]',
			next_seq INT NOT NULL DEFAULT 0,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (train_run_id, coach_class)
		)`,
		`CREATE TABLE IF NOT EXISTS bookings (
			id UUID PRIMARY KEY,
			train_run_id UUID NOT NULL REFERENCES train_runs(id),
			train_id TEXT NOT NULL,
			service_date DATE NOT NULL,
			coach_class TEXT NOT NULL,
			from_order INT NOT NULL,
			to_order INT NOT NULL,
			passengers INT NOT NULL,
			seat_indexes JSONB NOT NULL DEFAULT '[]',
			status TEXT NOT NULL,
			hold_expires_at TIMESTAMPTZ,
			waitlist_position INT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to run migration: %w", err)
		}
	}
	return nil
}

// --- Train run operations ---

// GetOrCreateRun returns the run for (trainID, date), creating it on
// first use. Runs are created lazily when a date is first searched or
// booked.
func (s *Store) GetOrCreateRun(ctx context.Context, trainID string, serviceDate time.Time) (*TrainRun, error) {
	day := serviceDate.Truncate(24 * time.Hour)

	var run TrainRun
	err := s.pool.QueryRow(ctx, `
		INSERT INTO train_runs (id, train_id, service_date)
		VALUES ($1, $2, $3)
		ON CONFLICT (train_id, service_date) DO UPDATE SET train_id = EXCLUDED.train_id
		RETURNING id, train_id, service_date, created_at
	`, uuid.New(), trainID, day).Scan(&run.ID, &run.TrainID, &run.ServiceDate, &run.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to get or create run: %w", err)
	}
	return &run, nil
}

// GetRun returns a run by ID.
func (s *Store) GetRun(ctx context.Context, id uuid.UUID) (*TrainRun, error) {
	var run TrainRun
	err := s.pool.QueryRow(ctx, `
		SELECT id, train_id, service_date, created_at FROM train_runs WHERE id = $1
	`, id).Scan(&run.ID, &run.TrainID, &run.ServiceDate, &run.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return &run, nil
}

// --- Class inventory operations (inventory.Store) ---

// LoadClass loads the durable inventory record for one coach class.
func (s *Store) LoadClass(ctx context.Context, runID uuid.UUID, class inventory.CoachClass) (*inventory.ClassRecord, error) {
	rec := inventory.ClassRecord{RunID: runID, Class: class}
	var intervalsJSON, waitlistJSON []byte
	err := s.pool.QueryRow(ctx, `
		SELECT capacity, max_order, version, intervals, waitlist, next_seq
		FROM class_inventories
		WHERE train_run_id = $1 AND coach_class = $2
	`, runID, string(class)).Scan(&rec.Capacity, &rec.MaxOrder, &rec.Version, &intervalsJSON, &waitlistJSON, &rec.NextSeq)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s/%s", inventory.ErrClassNotFound, runID, class)
		}
		return nil, fmt.Errorf("failed to load class inventory: %w", err)
	}

	if err := json.Unmarshal(intervalsJSON, &rec.Intervals); err != nil {
		return nil, fmt.Errorf("failed to decode intervals: %w", err)
	}
	if err := json.Unmarshal(waitlistJSON, &rec.Waitlist); err != nil {
		return nil, fmt.Errorf("failed to decode waitlist: %w", err)
	}
	return &rec, nil
}

// SaveClass persists an inventory record. A fresh record (version 0) is
// inserted; anything else must replace exactly the previous version.
func (s *Store) SaveClass(ctx context.Context, rec *inventory.ClassRecord) error {
	intervalsJSON, err := json.Marshal(rec.Intervals)
	if err != nil {
		return fmt.Errorf("failed to encode intervals: %w", err)
	}
	waitlistJSON, err := json.Marshal(rec.Waitlist)
	if err != nil {
		return fmt.Errorf("failed to encode waitlist: %w", err)
	}

	if rec.Version == 0 {
		tag, err := s.pool.Exec(ctx, `
			INSERT INTO class_inventories (train_run_id, coach_class, capacity, max_order, version, intervals, waitlist, next_seq)
			VALUES ($1, $2, $3, $4, 0, $5, $6, $7)
			ON CONFLICT (train_run_id, coach_class) DO NOTHING
		`, rec.RunID, string(rec.Class), rec.Capacity, rec.MaxOrder, intervalsJSON, waitlistJSON, rec.NextSeq)
		if err != nil {
			return fmt.Errorf("failed to insert class inventory: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("class %s/%s already exists: %w", rec.RunID, rec.Class, inventory.ErrConcurrentModification)
		}
		return nil
	}

	tag, err := s.pool.Exec(ctx, `
		UPDATE class_inventories
		SET version = $1, intervals = $2, waitlist = $3, next_seq = $4, updated_at = NOW()
		WHERE train_run_id = $5 AND coach_class = $6 AND version = $7
	`, rec.Version, intervalsJSON, waitlistJSON, rec.NextSeq, rec.RunID, string(rec.Class), rec.Version-1)
	if err != nil {
		return fmt.Errorf("failed to update class inventory: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("class %s/%s version %d: %w", rec.RunID, rec.Class, rec.Version, inventory.ErrConcurrentModification)
	}
	return nil
}

// --- Booking operations ---

// CreateBooking inserts a new booking record.
func (s *Store) CreateBooking(ctx context.Context, b *Booking) error {
	seatJSON, err := json.Marshal(b.SeatIndexes)
	if err != nil {
		return fmt.Errorf("failed to encode seat indexes: %w", err)
	}

	err = s.pool.QueryRow(ctx, `
		INSERT INTO bookings (id, train_run_id, train_id, service_date, coach_class, from_order, to_order,
		                      passengers, seat_indexes, status, hold_expires_at, waitlist_position)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING created_at, updated_at
	`, b.ID, b.TrainRunID, b.TrainID, b.ServiceDate, string(b.CoachClass), b.FromOrder, b.ToOrder,
		b.Passengers, seatJSON, string(b.Status), b.HoldExpiresAt, b.WaitlistPosition,
	).Scan(&b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}
	return nil
}

// GetBooking returns a booking by ID.
func (s *Store) GetBooking(ctx context.Context, id uuid.UUID) (*Booking, error) {
	var b Booking
	var seatJSON []byte
	err := s.pool.QueryRow(ctx, `
		SELECT id, train_run_id, train_id, service_date, coach_class, from_order, to_order,
		       passengers, seat_indexes, status, hold_expires_at, waitlist_position, created_at, updated_at
		FROM bookings
		WHERE id = $1
	`, id).Scan(
		&b.ID, &b.TrainRunID, &b.TrainID, &b.ServiceDate, &b.CoachClass, &b.FromOrder, &b.ToOrder,
		&b.Passengers, &seatJSON, &b.Status, &b.HoldExpiresAt, &b.WaitlistPosition, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}

	if err := json.Unmarshal(seatJSON, &b.SeatIndexes); err != nil {
		return nil, fmt.Errorf("failed to decode seat indexes: %w", err)
	}
	return &b, nil
}

// UpdateBookingStatus updates a booking's status and, when seatIndexes is
// non-nil, its assigned seats (waitlist promotions assign seats late).
func (s *Store) UpdateBookingStatus(ctx context.Context, id uuid.UUID, status inventory.BookingStatus, seatIndexes []int) error {
	if seatIndexes == nil {
		_, err := s.pool.Exec(ctx, `
			UPDATE bookings SET status = $1, updated_at = NOW() WHERE id = $2
		`, string(status), id)
		if err != nil {
			return fmt.Errorf("failed to update booking status: %w", err)
		}
		return nil
	}

	seatJSON, err := json.Marshal(seatIndexes)
	if err != nil {
		return fmt.Errorf("failed to encode seat indexes: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		UPDATE bookings
		SET status = $1, seat_indexes = $2, waitlist_position = NULL, updated_at = NOW()
		WHERE id = $3
	`, string(status), seatJSON, id)
	if err != nil {
		return fmt.Errorf("failed to update booking: %w", err)
	}
	return nil
}

// ExpiringHolds returns held bookings whose expiry has passed, for the
// periodic expiry sweep.
func (s *Store) ExpiringHolds(ctx context.Context, now time.Time) ([]Booking, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, train_run_id, train_id, service_date, coach_class, from_order, to_order,
		       passengers, seat_indexes, status, hold_expires_at, waitlist_position, created_at, updated_at
		FROM bookings
		WHERE status = 'held' AND hold_expires_at < $1
	`, now)
	if err != nil {
		return nil, fmt.Errorf("failed to query expiring holds: %w", err)
	}
	defer rows.Close()

	var bookings []Booking
	for rows.Next() {
		var b Booking
		var seatJSON []byte
		err := rows.Scan(
			&b.ID, &b.TrainRunID, &b.TrainID, &b.ServiceDate, &b.CoachClass, &b.FromOrder, &b.ToOrder,
			&b.Passengers, &seatJSON, &b.Status, &b.HoldExpiresAt, &b.WaitlistPosition, &b.CreatedAt, &b.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		if err := json.Unmarshal(seatJSON, &b.SeatIndexes); err != nil {
			return nil, fmt.Errorf("failed to decode seat indexes: %w", err)
		}
		bookings = append(bookings, b)
	}
	return bookings, nil
}
