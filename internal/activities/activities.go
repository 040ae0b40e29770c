package activities

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.temporal.io/sdk/activity"
)

// HoldService is the slice of the booking service the worker needs.
type HoldService interface {
	ReleaseHold(ctx context.Context, bookingID uuid.UUID) error
	ReleaseExpiredHolds(ctx context.Context) (int, error)
}

// ReleaseExpiredHoldInput identifies the hold to release.
type ReleaseExpiredHoldInput struct {
	BookingID string `json:"bookingId"`
}

// Activities bundles worker activities with their dependencies
type Activities struct {
	svc HoldService
}

// NewActivities creates the activity set backed by the booking service.
func NewActivities(svc HoldService) *Activities {
	return &Activities{svc: svc}
}

// ReleaseExpiredHold releases the seats held by a single expired booking.
// Releasing an already-released or confirmed hold is a no-op, so the
// activity is safe to retry.
func (a *Activities) ReleaseExpiredHold(ctx context.Context, input ReleaseExpiredHoldInput) error {
	logger := activity.GetLogger(ctx)
	logger.Info("Releasing expired hold", "bookingID", input.BookingID)

	bookingID, err := uuid.Parse(input.BookingID)
	if err != nil {
		return fmt.Errorf("invalid booking ID %q: %w", input.BookingID, err)
	}

	if err := a.svc.ReleaseHold(ctx, bookingID); err != nil {
		return fmt.Errorf("failed to release hold: %w", err)
	}
	return nil
}

// SweepExpiredHolds releases every hold in the store whose expiry has
// passed. It backstops the per-booking workflows: if a worker missed a
// timer the sweep still reclaims the seats.
func (a *Activities) SweepExpiredHolds(ctx context.Context) (int, error) {
	logger := activity.GetLogger(ctx)

	released, err := a.svc.ReleaseExpiredHolds(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to sweep expired holds: %w", err)
	}
	if released > 0 {
		logger.Info("Swept expired holds", "released", released)
	}
	return released, nil
}
