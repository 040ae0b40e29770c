package database

import (
	"time"

	"github.com/google/uuid"

	"github.com/railbook/train-booking-system/internal/inventory"
)

// TrainRun is one route template instantiated for a service date.
type TrainRun struct {
	ID          uuid.UUID `json:"id"`
	TrainID     string    `json:"trainId"`
	ServiceDate time.Time `json:"serviceDate"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Booking is the durable record of a reservation request, whatever its
// outcome. Seat indexes are empty for waitlisted bookings.
type Booking struct {
	ID               uuid.UUID                `json:"id"`
	TrainRunID       uuid.UUID                `json:"trainRunId"`
	TrainID          string                   `json:"trainId"`
	ServiceDate      time.Time                `json:"serviceDate"`
	CoachClass       inventory.CoachClass     `json:"coachClass"`
	FromOrder        int                      `json:"fromOrder"`
	ToOrder          int                      `json:"toOrder"`
	Passengers       int                      `json:"passengers"`
	SeatIndexes      []int                    `json:"seatIndexes,omitempty"`
	Status           inventory.BookingStatus  `json:"status"`
	HoldExpiresAt    *time.Time               `json:"holdExpiresAt,omitempty"`
	WaitlistPosition *int                     `json:"waitlistPosition,omitempty"`
	CreatedAt        time.Time                `json:"createdAt"`
	UpdatedAt        time.Time                `json:"updatedAt"`
}
