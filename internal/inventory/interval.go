package inventory

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidRange           = errors.New("invalid station range")
	ErrHoldExpired            = errors.New("hold expired")
	ErrUnknownBooking         = errors.New("unknown booking")
	ErrConcurrentModification = errors.New("concurrent modification")
	ErrStoreUnavailable       = errors.New("store unavailable")
)

// CoachClass identifies a coach type on a train run.
type CoachClass string

const (
	CoachSleeper  CoachClass = "SL"
	CoachAC3Tier  CoachClass = "3A"
	CoachAC2Tier  CoachClass = "2A"
	CoachAC1Tier  CoachClass = "1A"
	CoachChairCar CoachClass = "CC"
)

// BookingStatus is the lifecycle state of a booking.
type BookingStatus string

const (
	StatusHeld       BookingStatus = "held"
	StatusConfirmed  BookingStatus = "confirmed"
	StatusWaitlisted BookingStatus = "waitlisted"
	StatusCancelled  BookingStatus = "cancelled"
)

// SeatInterval is one seat reserved for the half-open station-order range
// [FromOrder, ToOrder). A multi-passenger booking owns one interval per
// seat. Invariant: intervals on the same seat never overlap.
type SeatInterval struct {
	SeatIndex int           `json:"seatIndex"`
	BookingID uuid.UUID     `json:"bookingId"`
	FromOrder int           `json:"fromOrder"`
	ToOrder   int           `json:"toOrder"`
	Status    BookingStatus `json:"status"`
	ExpiresAt time.Time     `json:"expiresAt,omitempty"` // zero for confirmed
}

func (iv SeatInterval) overlaps(from, to int) bool {
	return iv.FromOrder < to && from < iv.ToOrder
}

// WaitlistTicket is a FIFO-ordered claim on a future vacated seat for a
// specific station range.
type WaitlistTicket struct {
	BookingID uuid.UUID `json:"bookingId"`
	Sequence  int       `json:"sequence"`
	FromOrder int       `json:"fromOrder"`
	ToOrder   int       `json:"toOrder"`
	Seats     int       `json:"seats"`
	CreatedAt time.Time `json:"createdAt"`
}

// ClassRecord is the durable snapshot of one coach class on one train run.
// Version backs the store's optimistic concurrency check.
type ClassRecord struct {
	RunID     uuid.UUID        `json:"runId"`
	Class     CoachClass       `json:"class"`
	Capacity  int              `json:"capacity"`
	MaxOrder  int              `json:"maxOrder"` // last station order on the route
	Version   int64            `json:"version"`
	Intervals []SeatInterval   `json:"intervals"`
	Waitlist  []WaitlistTicket `json:"waitlist"`
	NextSeq   int              `json:"nextSeq"`
}
