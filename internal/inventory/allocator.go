package inventory

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ReserveOutcome is the result of a reservation attempt. Insufficient
// capacity is not an error: the request lands on the waitlist instead.
type ReserveOutcome struct {
	Status           BookingStatus `json:"status"`
	SeatIndexes      []int         `json:"seatIndexes,omitempty"`
	ExpiresAt        time.Time     `json:"expiresAt,omitempty"`
	WaitlistPosition int           `json:"waitlistPosition,omitempty"`
}

// Promotion records a waitlist ticket promoted to a confirmed booking.
type Promotion struct {
	BookingID   uuid.UUID `json:"bookingId"`
	SeatIndexes []int     `json:"seatIndexes"`
}

func (rec *ClassRecord) validateRange(from, to int) error {
	if from >= to || from < 1 || to > rec.MaxOrder {
		return fmt.Errorf("%w: [%d,%d) on route with %d stations", ErrInvalidRange, from, to, rec.MaxOrder)
	}
	return nil
}

// reserve claims seats for [from, to) or files a waitlist ticket.
// Expired holds are reclaimed first so a stale hold never blocks a live
// request, and freed seats go to earlier waitlist tickets before this one.
func (rec *ClassRecord) reserve(bookingID uuid.UUID, from, to, seats int, now time.Time, holdTTL time.Duration) (ReserveOutcome, []uuid.UUID, []Promotion, error) {
	if err := rec.validateRange(from, to); err != nil {
		return ReserveOutcome{}, nil, nil, err
	}
	if seats < 1 {
		return ReserveOutcome{}, nil, nil, fmt.Errorf("%w: seat count %d", ErrInvalidRange, seats)
	}

	released := rec.dropExpired(now)
	promoted := rec.promote(now)

	free, _ := seatCoverage(rec.Intervals, rec.Capacity, from, to)
	avail := rec.Capacity - peakOccupancy(rec.Intervals, from, to)
	if avail >= seats && len(free) >= seats {
		expires := now.Add(holdTTL)
		for _, seat := range free[:seats] {
			rec.Intervals = append(rec.Intervals, SeatInterval{
				SeatIndex: seat,
				BookingID: bookingID,
				FromOrder: from,
				ToOrder:   to,
				Status:    StatusHeld,
				ExpiresAt: expires,
			})
		}
		out := ReserveOutcome{Status: StatusHeld, SeatIndexes: append([]int(nil), free[:seats]...), ExpiresAt: expires}
		return out, released, promoted, nil
	}

	rec.NextSeq++
	rec.Waitlist = append(rec.Waitlist, WaitlistTicket{
		BookingID: bookingID,
		Sequence:  rec.NextSeq,
		FromOrder: from,
		ToOrder:   to,
		Seats:     seats,
		CreatedAt: now,
	})
	out := ReserveOutcome{Status: StatusWaitlisted, WaitlistPosition: len(rec.Waitlist)}
	return out, released, promoted, nil
}

// confirm flips a booking's held intervals to confirmed. Confirming an
// already-confirmed booking is a no-op. A hold past its expiry is released
// instead and reported as ErrHoldExpired.
func (rec *ClassRecord) confirm(bookingID uuid.UUID, now time.Time) ([]int, []Promotion, error) {
	var held, confirmed []int
	expired := false
	for i := range rec.Intervals {
		iv := &rec.Intervals[i]
		if iv.BookingID != bookingID {
			continue
		}
		switch iv.Status {
		case StatusHeld:
			held = append(held, iv.SeatIndex)
			if now.After(iv.ExpiresAt) {
				expired = true
			}
		case StatusConfirmed:
			confirmed = append(confirmed, iv.SeatIndex)
		}
	}

	if len(held) == 0 {
		if len(confirmed) > 0 {
			return confirmed, nil, nil
		}
		return nil, nil, fmt.Errorf("%w: %s", ErrUnknownBooking, bookingID)
	}

	if expired {
		rec.removeBooking(bookingID)
		promoted := rec.promote(now)
		return nil, promoted, fmt.Errorf("%w: booking %s", ErrHoldExpired, bookingID)
	}

	for i := range rec.Intervals {
		if rec.Intervals[i].BookingID == bookingID {
			rec.Intervals[i].Status = StatusConfirmed
			rec.Intervals[i].ExpiresAt = time.Time{}
		}
	}
	return held, nil, nil
}

// cancel releases a booking's seats (or removes its waitlist ticket) and
// promotes whatever the freed capacity now admits. Cancellation is
// terminal: the seats are immediately reusable.
func (rec *ClassRecord) cancel(bookingID uuid.UUID, now time.Time) ([]Promotion, error) {
	removed := rec.removeBooking(bookingID)

	for i, t := range rec.Waitlist {
		if t.BookingID == bookingID {
			rec.Waitlist = append(rec.Waitlist[:i], rec.Waitlist[i+1:]...)
			removed = true
			break
		}
	}

	if !removed {
		return nil, fmt.Errorf("%w: %s", ErrUnknownBooking, bookingID)
	}
	return rec.promote(now), nil
}

// dropExpired removes held intervals past their expiry. Idempotent.
func (rec *ClassRecord) dropExpired(now time.Time) []uuid.UUID {
	var released []uuid.UUID
	kept := rec.Intervals[:0]
	seen := make(map[uuid.UUID]bool)
	for _, iv := range rec.Intervals {
		if iv.Status == StatusHeld && now.After(iv.ExpiresAt) {
			if !seen[iv.BookingID] {
				seen[iv.BookingID] = true
				released = append(released, iv.BookingID)
			}
			continue
		}
		kept = append(kept, iv)
	}
	rec.Intervals = kept
	return released
}

// promote walks the waitlist in creation order and confirms every ticket
// whose exact requested range now fits. Tickets are attempted strictly in
// FIFO order; an earlier ticket that still does not fit is left in place
// and never overtaken for the range it is queued on.
func (rec *ClassRecord) promote(now time.Time) []Promotion {
	var promotions []Promotion
	kept := rec.Waitlist[:0]
	for _, t := range rec.Waitlist {
		free, _ := seatCoverage(rec.Intervals, rec.Capacity, t.FromOrder, t.ToOrder)
		avail := rec.Capacity - peakOccupancy(rec.Intervals, t.FromOrder, t.ToOrder)
		if avail < t.Seats || len(free) < t.Seats {
			kept = append(kept, t)
			continue
		}
		for _, seat := range free[:t.Seats] {
			rec.Intervals = append(rec.Intervals, SeatInterval{
				SeatIndex: seat,
				BookingID: t.BookingID,
				FromOrder: t.FromOrder,
				ToOrder:   t.ToOrder,
				Status:    StatusConfirmed,
			})
		}
		promotions = append(promotions, Promotion{BookingID: t.BookingID, SeatIndexes: append([]int(nil), free[:t.Seats]...)})
	}
	rec.Waitlist = kept
	return promotions
}

func (rec *ClassRecord) removeBooking(bookingID uuid.UUID) bool {
	removed := false
	kept := rec.Intervals[:0]
	for _, iv := range rec.Intervals {
		if iv.BookingID == bookingID {
			removed = true
			continue
		}
		kept = append(kept, iv)
	}
	rec.Intervals = kept
	return removed
}

func (rec *ClassRecord) clone() *ClassRecord {
	cp := *rec
	cp.Intervals = append([]SeatInterval(nil), rec.Intervals...)
	cp.Waitlist = append([]WaitlistTicket(nil), rec.Waitlist...)
	return &cp
}
