package inventory

import "sort"

// Availability is the quoted availability for one query range against one
// coach class. TotalAvailable counts seats assignable for the whole range;
// a seat free for only part of the range is reported in PartiallyAvailable
// and is never bookable as-is.
type Availability struct {
	Capacity            int     `json:"capacity"`
	TotalAvailable      int     `json:"totalAvailable"`
	PartiallyAvailable  int     `json:"partiallyAvailable"`
	ConfirmedSeats      int     `json:"confirmedSeats"`
	WaitlistedSeats     int     `json:"waitlistedSeats"`
	OccupancyPercentage float64 `json:"occupancyPercentage"`
}

// peakOccupancy runs the interval sweep: every active interval clamped to
// [qFrom, qTo) contributes a +1 event at its (clamped) start and a -1 event
// at its (clamped) end. Scanning events in station order, the maximum of
// the running counter is the peak simultaneous seat usage anywhere in the
// query range. Two bookings on disjoint sub-ranges never overlap each other
// yet can both overlap the query, so a simple overlap count would
// over-report; the sweep gives the exact per-point maximum.
func peakOccupancy(intervals []SeatInterval, qFrom, qTo int) int {
	type event struct {
		order int
		delta int
	}
	events := make([]event, 0, 2*len(intervals))
	for _, iv := range intervals {
		from, to := iv.FromOrder, iv.ToOrder
		if from < qFrom {
			from = qFrom
		}
		if to > qTo {
			to = qTo
		}
		if from >= to {
			continue
		}
		events = append(events, event{from, +1}, event{to, -1})
	}
	sort.Slice(events, func(i, j int) bool {
		if events[i].order != events[j].order {
			return events[i].order < events[j].order
		}
		// Process ends before starts: ranges are half-open, so an
		// interval ending at p does not overlap one starting at p.
		return events[i].delta < events[j].delta
	})

	running, peak := 0, 0
	for _, e := range events {
		running += e.delta
		if running > peak {
			peak = running
		}
	}
	return peak
}

// seatCoverage classifies each seat against the query range.
// A seat is free when none of its intervals touch [qFrom, qTo), occupied
// when its intervals cover every point of the range, and partial otherwise.
func seatCoverage(intervals []SeatInterval, capacity, qFrom, qTo int) (free []int, partial int) {
	type span struct{ from, to int }
	bySeat := make(map[int][]span)
	for _, iv := range intervals {
		if !iv.overlaps(qFrom, qTo) {
			continue
		}
		from, to := iv.FromOrder, iv.ToOrder
		if from < qFrom {
			from = qFrom
		}
		if to > qTo {
			to = qTo
		}
		bySeat[iv.SeatIndex] = append(bySeat[iv.SeatIndex], span{from, to})
	}

	for seat := 0; seat < capacity; seat++ {
		spans := bySeat[seat]
		if len(spans) == 0 {
			free = append(free, seat)
			continue
		}
		// Per-seat intervals never overlap, so merged coverage is just
		// the sorted spans checked for gaps.
		sort.Slice(spans, func(i, j int) bool { return spans[i].from < spans[j].from })
		covered := true
		pos := qFrom
		for _, sp := range spans {
			if sp.from > pos {
				covered = false
				break
			}
			if sp.to > pos {
				pos = sp.to
			}
		}
		if pos < qTo {
			covered = false
		}
		if !covered {
			partial++
		}
	}
	return free, partial
}

// computeAvailability quotes availability for [qFrom, qTo) given the active
// (held + confirmed) intervals of a class with the given capacity.
func computeAvailability(rec *ClassRecord, qFrom, qTo int) Availability {
	peak := peakOccupancy(rec.Intervals, qFrom, qTo)
	_, partial := seatCoverage(rec.Intervals, rec.Capacity, qFrom, qTo)

	confirmed := 0
	for _, iv := range rec.Intervals {
		if iv.Status == StatusConfirmed && iv.overlaps(qFrom, qTo) {
			confirmed++
		}
	}
	waitlisted := 0
	for _, t := range rec.Waitlist {
		if t.FromOrder < qTo && qFrom < t.ToOrder {
			waitlisted += t.Seats
		}
	}

	a := Availability{
		Capacity:           rec.Capacity,
		TotalAvailable:     rec.Capacity - peak,
		PartiallyAvailable: partial,
		ConfirmedSeats:     confirmed,
		WaitlistedSeats:    waitlisted,
	}
	if rec.Capacity > 0 {
		a.OccupancyPercentage = float64(peak) / float64(rec.Capacity) * 100
	}
	return a
}
