package inventory

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func record(capacity, maxOrder int, intervals ...SeatInterval) *ClassRecord {
	return &ClassRecord{
		RunID:     uuid.New(),
		Class:     CoachSleeper,
		Capacity:  capacity,
		MaxOrder:  maxOrder,
		Intervals: intervals,
	}
}

func confirmedInterval(seat, from, to int) SeatInterval {
	return SeatInterval{
		SeatIndex: seat,
		BookingID: uuid.New(),
		FromOrder: from,
		ToOrder:   to,
		Status:    StatusConfirmed,
	}
}

func TestPeakOccupancy_DisjointIntervalsBothOverlapQuery(t *testing.T) {
	// [1,3) and [3,6) never overlap each other, but both overlap [2,4).
	// Peak inside the query is still 1 because they occupy disjoint
	// sub-ranges of it.
	intervals := []SeatInterval{
		confirmedInterval(0, 1, 3),
		confirmedInterval(0, 3, 6),
	}
	assert.Equal(t, 1, peakOccupancy(intervals, 2, 4))
}

func TestPeakOccupancy_StackedIntervals(t *testing.T) {
	intervals := []SeatInterval{
		confirmedInterval(0, 1, 5),
		confirmedInterval(1, 3, 7),
	}
	assert.Equal(t, 2, peakOccupancy(intervals, 1, 5), "both cover point 3")
	assert.Equal(t, 1, peakOccupancy(intervals, 1, 3), "only the first covers [1,3)")
	assert.Equal(t, 1, peakOccupancy(intervals, 5, 7))
	assert.Equal(t, 0, peakOccupancy(intervals, 7, 9))
}

func TestAvailability_CapacityOneDisjointSubranges(t *testing.T) {
	rec := record(1, 8,
		confirmedInterval(0, 1, 3),
		confirmedInterval(0, 3, 6),
	)
	a := computeAvailability(rec, 2, 4)
	assert.Equal(t, 0, a.TotalAvailable, "seat is occupied somewhere in every sub-range of [2,4)")
	assert.Equal(t, 100.0, a.OccupancyPercentage)
}

func TestAvailability_PartialCoverageReportedSeparately(t *testing.T) {
	rec := record(1, 6, confirmedInterval(0, 1, 3))
	a := computeAvailability(rec, 1, 5)

	assert.Equal(t, 0, a.TotalAvailable)
	assert.Equal(t, 1, a.PartiallyAvailable, "seat free on [3,5) only")
	assert.Equal(t, 1, a.ConfirmedSeats)
}

func TestAvailability_FreeSeatOutsideQuery(t *testing.T) {
	rec := record(2, 10, confirmedInterval(0, 6, 9))
	a := computeAvailability(rec, 1, 5)

	assert.Equal(t, 2, a.TotalAvailable, "interval [6,9) does not touch [1,5)")
	assert.Equal(t, 0, a.PartiallyAvailable)
	assert.Equal(t, 0, a.ConfirmedSeats)
	assert.Equal(t, 0.0, a.OccupancyPercentage)
}

func TestAvailability_MonotonicUnderAddedIntervals(t *testing.T) {
	rec := record(4, 10)
	base := computeAvailability(rec, 2, 8).TotalAvailable

	adds := []SeatInterval{
		confirmedInterval(0, 1, 4),
		confirmedInterval(1, 5, 9),
		confirmedInterval(2, 2, 8),
		confirmedInterval(0, 4, 10),
	}
	prev := base
	for _, iv := range adds {
		rec.Intervals = append(rec.Intervals, iv)
		cur := computeAvailability(rec, 2, 8).TotalAvailable
		assert.LessOrEqual(t, cur, prev, "adding an interval must never increase availability")
		prev = cur
	}
}

func TestSeatCoverage_FreeSeatsSortedAscending(t *testing.T) {
	rec := record(4, 10,
		confirmedInterval(1, 2, 6),
		confirmedInterval(3, 1, 10),
	)
	free, partial := seatCoverage(rec.Intervals, rec.Capacity, 2, 6)
	assert.Equal(t, []int{0, 2}, free)
	assert.Equal(t, 0, partial)
}

func TestSeatCoverage_AdjacentIntervalsCoverWholeRange(t *testing.T) {
	// Seat covered by [1,3) then [3,5): no gap inside [1,5).
	rec := record(1, 6,
		confirmedInterval(0, 1, 3),
		confirmedInterval(0, 3, 5),
	)
	free, partial := seatCoverage(rec.Intervals, rec.Capacity, 1, 5)
	assert.Empty(t, free)
	assert.Equal(t, 0, partial, "fully covered seat is occupied, not partial")
}
