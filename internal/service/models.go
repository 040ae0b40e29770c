package service

import (
	"time"

	"github.com/google/uuid"

	"github.com/railbook/train-booking-system/internal/inventory"
)

// CreateBookingRequest is a request to reserve seats on a train.
type CreateBookingRequest struct {
	TrainID    string `json:"trainId" validate:"required"`
	Date       string `json:"date" validate:"required,datetime=2006-01-02"`
	From       string `json:"from" validate:"required"`
	To         string `json:"to" validate:"required,nefield=From"`
	CoachClass string `json:"coachClass" validate:"required"`
	Passengers int    `json:"passengers" validate:"required,min=1,max=6"`
}

// ClassAvailability is the quoted availability for one coach class on a
// train option.
type ClassAvailability struct {
	CoachClass inventory.CoachClass `json:"coachClass"`
	inventory.Availability
}

// TrainOption is one search result: a train run serving the requested
// station pair, with per-class availability.
type TrainOption struct {
	RunID         uuid.UUID           `json:"runId"`
	TrainID       string              `json:"trainId"`
	TrainNumber   string              `json:"trainNumber"`
	TrainName     string              `json:"trainName"`
	DepartureTime time.Time           `json:"departureTime"`
	ArrivalTime   time.Time           `json:"arrivalTime"`
	FromOrder     int                 `json:"fromOrder"`
	ToOrder       int                 `json:"toOrder"`
	Classes       []ClassAvailability `json:"availableCoachTypes"`
}
