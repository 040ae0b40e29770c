package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/railbook/train-booking-system/internal/database"
	"github.com/railbook/train-booking-system/internal/inventory"
	"github.com/railbook/train-booking-system/internal/service"
)

// MockBookingService is a mock implementation of BookingService
type MockBookingService struct {
	mock.Mock
}

func (m *MockBookingService) SearchTrains(ctx context.Context, from, to string, date time.Time) ([]service.TrainOption, error) {
	args := m.Called(ctx, from, to, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]service.TrainOption), args.Error(1)
}

func (m *MockBookingService) GetAvailability(ctx context.Context, runID uuid.UUID, class inventory.CoachClass, fromOrder, toOrder int) (inventory.Availability, error) {
	args := m.Called(ctx, runID, class, fromOrder, toOrder)
	return args.Get(0).(inventory.Availability), args.Error(1)
}

func (m *MockBookingService) CreateBooking(ctx context.Context, req *service.CreateBookingRequest) (*database.Booking, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*database.Booking), args.Error(1)
}

func (m *MockBookingService) ConfirmBooking(ctx context.Context, bookingID uuid.UUID) (*database.Booking, error) {
	args := m.Called(ctx, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*database.Booking), args.Error(1)
}

func (m *MockBookingService) CancelBooking(ctx context.Context, bookingID uuid.UUID) error {
	args := m.Called(ctx, bookingID)
	return args.Error(0)
}

func (m *MockBookingService) GetBooking(ctx context.Context, bookingID uuid.UUID) (*database.Booking, error) {
	args := m.Called(ctx, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*database.Booking), args.Error(1)
}

func (m *MockBookingService) ReleaseHold(ctx context.Context, bookingID uuid.UUID) error {
	args := m.Called(ctx, bookingID)
	return args.Error(0)
}

func (m *MockBookingService) ReleaseExpiredHolds(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}
