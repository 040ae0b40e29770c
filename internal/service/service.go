package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.temporal.io/sdk/client"

	"github.com/railbook/train-booking-system/internal/cache"
	"github.com/railbook/train-booking-system/internal/database"
	"github.com/railbook/train-booking-system/internal/inventory"
	"github.com/railbook/train-booking-system/internal/routes"
	"github.com/railbook/train-booking-system/internal/websocket"
)

const (
	TaskQueue        = "train-booking-queue"
	HoldWorkflowName = "HoldWorkflow"

	SignalBookingConfirmed = "booking-confirmed"
	SignalBookingCancelled = "booking-cancelled"

	// DefaultHoldTTL is how long a hold survives before confirmation.
	DefaultHoldTTL = 15 * time.Minute
)

// ErrUnknownClass reports a coach class the train does not carry.
var ErrUnknownClass = errors.New("unknown coach class")

// BookingService defines the booking service interface.
type BookingService interface {
	SearchTrains(ctx context.Context, from, to string, date time.Time) ([]TrainOption, error)
	GetAvailability(ctx context.Context, runID uuid.UUID, class inventory.CoachClass, fromOrder, toOrder int) (inventory.Availability, error)
	CreateBooking(ctx context.Context, req *CreateBookingRequest) (*database.Booking, error)
	ConfirmBooking(ctx context.Context, bookingID uuid.UUID) (*database.Booking, error)
	CancelBooking(ctx context.Context, bookingID uuid.UUID) error
	GetBooking(ctx context.Context, bookingID uuid.UUID) (*database.Booking, error)
	ReleaseHold(ctx context.Context, bookingID uuid.UUID) error
	ReleaseExpiredHolds(ctx context.Context) (int, error)
}

// bookingServiceImpl implements BookingService.
type bookingServiceImpl struct {
	model          *routes.Model
	manager        *inventory.Manager
	store          *database.Store
	availCache     *cache.AvailabilityCache
	hub            *websocket.Hub
	temporalClient client.Client // nil disables hold workflows
	holdTTL        time.Duration
}

// NewBookingService creates a new BookingService. temporalClient and the
// cache may be nil; holds then expire only via the periodic sweep.
func NewBookingService(model *routes.Model, manager *inventory.Manager, store *database.Store, availCache *cache.AvailabilityCache, hub *websocket.Hub, temporalClient client.Client) BookingService {
	return &bookingServiceImpl{
		model:          model,
		manager:        manager,
		store:          store,
		availCache:     availCache,
		hub:            hub,
		temporalClient: temporalClient,
		holdTTL:        DefaultHoldTTL,
	}
}

func (s *bookingServiceImpl) SearchTrains(ctx context.Context, from, to string, date time.Time) ([]TrainOption, error) {
	matches := s.model.Search(from, to, date)

	options := make([]TrainOption, 0, len(matches))
	for _, m := range matches {
		run, err := s.store.GetOrCreateRun(ctx, m.Train.TrainID, date)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", inventory.ErrStoreUnavailable, err)
		}

		opt := TrainOption{
			RunID:         run.ID,
			TrainID:       m.Train.TrainID,
			TrainNumber:   m.Train.TrainNumber,
			TrainName:     m.Train.Name,
			DepartureTime: m.Train.DepartureAt(date, m.FromOrder),
			ArrivalTime:   m.Train.ArrivalAt(date, m.ToOrder),
			FromOrder:     m.FromOrder,
			ToOrder:       m.ToOrder,
		}

		for className, capacity := range m.Train.Classes {
			class := inventory.CoachClass(className)
			if err := s.manager.EnsureClass(ctx, run.ID, class, capacity, len(m.Train.Stations)); err != nil {
				return nil, err
			}
			avail, err := s.GetAvailability(ctx, run.ID, class, m.FromOrder, m.ToOrder)
			if err != nil {
				return nil, err
			}
			opt.Classes = append(opt.Classes, ClassAvailability{CoachClass: class, Availability: avail})
		}
		sort.Slice(opt.Classes, func(i, j int) bool { return opt.Classes[i].CoachClass < opt.Classes[j].CoachClass })
		options = append(options, opt)
	}
	return options, nil
}

func (s *bookingServiceImpl) GetAvailability(ctx context.Context, runID uuid.UUID, class inventory.CoachClass, fromOrder, toOrder int) (inventory.Availability, error) {
	if a, ok := s.availCache.Get(ctx, runID, class, fromOrder, toOrder); ok {
		return a, nil
	}

	a, err := s.manager.Availability(ctx, runID, class, fromOrder, toOrder)
	if err != nil {
		return inventory.Availability{}, err
	}
	s.availCache.Set(ctx, runID, class, fromOrder, toOrder, a)
	return a, nil
}

func (s *bookingServiceImpl) CreateBooking(ctx context.Context, req *CreateBookingRequest) (*database.Booking, error) {
	template, err := s.model.Template(req.TrainID)
	if err != nil {
		return nil, err
	}
	fromOrder, err := s.model.OrderOf(req.TrainID, req.From)
	if err != nil {
		return nil, err
	}
	toOrder, err := s.model.OrderOf(req.TrainID, req.To)
	if err != nil {
		return nil, err
	}
	if fromOrder >= toOrder {
		return nil, fmt.Errorf("%w: %s comes before %s on train %s", inventory.ErrInvalidRange, req.To, req.From, req.TrainID)
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q: %w", req.Date, err)
	}

	class := inventory.CoachClass(req.CoachClass)
	capacity, ok := template.Classes[req.CoachClass]
	if !ok {
		return nil, fmt.Errorf("%w: train %s has no %s coach", ErrUnknownClass, req.TrainID, req.CoachClass)
	}

	run, err := s.store.GetOrCreateRun(ctx, req.TrainID, date)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", inventory.ErrStoreUnavailable, err)
	}
	if err := s.manager.EnsureClass(ctx, run.ID, class, capacity, len(template.Stations)); err != nil {
		return nil, err
	}

	bookingID := uuid.New()
	outcome, released, promoted, err := s.manager.Reserve(ctx, bookingID, run.ID, class, fromOrder, toOrder, req.Passengers, s.holdTTL)
	if err != nil {
		return nil, err
	}

	booking := &database.Booking{
		ID:          bookingID,
		TrainRunID:  run.ID,
		TrainID:     req.TrainID,
		ServiceDate: run.ServiceDate,
		CoachClass:  class,
		FromOrder:   fromOrder,
		ToOrder:     toOrder,
		Passengers:  req.Passengers,
		SeatIndexes: outcome.SeatIndexes,
		Status:      outcome.Status,
	}
	if outcome.Status == inventory.StatusHeld {
		expires := outcome.ExpiresAt
		booking.HoldExpiresAt = &expires
	} else {
		pos := outcome.WaitlistPosition
		booking.WaitlistPosition = &pos
	}
	if err := s.store.CreateBooking(ctx, booking); err != nil {
		return nil, fmt.Errorf("%w: %v", inventory.ErrStoreUnavailable, err)
	}

	s.applyReleases(ctx, run.ID, class, released)
	s.applyPromotions(ctx, run.ID, class, promoted)

	if outcome.Status == inventory.StatusHeld {
		s.startHoldWorkflow(ctx, booking)
	}

	s.availCache.Invalidate(ctx, run.ID, class)
	s.hub.BroadcastAvailabilityChanged(run.ID.String(), string(class))

	return booking, nil
}

func (s *bookingServiceImpl) ConfirmBooking(ctx context.Context, bookingID uuid.UUID) (*database.Booking, error) {
	booking, err := s.store.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	switch booking.Status {
	case inventory.StatusConfirmed:
		return booking, nil
	case inventory.StatusWaitlisted:
		return nil, fmt.Errorf("booking %s is waitlisted, nothing to confirm", bookingID)
	case inventory.StatusCancelled:
		return nil, fmt.Errorf("booking %s is cancelled", bookingID)
	}

	seats, promoted, err := s.manager.Confirm(ctx, bookingID, booking.TrainRunID, booking.CoachClass)
	if err != nil {
		if errors.Is(err, inventory.ErrHoldExpired) {
			if updErr := s.store.UpdateBookingStatus(ctx, bookingID, inventory.StatusCancelled, nil); updErr != nil {
				log.Printf("failed to mark booking %s expired: %v", bookingID, updErr)
			}
			s.applyPromotions(ctx, booking.TrainRunID, booking.CoachClass, promoted)
			s.availCache.Invalidate(ctx, booking.TrainRunID, booking.CoachClass)
			s.hub.BroadcastHoldExpired(booking.TrainRunID.String(), string(booking.CoachClass), bookingID.String())
		}
		return nil, err
	}

	if err := s.store.UpdateBookingStatus(ctx, bookingID, inventory.StatusConfirmed, seats); err != nil {
		return nil, fmt.Errorf("%w: %v", inventory.ErrStoreUnavailable, err)
	}
	booking.Status = inventory.StatusConfirmed
	booking.SeatIndexes = seats

	s.signalHoldWorkflow(ctx, bookingID, SignalBookingConfirmed)
	s.availCache.Invalidate(ctx, booking.TrainRunID, booking.CoachClass)
	s.hub.BroadcastBookingConfirmed(booking.TrainRunID.String(), string(booking.CoachClass), bookingID.String())

	return booking, nil
}

func (s *bookingServiceImpl) CancelBooking(ctx context.Context, bookingID uuid.UUID) error {
	booking, err := s.store.GetBooking(ctx, bookingID)
	if err != nil {
		return err
	}
	if booking.Status == inventory.StatusCancelled {
		return nil
	}

	promoted, err := s.manager.Cancel(ctx, bookingID, booking.TrainRunID, booking.CoachClass)
	if err != nil && !errors.Is(err, inventory.ErrUnknownBooking) {
		// An already-released hold is fine to cancel; anything else is not.
		return err
	}

	if err := s.store.UpdateBookingStatus(ctx, bookingID, inventory.StatusCancelled, nil); err != nil {
		return fmt.Errorf("%w: %v", inventory.ErrStoreUnavailable, err)
	}

	s.applyPromotions(ctx, booking.TrainRunID, booking.CoachClass, promoted)
	s.signalHoldWorkflow(ctx, bookingID, SignalBookingCancelled)
	s.availCache.Invalidate(ctx, booking.TrainRunID, booking.CoachClass)
	s.hub.BroadcastAvailabilityChanged(booking.TrainRunID.String(), string(booking.CoachClass))

	return nil
}

func (s *bookingServiceImpl) GetBooking(ctx context.Context, bookingID uuid.UUID) (*database.Booking, error) {
	return s.store.GetBooking(ctx, bookingID)
}

// ReleaseHold releases one expired hold. Idempotent: called by the hold
// workflow timer, the periodic sweep, or any impatient caller.
func (s *bookingServiceImpl) ReleaseHold(ctx context.Context, bookingID uuid.UUID) error {
	booking, err := s.store.GetBooking(ctx, bookingID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil
		}
		return err
	}
	if booking.Status != inventory.StatusHeld {
		return nil
	}

	released, promoted, err := s.manager.ReleaseExpired(ctx, booking.TrainRunID, booking.CoachClass)
	if err != nil {
		return err
	}
	s.applyReleases(ctx, booking.TrainRunID, booking.CoachClass, released)
	s.applyPromotions(ctx, booking.TrainRunID, booking.CoachClass, promoted)
	s.availCache.Invalidate(ctx, booking.TrainRunID, booking.CoachClass)
	return nil
}

// ReleaseExpiredHolds sweeps all held bookings past expiry. Returns the
// number of holds released.
func (s *bookingServiceImpl) ReleaseExpiredHolds(ctx context.Context) (int, error) {
	expiring, err := s.store.ExpiringHolds(ctx, time.Now())
	if err != nil {
		return 0, fmt.Errorf("%w: %v", inventory.ErrStoreUnavailable, err)
	}

	type key struct {
		run   uuid.UUID
		class inventory.CoachClass
	}
	seen := make(map[key]bool)
	count := 0
	for _, b := range expiring {
		k := key{b.TrainRunID, b.CoachClass}
		if seen[k] {
			continue
		}
		seen[k] = true

		released, promoted, err := s.manager.ReleaseExpired(ctx, b.TrainRunID, b.CoachClass)
		if err != nil {
			log.Printf("expiry sweep failed for %s/%s: %v", b.TrainRunID, b.CoachClass, err)
			continue
		}
		count += len(released)
		s.applyReleases(ctx, b.TrainRunID, b.CoachClass, released)
		s.applyPromotions(ctx, b.TrainRunID, b.CoachClass, promoted)
		s.availCache.Invalidate(ctx, b.TrainRunID, b.CoachClass)
	}
	return count, nil
}

func (s *bookingServiceImpl) applyReleases(ctx context.Context, runID uuid.UUID, class inventory.CoachClass, released []uuid.UUID) {
	for _, id := range released {
		if err := s.store.UpdateBookingStatus(ctx, id, inventory.StatusCancelled, nil); err != nil {
			log.Printf("failed to mark booking %s released: %v", id, err)
		}
		s.hub.BroadcastHoldExpired(runID.String(), string(class), id.String())
	}
}

func (s *bookingServiceImpl) applyPromotions(ctx context.Context, runID uuid.UUID, class inventory.CoachClass, promoted []inventory.Promotion) {
	for _, p := range promoted {
		if err := s.store.UpdateBookingStatus(ctx, p.BookingID, inventory.StatusConfirmed, p.SeatIndexes); err != nil {
			log.Printf("failed to mark booking %s promoted: %v", p.BookingID, err)
		}
		s.hub.BroadcastWaitlistPromoted(runID.String(), string(class), p.BookingID.String())
	}
}

func (s *bookingServiceImpl) startHoldWorkflow(ctx context.Context, booking *database.Booking) {
	if s.temporalClient == nil {
		return
	}

	input := map[string]interface{}{
		"bookingId": booking.ID.String(),
		"expiresAt": booking.HoldExpiresAt,
	}
	opts := client.StartWorkflowOptions{
		ID:        "hold-" + booking.ID.String(),
		TaskQueue: TaskQueue,
	}
	if _, err := s.temporalClient.ExecuteWorkflow(ctx, opts, HoldWorkflowName, input); err != nil {
		log.Printf("failed to start hold workflow for %s: %v", booking.ID, err)
	}
}

func (s *bookingServiceImpl) signalHoldWorkflow(ctx context.Context, bookingID uuid.UUID, signal string) {
	if s.temporalClient == nil {
		return
	}
	if err := s.temporalClient.SignalWorkflow(ctx, "hold-"+bookingID.String(), "", signal, nil); err != nil {
		log.Printf("failed to signal hold workflow for %s: %v", bookingID, err)
	}
}
