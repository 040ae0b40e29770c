package workflows

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/railbook/train-booking-system/internal/activities"
)

const (
	// SignalBookingConfirmed ends the hold timer without releasing seats.
	SignalBookingConfirmed = "booking-confirmed"
	// SignalBookingCancelled ends the hold timer; seats were already
	// released by the cancel path.
	SignalBookingCancelled = "booking-cancelled"
)

// HoldWorkflowInput is the input for the hold lifecycle workflow
type HoldWorkflowInput struct {
	BookingID string    `json:"bookingId"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// HoldWorkflowResult records how the hold ended
type HoldWorkflowResult struct {
	Outcome string `json:"outcome"` // confirmed, cancelled or expired
}

// HoldWorkflow tracks one booking hold from creation until it is
// confirmed, cancelled or times out. On timeout it releases the held
// seats through an activity; the confirm and cancel paths mutate
// inventory synchronously in the API, so their signals just end the
// workflow.
func HoldWorkflow(ctx workflow.Context, input HoldWorkflowInput) (*HoldWorkflowResult, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("Hold workflow started", "bookingId", input.BookingID, "expiresAt", input.ExpiresAt)

	ctx = workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    time.Minute,
			MaximumAttempts:    3,
		},
	})

	confirmedCh := workflow.GetSignalChannel(ctx, SignalBookingConfirmed)
	cancelledCh := workflow.GetSignalChannel(ctx, SignalBookingCancelled)

	ttl := input.ExpiresAt.Sub(workflow.Now(ctx))
	if ttl < 0 {
		ttl = 0
	}

	timerCtx, cancelTimer := workflow.WithCancel(ctx)
	timer := workflow.NewTimer(timerCtx, ttl)

	result := &HoldWorkflowResult{}

	selector := workflow.NewSelector(ctx)
	selector.AddReceive(confirmedCh, func(c workflow.ReceiveChannel, more bool) {
		c.Receive(ctx, nil)
		logger.Info("Hold confirmed", "bookingId", input.BookingID)
		result.Outcome = "confirmed"
	})
	selector.AddReceive(cancelledCh, func(c workflow.ReceiveChannel, more bool) {
		c.Receive(ctx, nil)
		logger.Info("Hold cancelled", "bookingId", input.BookingID)
		result.Outcome = "cancelled"
	})
	selector.AddFuture(timer, func(f workflow.Future) {
		if err := f.Get(ctx, nil); err != nil {
			return
		}
		result.Outcome = "expired"
	})

	selector.Select(ctx)
	cancelTimer()

	if result.Outcome != "expired" {
		return result, nil
	}

	logger.Info("Hold expired, releasing seats", "bookingId", input.BookingID)
	err := workflow.ExecuteActivity(ctx, "ReleaseExpiredHold", activities.ReleaseExpiredHoldInput{
		BookingID: input.BookingID,
	}).Get(ctx, nil)
	if err != nil {
		logger.Error("Failed to release expired hold", "bookingId", input.BookingID, "error", err)
		return nil, err
	}
	return result, nil
}

// SweepWorkflow runs the expired-hold sweep once. It is scheduled on a
// cron so that holds whose workflows were lost still get reclaimed.
func SweepWorkflow(ctx workflow.Context) (int, error) {
	ctx = workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval: time.Second,
			MaximumAttempts: 3,
		},
	})

	var released int
	if err := workflow.ExecuteActivity(ctx, "SweepExpiredHolds").Get(ctx, &released); err != nil {
		return 0, err
	}
	return released, nil
}
