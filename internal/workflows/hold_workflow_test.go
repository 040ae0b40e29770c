package workflows

import (
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"go.temporal.io/sdk/testsuite"

	"github.com/railbook/train-booking-system/internal/activities"
)

type HoldWorkflowTestSuite struct {
	suite.Suite
	testsuite.WorkflowTestSuite
	env *testsuite.TestWorkflowEnvironment
}

func (s *HoldWorkflowTestSuite) SetupTest() {
	s.env = s.NewTestWorkflowEnvironment()
	a := activities.NewActivities(nil)
	s.env.RegisterActivity(a.ReleaseExpiredHold)
	s.env.RegisterActivity(a.SweepExpiredHolds)
}

func (s *HoldWorkflowTestSuite) AfterTest(suiteName, testName string) {
	s.env.AssertExpectations(s.T())
}

func TestHoldWorkflowTestSuite(t *testing.T) {
	suite.Run(t, new(HoldWorkflowTestSuite))
}

func (s *HoldWorkflowTestSuite) TestHoldWorkflow_ExpiresAndReleases() {
	input := HoldWorkflowInput{
		BookingID: "booking-123",
		ExpiresAt: time.Now().Add(15 * time.Minute),
	}

	s.env.OnActivity("ReleaseExpiredHold", mock.Anything, mock.Anything).Return(nil)

	s.env.ExecuteWorkflow(HoldWorkflow, input)

	s.True(s.env.IsWorkflowCompleted())
	s.NoError(s.env.GetWorkflowError())

	var result HoldWorkflowResult
	s.NoError(s.env.GetWorkflowResult(&result))
	s.Equal("expired", result.Outcome)
}

func (s *HoldWorkflowTestSuite) TestHoldWorkflow_ConfirmedBeforeExpiry() {
	input := HoldWorkflowInput{
		BookingID: "booking-123",
		ExpiresAt: time.Now().Add(15 * time.Minute),
	}

	s.env.RegisterDelayedCallback(func() {
		s.env.SignalWorkflow(SignalBookingConfirmed, nil)
	}, time.Minute)

	s.env.ExecuteWorkflow(HoldWorkflow, input)

	s.True(s.env.IsWorkflowCompleted())
	s.NoError(s.env.GetWorkflowError())

	var result HoldWorkflowResult
	s.NoError(s.env.GetWorkflowResult(&result))
	s.Equal("confirmed", result.Outcome)
}

func (s *HoldWorkflowTestSuite) TestHoldWorkflow_CancelledBeforeExpiry() {
	input := HoldWorkflowInput{
		BookingID: "booking-123",
		ExpiresAt: time.Now().Add(15 * time.Minute),
	}

	s.env.RegisterDelayedCallback(func() {
		s.env.SignalWorkflow(SignalBookingCancelled, nil)
	}, 5*time.Minute)

	s.env.ExecuteWorkflow(HoldWorkflow, input)

	s.True(s.env.IsWorkflowCompleted())
	s.NoError(s.env.GetWorkflowError())

	var result HoldWorkflowResult
	s.NoError(s.env.GetWorkflowResult(&result))
	s.Equal("cancelled", result.Outcome)
}

func (s *HoldWorkflowTestSuite) TestHoldWorkflow_AlreadyExpiredInput() {
	// An expiry in the past should release immediately instead of
	// waiting.
	input := HoldWorkflowInput{
		BookingID: "booking-123",
		ExpiresAt: time.Now().Add(-time.Minute),
	}

	s.env.OnActivity("ReleaseExpiredHold", mock.Anything, mock.Anything).Return(nil)

	s.env.ExecuteWorkflow(HoldWorkflow, input)

	s.True(s.env.IsWorkflowCompleted())
	s.NoError(s.env.GetWorkflowError())

	var result HoldWorkflowResult
	s.NoError(s.env.GetWorkflowResult(&result))
	s.Equal("expired", result.Outcome)
}

func (s *HoldWorkflowTestSuite) TestSweepWorkflow() {
	s.env.OnActivity("SweepExpiredHolds", mock.Anything).Return(3, nil)

	s.env.ExecuteWorkflow(SweepWorkflow)

	s.True(s.env.IsWorkflowCompleted())
	s.NoError(s.env.GetWorkflowError())

	var released int
	s.NoError(s.env.GetWorkflowResult(&released))
	s.Equal(3, released)
}
