package activities

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/testsuite"
)

type mockHoldService struct {
	mock.Mock
}

func (m *mockHoldService) ReleaseHold(ctx context.Context, bookingID uuid.UUID) error {
	args := m.Called(ctx, bookingID)
	return args.Error(0)
}

func (m *mockHoldService) ReleaseExpiredHolds(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func newTestEnv(t *testing.T, svc HoldService) *testsuite.TestActivityEnvironment {
	t.Helper()
	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestActivityEnvironment()
	env.RegisterActivity(NewActivities(svc).ReleaseExpiredHold)
	env.RegisterActivity(NewActivities(svc).SweepExpiredHolds)
	return env
}

func TestReleaseExpiredHold(t *testing.T) {
	bookingID := uuid.New()
	svc := new(mockHoldService)
	svc.On("ReleaseHold", mock.Anything, bookingID).Return(nil)

	env := newTestEnv(t, svc)
	_, err := env.ExecuteActivity("ReleaseExpiredHold", ReleaseExpiredHoldInput{
		BookingID: bookingID.String(),
	})

	require.NoError(t, err)
	svc.AssertExpectations(t)
}

func TestReleaseExpiredHold_InvalidID(t *testing.T) {
	svc := new(mockHoldService)
	env := newTestEnv(t, svc)

	_, err := env.ExecuteActivity("ReleaseExpiredHold", ReleaseExpiredHoldInput{
		BookingID: "not-a-uuid",
	})

	assert.Error(t, err)
	svc.AssertNotCalled(t, "ReleaseHold")
}

func TestReleaseExpiredHold_ServiceError(t *testing.T) {
	bookingID := uuid.New()
	svc := new(mockHoldService)
	svc.On("ReleaseHold", mock.Anything, bookingID).Return(errors.New("store offline"))

	env := newTestEnv(t, svc)
	_, err := env.ExecuteActivity("ReleaseExpiredHold", ReleaseExpiredHoldInput{
		BookingID: bookingID.String(),
	})

	assert.Error(t, err)
	svc.AssertExpectations(t)
}

func TestSweepExpiredHolds(t *testing.T) {
	svc := new(mockHoldService)
	svc.On("ReleaseExpiredHolds", mock.Anything).Return(5, nil)

	env := newTestEnv(t, svc)
	val, err := env.ExecuteActivity("SweepExpiredHolds")

	require.NoError(t, err)
	var released int
	require.NoError(t, val.Get(&released))
	assert.Equal(t, 5, released)
	svc.AssertExpectations(t)
}
