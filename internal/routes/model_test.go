package routes

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func expressTemplate() *RouteTemplate {
	return &RouteTemplate{
		TrainID:     "12951",
		TrainNumber: "12951",
		Name:        "Mumbai Rajdhani",
		Departure:   "16:25",
		Stations: []Station{
			{Code: "BCT", Name: "Mumbai Central", Order: 1, DistanceKm: 0},
			{Code: "BRC", Name: "Vadodara Jn", Order: 2, DistanceKm: 392, ArrivalOffset: 5 * time.Hour, DepartureOffset: 5 * time.Hour},
			{Code: "NDLS", Name: "New Delhi", Order: 3, DistanceKm: 1384, ArrivalOffset: 15 * time.Hour, DepartureOffset: 15 * time.Hour},
		},
		Classes: map[string]int{"3A": 72},
	}
}

func TestPublishAndLookup(t *testing.T) {
	m := NewModel()
	require.NoError(t, m.Publish(expressTemplate()))

	tpl, err := m.Template("12951")
	require.NoError(t, err)
	assert.Equal(t, "Mumbai Rajdhani", tpl.Name)

	stations, err := m.StationsFor("12951")
	require.NoError(t, err)
	assert.Len(t, stations, 3)

	order, err := m.OrderOf("12951", "BRC")
	require.NoError(t, err)
	assert.Equal(t, 2, order)
}

func TestPublish_RejectsDuplicateTrain(t *testing.T) {
	m := NewModel()
	require.NoError(t, m.Publish(expressTemplate()))

	err := m.Publish(expressTemplate())
	assert.ErrorContains(t, err, "already published")
}

func TestPublish_ValidatesTemplate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*RouteTemplate)
		wantErr string
	}{
		{
			name:    "missing train id",
			mutate:  func(t *RouteTemplate) { t.TrainID = "" },
			wantErr: "train ID is required",
		},
		{
			name:    "single station",
			mutate:  func(t *RouteTemplate) { t.Stations = t.Stations[:1] },
			wantErr: "at least two stations",
		},
		{
			name:    "duplicate station",
			mutate:  func(t *RouteTemplate) { t.Stations[2].Code = "BCT" },
			wantErr: "duplicate station",
		},
		{
			name:    "gap in order",
			mutate:  func(t *RouteTemplate) { t.Stations[2].Order = 5 },
			wantErr: "has order 5, want 3",
		},
		{
			name:    "distance decreases",
			mutate:  func(t *RouteTemplate) { t.Stations[2].DistanceKm = 100 },
			wantErr: "distance decreases",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tpl := expressTemplate()
			tt.mutate(tpl)

			err := NewModel().Publish(tpl)
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestLookup_UnknownRouteAndStation(t *testing.T) {
	m := NewModel()
	require.NoError(t, m.Publish(expressTemplate()))

	_, err := m.Template("99999")
	assert.True(t, errors.Is(err, ErrUnknownRoute))

	_, err = m.OrderOf("12951", "KOTA")
	assert.True(t, errors.Is(err, ErrUnknownStation))
}

func TestRunsOn(t *testing.T) {
	tpl := expressTemplate()

	// Empty Days means daily service.
	assert.True(t, tpl.RunsOn(time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)))

	tpl.Days = []time.Weekday{time.Monday, time.Thursday}
	monday := time.Date(2025, 6, 9, 0, 0, 0, 0, time.UTC)
	tuesday := monday.AddDate(0, 0, 1)
	assert.True(t, tpl.RunsOn(monday))
	assert.False(t, tpl.RunsOn(tuesday))
}

func TestDepartureAndArrivalTimes(t *testing.T) {
	tpl := expressTemplate()
	date := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)

	dep := tpl.DepartureAt(date, 1)
	assert.Equal(t, 16, dep.Hour())
	assert.Equal(t, 25, dep.Minute())

	// Station 3 arrives 15h after the origin departure, on the next day.
	arr := tpl.ArrivalAt(date, 3)
	assert.Equal(t, dep.Add(15*time.Hour), arr)
	assert.Equal(t, 11, arr.Day())
}
