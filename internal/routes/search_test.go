package routes

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func searchModel(t *testing.T) *Model {
	t.Helper()
	m := NewModel()

	morning := &RouteTemplate{
		TrainID:     "12009",
		TrainNumber: "12009",
		Name:        "Shatabdi Express",
		Departure:   "06:00",
		Days:        []time.Weekday{time.Monday, time.Wednesday, time.Friday},
		Stations: []Station{
			{Code: "BCT", Order: 1, DistanceKm: 0},
			{Code: "ST", Order: 2, DistanceKm: 263, ArrivalOffset: 2 * time.Hour, DepartureOffset: 2 * time.Hour},
			{Code: "ADI", Order: 3, DistanceKm: 491, ArrivalOffset: 5 * time.Hour, DepartureOffset: 5 * time.Hour},
		},
		Classes: map[string]int{"CC": 120},
	}
	evening := &RouteTemplate{
		TrainID:     "12951",
		TrainNumber: "12951",
		Name:        "Mumbai Rajdhani",
		Departure:   "16:25",
		Stations: []Station{
			{Code: "BCT", Order: 1, DistanceKm: 0},
			{Code: "ST", Order: 2, DistanceKm: 263, ArrivalOffset: 2*time.Hour + 30*time.Minute, DepartureOffset: 2*time.Hour + 30*time.Minute},
			{Code: "NDLS", Order: 3, DistanceKm: 1384, ArrivalOffset: 15 * time.Hour, DepartureOffset: 15 * time.Hour},
		},
		Classes: map[string]int{"3A": 72},
	}

	require.NoError(t, m.Publish(morning))
	require.NoError(t, m.Publish(evening))
	return m
}

func TestSearch_MatchesAndOrdering(t *testing.T) {
	m := searchModel(t)
	monday := time.Date(2025, 6, 9, 0, 0, 0, 0, time.UTC)

	matches := m.Search("BCT", "ST", monday)
	require.Len(t, matches, 2)

	// Sorted by departure from the boarding station.
	assert.Equal(t, "12009", matches[0].Train.TrainID)
	assert.Equal(t, "12951", matches[1].Train.TrainID)
	assert.Equal(t, 1, matches[0].FromOrder)
	assert.Equal(t, 2, matches[0].ToOrder)
}

func TestSearch_FiltersByServiceDate(t *testing.T) {
	m := searchModel(t)
	tuesday := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)

	// The Shatabdi does not run on Tuesdays.
	matches := m.Search("BCT", "ST", tuesday)
	require.Len(t, matches, 1)
	assert.Equal(t, "12951", matches[0].Train.TrainID)
}

func TestSearch_DirectionMatters(t *testing.T) {
	m := searchModel(t)
	monday := time.Date(2025, 6, 9, 0, 0, 0, 0, time.UTC)

	// Both trains call at ST after BCT, so the reverse pair matches
	// nothing.
	assert.Empty(t, m.Search("ST", "BCT", monday))
}

func TestSearch_UnknownStations(t *testing.T) {
	m := searchModel(t)
	monday := time.Date(2025, 6, 9, 0, 0, 0, 0, time.UTC)

	assert.Empty(t, m.Search("XXX", "ST", monday))
	assert.Empty(t, m.Search("BCT", "XXX", monday))
}
