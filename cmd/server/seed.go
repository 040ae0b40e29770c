package main

import (
	"time"

	"github.com/railbook/train-booking-system/internal/routes"
)

// seedRoutes publishes the demo route templates. In production these
// would come from a timetable import.
func seedRoutes(m *routes.Model) error {
	templates := []*routes.RouteTemplate{
		{
			TrainID:     "12951",
			TrainNumber: "12951",
			Name:        "Mumbai Rajdhani",
			Departure:   "16:25",
			Stations: []routes.Station{
				{Code: "BCT", Name: "Mumbai Central", Order: 1, DistanceKm: 0, DepartureOffset: 0},
				{Code: "BRC", Name: "Vadodara Jn", Order: 2, DistanceKm: 392, ArrivalOffset: 4*time.Hour + 55*time.Minute, DepartureOffset: 5 * time.Hour},
				{Code: "RTM", Name: "Ratlam Jn", Order: 3, DistanceKm: 653, ArrivalOffset: 7*time.Hour + 40*time.Minute, DepartureOffset: 7*time.Hour + 45*time.Minute},
				{Code: "KOTA", Name: "Kota Jn", Order: 4, DistanceKm: 918, ArrivalOffset: 10*time.Hour + 25*time.Minute, DepartureOffset: 10*time.Hour + 35*time.Minute},
				{Code: "NDLS", Name: "New Delhi", Order: 5, DistanceKm: 1384, ArrivalOffset: 15*time.Hour + 30*time.Minute, DepartureOffset: 15*time.Hour + 30*time.Minute},
			},
			Classes: map[string]int{"3A": 72, "2A": 48, "1A": 18},
		},
		{
			TrainID:     "12009",
			TrainNumber: "12009",
			Name:        "Shatabdi Express",
			Departure:   "06:00",
			Days:        []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday, time.Saturday},
			Stations: []routes.Station{
				{Code: "BCT", Name: "Mumbai Central", Order: 1, DistanceKm: 0, DepartureOffset: 0},
				{Code: "ST", Name: "Surat", Order: 2, DistanceKm: 263, ArrivalOffset: 2*time.Hour + 33*time.Minute, DepartureOffset: 2*time.Hour + 36*time.Minute},
				{Code: "BRC", Name: "Vadodara Jn", Order: 3, DistanceKm: 392, ArrivalOffset: 3*time.Hour + 48*time.Minute, DepartureOffset: 3*time.Hour + 53*time.Minute},
				{Code: "ADI", Name: "Ahmedabad Jn", Order: 4, DistanceKm: 491, ArrivalOffset: 5*time.Hour + 25*time.Minute, DepartureOffset: 5*time.Hour + 25*time.Minute},
			},
			Classes: map[string]int{"CC": 120},
		},
		{
			TrainID:     "12137",
			TrainNumber: "12137",
			Name:        "Punjab Mail",
			Departure:   "19:35",
			Stations: []routes.Station{
				{Code: "CSMT", Name: "Mumbai CSMT", Order: 1, DistanceKm: 0, DepartureOffset: 0},
				{Code: "KYN", Name: "Kalyan Jn", Order: 2, DistanceKm: 54, ArrivalOffset: 47 * time.Minute, DepartureOffset: 50 * time.Minute},
				{Code: "BSL", Name: "Bhusaval Jn", Order: 3, DistanceKm: 440, ArrivalOffset: 7 * time.Hour, DepartureOffset: 7*time.Hour + 10*time.Minute},
				{Code: "BPL", Name: "Bhopal Jn", Order: 4, DistanceKm: 837, ArrivalOffset: 13*time.Hour + 5*time.Minute, DepartureOffset: 13*time.Hour + 15*time.Minute},
				{Code: "JHS", Name: "Jhansi Jn", Order: 5, DistanceKm: 1128, ArrivalOffset: 17*time.Hour + 13*time.Minute, DepartureOffset: 17*time.Hour + 23*time.Minute},
				{Code: "NDLS", Name: "New Delhi", Order: 6, DistanceKm: 1534, ArrivalOffset: 24*time.Hour + 10*time.Minute, DepartureOffset: 24*time.Hour + 10*time.Minute},
			},
			Classes: map[string]int{"SL": 360, "3A": 128, "2A": 46},
		},
	}

	for _, t := range templates {
		if err := m.Publish(t); err != nil {
			return err
		}
	}
	return nil
}
