package routes

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

var (
	ErrUnknownRoute   = errors.New("unknown route")
	ErrUnknownStation = errors.New("unknown station")
)

// Station is one stop on a published route. Order is dense and 1-based
// within the route; DistanceKm is measured from the origin station.
type Station struct {
	Code       string  `json:"code"`
	Name       string  `json:"name"`
	Order      int     `json:"order"`
	DistanceKm float64 `json:"distanceKm"`

	// Offsets from the run's origin departure.
	ArrivalOffset   time.Duration `json:"arrivalOffset"`
	DepartureOffset time.Duration `json:"departureOffset"`
}

// RouteTemplate is the ordered station sequence for one train number.
// Templates are immutable once published.
type RouteTemplate struct {
	TrainID     string         `json:"trainId"`
	TrainNumber string         `json:"trainNumber"`
	Name        string         `json:"name"`
	Stations    []Station      `json:"stations"`
	Departure   string         `json:"departure"` // origin departure clock, "15:04"
	Days        []time.Weekday `json:"days,omitempty"`

	// Classes maps coach class code to seat capacity per run.
	Classes map[string]int `json:"classes"`
}

// RunsOn reports whether the train operates on the given service date.
// An empty Days list means the train runs daily.
func (t *RouteTemplate) RunsOn(date time.Time) bool {
	if len(t.Days) == 0 {
		return true
	}
	for _, d := range t.Days {
		if d == date.Weekday() {
			return true
		}
	}
	return false
}

// DepartureAt returns the departure time from the station with the given
// order on a run operating on the given service date.
func (t *RouteTemplate) DepartureAt(date time.Time, order int) time.Time {
	origin := originDeparture(t.Departure, date)
	for _, s := range t.Stations {
		if s.Order == order {
			return origin.Add(s.DepartureOffset)
		}
	}
	return origin
}

// ArrivalAt returns the arrival time at the station with the given order.
func (t *RouteTemplate) ArrivalAt(date time.Time, order int) time.Time {
	origin := originDeparture(t.Departure, date)
	for _, s := range t.Stations {
		if s.Order == order {
			return origin.Add(s.ArrivalOffset)
		}
	}
	return origin
}

func originDeparture(clock string, date time.Time) time.Time {
	parsed, err := time.Parse("15:04", clock)
	if err != nil {
		return time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	}
	return time.Date(date.Year(), date.Month(), date.Day(), parsed.Hour(), parsed.Minute(), 0, 0, date.Location())
}

func validateTemplate(t *RouteTemplate) error {
	if t.TrainID == "" {
		return errors.New("train ID is required")
	}
	if len(t.Stations) < 2 {
		return fmt.Errorf("route %s must have at least two stations", t.TrainID)
	}
	seen := make(map[string]bool, len(t.Stations))
	for i, s := range t.Stations {
		if s.Code == "" {
			return fmt.Errorf("route %s: station %d has no code", t.TrainID, i)
		}
		if seen[s.Code] {
			return fmt.Errorf("route %s: duplicate station %s", t.TrainID, s.Code)
		}
		seen[s.Code] = true
		if s.Order != i+1 {
			return fmt.Errorf("route %s: station %s has order %d, want %d", t.TrainID, s.Code, s.Order, i+1)
		}
		if i > 0 && s.DistanceKm < t.Stations[i-1].DistanceKm {
			return fmt.Errorf("route %s: distance decreases at %s", t.TrainID, s.Code)
		}
	}
	return nil
}

// Model holds all published route templates and a station-to-routes
// reverse map used by Search.
type Model struct {
	mu        sync.RWMutex
	templates map[string]*RouteTemplate
	byStation map[string][]string // station code -> train IDs
}

// NewModel creates an empty route model.
func NewModel() *Model {
	return &Model{
		templates: make(map[string]*RouteTemplate),
		byStation: make(map[string][]string),
	}
}

// Publish validates and registers a route template. Publishing a template
// with an already-known train ID is rejected: routes are immutable.
func (m *Model) Publish(t *RouteTemplate) error {
	if err := validateTemplate(t); err != nil {
		return fmt.Errorf("invalid route template: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.templates[t.TrainID]; exists {
		return fmt.Errorf("route %s is already published", t.TrainID)
	}
	m.templates[t.TrainID] = t
	for _, s := range t.Stations {
		m.byStation[s.Code] = append(m.byStation[s.Code], t.TrainID)
	}
	return nil
}

// Template returns the published template for a train.
func (m *Model) Template(trainID string) (*RouteTemplate, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	t, ok := m.templates[trainID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownRoute, trainID)
	}
	return t, nil
}

// StationsFor returns the ordered station sequence for a train.
func (m *Model) StationsFor(trainID string) ([]Station, error) {
	t, err := m.Template(trainID)
	if err != nil {
		return nil, err
	}
	return t.Stations, nil
}

// OrderOf returns the sequencing order of a station on a train's route.
func (m *Model) OrderOf(trainID, stationCode string) (int, error) {
	t, err := m.Template(trainID)
	if err != nil {
		return 0, err
	}
	for _, s := range t.Stations {
		if s.Code == stationCode {
			return s.Order, nil
		}
	}
	return 0, fmt.Errorf("%w: %s not on route %s", ErrUnknownStation, stationCode, trainID)
}
