package routes

import (
	"sort"
	"time"
)

// Match is one train serving a requested station pair, with the resolved
// station orders for that train's route.
type Match struct {
	Train     *RouteTemplate
	FromOrder int
	ToOrder   int
}

// Search returns all trains whose route contains both stations with
// fromOrder < toOrder and which operate on the given service date.
// Results are sorted by departure time from the boarding station.
// A plain scan over the candidate trains is fine at this scale; the
// byStation reverse map keeps it to trains that actually call at the
// boarding station.
func (m *Model) Search(fromCode, toCode string, date time.Time) []Match {
	m.mu.RLock()
	candidates := m.byStation[fromCode]
	matches := make([]Match, 0, len(candidates))
	for _, trainID := range candidates {
		t := m.templates[trainID]
		fromOrder, toOrder := 0, 0
		for _, s := range t.Stations {
			switch s.Code {
			case fromCode:
				fromOrder = s.Order
			case toCode:
				toOrder = s.Order
			}
		}
		if fromOrder == 0 || toOrder == 0 || fromOrder >= toOrder {
			continue
		}
		if !t.RunsOn(date) {
			continue
		}
		matches = append(matches, Match{Train: t, FromOrder: fromOrder, ToOrder: toOrder})
	}
	m.mu.RUnlock()

	sort.Slice(matches, func(i, j int) bool {
		di := matches[i].Train.DepartureAt(date, matches[i].FromOrder)
		dj := matches[j].Train.DepartureAt(date, matches[j].FromOrder)
		if di.Equal(dj) {
			return matches[i].Train.TrainNumber < matches[j].Train.TrainNumber
		}
		return di.Before(dj)
	})
	return matches
}
