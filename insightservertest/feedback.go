package insightservertest

import (
	"fmt"

	"github.com/aerostats/insightserver"
)

type FeedbackOption func(*insightserver.FeedbackEntry)

func WithFeedbackID(id string) FeedbackOption {
	return func(f *insightserver.FeedbackEntry) {
		f.ID = id
	}
}

func WithFeedbackAircraft(aircraft string) FeedbackOption {
	return func(f *insightserver.FeedbackEntry) {
		f.Aircraft = aircraft
	}
}

func WithFeedbackRoute(origin, destination string) FeedbackOption {
	return func(f *insightserver.FeedbackEntry) {
		f.Origin = origin
		f.Destination = destination
	}
}

func WithFeedbackDelay(minutes float64) FeedbackOption {
	return func(f *insightserver.FeedbackEntry) {
		f.DelayMinutes = minutes
	}
}

func WithFeedbackFoodScore(score float64) FeedbackOption {
	return func(f *insightserver.FeedbackEntry) {
		f.FoodScore = score
	}
}

func WithFeedbackText(text string) FeedbackOption {
	return func(f *insightserver.FeedbackEntry) {
		f.Text = text
	}
}

var (
	fleetTypes = []string{"CRJ-700", "B737-800", "B777-200", "A320-200", "E175"}
	classes    = []string{"Economy", "Economy Plus", "Business", "First"}
	stations   = []string{"ORD", "DEN", "SFO", "IAH", "EWR", "LAX"}
)

func (g *DataGen) FeedbackEntry(options ...FeedbackOption) insightserver.FeedbackEntry {
	origin := g.RandomString(stations)
	destination := g.RandomString(stations)
	for destination == origin {
		destination = g.RandomString(stations)
	}

	entry := insightserver.FeedbackEntry{
		ID:           fmt.Sprintf("F-%d", g.Number(1000, 9999)),
		FlightNumber: fmt.Sprintf("UA%d", g.Number(100, 999)),
		Aircraft:     g.RandomString(fleetTypes),
		Origin:       origin,
		Destination:  destination,
		DelayMinutes: float64(g.Number(-10, 180)),
		FoodScore:    float64(g.Number(1, 5)),
		Class:        g.RandomString(classes),
		Text:         g.Sentence(12),
	}

	for _, o := range options {
		o(&entry)
	}

	return entry
}

// SemanticRecord wraps a generated feedback entry as a retrieval record with
// a similarity score in (0.5, 1).
func (g *DataGen) SemanticRecord(options ...FeedbackOption) insightserver.Record {
	score := 0.5 + g.Float64Range(0.01, 0.49)
	return g.FeedbackEntry(options...).Record(score)
}

// AggregateRecord builds an identity-free statistics record of the shape
// structured queries return.
func (g *DataGen) AggregateRecord() insightserver.Record {
	return insightserver.Record{
		Fields: map[string]any{
			"fleet_type": g.RandomString(fleetTypes),
			"avg_delay":  g.Float64Range(0, 120),
			"journeys":   float64(g.Number(10, 5000)),
		},
	}
}
