package insightserver

// FeedbackEntry is one passenger's journey feedback as stored in the vector
// indexes, the unit of semantic retrieval.
type FeedbackEntry struct {
	ID           string  `json:"feedback_id"`
	FlightNumber string  `json:"flight_number"`
	Aircraft     string  `json:"aircraft"`
	Origin       string  `json:"origin"`
	Destination  string  `json:"destination"`
	DelayMinutes float64 `json:"delay_minutes"`
	FoodScore    float64 `json:"food_score"`
	Class        string  `json:"class"`
	Text         string  `json:"text"`
}

// Record maps the entry to a retrieval record carrying the given similarity
// score.
func (f FeedbackEntry) Record(score float64) Record {
	return Record{
		ID:    f.ID,
		Score: score,
		Fields: map[string]any{
			"flight_number": f.FlightNumber,
			"aircraft":      f.Aircraft,
			"origin":        f.Origin,
			"destination":   f.Destination,
			"delay_minutes": f.DelayMinutes,
			"food_score":    f.FoodScore,
			"class":         f.Class,
			"text":          f.Text,
		},
	}
}
