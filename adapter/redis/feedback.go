package redis

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/aerostats/insightserver"
)

// SaveFeedback indexes feedback entries with their embedding vectors.
func (a *Adapter) SaveFeedback(ctx context.Context, entries []insightserver.FeedbackEntry, vectors []insightserver.Vector) error {
	if len(entries) != len(vectors) {
		return fmt.Errorf("entries and vectors must have the same length")
	}

	for i, entry := range entries {
		key := fmt.Sprintf("%s%s", a.indexPrefix, entry.ID)
		fields, err := a.client.HSet(ctx,
			key,
			map[string]any{
				"content":       entry.Text,
				"feedback_id":   entry.ID,
				"flight_number": entry.FlightNumber,
				"aircraft":      entry.Aircraft,
				"origin":        entry.Origin,
				"destination":   entry.Destination,
				"delay_minutes": entry.DelayMinutes,
				"food_score":    entry.FoodScore,
				"class":         entry.Class,
				"embedding":     floatsToBytes(vectors[i]),
			},
		).Result()
		if err != nil {
			return err
		}
		if fields == 0 {
			return fmt.Errorf("no fields were added to redis")
		}
	}

	return nil
}

// RunSemanticSearch embeds the query and returns the topK nearest feedback
// entries. Cosine distance is mapped to a similarity score in [0, 1].
func (a *Adapter) RunSemanticSearch(ctx context.Context, query string, topK int) (insightserver.RetrievalResult, error) {
	vector, err := a.embedder.EmbedContent(ctx, query)
	if err != nil {
		return insightserver.RetrievalResult{}, fmt.Errorf("embedding query: %w", err)
	}

	search := fmt.Sprintf("*=>[KNN %d @embedding $vec AS vector_distance]", topK)

	// The results are ordered according to the value of the vector_distance
	// field, with the lowest distance indicating the greatest similarity.
	results, err := a.client.FTSearchWithArgs(ctx,
		a.indexName,
		search,
		&redis.FTSearchOptions{
			Return: []redis.FTSearchReturn{
				{FieldName: "vector_distance"},
				{FieldName: "content"},
				{FieldName: "feedback_id"},
				{FieldName: "flight_number"},
				{FieldName: "aircraft"},
				{FieldName: "origin"},
				{FieldName: "destination"},
				{FieldName: "delay_minutes"},
				{FieldName: "food_score"},
				{FieldName: "class"},
			},
			DialectVersion: a.dialectVersion,
			Params: map[string]any{
				"vec": floatsToBytes(vector),
			},
			SortBy: []redis.FTSearchSortBy{{FieldName: "vector_distance", Asc: true}},
			Limit:  topK,
		},
	).Result()
	if err != nil {
		return insightserver.RetrievalResult{}, fmt.Errorf("%w: %v", insightserver.ErrBackendUnavailable, err)
	}

	records := make([]insightserver.Record, 0, len(results.Docs))
	for _, doc := range results.Docs {
		record, err := mapRedisRecord(doc)
		if err != nil {
			return insightserver.RetrievalResult{}, err
		}
		records = append(records, record)
	}

	return insightserver.RetrievalResult{
		Source:  insightserver.SourceSemantic,
		Records: records,
	}, nil
}

func mapRedisRecord(rd redis.Document) (insightserver.Record, error) {
	id, ok := rd.Fields["feedback_id"]
	if !ok {
		return insightserver.Record{}, fmt.Errorf("missing feedback_id field in document")
	}

	distance, err := strconv.ParseFloat(rd.Fields["vector_distance"], 64)
	if err != nil {
		return insightserver.Record{}, fmt.Errorf("invalid vector distance: %v", err)
	}

	entry := insightserver.FeedbackEntry{
		ID:           id,
		FlightNumber: rd.Fields["flight_number"],
		Aircraft:     rd.Fields["aircraft"],
		Origin:       rd.Fields["origin"],
		Destination:  rd.Fields["destination"],
		Class:        rd.Fields["class"],
		Text:         rd.Fields["content"],
	}
	if raw, ok := rd.Fields["delay_minutes"]; ok {
		entry.DelayMinutes, _ = strconv.ParseFloat(raw, 64)
	}
	if raw, ok := rd.Fields["food_score"]; ok {
		entry.FoodScore, _ = strconv.ParseFloat(raw, 64)
	}

	return entry.Record(distanceToScore(distance)), nil
}

// distanceToScore maps a cosine distance to a similarity in [0, 1].
func distanceToScore(distance float64) float64 {
	score := 1 - distance
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

// helper function to convert []float32 to []byte
func floatsToBytes(fs []float32) []byte {
	buf := make([]byte, len(fs)*4)

	for i, f := range fs {
		u := math.Float32bits(f)
		binary.NativeEndian.PutUint32(buf[i*4:], u)
	}

	return buf
}
