package weaviate

import (
	"context"
	"fmt"

	"github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"

	"github.com/aerostats/insightserver"
)

// SaveFeedback stores feedback entries with their embedding vectors.
func (a *Adapter) SaveFeedback(ctx context.Context, entries []insightserver.FeedbackEntry, vectors []insightserver.Vector) error {
	if len(entries) != len(vectors) {
		return fmt.Errorf("entries and vectors must have the same length")
	}

	objects := make([]*models.Object, len(entries))
	for i, entry := range entries {
		if len(vectors[i]) == 0 {
			return fmt.Errorf("empty vector")
		}
		objects[i] = &models.Object{
			Class: className,
			Properties: map[string]any{
				"text":          entry.Text,
				"feedback_id":   entry.ID,
				"flight_number": entry.FlightNumber,
				"aircraft":      entry.Aircraft,
				"origin":        entry.Origin,
				"destination":   entry.Destination,
				"delay_minutes": entry.DelayMinutes,
				"food_score":    entry.FoodScore,
				"cabin":         entry.Class,
			},
			Vector: models.C11yVector(vectors[i]),
		}
	}

	_, err := a.client.Batch().ObjectsBatcher().WithObjects(objects...).Do(ctx)
	if err != nil {
		return err
	}

	a.logger.Sugar().Infof("stored %v objects in weaviate", len(objects))
	return nil
}

// RunSemanticSearch embeds the query and returns the topK nearest feedback
// entries by vector certainty.
func (a *Adapter) RunSemanticSearch(ctx context.Context, query string, topK int) (insightserver.RetrievalResult, error) {
	vector, err := a.embedder.EmbedContent(ctx, query)
	if err != nil {
		return insightserver.RetrievalResult{}, fmt.Errorf("embedding query: %w", err)
	}

	gql := a.client.GraphQL()
	nearVector := gql.NearVectorArgBuilder().WithVector([]float32(vector))

	graphqlResponse, err := gql.Get().
		WithNearVector(nearVector).
		WithClassName(className).
		WithFields(
			graphql.Field{Name: "text"},
			graphql.Field{Name: "feedback_id"},
			graphql.Field{Name: "flight_number"},
			graphql.Field{Name: "aircraft"},
			graphql.Field{Name: "origin"},
			graphql.Field{Name: "destination"},
			graphql.Field{Name: "delay_minutes"},
			graphql.Field{Name: "food_score"},
			graphql.Field{Name: "cabin"},
			graphql.Field{Name: "_additional", Fields: []graphql.Field{{Name: "certainty"}}},
		).
		WithLimit(topK).
		Do(ctx)
	if err := combinedWeaviateError(graphqlResponse, err); err != nil {
		return insightserver.RetrievalResult{}, fmt.Errorf("%w: %v", insightserver.ErrBackendUnavailable, err)
	}

	records, err := decodeFeedbackResults(graphqlResponse)
	if err != nil {
		return insightserver.RetrievalResult{}, err
	}

	return insightserver.RetrievalResult{
		Source:  insightserver.SourceSemantic,
		Records: records,
	}, nil
}

// decodeFeedbackResults decodes the result returned by Weaviate's GraphQL
// Get query; these come back as a nested map[string]any, just like JSON
// unmarshaled into a map[string]any.
func decodeFeedbackResults(graphqlResponse *models.GraphQLResponse) ([]insightserver.Record, error) {
	data, ok := graphqlResponse.Data["Get"]
	if !ok {
		return nil, fmt.Errorf("get key not found in result")
	}
	get, ok := data.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("get key unexpected type")
	}
	slc, ok := get[className].([]any)
	if !ok {
		return nil, fmt.Errorf("%s is not a list of results", className)
	}

	var out []insightserver.Record
	for _, s := range slc {
		smap, ok := s.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("invalid element in list of results")
		}
		id, ok := smap["feedback_id"].(string)
		if !ok {
			return nil, fmt.Errorf("expected feedback_id in result")
		}
		text, ok := smap["text"].(string)
		if !ok {
			return nil, fmt.Errorf("expected text in result")
		}

		entry := insightserver.FeedbackEntry{
			ID:           id,
			FlightNumber: stringProperty(smap, "flight_number"),
			Aircraft:     stringProperty(smap, "aircraft"),
			Origin:       stringProperty(smap, "origin"),
			Destination:  stringProperty(smap, "destination"),
			Class:        stringProperty(smap, "cabin"),
			Text:         text,
		}
		entry.DelayMinutes, _ = smap["delay_minutes"].(float64)
		entry.FoodScore, _ = smap["food_score"].(float64)

		out = append(out, entry.Record(certainty(smap)))
	}
	return out, nil
}

func stringProperty(smap map[string]any, name string) string {
	value, _ := smap[name].(string)
	return value
}

func certainty(smap map[string]any) float64 {
	additional, ok := smap["_additional"].(map[string]any)
	if !ok {
		return 0
	}
	value, _ := additional["certainty"].(float64)
	return value
}

// combinedWeaviateError generates an error if err is non-nil or result has
// errors, and returns an error (or nil if there's no error). It's useful for
// the results of the Weaviate GraphQL API's "Do" calls.
func combinedWeaviateError(graphqlResponse *models.GraphQLResponse, err error) error {
	if err != nil {
		return err
	}
	if len(graphqlResponse.Errors) != 0 {
		var ss []string
		for _, e := range graphqlResponse.Errors {
			ss = append(ss, e.Message)
		}
		return fmt.Errorf("weaviate error: %v", ss)
	}
	return nil
}
