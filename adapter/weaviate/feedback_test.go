package weaviate

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/weaviate/weaviate/entities/models"

	"github.com/aerostats/insightserver"
)

func TestDecodeFeedbackResults(t *testing.T) {
	t.Parallel()

	tests := []struct {
		title       string
		given       *models.GraphQLResponse
		expected    []insightserver.Record
		expectedErr error
	}{
		{
			"Missing Get key",
			&models.GraphQLResponse{
				Data: map[string]models.JSONObject{},
			},
			nil,
			fmt.Errorf("get key not found in result"),
		},
		{
			"Missing feedback_id",
			&models.GraphQLResponse{
				Data: map[string]models.JSONObject{
					"Get": map[string]any{
						"JourneyFeedback": []any{
							map[string]any{
								"text": "foo",
							},
						},
					},
				},
			},
			nil,
			fmt.Errorf("expected feedback_id in result"),
		},
		{
			"Valid results",
			&models.GraphQLResponse{
				Data: map[string]models.JSONObject{
					"Get": map[string]any{
						"JourneyFeedback": []any{
							map[string]any{
								"text":          "the crew handled the delay well",
								"feedback_id":   "F-1001",
								"flight_number": "UA101",
								"aircraft":      "CRJ-700",
								"origin":        "ORD",
								"destination":   "DEN",
								"delay_minutes": float64(45.5),
								"food_score":    float64(3),
								"cabin":         "Economy",
								"_additional": map[string]any{
									"certainty": float64(0.91),
								},
							},
						},
					},
				},
			},
			[]insightserver.Record{
				{
					ID:    "F-1001",
					Score: 0.91,
					Fields: map[string]any{
						"flight_number": "UA101",
						"aircraft":      "CRJ-700",
						"origin":        "ORD",
						"destination":   "DEN",
						"delay_minutes": 45.5,
						"food_score":    float64(3),
						"class":         "Economy",
						"text":          "the crew handled the delay well",
					},
				},
			},
			nil,
		},
	}

	for i, tc := range tests {
		t.Run(fmt.Sprintf("#%v_%v", i, tc.title), func(t *testing.T) {
			actual, err := decodeFeedbackResults(tc.given)
			if tc.expectedErr != nil {
				require.Error(t, err)
				assert.Equal(t, tc.expectedErr, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, actual)
		})
	}
}
