package preprocess

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aerostats/insightserver"
)

type stubGenerator struct {
	text string
	err  error
}

func (s *stubGenerator) Invoke(ctx context.Context, prompt, model string, temperature float64, maxTokens int) (insightserver.Generation, error) {
	if s.err != nil {
		return insightserver.Generation{}, s.err
	}
	return insightserver.Generation{Text: s.text}, nil
}

var testIntents = []string{
	"analytics.cx.global_avg",
	"analytics.ops.avg_delay_fleet",
}

func TestAdapter_ClassifyIntent(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		response string
		want     string
	}{
		{
			name:     "known intent",
			response: "analytics.ops.avg_delay_fleet",
			want:     "analytics.ops.avg_delay_fleet",
		},
		{
			name:     "quoted intent cleaned up",
			response: ` "analytics.cx.global_avg" `,
			want:     "analytics.cx.global_avg",
		},
		{
			name:     "unrecognized answer falls back to unknown",
			response: "the user wants delay statistics",
			want:     insightserver.IntentUnknown,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			adapter := New(&stubGenerator{text: tc.response}, testIntents)

			intent, err := adapter.ClassifyIntent(context.Background(), "how delayed are the regional jets?")

			require.NoError(t, err)
			assert.Equal(t, tc.want, intent)
		})
	}
}

func TestAdapter_ClassifyIntent_GeneratorError(t *testing.T) {
	t.Parallel()

	adapter := New(&stubGenerator{err: insightserver.ErrBackendUnavailable}, testIntents)

	_, err := adapter.ClassifyIntent(context.Background(), "anything")

	require.Error(t, err)
	assert.ErrorIs(t, err, insightserver.ErrBackendUnavailable)
}

func TestAdapter_ExtractEntities(t *testing.T) {
	t.Parallel()

	t.Run("plain json", func(t *testing.T) {
		t.Parallel()

		adapter := New(&stubGenerator{text: `{"min_delay": 60, "fleet_type": "CRJ-700"}`}, testIntents)

		entities, err := adapter.ExtractEntities(context.Background(), "delays over an hour on the CRJ", "analytics.ops.avg_delay_fleet")

		require.NoError(t, err)
		assert.Equal(t, map[string]string{
			"min_delay":  "60",
			"fleet_type": "CRJ-700",
		}, entities)
	})

	t.Run("fenced json", func(t *testing.T) {
		t.Parallel()

		adapter := New(&stubGenerator{text: "```json\n{\"passenger_class\": \"Business\"}\n```"}, testIntents)

		entities, err := adapter.ExtractEntities(context.Background(), "business class satisfaction", "analytics.cx.by_class")

		require.NoError(t, err)
		assert.Equal(t, map[string]string{"passenger_class": "Business"}, entities)
	})

	t.Run("unparsable json degrades to empty map", func(t *testing.T) {
		t.Parallel()

		adapter := New(&stubGenerator{text: "I could not find any parameters."}, testIntents)

		entities, err := adapter.ExtractEntities(context.Background(), "overall stats", "analytics.cx.global_avg")

		require.NoError(t, err)
		assert.Empty(t, entities)
	})
}
