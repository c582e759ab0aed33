package insightserver

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderer_Render_Sections(t *testing.T) {
	t.Parallel()

	fused := FusedContext{
		{Source: SourceGenerated, Record: Record{Fields: map[string]any{"aircraft": "CRJ-700", "avg_delay": 16.63}}},
		{Source: SourceStructured, Record: Record{ID: "1", Fields: map[string]any{"flight_number": "UA101", "delay": 45}}},
		{Source: SourceSemantic, Record: Record{ID: "3", Fields: map[string]any{"text": "the crew handled the delay well"}, Score: 0.872}},
	}

	rendered := NewRenderer().Render(fused)

	assert.Contains(t, rendered, "=== ADDITIONAL ANALYSIS ===")
	assert.Contains(t, rendered, "=== OPERATIONAL RECORDS ===")
	assert.Contains(t, rendered, "=== RELATED PASSENGER FEEDBACK ===")

	// Analysis section comes first, feedback last.
	analysis := strings.Index(rendered, "ADDITIONAL ANALYSIS")
	records := strings.Index(rendered, "OPERATIONAL RECORDS")
	feedback := strings.Index(rendered, "RELATED PASSENGER FEEDBACK")
	assert.Less(t, analysis, records)
	assert.Less(t, records, feedback)
}

func TestRenderer_Render_NumbersStayExact(t *testing.T) {
	t.Parallel()

	fused := FusedContext{
		{Source: SourceStructured, Record: Record{Fields: map[string]any{"avg_delay": 16.63, "journeys": 1247}}},
	}

	rendered := NewRenderer().Render(fused)

	assert.Contains(t, rendered, "avg_delay: 16.63")
	assert.Contains(t, rendered, "journeys: 1247")
}

func TestRenderer_Render_NeverNamesRetrievalInternals(t *testing.T) {
	t.Parallel()

	fused := FusedContext{
		{Source: SourceStructured, Record: Record{ID: "1", Fields: map[string]any{
			"flight_number": "UA101",
			"intent":        "highest_avg_delay",
			"generated_sql": "select aircraft from journeys",
			"method":        "baseline",
		}}},
		{Source: SourceSemantic, Record: Record{ID: "2", Fields: map[string]any{"text": "long wait at the gate"}, Score: 0.8}},
		{Source: SourceGenerated, Record: Record{Fields: map[string]any{"avg_delay": 16.63}}},
	}

	rendered := strings.ToLower(NewRenderer().Render(fused))

	for _, leaked := range []string{"sql", "cypher", "embedding", "vector", "semantic", "structured query", "intent", "baseline"} {
		assert.NotContains(t, rendered, leaked)
	}
	assert.Contains(t, rendered, "flight_number: ua101")
}

func TestRenderer_Render_EmptyContext(t *testing.T) {
	t.Parallel()

	assert.Equal(t, NoDataMessage, NewRenderer().Render(nil))
	assert.Equal(t, NoDataMessage, NewRenderer().Render(FusedContext{}))
}

func TestRenderer_Render_TruncatesLowestSimilarityFirst(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("the seats were uncomfortable and the flight was late ", 4)
	fused := FusedContext{
		{Source: SourceStructured, Record: Record{ID: "1", Fields: map[string]any{"flight_number": "UA101"}}},
		{Source: SourceSemantic, Record: Record{ID: "2", Fields: map[string]any{"text": long}, Score: 0.95}},
		{Source: SourceSemantic, Record: Record{ID: "3", Fields: map[string]any{"text": long}, Score: 0.41}},
	}

	rendered := NewRenderer(WithMaxContextLen(350)).Render(fused)

	// The lowest scoring record goes first; exact rows are kept.
	assert.Contains(t, rendered, "flight_number: UA101")
	assert.Contains(t, rendered, "(match 0.95)")
	assert.NotContains(t, rendered, "(match 0.41)")
}

func TestRenderer_Render_TruncatesAggregatesBeforeExactRows(t *testing.T) {
	t.Parallel()

	wide := map[string]any{"note": strings.Repeat("x", 200)}
	fused := FusedContext{
		{Source: SourceGenerated, Record: Record{Fields: wide}},
		{Source: SourceStructured, Record: Record{ID: "1", Fields: map[string]any{"flight_number": "UA101"}}},
		{Source: SourceStructured, Record: Record{Fields: wide}},
	}

	rendered := NewRenderer(WithMaxContextLen(300)).Render(fused)

	require.Contains(t, rendered, "flight_number: UA101")
	// The structured aggregate is dropped before the generated one.
	assert.NotContains(t, rendered, "=== OPERATIONAL RECORDS ===\n- note:")
}

func TestRenderer_Render_KeepsLastRecord(t *testing.T) {
	t.Parallel()

	fused := FusedContext{
		{Source: SourceStructured, Record: Record{ID: "1", Fields: map[string]any{"note": strings.Repeat("x", 500)}}},
	}

	rendered := NewRenderer(WithMaxContextLen(100)).Render(fused)

	// A single record is never truncated away entirely.
	assert.Contains(t, rendered, "note:")
}
