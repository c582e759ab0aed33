package insightserver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFuse_DeduplicatesByPriority(t *testing.T) {
	t.Parallel()

	structured := RetrievalResult{
		Source: SourceStructured,
		Records: []Record{
			{ID: "1", Fields: map[string]any{"flight_number": "UA101"}},
			{ID: "2", Fields: map[string]any{"flight_number": "UA102"}},
		},
	}
	semantic := RetrievalResult{
		Source: SourceSemantic,
		Records: []Record{
			{ID: "2", Fields: map[string]any{"text": "late arrival"}, Score: 0.91},
			{ID: "3", Fields: map[string]any{"text": "lost luggage"}, Score: 0.84},
		},
	}
	generated := RetrievalResult{
		Source: SourceGenerated,
		Records: []Record{
			{ID: "1", Fields: map[string]any{"avg_delay": 16.63}},
		},
	}

	fused := Fuse(structured, semantic, generated)

	require.Len(t, fused, 3)

	// Record 1 survives only from the generated partition, record 2 only
	// from the structured one, record 3 only from the semantic one.
	assert.Equal(t, SourceGenerated, fused[0].Source)
	assert.Equal(t, "1", fused[0].Record.ID)
	assert.Equal(t, SourceStructured, fused[1].Source)
	assert.Equal(t, "2", fused[1].Record.ID)
	assert.Equal(t, SourceSemantic, fused[2].Source)
	assert.Equal(t, "3", fused[2].Record.ID)
}

func TestFuse_KeepsAllAggregates(t *testing.T) {
	t.Parallel()

	structured := RetrievalResult{
		Source: SourceStructured,
		Records: []Record{
			{Fields: map[string]any{"aircraft": "CRJ-700", "avg_delay": 16.63}},
			{Fields: map[string]any{"aircraft": "B777-200", "avg_delay": 12.4}},
		},
	}
	generated := RetrievalResult{
		Source: SourceGenerated,
		Records: []Record{
			{Fields: map[string]any{"aircraft": "CRJ-700", "avg_delay": 16.63}},
		},
	}

	fused := Fuse(structured, EmptyResult(SourceSemantic), generated)

	// Aggregates carry no identity, so identical rows from different
	// sources are never collapsed.
	assert.Len(t, fused, 3)
}

func TestFuse_DropsSemanticScoreOnOtherSources(t *testing.T) {
	t.Parallel()

	structured := RetrievalResult{
		Source: SourceStructured,
		Records: []Record{
			{ID: "7", Fields: map[string]any{"flight_number": "UA107"}, Score: 0.5},
		},
	}

	fused := Fuse(structured, EmptyResult(SourceSemantic), EmptyResult(SourceGenerated))

	require.Len(t, fused, 1)
	assert.Zero(t, fused[0].Record.Score)
}

func TestFuse_Idempotent(t *testing.T) {
	t.Parallel()

	structured := RetrievalResult{
		Source: SourceStructured,
		Records: []Record{
			{ID: "1", Fields: map[string]any{"flight_number": "UA101"}},
			{Fields: map[string]any{"avg_delay": 16.63}},
		},
	}
	semantic := RetrievalResult{
		Source: SourceSemantic,
		Records: []Record{
			{ID: "4", Fields: map[string]any{"text": "smooth flight"}, Score: 0.77},
		},
	}

	first := Fuse(structured, semantic, EmptyResult(SourceGenerated))
	second := Fuse(structured, semantic, EmptyResult(SourceGenerated))

	assert.Equal(t, first, second)
}

func TestFuse_AllEmpty(t *testing.T) {
	t.Parallel()

	fused := Fuse(
		EmptyResult(SourceStructured),
		EmptyResult(SourceSemantic),
		EmptyResult(SourceGenerated),
	)

	assert.Empty(t, fused)
}

func TestFusedContext_Sources(t *testing.T) {
	t.Parallel()

	fused := FusedContext{
		{Source: SourceSemantic, Record: Record{ID: "3"}},
		{Source: SourceStructured, Record: Record{ID: "1"}},
	}

	assert.Equal(t, []Source{SourceStructured, SourceSemantic}, fused.Sources())
}
