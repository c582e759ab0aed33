package insightserver

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleContext = "=== OPERATIONAL RECORDS ===\n- aircraft: CRJ-700, avg_delay: 16.63, journeys: 1247"

func TestEvaluator_Evaluate_ScoresStayInBounds(t *testing.T) {
	t.Parallel()

	evaluator := NewEvaluator()

	tests := []struct {
		name    string
		query   string
		answer  string
		context string
	}{
		{
			name:    "grounded answer",
			query:   "Which aircraft types have the highest average delay?",
			answer:  "Based on the data, the CRJ-700 aircraft has the highest average delay of 16.63 minutes.",
			context: sampleContext,
		},
		{
			name:    "everything empty",
			query:   "",
			answer:  "",
			context: "",
		},
		{
			name:    "absolute claims without data",
			answer:  "All flights are always late and every aircraft must be replaced.",
			query:   "Are flights late?",
			context: "",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			record := evaluator.Evaluate(tt.query, tt.answer, tt.context)
			for name, score := range map[string]float64{
				"relevance":        record.Relevance,
				"grounding":        record.Grounding,
				"completeness":     record.Completeness,
				"clarity":          record.Clarity,
				"no_hallucination": record.NoHallucination,
				"aggregate":        record.Aggregate,
			} {
				assert.GreaterOrEqual(t, score, 0.0, name)
				assert.LessOrEqual(t, score, 1.0, name)
			}
		})
	}
}

func TestEvaluator_Relevance(t *testing.T) {
	t.Parallel()

	evaluator := NewEvaluator()

	tests := []struct {
		name   string
		query  string
		answer string
		want   float64
	}{
		{
			name:   "most keywords covered",
			query:  "Which aircraft types have the highest average delay?",
			answer: "The CRJ-700 aircraft has the highest average delay in the data.",
			want:   0.8,
		},
		{
			name:   "no content keywords in query",
			query:  "What is this?",
			answer: "Some answer.",
			want:   0.5,
		},
		{
			name:   "empty answer",
			query:  "Which aircraft types have the highest average delay?",
			answer: "",
			want:   0,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			record := evaluator.Evaluate(tt.query, tt.answer, sampleContext)
			assert.InDelta(t, tt.want, record.Relevance, 1e-9)
		})
	}
}

func TestEvaluator_Grounding(t *testing.T) {
	t.Parallel()

	evaluator := NewEvaluator()

	tests := []struct {
		name    string
		answer  string
		context string
		want    float64
	}{
		{
			name:    "rounded number counts as grounded",
			answer:  "The CRJ-700 averages 16.6 minutes across 1247 journeys.",
			context: sampleContext,
			want:    1.0,
		},
		{
			name:    "exact numbers",
			answer:  "The average delay is 16.63 minutes.",
			context: sampleContext,
			want:    1.0,
		},
		{
			name:    "half the numbers invented",
			answer:  "The delays are 16.63 and 99.9 minutes.",
			context: sampleContext,
			want:    0.5,
		},
		{
			name:    "no numbers in answer",
			answer:  "Delays are generally moderate for regional jets.",
			context: sampleContext,
			want:    0.7,
		},
		{
			name:    "numbers with numeric free context",
			answer:  "The delay is 42 minutes.",
			context: "aircraft delays vary by route",
			want:    0.3,
		},
		{
			name:    "empty context",
			answer:  "The delay is 42 minutes.",
			context: "",
			want:    0,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			record := evaluator.Evaluate("irrelevant", tt.answer, tt.context)
			assert.InDelta(t, tt.want, record.Grounding, 1e-9)
		})
	}
}

func TestEvaluator_Completeness(t *testing.T) {
	t.Parallel()

	evaluator := NewEvaluator()

	tests := []struct {
		name  string
		words int
		want  float64
	}{
		{name: "too short", words: 5, want: 0.3},
		{name: "brief", words: 20, want: 0.6},
		{name: "good length", words: 100, want: 1.0},
		{name: "a bit long", words: 200, want: 0.8},
		{name: "too verbose", words: 300, want: 0.6},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			answer := strings.TrimSpace(strings.Repeat("delay ", tt.words))
			record := evaluator.Evaluate("query", answer, sampleContext)
			assert.InDelta(t, tt.want, record.Completeness, 1e-9)
		})
	}
}

func TestEvaluator_Clarity(t *testing.T) {
	t.Parallel()

	evaluator := NewEvaluator()

	tests := []struct {
		name   string
		answer string
		want   float64
	}{
		{
			name:   "well formed sentences",
			answer: "The CRJ-700 aircraft shows the highest delays in the dataset. Its average sits well above the fleet norm.",
			want:   1.0,
		},
		{
			name:   "fragmented",
			answer: "Late. Very late. Bad.",
			want:   0.7,
		},
		{
			name:   "error wording",
			answer: "An error occurred and the system was unable to retrieve the requested delay figures today.",
			want:   0.8,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			record := evaluator.Evaluate("query", tt.answer, sampleContext)
			assert.InDelta(t, tt.want, record.Clarity, 1e-9)
		})
	}
}

func TestEvaluator_NoHallucination(t *testing.T) {
	t.Parallel()

	evaluator := NewEvaluator()

	tests := []struct {
		name    string
		answer  string
		context string
		want    float64
	}{
		{
			name:    "neutral answer",
			answer:  "The CRJ-700 shows the highest delays.",
			context: sampleContext,
			want:    0.7,
		},
		{
			name:    "hedged answer",
			answer:  "Based on the data, the CRJ-700 shows the highest delays.",
			context: sampleContext,
			want:    0.9,
		},
		{
			name:    "absolute claims",
			answer:  "The CRJ-700 is always delayed on every route.",
			context: sampleContext,
			want:    0.4,
		},
		{
			name:    "hedged and absolute",
			answer:  "According to the data, the CRJ-700 is always delayed.",
			context: sampleContext,
			want:    0.6,
		},
		{
			name:    "absolute word inside larger word does not fire",
			answer:  "Overall the CRJ-700 leads the delay figures.",
			context: sampleContext,
			want:    0.7,
		},
		{
			name:    "admits missing data on empty context",
			answer:  "There is no data available to answer this question.",
			context: "",
			want:    1.0,
		},
		{
			name:    "empty answer",
			answer:  "",
			context: sampleContext,
			want:    1.0,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			record := evaluator.Evaluate("query", tt.answer, tt.context)
			assert.InDelta(t, tt.want, record.NoHallucination, 1e-9)
		})
	}
}

func TestEvaluator_Assessment(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Excellent", assessment(0.85))
	assert.Equal(t, "Good", assessment(0.65))
	assert.Equal(t, "Fair", assessment(0.45))
	assert.Equal(t, "Poor", assessment(0.2))
}

func TestNumbersMatch(t *testing.T) {
	t.Parallel()

	tests := []struct {
		a, b string
		want bool
	}{
		{a: "16.63", b: "16.63", want: true},
		{a: "16.6", b: "16.63", want: true},
		{a: "16.63", b: "16.6", want: true},
		{a: "16", b: "16.63", want: false},
		{a: "16", b: "160", want: false},
		{a: "1247", b: "1247", want: true},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, numbersMatch(tt.a, tt.b), "%s vs %s", tt.a, tt.b)
	}
}

func TestEvaluator_WithSentenceTokenizer(t *testing.T) {
	t.Parallel()

	// Without trained data the evaluator still splits on periods.
	evaluator := NewEvaluator(WithSentenceTokenizer(nil))
	record := evaluator.Evaluate(
		"Which aircraft types have the highest average delay?",
		"Based on the data, the CRJ-700 aircraft has the highest average delay of 16.63 minutes.",
		sampleContext,
	)

	require.Equal(t, 1.0, record.Clarity)
	assert.Equal(t, "Excellent", record.Assessment)
}
