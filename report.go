package insightserver

import (
	"sort"
	"sync"
	"time"
)

// ModelResult is one model's outcome for one query. Either Response and
// Evaluation are set, or Err carries the failure.
type ModelResult struct {
	Model      string            `json:"model"`
	Response   *ModelResponse    `json:"response,omitempty"`
	Evaluation *EvaluationRecord `json:"evaluation,omitempty"`
	Err        string            `json:"error,omitempty"`
}

// QueryComparison groups every model's result for a single query.
type QueryComparison struct {
	Query       string                 `json:"query"`
	ContextSize int                    `json:"context_size"`
	Models      map[string]ModelResult `json:"models"`
}

// ModelSummary aggregates a model's results across all queries in a run.
type ModelSummary struct {
	Model              string        `json:"model"`
	Queries            int           `json:"queries"`
	Failures           int           `json:"failures"`
	AvgLatency         time.Duration `json:"avg_latency"`
	AvgWordCount       float64       `json:"avg_word_count"`
	AvgRelevance       float64       `json:"avg_relevance"`
	AvgGrounding       float64       `json:"avg_grounding"`
	AvgCompleteness    float64       `json:"avg_completeness"`
	AvgClarity         float64       `json:"avg_clarity"`
	AvgNoHallucination float64       `json:"avg_no_hallucination"`
	AvgAggregate       float64       `json:"avg_aggregate"`
}

// ReportSnapshot is a point-in-time copy of a comparison run, safe to
// persist or serve while the run continues.
type ReportSnapshot struct {
	ID        RunID             `json:"id"`
	StartedAt time.Time         `json:"started_at"`
	Queries   []QueryComparison `json:"queries"`
	Summary   []ModelSummary    `json:"summary"`
}

// ComparisonReport accumulates model results as a batch comparison runs.
// Append-only; safe for concurrent appends from dispatch goroutines.
type ComparisonReport struct {
	mu        sync.Mutex
	id        RunID
	startedAt time.Time
	queries   []*QueryComparison
}

func NewComparisonReport() *ComparisonReport {
	return &ComparisonReport{
		id:        NewRunID(),
		startedAt: time.Now().UTC(),
	}
}

func (r *ComparisonReport) ID() RunID {
	return r.id
}

// Append records one model's result for a query, creating the query entry
// on first sight. Results are never overwritten or removed.
func (r *ComparisonReport) Append(query string, contextSize int, result ModelResult) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var entry *QueryComparison
	for _, q := range r.queries {
		if q.Query == query {
			entry = q
			break
		}
	}
	if entry == nil {
		entry = &QueryComparison{
			Query:       query,
			ContextSize: contextSize,
			Models:      make(map[string]ModelResult),
		}
		r.queries = append(r.queries, entry)
	}

	if _, exists := entry.Models[result.Model]; !exists {
		entry.Models[result.Model] = result
	}
}

// Summary computes per-model means over successful results, sorted into the
// run's ranking: aggregate quality descending, ties broken by lower mean
// latency.
func (r *ComparisonReport) Summary() []ModelSummary {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.summaryLocked()
}

func (r *ComparisonReport) summaryLocked() []ModelSummary {
	totals := make(map[string]*ModelSummary)
	counts := make(map[string]int)
	latencies := make(map[string]time.Duration)

	for _, q := range r.queries {
		for model, result := range q.Models {
			summary, ok := totals[model]
			if !ok {
				summary = &ModelSummary{Model: model}
				totals[model] = summary
			}
			summary.Queries++

			if result.Err != "" || result.Response == nil || result.Evaluation == nil {
				summary.Failures++
				continue
			}

			counts[model]++
			latencies[model] += result.Response.Latency
			summary.AvgWordCount += float64(result.Response.WordCount)
			summary.AvgRelevance += result.Evaluation.Relevance
			summary.AvgGrounding += result.Evaluation.Grounding
			summary.AvgCompleteness += result.Evaluation.Completeness
			summary.AvgClarity += result.Evaluation.Clarity
			summary.AvgNoHallucination += result.Evaluation.NoHallucination
			summary.AvgAggregate += result.Evaluation.Aggregate
		}
	}

	summaries := make([]ModelSummary, 0, len(totals))
	for model, summary := range totals {
		if n := counts[model]; n > 0 {
			divisor := float64(n)
			summary.AvgLatency = latencies[model] / time.Duration(n)
			summary.AvgWordCount /= divisor
			summary.AvgRelevance /= divisor
			summary.AvgGrounding /= divisor
			summary.AvgCompleteness /= divisor
			summary.AvgClarity /= divisor
			summary.AvgNoHallucination /= divisor
			summary.AvgAggregate /= divisor
		}
		summaries = append(summaries, *summary)
	}

	sort.SliceStable(summaries, func(i, j int) bool {
		if summaries[i].AvgAggregate != summaries[j].AvgAggregate {
			return summaries[i].AvgAggregate > summaries[j].AvgAggregate
		}
		if summaries[i].AvgLatency != summaries[j].AvgLatency {
			return summaries[i].AvgLatency < summaries[j].AvgLatency
		}
		return summaries[i].Model < summaries[j].Model
	})

	return summaries
}

// ReportFromSnapshot rebuilds a report from persisted query results, for
// example to recompute the summary after loading a run from storage.
func ReportFromSnapshot(snapshot ReportSnapshot) *ComparisonReport {
	report := &ComparisonReport{
		id:        snapshot.ID,
		startedAt: snapshot.StartedAt,
	}
	for _, q := range snapshot.Queries {
		for _, result := range q.Models {
			report.Append(q.Query, q.ContextSize, result)
		}
	}
	return report
}

// Snapshot deep-copies the run for persistence or serving.
func (r *ComparisonReport) Snapshot() ReportSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	queries := make([]QueryComparison, 0, len(r.queries))
	for _, q := range r.queries {
		models := make(map[string]ModelResult, len(q.Models))
		for model, result := range q.Models {
			models[model] = result
		}
		queries = append(queries, QueryComparison{
			Query:       q.Query,
			ContextSize: q.ContextSize,
			Models:      models,
		})
	}

	return ReportSnapshot{
		ID:        r.id,
		StartedAt: r.startedAt,
		Queries:   queries,
		Summary:   r.summaryLocked(),
	}
}
