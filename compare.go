package insightserver

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Compare runs every query against every model and accumulates a scored
// comparison. One model failing on one query is recorded in the report and
// never aborts the batch; the finished report is persisted before being
// returned.
func (is *insightServer) Compare(ctx context.Context, queries, models []string) (ReportSnapshot, error) {
	if len(models) == 0 {
		return ReportSnapshot{}, fmt.Errorf("%w: no models", ErrInvalidInput)
	}

	// Report entries are keyed by query text, so a repeated query would fold
	// into the first occurrence's entry. Run each distinct query once.
	cleaned := make([]string, 0, len(queries))
	seen := make(map[string]struct{}, len(queries))
	for _, query := range queries {
		q := strings.TrimSpace(query)
		if q == "" {
			continue
		}
		if _, ok := seen[q]; ok {
			continue
		}
		seen[q] = struct{}{}
		cleaned = append(cleaned, q)
	}
	if len(cleaned) == 0 {
		return ReportSnapshot{}, fmt.Errorf("%w: no queries", ErrInvalidInput)
	}

	report := NewComparisonReport()

	for _, query := range cleaned {
		if err := ctx.Err(); err != nil {
			return ReportSnapshot{}, err
		}

		intent, entities := is.preprocess(ctx, query)
		fused := Fuse(is.retrieve(ctx, query, intent, entities))
		rendered := is.renderer.Render(fused)

		prompt, err := is.prompts.Synthesize(query, rendered)
		if err != nil {
			return ReportSnapshot{}, err
		}

		results, err := is.dispatcher.DispatchAll(ctx, prompt, models)
		if err != nil {
			return ReportSnapshot{}, err
		}

		for model, result := range results {
			entry := ModelResult{Model: model}
			if result.Err != nil {
				entry.Err = result.Err.Error()
				is.logger.Warn(
					"model failed during comparison",
					zap.String("model", model),
					zap.String("query", query),
					zap.Error(result.Err),
				)
			} else {
				evaluation := is.evaluator.Evaluate(query, result.Response.Text, rendered)
				entry.Response = result.Response
				entry.Evaluation = &evaluation
			}
			report.Append(query, len(rendered), entry)
		}
	}

	snapshot := report.Snapshot()

	if is.store != nil {
		if err := is.store.SaveReport(ctx, snapshot); err != nil {
			return ReportSnapshot{}, fmt.Errorf("save report %s: %w", snapshot.ID, err)
		}
	}

	return snapshot, nil
}

// ListReports returns persisted comparison runs, newest first by default.
func (is *insightServer) ListReports(ctx context.Context, params SortParams) ([]ReportSnapshot, error) {
	if is.store == nil {
		return nil, nil
	}
	if params.Empty() {
		params = SortParams{By: "started_at", Order: SortOrderDesc, Limit: 20}
	}
	if !params.Valid([]string{"started_at", "id"}) {
		return nil, fmt.Errorf("%w: invalid sort params", ErrInvalidInput)
	}
	return is.store.ListReports(ctx, params)
}

// FindReport loads a single persisted comparison run.
func (is *insightServer) FindReport(ctx context.Context, id RunID) (ReportSnapshot, error) {
	if is.store == nil {
		return ReportSnapshot{}, ErrNotFound
	}
	return is.store.FindReport(ctx, id)
}
