package insightserver

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// InsightAnswer is the full trace of one answered question, from the
// classified intent down to the scored model response.
type InsightAnswer struct {
	ID         QueryID           `json:"id"`
	Query      string            `json:"query"`
	Intent     string            `json:"intent"`
	Entities   map[string]string `json:"entities,omitempty"`
	Context    string            `json:"context"`
	Prompt     string            `json:"-"`
	Response   *ModelResponse    `json:"response"`
	Evaluation EvaluationRecord  `json:"evaluation"`
	CreatedAt  time.Time         `json:"created_at"`
}

// Answer runs one question through the whole pipeline with the server's
// default model. Retrieval backends degrade to empty results on failure;
// only an invalid question or a failed generation aborts the call.
func (is *insightServer) Answer(ctx context.Context, query string) (*InsightAnswer, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: empty query", ErrInvalidInput)
	}

	intent, entities := is.preprocess(ctx, query)
	fused := Fuse(is.retrieve(ctx, query, intent, entities))
	rendered := is.renderer.Render(fused)

	prompt, err := is.prompts.Synthesize(query, rendered)
	if err != nil {
		return nil, err
	}

	response, err := is.dispatcher.Dispatch(ctx, prompt, is.model)
	if err != nil {
		return nil, fmt.Errorf("dispatch %s: %w", is.model, err)
	}

	return &InsightAnswer{
		ID:         NewQueryID(),
		Query:      query,
		Intent:     intent,
		Entities:   entities,
		Context:    rendered,
		Prompt:     prompt,
		Response:   response,
		Evaluation: is.evaluator.Evaluate(query, response.Text, rendered),
		CreatedAt:  is.now(),
	}, nil
}

// preprocess classifies the question and extracts entities, falling back
// to an unknown intent when the preprocessor is absent or failing.
func (is *insightServer) preprocess(ctx context.Context, query string) (string, map[string]string) {
	if is.preprocessor == nil {
		return IntentUnknown, nil
	}

	intent, err := is.preprocessor.ClassifyIntent(ctx, query)
	if err != nil {
		is.logger.Warn("intent classification failed", zap.Error(err))
		return IntentUnknown, nil
	}

	entities, err := is.preprocessor.ExtractEntities(ctx, query, intent)
	if err != nil {
		is.logger.Warn("entity extraction failed", zap.String("intent", intent), zap.Error(err))
		return intent, nil
	}

	return intent, entities
}

// retrieve fans the question out to all configured backends. Each backend
// failure is logged and replaced with an empty result so the pipeline
// always has something to fuse.
func (is *insightServer) retrieve(ctx context.Context, query, intent string, entities map[string]string) (structured, semantic, generated RetrievalResult) {
	structured = EmptyResult(SourceStructured)
	semantic = EmptyResult(SourceSemantic)
	generated = EmptyResult(SourceGenerated)

	if is.structured != nil {
		result, err := is.structured.RunStructuredQuery(ctx, intent, entities)
		if err != nil {
			is.logger.Warn(
				"structured retrieval failed",
				zap.String("backend", is.structured.Name()),
				zap.String("intent", intent),
				zap.Error(err),
			)
		} else {
			structured = result
		}
	}

	if is.semantic != nil {
		result, err := is.semantic.RunSemanticSearch(ctx, query, is.topK)
		if err != nil {
			is.logger.Warn(
				"semantic retrieval failed",
				zap.String("backend", is.semantic.Name()),
				zap.Error(err),
			)
		} else {
			semantic = result
		}
	}

	if is.generated != nil {
		result, err := is.generated.RunGeneratedQuery(ctx, query)
		if err != nil {
			is.logger.Warn("generated retrieval failed", zap.Error(err))
		} else {
			generated = result
		}
	}

	return structured, semantic, generated
}
