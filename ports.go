package insightserver

import (
	"context"
	"database/sql"
)

// Vector is an embedding of a piece of text.
type Vector []float32

// StructuredQuerier answers a classified intent with exact records from the
// operational dataset.
type StructuredQuerier interface {
	Name() string
	Intents() []string
	RunStructuredQuery(ctx context.Context, intent string, entities map[string]string) (RetrievalResult, error)
}

// SemanticSearcher finds passenger feedback near the query by vector
// similarity.
type SemanticSearcher interface {
	Name() string
	RunSemanticSearch(ctx context.Context, query string, topK int) (RetrievalResult, error)
}

// GeneratedQuerier turns a free-form question into an ad hoc read-only
// query against the dataset and runs it.
type GeneratedQuerier interface {
	RunGeneratedQuery(ctx context.Context, query string) (RetrievalResult, error)
}

// Preprocessor classifies a question's intent and pulls out the entities
// the structured queries need.
type Preprocessor interface {
	ClassifyIntent(ctx context.Context, query string) (string, error)
	ExtractEntities(ctx context.Context, query, intent string) (map[string]string, error)
}

// Generation is the raw output of a single model call.
type Generation struct {
	Text      string
	TokensIn  int
	TokensOut int
}

// Generator is a text generation backend able to serve multiple models.
type Generator interface {
	Invoke(ctx context.Context, prompt, model string, temperature float64, maxTokens int) (Generation, error)
}

// Embedder encodes text as a vector.
type Embedder interface {
	Name() string
	EmbedContent(ctx context.Context, content string) (Vector, error)
}

type Transactional interface {
	Transactional(ctx context.Context, opts *sql.TxOptions, fn func(ctx context.Context) error) error
}

// ReportStore persists finished comparison runs.
type ReportStore interface {
	Transactional
	SaveReport(ctx context.Context, snapshot ReportSnapshot) error
	ListReports(ctx context.Context, params SortParams) ([]ReportSnapshot, error)
	FindReport(ctx context.Context, id RunID) (ReportSnapshot, error)
}
