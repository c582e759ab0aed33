package rest

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/aerostats/insightserver"
)

type InsightServer interface {
	Answer(ctx context.Context, query string) (*insightserver.InsightAnswer, error)
	Compare(ctx context.Context, queries, models []string) (insightserver.ReportSnapshot, error)
	ListReports(ctx context.Context, params insightserver.SortParams) ([]insightserver.ReportSnapshot, error)
	FindReport(ctx context.Context, id insightserver.RunID) (insightserver.ReportSnapshot, error)
}

type Adapter struct {
	insightServer InsightServer
	logger        *zap.Logger
}

type Option func(*Adapter)

func WithLogger(logger *zap.Logger) Option {
	return func(a *Adapter) {
		a.logger = logger
	}
}

func New(insightServer InsightServer, options ...Option) *Adapter {
	a := &Adapter{
		insightServer: insightServer,
		logger:        zap.NewNop(),
	}

	for _, o := range options {
		o(a)
	}

	return a
}

const (
	defaultTimeout = 3 * time.Second

	// Answering and comparing call out to generation models, so those
	// handlers get a much larger budget than plain reads.
	answerTimeout  = 2 * time.Minute
	compareTimeout = 15 * time.Minute
)

// Routes registers all handlers on a fresh mux.
func (a *Adapter) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /v1/query", a.CreateAnswer)
	mux.HandleFunc("POST /v1/comparisons", a.CreateComparison)
	mux.HandleFunc("GET /v1/comparisons", a.ListComparisons)
	mux.HandleFunc("GET /v1/comparisons/{id}", a.GetComparisonById)

	return mux
}
