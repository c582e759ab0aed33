package insightserver

import (
	"time"

	"go.uber.org/zap"
)

const (
	defaultModel = "llama-3.1-8b-instant"
	defaultTopK  = 5
)

type clock func() time.Time

type insightServer struct {
	preprocessor Preprocessor
	structured   StructuredQuerier
	semantic     SemanticSearcher
	generated    GeneratedQuerier
	renderer     *Renderer
	prompts      *PromptBuilder
	dispatcher   *Dispatcher
	evaluator    *Evaluator
	store        ReportStore
	now          clock
	logger       *zap.Logger
	model        string
	topK         int
}

type Option func(*insightServer)

func WithDefaultModel(model string) Option {
	return func(is *insightServer) {
		if model != "" {
			is.model = model
		}
	}
}

func WithTopK(topK int) Option {
	return func(is *insightServer) {
		if topK > 0 {
			is.topK = topK
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(is *insightServer) {
		is.logger = logger
	}
}

func New(
	preprocessor Preprocessor,
	structured StructuredQuerier,
	semantic SemanticSearcher,
	generated GeneratedQuerier,
	renderer *Renderer,
	prompts *PromptBuilder,
	dispatcher *Dispatcher,
	evaluator *Evaluator,
	storeAdapter ReportStore,
	options ...Option,
) *insightServer {
	is := &insightServer{
		preprocessor: preprocessor,
		structured:   structured,
		semantic:     semantic,
		generated:    generated,
		renderer:     renderer,
		prompts:      prompts,
		dispatcher:   dispatcher,
		evaluator:    evaluator,
		store:        storeAdapter,
		now:          func() time.Time { return time.Now().UTC() },
		logger:       zap.NewNop(),
		model:        defaultModel,
		topK:         defaultTopK,
	}

	for _, o := range options {
		o(is)
	}

	return is
}
