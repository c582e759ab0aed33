package ollama

import (
	"net/http"
	"time"

	"go.uber.org/zap"
)

const defaultBaseURL = "http://localhost:11434"

// Adapter talks to a local Ollama instance via its REST API. One instance
// serves every model pulled into it, so a single adapter backs whole model
// comparison runs.
type Adapter struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

type Option func(*Adapter)

func WithBaseURL(baseURL string) Option {
	return func(a *Adapter) {
		a.baseURL = baseURL
	}
}

func WithHTTPClient(client *http.Client) Option {
	return func(a *Adapter) {
		a.httpClient = client
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(a *Adapter) {
		a.logger = logger
	}
}

func New(options ...Option) *Adapter {
	a := &Adapter{
		baseURL: defaultBaseURL,
		httpClient: &http.Client{
			Timeout: 5 * time.Minute,
		},
		logger: zap.NewNop(),
	}

	for _, o := range options {
		o(a)
	}

	a.logger.Sugar().With("base url", a.baseURL).Info("init ollama adapter")

	return a
}

const adapterName = "ollama"

func (a *Adapter) Name() string {
	return adapterName
}
