package insightserver

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	defaultConcurrencyLimit = 3
	defaultCallTimeout      = 60 * time.Second
	defaultMaxOutputTokens  = 1024
)

// ModelResponse is a single model's answer together with its measured cost.
// Latency is wall-clock time around the backend call, network included.
type ModelResponse struct {
	Model      string        `json:"model"`
	Text       string        `json:"text"`
	Latency    time.Duration `json:"latency"`
	WordCount  int           `json:"word_count"`
	CharCount  int           `json:"char_count"`
	TokensIn   int           `json:"tokens_in,omitempty"`
	TokensOut  int           `json:"tokens_out,omitempty"`
	FinishedAt time.Time     `json:"finished_at"`
}

// DispatchResult holds either a response or the error that prevented one.
type DispatchResult struct {
	Response *ModelResponse
	Err      error
}

// Dispatcher fans a prompt out to one or more models on a generation
// backend, bounding concurrency and applying a per-call timeout.
type Dispatcher struct {
	backend     Generator
	limit       int
	callTimeout time.Duration
	maxTokens   int
	temperature float64
	logger      *zap.Logger
}

type DispatcherOption func(*Dispatcher)

func WithConcurrencyLimit(limit int) DispatcherOption {
	return func(d *Dispatcher) {
		if limit > 0 {
			d.limit = limit
		}
	}
}

func WithCallTimeout(timeout time.Duration) DispatcherOption {
	return func(d *Dispatcher) {
		if timeout > 0 {
			d.callTimeout = timeout
		}
	}
}

func WithMaxOutputTokens(maxTokens int) DispatcherOption {
	return func(d *Dispatcher) {
		if maxTokens > 0 {
			d.maxTokens = maxTokens
		}
	}
}

func WithTemperature(temperature float64) DispatcherOption {
	return func(d *Dispatcher) {
		d.temperature = temperature
	}
}

func WithDispatcherLogger(logger *zap.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

func NewDispatcher(backend Generator, options ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		backend:     backend,
		limit:       defaultConcurrencyLimit,
		callTimeout: defaultCallTimeout,
		maxTokens:   defaultMaxOutputTokens,
		temperature: 0.1,
		logger:      zap.NewNop(),
	}

	for _, o := range options {
		o(d)
	}

	return d
}

// Dispatch sends the prompt to a single model. A call that outlives the
// per-call timeout fails with ErrTimeout; there is no automatic retry.
func (d *Dispatcher) Dispatch(ctx context.Context, prompt, model string) (*ModelResponse, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, fmt.Errorf("%w: empty prompt", ErrInvalidInput)
	}
	if strings.TrimSpace(model) == "" {
		return nil, fmt.Errorf("%w: empty model", ErrInvalidInput)
	}

	callCtx, cancel := context.WithTimeout(ctx, d.callTimeout)
	defer cancel()

	began := time.Now()
	generation, err := d.backend.Invoke(callCtx, prompt, model, d.temperature, d.maxTokens)
	latency := time.Since(began)

	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			err = fmt.Errorf("%w: model %s after %s", ErrTimeout, model, latency.Round(time.Millisecond))
		}
		d.logger.Warn(
			"model call failed",
			zap.String("model", model),
			zap.Duration("latency", latency),
			zap.Error(err),
		)
		return nil, err
	}

	return &ModelResponse{
		Model:      model,
		Text:       generation.Text,
		Latency:    latency,
		WordCount:  len(strings.Fields(generation.Text)),
		CharCount:  len(generation.Text),
		TokensIn:   generation.TokensIn,
		TokensOut:  generation.TokensOut,
		FinishedAt: time.Now().UTC(),
	}, nil
}

// DispatchAll sends the prompt to every model concurrently and returns one
// entry per model. A failed model never hides the others' responses.
func (d *Dispatcher) DispatchAll(ctx context.Context, prompt string, models []string) (map[string]DispatchResult, error) {
	if len(models) == 0 {
		return nil, fmt.Errorf("%w: no models", ErrInvalidInput)
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		results   = make(map[string]DispatchResult, len(models))
		semaphore = make(chan struct{}, d.limit)
	)

	for _, model := range models {
		wg.Add(1)
		go func(model string) {
			defer wg.Done()

			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			response, err := d.Dispatch(ctx, prompt, model)

			mu.Lock()
			results[model] = DispatchResult{Response: response, Err: err}
			mu.Unlock()
		}(model)
	}

	wg.Wait()

	return results, nil
}
