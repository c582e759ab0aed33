package weaviate

import (
	"context"
	"fmt"

	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate/entities/models"
	"go.uber.org/zap"

	"github.com/aerostats/insightserver"
)

type Adapter struct {
	client   *weaviate.Client
	embedder insightserver.Embedder
	logger   *zap.Logger
}

type Option func(*Adapter)

func WithLogger(logger *zap.Logger) Option {
	return func(a *Adapter) {
		a.logger = logger
	}
}

func New(ctx context.Context, client *weaviate.Client, embedder insightserver.Embedder, options ...Option) (*Adapter, error) {
	a := &Adapter{
		client:   client,
		embedder: embedder,
		logger:   zap.NewNop(),
	}

	for _, o := range options {
		o(a)
	}

	return a, a.init(ctx)
}

const className = "JourneyFeedback"

const adapterName = "weaviate"

func (a *Adapter) Name() string {
	return adapterName
}

func (a *Adapter) init(ctx context.Context) error {
	// Create a new class (collection) in weaviate if it doesn't exist yet.
	cls := &models.Class{
		Class:      className,
		Vectorizer: "none",
	}
	exists, err := a.client.Schema().ClassExistenceChecker().WithClassName(cls.Class).Do(ctx)
	if err != nil {
		return fmt.Errorf("weaviate error: %w", err)
	}
	if !exists {
		err = a.client.Schema().ClassCreator().WithClass(cls).Do(ctx)
		if err != nil {
			return fmt.Errorf("weaviate error: %w", err)
		}
	}

	return nil
}
