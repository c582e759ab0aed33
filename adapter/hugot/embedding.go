package hugot

import (
	"context"
	"fmt"

	"github.com/aerostats/insightserver"
)

// EmbedBatch encodes feedback texts in one pipeline run, for ingestion.
func (a *Adapter) EmbedBatch(ctx context.Context, texts []string) ([]insightserver.Vector, error) {
	embeddingResult, err := a.embedding.RunPipeline(texts)
	if err != nil {
		return nil, err
	}

	embeddings := embeddingResult.Embeddings

	if len(embeddings) != len(texts) {
		return nil, fmt.Errorf("embedded batch size mismatch")
	}

	vectors := make([]insightserver.Vector, 0, len(embeddings))

	for i := range embeddings {
		vectors = append(vectors, embeddings[i])
	}

	return vectors, nil
}

func (a *Adapter) EmbedContent(ctx context.Context, content string) (insightserver.Vector, error) {
	embeddingResult, err := a.embedding.RunPipeline([]string{content})
	if err != nil {
		return insightserver.Vector{}, err
	}
	return embeddingResult.Embeddings[0], nil
}
