package googlegenai

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/aerostats/insightserver"
)

func (a *Adapter) EmbedContent(ctx context.Context, content string) (insightserver.Vector, error) {
	embedResponse, err := a.client.Models.EmbedContent(ctx,
		a.embeddingModel,
		[]*genai.Content{genai.NewContentFromText(content, genai.RoleUser)},
		nil,
	)
	if err != nil {
		return insightserver.Vector{}, fmt.Errorf("embed content error: %w", err)
	}
	if len(embedResponse.Embeddings) == 0 {
		return insightserver.Vector{}, fmt.Errorf("embed content error: empty response")
	}
	return embedResponse.Embeddings[0].Values, nil
}
