package googlegenai

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/aerostats/insightserver"
)

// Invoke sends the prompt to the named generative model and returns the
// plain text candidate together with token usage.
func (a *Adapter) Invoke(ctx context.Context, prompt, model string, temperature float64, maxTokens int) (insightserver.Generation, error) {
	temp := float32(temperature)
	config := &genai.GenerateContentConfig{
		Temperature:     &temp,
		MaxOutputTokens: int32(maxTokens),
		ThinkingConfig: &genai.ThinkingConfig{
			ThinkingBudget: nil, // Disables thinking
		},
	}

	a.logger.Sugar().With("model", model).Debug("invoking generative model")

	resp, err := a.client.Models.GenerateContent(
		ctx,
		model,
		genai.Text(prompt),
		config,
	)
	if err != nil {
		return insightserver.Generation{}, classifyError(err)
	}
	if len(resp.Candidates) == 0 {
		return insightserver.Generation{}, fmt.Errorf("%w: no candidates returned", insightserver.ErrBackendUnavailable)
	}

	generation := insightserver.Generation{
		Text: strings.TrimSpace(resp.Text()),
	}
	if resp.UsageMetadata != nil {
		generation.TokensIn = int(resp.UsageMetadata.PromptTokenCount)
		generation.TokensOut = int(resp.UsageMetadata.CandidatesTokenCount)
	}

	return generation, nil
}

func classifyError(err error) error {
	msg := err.Error()
	if strings.Contains(msg, "429") || strings.Contains(msg, "RESOURCE_EXHAUSTED") {
		return fmt.Errorf("%w: %v", insightserver.ErrRateLimited, err)
	}
	return fmt.Errorf("%w: calling generative model: %v", insightserver.ErrBackendUnavailable, err)
}
