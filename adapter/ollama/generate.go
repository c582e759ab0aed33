package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/aerostats/insightserver"
)

// chatRequest is the JSON body sent to /api/chat.
type chatRequest struct {
	Model    string         `json:"model"`
	Messages []chatMessage  `json:"messages"`
	Stream   bool           `json:"stream"`
	Options  map[string]any `json:"options,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatResponse is the JSON body returned by /api/chat (non-streaming).
type chatResponse struct {
	Model           string      `json:"model"`
	Message         chatMessage `json:"message"`
	TotalDuration   int64       `json:"total_duration"` // nanoseconds
	PromptEvalCount int         `json:"prompt_eval_count"`
	EvalCount       int         `json:"eval_count"`
	EvalDuration    int64       `json:"eval_duration"` // nanoseconds
}

// Invoke sends the prompt to the named model and returns the response text
// with token usage.
func (a *Adapter) Invoke(ctx context.Context, prompt, model string, temperature float64, maxTokens int) (insightserver.Generation, error) {
	req := chatRequest{
		Model: model,
		Messages: []chatMessage{
			{Role: "user", Content: prompt},
		},
		Stream: false,
		Options: map[string]any{
			"temperature": temperature,
			"num_predict": maxTokens,
		},
	}

	body, err := json.Marshal(req)
	if err != nil {
		return insightserver.Generation{}, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return insightserver.Generation{}, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := a.httpClient.Do(httpReq)
	if err != nil {
		return insightserver.Generation{}, fmt.Errorf("%w: ollama request: %v", insightserver.ErrBackendUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return insightserver.Generation{}, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return insightserver.Generation{}, fmt.Errorf("%w: ollama returned %d", insightserver.ErrRateLimited, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return insightserver.Generation{}, fmt.Errorf("%w: ollama returned %d: %s", insightserver.ErrBackendUnavailable, resp.StatusCode, string(respBody))
	}

	var chatResp chatResponse
	if err := json.Unmarshal(respBody, &chatResp); err != nil {
		return insightserver.Generation{}, fmt.Errorf("unmarshal response: %w", err)
	}

	return insightserver.Generation{
		Text:      chatResp.Message.Content,
		TokensIn:  chatResp.PromptEvalCount,
		TokensOut: chatResp.EvalCount,
	}, nil
}
