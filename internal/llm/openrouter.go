package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/nofuss/sitecoach/internal/errs"
)

const (
	defaultBaseURL = "https://openrouter.ai/api/v1"
	defaultModel   = "openai/gpt-4o"

	refererHeader = "https://sitecoach.app"
	titleHeader   = "SiteCoach"
)

// OpenRouterClient implements Completer using the OpenRouter chat-completions API.
type OpenRouterClient struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
	logger  zerolog.Logger
}

// OpenRouterOption configures the client.
type OpenRouterOption func(*OpenRouterClient)

func WithBaseURL(url string) OpenRouterOption {
	return func(c *OpenRouterClient) { c.baseURL = url }
}

func WithModel(model string) OpenRouterOption {
	return func(c *OpenRouterClient) { c.model = model }
}

func WithHTTPClient(hc *http.Client) OpenRouterOption {
	return func(c *OpenRouterClient) { c.client = hc }
}

// NewOpenRouterClient constructs a new OpenRouter completion client.
func NewOpenRouterClient(apiKey string, logger zerolog.Logger, opts ...OpenRouterOption) *OpenRouterClient {
	c := &OpenRouterClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		model:   defaultModel,
		client:  &http.Client{Timeout: 120 * time.Second},
		logger:  logger.With().Str("component", "llm").Logger(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// ModelID returns the configured model identifier.
func (c *OpenRouterClient) ModelID() string { return c.model }

// ---- OpenRouter wire types ----

type chatRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
}

type chatResponse struct {
	ID      string `json:"id"`
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Complete sends a blocking chat-completion request.
func (c *OpenRouterClient) Complete(ctx context.Context, messages []Message) (string, error) {
	body, err := json.Marshal(chatRequest{Model: c.model, Messages: messages})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("HTTP-Referer", refererHeader)
	httpReq.Header.Set("X-Title", titleHeader)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("%w: openrouter http: %v", errs.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}

	if resp.StatusCode >= 500 {
		return "", fmt.Errorf("%w: %v", errs.ErrUnavailable,
			errs.NewAPIError("openrouter", resp.StatusCode, string(raw)))
	}
	if resp.StatusCode != http.StatusOK {
		return "", errs.NewAPIError("openrouter", resp.StatusCode, string(raw))
	}

	var cr chatResponse
	if err := json.Unmarshal(raw, &cr); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}
	if cr.Error != nil {
		return "", errs.NewAPIError("openrouter", cr.Error.Code, cr.Error.Message)
	}
	if len(cr.Choices) == 0 {
		return "", fmt.Errorf("openrouter: response contained no choices")
	}

	out := cr.Choices[0].Message.Content
	c.logger.Debug().
		Str("model", c.model).
		Str("finish_reason", cr.Choices[0].FinishReason).
		Int("messages", len(messages)).
		Msg("completion finished")
	return out, nil
}
