package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	openai "github.com/sashabaranov/go-openai"
)

const openaiDefaultModel = openai.GPT4oMini

func init() {
	RegisterFactory("openai", func(config map[string]any) (Provider, error) {
		apiKey := ""
		if key, ok := config["api_key"].(string); ok {
			apiKey = key
		}
		if apiKey == "" {
			apiKey = os.Getenv("OPENAI_API_KEY")
		}
		if apiKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY not set")
		}

		baseURL := ""
		if u, ok := config["base_url"].(string); ok {
			baseURL = u
		}

		return NewOpenAIProvider(apiKey, baseURL), nil
	})
}

// chatCompleter is the slice of the OpenAI client we use. Tests substitute
// a fake implementation.
type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAIProvider implements Provider for the OpenAI chat completion API.
type OpenAIProvider struct {
	client chatCompleter
}

// NewOpenAIProvider creates a new OpenAI provider. An empty baseURL uses
// the default API endpoint; a custom one targets compatible servers.
func NewOpenAIProvider(apiKey, baseURL string) *OpenAIProvider {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAIProvider{client: openai.NewClientWithConfig(cfg)}
}

// Name returns the provider name
func (p *OpenAIProvider) Name() string {
	return "openai"
}

// CreateCompletion creates a completion using the OpenAI API
func (p *OpenAIProvider) CreateCompletion(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	model := req.Model
	if model == "" {
		model = openaiDefaultModel
	}

	messages := make([]openai.ChatCompletionMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		})
	}

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       model,
		Messages:    messages,
		Temperature: float32(req.Temperature),
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		return nil, p.wrapError(err)
	}

	if len(resp.Choices) == 0 {
		return nil, NewProviderError("openai", ErrorCodeUnknown, "no choices in response", nil)
	}

	choice := resp.Choices[0]
	return &CompletionResponse{
		Content:      choice.Message.Content,
		FinishReason: string(choice.FinishReason),
		Usage: Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}, nil
}

// wrapError converts OpenAI API errors to ProviderError
func (p *OpenAIProvider) wrapError(err error) error {
	if err == nil {
		return nil
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		code := ErrorCodeUnknown
		switch apiErr.HTTPStatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			code = ErrorCodeAuthentication
		case http.StatusTooManyRequests:
			code = ErrorCodeRateLimit
		case http.StatusNotFound:
			code = ErrorCodeModelNotFound
		case http.StatusBadRequest:
			code = ErrorCodeInvalidRequest
		case http.StatusRequestTimeout, http.StatusGatewayTimeout:
			code = ErrorCodeTimeout
		default:
			if apiErr.HTTPStatusCode >= 500 {
				code = ErrorCodeServerError
			}
		}

		return &ProviderError{
			Provider:      "openai",
			Code:          code,
			Message:       apiErr.Message,
			StatusCode:    apiErr.HTTPStatusCode,
			IsRetryable:   code == ErrorCodeRateLimit || code == ErrorCodeServerError || code == ErrorCodeTimeout,
			OriginalError: err,
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return NewProviderError("openai", ErrorCodeTimeout, "request timed out", err)
	}

	return NewProviderError("openai", ErrorCodeUnknown, err.Error(), err)
}
