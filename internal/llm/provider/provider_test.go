package provider

import (
	"context"
	"errors"
	"net/http"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry(t *testing.T) {
	names := List()
	assert.Contains(t, names, "gemini")
	assert.Contains(t, names, "openai")
	assert.Contains(t, names, "mock")

	_, err := New("no-such-provider", nil)
	assert.Error(t, err)
}

func TestMockProviderScripted(t *testing.T) {
	mock := &MockProvider{
		Responses: []*CompletionResponse{
			{Content: "first", FinishReason: "stop"},
			{Content: "second", FinishReason: "stop"},
		},
	}

	resp, err := mock.CreateCompletion(context.Background(), CompletionRequest{
		Messages: []Message{{Role: "user", Content: "hello"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "first", resp.Content)

	resp, err = mock.CreateCompletion(context.Background(), CompletionRequest{})
	require.NoError(t, err)
	assert.Equal(t, "second", resp.Content)

	// Last response repeats once the script runs out.
	resp, err = mock.CreateCompletion(context.Background(), CompletionRequest{})
	require.NoError(t, err)
	assert.Equal(t, "second", resp.Content)

	assert.Equal(t, 3, mock.CallCount())
	assert.Equal(t, "hello", mock.Calls[0].Messages[0].Content)
}

func TestMockProviderErrors(t *testing.T) {
	wantErr := NewProviderError("mock", ErrorCodeServerError, "boom", nil)
	mock := &MockProvider{
		Errors:    []error{wantErr, nil},
		Responses: []*CompletionResponse{{Content: "ok", FinishReason: "stop"}},
	}

	_, err := mock.CreateCompletion(context.Background(), CompletionRequest{})
	require.Error(t, err)

	var perr *ProviderError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, ErrorCodeServerError, perr.Code)

	resp, err := mock.CreateCompletion(context.Background(), CompletionRequest{})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Content)
}

func TestProviderErrorUnwrap(t *testing.T) {
	inner := errors.New("network down")
	err := NewProviderError("gemini", ErrorCodeTimeout, "request timed out", inner)

	assert.ErrorIs(t, err, inner)
	assert.Contains(t, err.Error(), "gemini")
}

type fakeChatCompleter struct {
	resp openai.ChatCompletionResponse
	err  error
	got  openai.ChatCompletionRequest
}

func (f *fakeChatCompleter) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	f.got = req
	return f.resp, f.err
}

func TestOpenAIProviderCompletion(t *testing.T) {
	fake := &fakeChatCompleter{
		resp: openai.ChatCompletionResponse{
			Choices: []openai.ChatCompletionChoice{{
				Message:      openai.ChatCompletionMessage{Content: "こんにちは"},
				FinishReason: openai.FinishReasonStop,
			}},
			Usage: openai.Usage{PromptTokens: 12, CompletionTokens: 4, TotalTokens: 16},
		},
	}
	p := &OpenAIProvider{client: fake}

	resp, err := p.CreateCompletion(context.Background(), CompletionRequest{
		Messages: []Message{
			{Role: "system", Content: "you are a diary companion"},
			{Role: "user", Content: "今日は散歩をしました"},
		},
		Temperature: 0.7,
	})
	require.NoError(t, err)

	assert.Equal(t, "こんにちは", resp.Content)
	assert.Equal(t, "stop", resp.FinishReason)
	assert.Equal(t, 16, resp.Usage.TotalTokens)
	assert.Equal(t, openaiDefaultModel, fake.got.Model)
	require.Len(t, fake.got.Messages, 2)
	assert.Equal(t, "system", fake.got.Messages[0].Role)
}

func TestOpenAIProviderErrorMapping(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		wantCode  string
		retryable bool
	}{
		{"auth", http.StatusUnauthorized, ErrorCodeAuthentication, false},
		{"rate limit", http.StatusTooManyRequests, ErrorCodeRateLimit, true},
		{"not found", http.StatusNotFound, ErrorCodeModelNotFound, false},
		{"bad request", http.StatusBadRequest, ErrorCodeInvalidRequest, false},
		{"server error", http.StatusInternalServerError, ErrorCodeServerError, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeChatCompleter{
				err: &openai.APIError{HTTPStatusCode: tt.status, Message: "nope"},
			}
			p := &OpenAIProvider{client: fake}

			_, err := p.CreateCompletion(context.Background(), CompletionRequest{})
			require.Error(t, err)

			var perr *ProviderError
			require.ErrorAs(t, err, &perr)
			assert.Equal(t, tt.wantCode, perr.Code)
			assert.Equal(t, tt.retryable, perr.IsRetryable)
		})
	}
}

func TestGeminiErrorClassification(t *testing.T) {
	p := &GeminiProvider{}

	err := p.wrapError(errors.New("googleapi: Error 429: rate limit exceeded"))
	var perr *ProviderError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, ErrorCodeRateLimit, perr.Code)
	assert.True(t, perr.IsRetryable)

	err = p.wrapError(errors.New("invalid api key"))
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, ErrorCodeAuthentication, perr.Code)
	assert.False(t, perr.IsRetryable)

	assert.True(t, isRetryableGenAIError(errors.New("503 service unavailable")))
	assert.False(t, isRetryableGenAIError(errors.New("400 bad request")))
}
