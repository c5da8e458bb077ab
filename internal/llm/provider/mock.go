package provider

import (
	"context"
	"sync"
)

// MockProvider is a scripted Provider implementation for tests.
// Responses and errors are consumed in order; the last one repeats.
type MockProvider struct {
	mu sync.Mutex

	// Responses returned in order by CreateCompletion.
	Responses []*CompletionResponse
	// Errors returned in order; a nil entry means success.
	Errors []error
	// Calls records every request received.
	Calls []CompletionRequest

	idx int
}

func init() {
	RegisterFactory("mock", func(config map[string]any) (Provider, error) {
		content := "mock response"
		if c, ok := config["content"].(string); ok {
			content = c
		}
		return &MockProvider{
			Responses: []*CompletionResponse{{Content: content, FinishReason: "stop"}},
		}, nil
	})
}

// Name returns the provider name
func (m *MockProvider) Name() string {
	return "mock"
}

// CreateCompletion returns the next scripted response or error.
func (m *MockProvider) CreateCompletion(_ context.Context, req CompletionRequest) (*CompletionResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, req)

	i := m.idx
	m.idx++

	if len(m.Errors) > 0 {
		ei := i
		if ei >= len(m.Errors) {
			ei = len(m.Errors) - 1
		}
		if err := m.Errors[ei]; err != nil {
			return nil, err
		}
	}

	if len(m.Responses) == 0 {
		return &CompletionResponse{Content: "", FinishReason: "stop"}, nil
	}
	ri := i
	if ri >= len(m.Responses) {
		ri = len(m.Responses) - 1
	}
	return m.Responses[ri], nil
}

// CallCount returns how many requests the mock has seen.
func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}
