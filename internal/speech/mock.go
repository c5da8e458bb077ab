package speech

import (
	"context"
	"sync"
)

// MockSynthesizer records synthesized text for tests.
type MockSynthesizer struct {
	mu sync.Mutex

	// Clip returned on success. A nil Clip yields a small placeholder.
	Clip *Clip
	// Err, when set, is returned from every call.
	Err error
	// Texts records every input received.
	Texts []string
}

func init() {
	RegisterFactory("mock", func(config map[string]any) (Synthesizer, error) {
		return &MockSynthesizer{}, nil
	})
}

// Name returns the synthesizer name
func (m *MockSynthesizer) Name() string {
	return "mock"
}

// Synthesize records the text and returns the configured clip or error.
func (m *MockSynthesizer) Synthesize(_ context.Context, text string) (*Clip, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Texts = append(m.Texts, text)
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Clip != nil {
		return m.Clip, nil
	}
	return &Clip{Bytes: []byte("audio"), MIMEType: "audio/mpeg"}, nil
}

// CallCount returns how many texts the mock has seen.
func (m *MockSynthesizer) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Texts)
}
