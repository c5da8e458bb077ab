package gateway

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tsuzuri-dev/tsuzuri/internal/llm/provider"
	"github.com/tsuzuri-dev/tsuzuri/internal/speech"
)

func TestGenerateReply(t *testing.T) {
	mock := &provider.MockProvider{
		Responses: []*provider.CompletionResponse{
			{Content: `{"reply": "よかったです"}`, FinishReason: "stop"},
		},
	}
	g := New(mock, nil, Options{})

	reply, err := g.GenerateReply(context.Background(), "", "元気です")
	require.NoError(t, err)
	assert.Equal(t, "よかったです", reply)

	// The system prompt and the utterance both reach the provider.
	require.Equal(t, 1, mock.CallCount())
	msgs := mock.Calls[0].Messages
	require.Len(t, msgs, 2)
	assert.Equal(t, "system", msgs[0].Role)
	assert.Equal(t, "元気です", msgs[1].Content)
}

func TestGenerateReplyIncludesTranscript(t *testing.T) {
	mock := &provider.MockProvider{
		Responses: []*provider.CompletionResponse{
			{Content: `{"reply": "散歩はどうでしたか"}`, FinishReason: "stop"},
		},
	}
	g := New(mock, nil, Options{})

	transcript := "[USER] 元気です\n[ASSISTANT] よかったです"
	_, err := g.GenerateReply(context.Background(), transcript, "今日は散歩をしました")
	require.NoError(t, err)

	msgs := mock.Calls[0].Messages
	require.Len(t, msgs, 3)
	assert.Contains(t, msgs[1].Content, "[USER] 元気です")
	assert.Equal(t, "今日は散歩をしました", msgs[2].Content)
}

func TestGenerateReplyFailure(t *testing.T) {
	mock := &provider.MockProvider{
		Errors: []error{provider.NewProviderError("mock", provider.ErrorCodeServerError, "boom", nil)},
	}
	g := New(mock, nil, Options{})

	_, err := g.GenerateReply(context.Background(), "", "元気です")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrGenerationUnavailable)
}

func TestSynthesizeBestEffort(t *testing.T) {
	mock := &provider.MockProvider{
		Responses: []*provider.CompletionResponse{{Content: "ok", FinishReason: "stop"}},
	}

	synth := &speech.MockSynthesizer{Clip: &speech.Clip{Bytes: []byte("mp3"), MIMEType: "audio/mpeg"}}
	g := New(mock, synth, Options{})

	clip := g.Synthesize(context.Background(), "よかったです")
	require.NotNil(t, clip)
	assert.Equal(t, "audio/mpeg", clip.MIMEType)

	// A synthesizer failure yields no audio, not an error.
	synth.Err = assert.AnError
	assert.Nil(t, g.Synthesize(context.Background(), "よかったです"))

	// No synthesizer configured.
	g = New(mock, nil, Options{})
	assert.Nil(t, g.Synthesize(context.Background(), "よかったです"))
}

func TestParseReply(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		utterance string
		want      string
	}{
		{
			name: "strict json",
			raw:  `{"reply": "よかったです"}`,
			want: "よかったです",
		},
		{
			name: "fenced json",
			raw:  "```json\n{\"reply\": \"よかったです\"}\n```",
			want: "よかったです",
		},
		{
			name: "json embedded in prose",
			raw:  `もちろんです {"reply": "いいですね"} 以上です`,
			want: "いいですね",
		},
		{
			name: "plain text passes through",
			raw:  "それは楽しそうですね。どこへ行きましたか？",
			want: "それは楽しそうですね。どこへ行きましたか？",
		},
		{
			name:      "garbage falls back to echo",
			raw:       `{"broken": }`,
			utterance: "散歩をした",
			want:      "そうかそうか、散歩をしたなんだね。",
		},
		{
			name:      "empty output falls back to echo",
			raw:       "",
			utterance: "元気です",
			want:      "そうかそうか、元気ですなんだね。",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseReply(tt.raw, tt.utterance))
		})
	}
}
