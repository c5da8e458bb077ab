package speech

import (
	"context"
	"fmt"
	"io"
	"os"

	openai "github.com/sashabaranov/go-openai"
)

func init() {
	RegisterFactory("openai", func(config map[string]any) (Synthesizer, error) {
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

		voice := openai.VoiceAlloy
		if v, ok := config["voice"].(string); ok && v != "" {
			voice = openai.SpeechVoice(v)
		}

		speed := 1.0
		if s, ok := config["speed"].(float64); ok && s > 0 {
			speed = s
		}

		return NewOpenAISynthesizer(apiKey, voice, speed), nil
	})
}

// speechCreator is the slice of the OpenAI client we use.
type speechCreator interface {
	CreateSpeech(ctx context.Context, req openai.CreateSpeechRequest) (openai.RawResponse, error)
}

// OpenAISynthesizer speaks text through the OpenAI text to speech API.
type OpenAISynthesizer struct {
	client speechCreator
	voice  openai.SpeechVoice
	speed  float64
}

// NewOpenAISynthesizer creates a synthesizer backed by the OpenAI TTS API.
func NewOpenAISynthesizer(apiKey string, voice openai.SpeechVoice, speed float64) *OpenAISynthesizer {
	return &OpenAISynthesizer{
		client: openai.NewClient(apiKey),
		voice:  voice,
		speed:  speed,
	}
}

// Name returns the synthesizer name
func (s *OpenAISynthesizer) Name() string {
	return "openai"
}

// Synthesize renders text to MP3 audio.
func (s *OpenAISynthesizer) Synthesize(ctx context.Context, text string) (*Clip, error) {
	if text == "" {
		return nil, fmt.Errorf("empty text")
	}

	resp, err := s.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model: openai.TTSModel1,
		Input: text,
		Voice: s.voice,
		Speed: s.speed,
	})
	if err != nil {
		return nil, fmt.Errorf("create speech: %w", err)
	}
	defer resp.Close()

	data, err := io.ReadAll(resp)
	if err != nil {
		return nil, fmt.Errorf("read speech response: %w", err)
	}

	return &Clip{Bytes: data, MIMEType: "audio/mpeg"}, nil
}
