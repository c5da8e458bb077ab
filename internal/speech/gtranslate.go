package speech

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/exec"
	"time"
)

const (
	// translate_tts rejects long inputs, so text is split into chunks.
	gtranslateMaxRunes = 180
	gtranslateTimeout  = 15 * time.Second
)

func init() {
	RegisterFactory("gtranslate", func(config map[string]any) (Synthesizer, error) {
		lang := "ja"
		if l, ok := config["lang"].(string); ok && l != "" {
			lang = l
		}
		tld := "co.jp"
		if t, ok := config["tld"].(string); ok && t != "" {
			tld = t
		}
		speed := 1.25
		if s, ok := config["speed"].(float64); ok && s > 0 {
			speed = s
		}
		return NewGTranslateSynthesizer(lang, tld, speed), nil
	})
}

// GTranslateSynthesizer speaks text through the unofficial Google Translate
// text to speech endpoint. No API key required.
type GTranslateSynthesizer struct {
	client *http.Client
	lang   string
	tld    string
	speed  float64
}

// NewGTranslateSynthesizer creates a Google Translate backed synthesizer.
// Speed above 1.0 is applied with ffmpeg when available.
func NewGTranslateSynthesizer(lang, tld string, speed float64) *GTranslateSynthesizer {
	return &GTranslateSynthesizer{
		client: &http.Client{Timeout: gtranslateTimeout},
		lang:   lang,
		tld:    tld,
		speed:  speed,
	}
}

// Name returns the synthesizer name
func (s *GTranslateSynthesizer) Name() string {
	return "gtranslate"
}

// Synthesize renders text to MP3 audio, one request per chunk.
func (s *GTranslateSynthesizer) Synthesize(ctx context.Context, text string) (*Clip, error) {
	if text == "" {
		return nil, fmt.Errorf("empty text")
	}

	var buf bytes.Buffer
	for _, chunk := range chunkRunes(text, gtranslateMaxRunes) {
		data, err := s.fetchChunk(ctx, chunk)
		if err != nil {
			return nil, err
		}
		buf.Write(data)
	}

	audio := buf.Bytes()
	if s.speed != 1.0 {
		if sped, err := adjustTempo(ctx, audio, s.speed); err == nil {
			audio = sped
		} else {
			log.Printf("speech: tempo adjustment skipped: %v", err)
		}
	}

	return &Clip{Bytes: audio, MIMEType: "audio/mpeg"}, nil
}

func (s *GTranslateSynthesizer) fetchChunk(ctx context.Context, chunk string) ([]byte, error) {
	q := url.Values{}
	q.Set("ie", "UTF-8")
	q.Set("client", "tw-ob")
	q.Set("tl", s.lang)
	q.Set("q", chunk)

	endpoint := fmt.Sprintf("https://translate.google.%s/translate_tts?%s", s.tld, q.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build tts request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch tts chunk: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tts endpoint returned %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read tts chunk: %w", err)
	}
	return data, nil
}

// chunkRunes splits text into rune bounded chunks, preferring sentence
// boundaries so playback does not cut mid word.
func chunkRunes(text string, max int) []string {
	runes := []rune(text)
	if len(runes) <= max {
		return []string{text}
	}

	var chunks []string
	start := 0
	for start < len(runes) {
		end := start + max
		if end >= len(runes) {
			chunks = append(chunks, string(runes[start:]))
			break
		}
		cut := end
		for i := end; i > start; i-- {
			if isBreakRune(runes[i-1]) {
				cut = i
				break
			}
		}
		chunks = append(chunks, string(runes[start:cut]))
		start = cut
	}
	return chunks
}

func isBreakRune(r rune) bool {
	switch r {
	case '。', '、', '.', ',', '!', '?', '！', '？', ' ', '\n':
		return true
	}
	return false
}

// adjustTempo speeds up MP3 audio with ffmpeg's atempo filter. Returns an
// error when ffmpeg is not installed so callers can fall back to the
// original audio.
func adjustTempo(ctx context.Context, audio []byte, speed float64) ([]byte, error) {
	ffmpeg, err := exec.LookPath("ffmpeg")
	if err != nil {
		return nil, fmt.Errorf("ffmpeg not found: %w", err)
	}

	in, err := os.CreateTemp("", "tts-in-*.mp3")
	if err != nil {
		return nil, fmt.Errorf("create temp input: %w", err)
	}
	defer os.Remove(in.Name())

	if _, err := in.Write(audio); err != nil {
		in.Close()
		return nil, fmt.Errorf("write temp input: %w", err)
	}
	in.Close()

	out, err := os.CreateTemp("", "tts-out-*.mp3")
	if err != nil {
		return nil, fmt.Errorf("create temp output: %w", err)
	}
	out.Close()
	defer os.Remove(out.Name())

	cmd := exec.CommandContext(ctx, ffmpeg,
		"-y", "-i", in.Name(),
		"-filter:a", fmt.Sprintf("atempo=%.2f", speed),
		"-vn", out.Name(),
	)
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("run ffmpeg: %w", err)
	}

	return os.ReadFile(out.Name())
}
