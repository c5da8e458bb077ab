package gateway

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/tsuzuri-dev/tsuzuri/internal/llm/provider"
)

// systemPrompt instructs the model to act as a gentle listener who draws
// out the day's events one short question at a time.
const systemPrompt = `あなたは日記を書く手伝いをする聞き役です。
ユーザーが今日あったことを話しやすいように、短くあたたかい相づちを打ち、
続きを引き出すひとつの質問を添えてください。

ルール:
- 返答は日本語で2文以内。
- 説教やアドバイスはしない。
- ユーザーの言葉を言い換えて受け止めてから、質問する。
- 返答は次のJSON形式で出力する: {"reply": "..."}`

// fallbackReplyFormat echoes the utterance back when generation output
// cannot be parsed at all.
const fallbackReplyFormat = "そうかそうか、%sなんだね。"

var replyPattern = regexp.MustCompile(`"reply"\s*:\s*"((?:[^"\\]|\\.)*)"`)

// buildMessages assembles the completion request for one utterance. The
// transcript carries the whole session so far; the generator itself is
// stateless.
func buildMessages(transcript, utterance string) []provider.Message {
	messages := []provider.Message{
		{Role: "system", Content: systemPrompt},
	}

	if transcript != "" {
		messages = append(messages, provider.Message{
			Role:    "user",
			Content: "これまでの会話:\n" + transcript,
		})
	}

	messages = append(messages, provider.Message{
		Role:    "user",
		Content: utterance,
	})

	return messages
}

// parseReply extracts the reply text from model output. Models do not
// always honor the JSON instruction, so parsing degrades in stages:
// strict JSON, then a regex over the raw text, then the raw text itself.
func parseReply(raw, utterance string) string {
	trimmed := strings.TrimSpace(raw)
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(trimmed, "```")
	trimmed = strings.TrimSpace(trimmed)

	var parsed struct {
		Reply string `json:"reply"`
	}
	if err := json.Unmarshal([]byte(trimmed), &parsed); err == nil && parsed.Reply != "" {
		return parsed.Reply
	}

	if m := replyPattern.FindStringSubmatch(trimmed); m != nil {
		var unquoted string
		if err := json.Unmarshal([]byte(`"`+m[1]+`"`), &unquoted); err == nil && unquoted != "" {
			return unquoted
		}
	}

	if trimmed != "" && !strings.Contains(trimmed, "{") {
		return trimmed
	}

	return fmt.Sprintf(fallbackReplyFormat, utterance)
}
