// Package translator implements the request/response translation core of the
// GitHub Models proxy. Inbound OpenAI-style chat completion payloads are
// reshaped into the upstream schema, truncated to a token budget when
// oversized, and upstream responses are converted back into the
// OpenAI-compatible shape the caller expects. All translation operates on raw
// JSON bytes so fields the proxy does not understand pass through untouched.
package translator

import (
	"strings"
	"unicode/utf8"

	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/openclaw/modelsproxy/internal/metrics"
)

const (
	// messageOverheadTokens approximates the per-message cost of role and
	// metadata fields on top of the content estimate.
	messageOverheadTokens = 10

	// systemPromptTokenLimit is the estimate above which the leading system
	// prompt gets cut down.
	systemPromptTokenLimit = 3000

	// systemPromptCharLimit is the character count the system prompt is cut
	// to (roughly systemPromptTokenLimit tokens at 4 chars per token).
	systemPromptCharLimit = 12000

	// maxMessages is the message count above which the conversation window
	// collapses to the system prompt plus the most recent turns.
	maxMessages = 6

	// keepRecentMessages is the size of the recent-turn window kept when the
	// conversation is collapsed.
	keepRecentMessages = 5

	// maxTools is the number of tool descriptors forwarded upstream at most.
	maxTools = 10

	truncationMarker = "\n\n[System prompt truncated for token limits]"
)

// passthroughKeys are the scalar parameters copied verbatim from the inbound
// request when present. Everything else is dropped.
var passthroughKeys = []string{
	"temperature",
	"max_tokens",
	"top_p",
	"stream",
	"stop",
	"presence_penalty",
	"frequency_penalty",
}

// BuildUpstreamRequest translates an OpenAI-style chat completion request
// into the GitHub Models schema. The result always carries a messages array
// and the resolved upstream model id; tools and the allow-listed scalar
// parameters are copied when present. The payload is then truncated if its
// token estimate exceeds the budget. A malformed or empty inbound body still
// yields a well-formed upstream request.
func BuildUpstreamRequest(rawJSON []byte, upstreamModel string, budget int) []byte {
	root := gjson.ParseBytes(rawJSON)

	out := `{"messages":[],"model":""}`
	if messages := root.Get("messages"); messages.IsArray() {
		out, _ = sjson.SetRaw(out, "messages", messages.Raw)
	}
	out, _ = sjson.Set(out, "model", upstreamModel)

	if tools := root.Get("tools"); tools.IsArray() {
		out, _ = sjson.SetRaw(out, "tools", tools.Raw)
	}

	for _, key := range passthroughKeys {
		if value := root.Get(key); value.Exists() {
			out, _ = sjson.SetRaw(out, key, value.Raw)
		}
	}

	// GitHub Models rejects requests carrying the store flag.
	out, _ = sjson.Delete(out, "store")

	return truncateRequest([]byte(out), budget)
}

// estimateTokens approximates the token count of a message content value at
// four characters per token. Non-string content (content-part arrays) is
// measured on its raw JSON form. This heuristic is deliberately crude and
// must stay as-is; callers depend on its truncation thresholds.
func estimateTokens(content gjson.Result) int {
	if content.Type == gjson.String {
		return len(content.Str) / 4
	}
	return len(content.Raw) / 4
}

// cutAtRuneBoundary returns the longest prefix of s no more than limit bytes
// long that does not split a UTF-8 sequence.
func cutAtRuneBoundary(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	for limit > 0 && !utf8.RuneStart(s[limit]) {
		limit--
	}
	return s[:limit]
}

// truncateRequest applies the over-budget truncation heuristics in a fixed
// order: cut an oversized leading system prompt, collapse long conversations
// to the system prompt plus the last turns, and cap the tool list. Each step
// applies independently; the estimate is computed once and never refreshed
// between steps. Truncation is best effort and never fails the request.
func truncateRequest(rawJSON []byte, budget int) []byte {
	root := gjson.ParseBytes(rawJSON)
	messages := root.Get("messages").Array()
	tools := root.Get("tools").Array()

	total := 0
	for _, message := range messages {
		total += estimateTokens(message.Get("content")) + messageOverheadTokens
	}
	for _, tool := range tools {
		total += len(tool.Raw) / 4
	}

	if total <= budget {
		return rawJSON
	}

	log.Debugf("estimated tokens: messages+tools=%d, budget=%d, truncating", total, budget)
	metrics.RequestTruncations.Inc()

	out := rawJSON

	if len(messages) > 0 && messages[0].Get("role").String() == "system" {
		content := messages[0].Get("content")
		if content.Type == gjson.String && estimateTokens(content) > systemPromptTokenLimit {
			truncated := cutAtRuneBoundary(content.Str, systemPromptCharLimit) + truncationMarker
			out, _ = sjson.SetBytes(out, "messages.0.content", truncated)
			log.Debugf("truncated system prompt to ~%d tokens", systemPromptTokenLimit)
		}
	}

	if len(messages) > maxMessages {
		// Re-read so a rewritten system prompt survives into the window.
		messages = gjson.GetBytes(out, "messages").Array()
		var survivors strings.Builder
		survivors.WriteString("[")
		count := 0
		appendRaw := func(raw string) {
			if count > 0 {
				survivors.WriteString(",")
			}
			survivors.WriteString(raw)
			count++
		}
		for _, message := range messages {
			if message.Get("role").String() == "system" {
				appendRaw(message.Raw)
			}
		}
		for _, message := range messages[len(messages)-keepRecentMessages:] {
			appendRaw(message.Raw)
		}
		survivors.WriteString("]")
		out, _ = sjson.SetRawBytes(out, "messages", []byte(survivors.String()))
		log.Debugf("truncated messages from %d to %d", len(messages), count)
	}

	if len(tools) > maxTools {
		tools = gjson.GetBytes(out, "tools").Array()
		var kept strings.Builder
		kept.WriteString("[")
		for i := 0; i < maxTools; i++ {
			if i > 0 {
				kept.WriteString(",")
			}
			kept.WriteString(tools[i].Raw)
		}
		kept.WriteString("]")
		out, _ = sjson.SetRawBytes(out, "tools", []byte(kept.String()))
		log.Debugf("truncated tools from %d to %d", len(tools), maxTools)
	}

	return out
}
