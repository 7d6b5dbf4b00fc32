package translator

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

const doneSentinel = "[DONE]"

// DoneFrame is the literal terminal frame of every translated stream.
// Handlers forward it verbatim and stop reading afterwards.
var DoneFrame = []byte(doneSentinel)

var dataTag = []byte("data: ")

// StreamSession holds the identity shared by every frame of one streaming
// response: a single chunk id and creation timestamp generated at stream
// start, plus the model id the caller asked for. Reusing them gives the
// client a stable conversation-turn identity across the whole stream.
type StreamSession struct {
	id      string
	created int64
	model   string
}

// NewStreamSession creates the frame identity for one streaming response to
// a caller that requested the given model id.
func NewStreamSession(requestedModel string) *StreamSession {
	return &StreamSession{
		id:      "chatcmpl-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:24],
		created: time.Now().Unix(),
		model:   requestedModel,
	}
}

// ID returns the chunk identifier shared by all frames of this session.
func (s *StreamSession) ID() string {
	return s.id
}

// Chunk translates one upstream SSE payload into an outbound frame carrying
// the session identity and the caller's model id. It returns nil when the
// payload must be dropped: invalid JSON (keep-alive noise from some upstream
// implementations) or a chunk with no choices.
func (s *StreamSession) Chunk(payload []byte) []byte {
	if !gjson.ValidBytes(payload) {
		return nil
	}

	root := gjson.ParseBytes(payload)
	choices := root.Get("choices")
	if !choices.IsArray() || len(choices.Array()) == 0 {
		return nil
	}

	out := `{"id":"","object":"chat.completion.chunk","created":0,"model":"","choices":[]}`
	out, _ = sjson.Set(out, "id", s.id)
	out, _ = sjson.Set(out, "created", s.created)
	out, _ = sjson.Set(out, "model", s.model)
	out, _ = sjson.SetRaw(out, "choices", choices.Raw)
	if usage := root.Get("usage"); usage.Exists() {
		out, _ = sjson.SetRaw(out, "usage", usage.Raw)
	}

	return []byte(out)
}

// ErrorChunk builds the single synthetic frame emitted when the upstream
// call fails, carrying the failure description as assistant content. The
// finish reason is "stop" rather than "error" so standard OpenAI clients
// treat the turn as complete instead of special-casing it.
func (s *StreamSession) ErrorChunk(message string) []byte {
	out := `{"id":"","object":"chat.completion.chunk","created":0,"model":"","choices":[{"index":0,"delta":{"content":""},"finish_reason":"stop"}]}`
	out, _ = sjson.Set(out, "id", s.id)
	out, _ = sjson.Set(out, "created", s.created)
	out, _ = sjson.Set(out, "model", s.model)
	out, _ = sjson.Set(out, "choices.0.delta.content", message)
	return []byte(out)
}

// Pump consumes the upstream SSE byte stream line by line and sends
// translated frames on out as they arrive, never buffering to end of
// stream. Blank lines are skipped, non-data lines ignored, dropped payloads
// filtered. The final value sent is always DoneFrame: on the upstream
// sentinel, on clean EOF without one, and after the synthetic error chunk a
// mid-stream read failure produces. Sends abort when ctx is cancelled so a
// disconnected client never strands the goroutine.
func (s *StreamSession) Pump(ctx context.Context, r io.Reader, out chan<- []byte) {
	send := func(frame []byte) bool {
		select {
		case out <- frame:
			return true
		case <-ctx.Done():
			return false
		}
	}

	scanner := bufio.NewScanner(r)
	// Single chunks can exceed the default 64KB token limit (large tool-call
	// arguments, final usage chunks).
	scanner.Buffer(make([]byte, 20480), 10240*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		if !bytes.HasPrefix(line, dataTag) {
			continue
		}

		payload := line[len(dataTag):]
		if string(payload) == doneSentinel {
			send(DoneFrame)
			return
		}

		if frame := s.Chunk(payload); frame != nil {
			if !send(frame) {
				return
			}
		}
	}

	if err := scanner.Err(); err != nil {
		log.Errorf("stream error: %v", err)
		if !send(s.ErrorChunk(fmt.Sprintf("Proxy error: %v", err))) {
			return
		}
	}

	send(DoneFrame)
}
