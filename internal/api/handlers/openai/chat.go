// Package openai provides the HTTP handlers for the OpenAI-compatible API
// surface: model listing and chat completions. The handlers resolve the
// requested model against the mapping table, normalize the request into the
// GitHub Models schema, forward it through the upstream client, and translate
// the response back so callers only ever see the model id they asked for.
package openai

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"

	"github.com/openclaw/modelsproxy/internal/api/handlers"
	"github.com/openclaw/modelsproxy/internal/metrics"
	"github.com/openclaw/modelsproxy/internal/translator"
)

// Handler contains the handlers for the OpenAI-compatible endpoints.
type Handler struct {
	*handlers.BaseHandler
}

// NewHandler creates an OpenAI API handler instance on top of the shared
// base handler state.
func NewHandler(base *handlers.BaseHandler) *Handler {
	return &Handler{BaseHandler: base}
}

// Models handles the /v1/models endpoint, returning the upstream models the
// mapping table can route to in OpenAI list format.
func (h *Handler) Models(c *gin.Context) {
	_, _, table := h.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"object": "list",
		"data":   table.Models(),
	})
}

// ChatCompletions handles the /v1/chat/completions endpoint. It reads the
// raw body, resolves the model, builds the upstream payload, and dispatches
// to the streaming or blocking path depending on the request's stream flag.
func (h *Handler) ChatCompletions(c *gin.Context) {
	rawJSON, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, handlers.ErrorResponse{
			Error: handlers.ErrorDetail{
				Message: fmt.Sprintf("Invalid request: %v", err),
				Type:    "invalid_request_error",
			},
		})
		return
	}

	cfg, ghClient, table := h.Snapshot()

	requestedModel := gjson.GetBytes(rawJSON, "model").String()
	upstreamModel := table.Resolve(requestedModel)
	if requestedModel == "" {
		requestedModel = cfg.DefaultModel
	}

	isStreaming := gjson.GetBytes(rawJSON, "stream").Type == gjson.True
	log.Debugf("model: %s -> %s, stream: %t", requestedModel, upstreamModel, isStreaming)

	upstreamJSON := translator.BuildUpstreamRequest(rawJSON, upstreamModel, cfg.TokenBudget)

	if isStreaming {
		h.handleStreamingResponse(c, ghClient, upstreamJSON, requestedModel)
	} else {
		h.handleNonStreamingResponse(c, ghClient, upstreamJSON, requestedModel)
	}
}

// handleNonStreamingResponse forwards the translated request with a single
// blocking upstream call. Upstream error statuses pass through with their
// body untouched; successful bodies get the model field rewritten to the id
// the caller requested.
func (h *Handler) handleNonStreamingResponse(c *gin.Context, ghClient upstreamClient, upstreamJSON []byte, requestedModel string) {
	statusCode, body, err := ghClient.SendMessage(c.Request.Context(), upstreamJSON)
	if err != nil {
		log.Errorf("upstream request failed: %v", err)
		metrics.RequestsTotal.WithLabelValues("chat_completions", "502").Inc()
		c.JSON(http.StatusBadGateway, handlers.ErrorResponse{
			Error: handlers.ErrorDetail{
				Message: fmt.Sprintf("GitHub Models API unreachable: %v", err),
				Type:    "api_error",
			},
		})
		return
	}

	statusCode, body = translator.TranslateResponse(statusCode, body, requestedModel)
	metrics.RequestsTotal.WithLabelValues("chat_completions", strconv.Itoa(statusCode)).Inc()
	c.Data(statusCode, "application/json", body)
}

// handleStreamingResponse forwards the translated request as an SSE stream,
// writing each translated frame as it arrives. Every exit path ends the
// stream with the [DONE] sentinel: the upstream sentinel is forwarded
// verbatim, and both pre-stream rejections and mid-stream failures collapse
// into one synthetic error chunk followed by [DONE].
func (h *Handler) handleStreamingResponse(c *gin.Context, ghClient upstreamClient, upstreamJSON []byte, requestedModel string) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("Access-Control-Allow-Origin", "*")

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, handlers.ErrorResponse{
			Error: handlers.ErrorDetail{
				Message: "Streaming not supported",
				Type:    "server_error",
			},
		})
		return
	}

	session := translator.NewStreamSession(requestedModel)
	frames, errs := ghClient.SendMessageStream(c.Request.Context(), upstreamJSON, session)

	writeFrame := func(frame []byte) {
		_, _ = fmt.Fprintf(c.Writer, "data: %s\n\n", frame)
		flusher.Flush()
	}

	metrics.RequestsTotal.WithLabelValues("chat_completions", "stream").Inc()

	for {
		select {
		case <-c.Request.Context().Done():
			// Client disconnected; the shared context tears down the
			// upstream call.
			log.Debugf("client disconnected: %v", c.Request.Context().Err())
			return
		case frame, okStream := <-frames:
			if !okStream {
				// Drain errs before giving up; a rejected stream closes
				// frames with the failure still buffered there.
				frames = nil
				if errs == nil {
					return
				}
				continue
			}
			if bytes.Equal(frame, translator.DoneFrame) {
				writeFrame(translator.DoneFrame)
				return
			}
			metrics.StreamFrames.Inc()
			writeFrame(frame)
		case errMsg, okError := <-errs:
			if !okError {
				errs = nil
				if frames == nil {
					return
				}
				continue
			}
			var chunk []byte
			if errMsg.StatusCode != 0 {
				chunk = session.ErrorChunk(fmt.Sprintf("Error: %d", errMsg.StatusCode))
			} else {
				chunk = session.ErrorChunk(fmt.Sprintf("Proxy error: %v", errMsg.Error))
			}
			writeFrame(chunk)
			writeFrame(translator.DoneFrame)
			return
		}
	}
}
