// Package client implements the HTTP transport for the GitHub Models
// inference endpoint. It issues a single upstream call per inbound request,
// blocking for regular completions and streaming for SSE, and reports
// failures as ErrorMessage values instead of raising them to the caller.
package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/tidwall/sjson"

	"github.com/openclaw/modelsproxy/internal/config"
	"github.com/openclaw/modelsproxy/internal/metrics"
	"github.com/openclaw/modelsproxy/internal/translator"
	"github.com/openclaw/modelsproxy/internal/util"
)

// ErrorMessage carries an upstream failure across channel boundaries.
// StatusCode is the upstream HTTP status for rejected requests and zero for
// transport-level failures where no status was received.
type ErrorMessage struct {
	StatusCode int
	Error      error
}

// GitHubClient is the transport for the GitHub Models chat completions
// endpoint. It performs no retries; one inbound request maps to exactly one
// upstream attempt.
type GitHubClient struct {
	cfg        *config.Config
	httpClient *http.Client
}

// NewGitHubClient creates a transport bound to the configured endpoint and
// bearer token, honoring an outbound proxy when one is configured.
func NewGitHubClient(cfg *config.Config) *GitHubClient {
	return &GitHubClient{
		cfg:        cfg,
		httpClient: util.SetProxy(cfg, &http.Client{}),
	}
}

func (c *GitHubClient) endpoint() string {
	return strings.TrimSuffix(c.cfg.ModelsURL, "/") + "/chat/completions"
}

func (c *GitHubClient) newRequest(ctx context.Context, rawJSON []byte, stream bool) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(), bytes.NewReader(rawJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.GitHubToken)
	if stream {
		req.Header.Set("Accept", "text/event-stream")
		req.Header.Set("Cache-Control", "no-cache")
	} else {
		req.Header.Set("Accept", "application/json")
	}

	return req, nil
}

// SendMessage issues one blocking upstream call and returns the upstream
// status code and raw body. Error statuses are not an error here; the
// response translator passes them through to the caller unchanged.
func (c *GitHubClient) SendMessage(ctx context.Context, rawJSON []byte) (int, []byte, error) {
	req, err := c.newRequest(ctx, rawJSON, false)
	if err != nil {
		return 0, nil, err
	}

	log.Debugf("forwarding request to %s", c.endpoint())
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.UpstreamErrors.Inc()
		return 0, nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.UpstreamErrors.Inc()
		return 0, nil, fmt.Errorf("failed to read response: %w", err)
	}

	metrics.UpstreamResponses.WithLabelValues(fmt.Sprintf("%d", resp.StatusCode)).Inc()
	return resp.StatusCode, body, nil
}

// SendMessageStream issues one streaming upstream call and returns a frame
// channel fed by the session's translation loop plus an error channel for
// failures that occur before any frame can flow. When the stream opens
// successfully the frame channel carries translated payloads ending with the
// [DONE] sentinel; otherwise exactly one ErrorMessage arrives on the error
// channel and the handler synthesizes the terminal frames. Both channels are
// closed when the upstream call is finished, and the response body is
// released on every exit path.
func (c *GitHubClient) SendMessageStream(ctx context.Context, rawJSON []byte, session *translator.StreamSession) (<-chan []byte, <-chan *ErrorMessage) {
	frames := make(chan []byte)
	errs := make(chan *ErrorMessage, 1)

	go func() {
		defer close(frames)
		defer close(errs)

		rawJSON, _ = sjson.SetBytes(rawJSON, "stream", true)

		req, err := c.newRequest(ctx, rawJSON, true)
		if err != nil {
			errs <- &ErrorMessage{Error: err}
			return
		}

		log.Debugf("forwarding streaming request to %s", c.endpoint())
		resp, err := c.httpClient.Do(req)
		if err != nil {
			metrics.UpstreamErrors.Inc()
			errs <- &ErrorMessage{Error: fmt.Errorf("failed to execute request: %w", err)}
			return
		}
		defer func() {
			_ = resp.Body.Close()
		}()

		metrics.UpstreamResponses.WithLabelValues(fmt.Sprintf("%d", resp.StatusCode)).Inc()
		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(resp.Body)
			log.Errorf("upstream error %d: %s", resp.StatusCode, util.Truncate(string(body), 500))
			errs <- &ErrorMessage{StatusCode: resp.StatusCode, Error: fmt.Errorf("%s", body)}
			return
		}

		session.Pump(ctx, resp.Body, frames)
	}()

	return frames, errs
}
