package openai

import (
	"context"

	"github.com/openclaw/modelsproxy/internal/client"
	"github.com/openclaw/modelsproxy/internal/translator"
)

// upstreamClient is the transport surface the handlers need. It is satisfied
// by *client.GitHubClient and by test doubles.
type upstreamClient interface {
	SendMessage(ctx context.Context, rawJSON []byte) (int, []byte, error)
	SendMessageStream(ctx context.Context, rawJSON []byte, session *translator.StreamSession) (<-chan []byte, <-chan *client.ErrorMessage)
}
