// Package handlers provides the shared handler state and error envelope for
// the proxy's API endpoints. The base handler owns the configuration, model
// table, and upstream client that individual endpoint handlers consume, and
// swaps them atomically when the configuration is reloaded.
package handlers

import (
	"sync"

	"github.com/openclaw/modelsproxy/internal/client"
	"github.com/openclaw/modelsproxy/internal/config"
	"github.com/openclaw/modelsproxy/internal/registry"
)

// ErrorResponse represents a standard error response format for the API.
type ErrorResponse struct {
	// Error contains detailed information about the error that occurred.
	Error ErrorDetail `json:"error"`
}

// ErrorDetail provides specific information about an error that occurred.
type ErrorDetail struct {
	// Message is a human-readable message providing more details about the error.
	Message string `json:"message"`

	// Type is the category of error that occurred (e.g., "invalid_request_error").
	Type string `json:"type"`

	// Code is a short code identifying the error, if applicable.
	Code string `json:"code,omitempty"`
}

// BaseHandler holds the state shared by all endpoint handlers. Requests read
// a consistent snapshot; configuration reloads replace the whole set.
type BaseHandler struct {
	mu     sync.RWMutex
	cfg    *config.Config
	client *client.GitHubClient
	table  *registry.Table
}

// NewBaseHandler creates the shared handler state from an initial
// configuration.
func NewBaseHandler(cfg *config.Config) *BaseHandler {
	return &BaseHandler{
		cfg:    cfg,
		client: client.NewGitHubClient(cfg),
		table:  registry.NewTable(cfg),
	}
}

// Snapshot returns the configuration, upstream client, and model table as
// one consistent set. Handlers must use a single snapshot for the lifetime
// of a request.
func (h *BaseHandler) Snapshot() (*config.Config, *client.GitHubClient, *registry.Table) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.cfg, h.client, h.table
}

// Update replaces the shared state after a configuration reload. In-flight
// requests keep the snapshot they started with.
func (h *BaseHandler) Update(cfg *config.Config) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.cfg = cfg
	h.client = client.NewGitHubClient(cfg)
	h.table = registry.NewTable(cfg)
}
