// Package registry maintains the model mapping table for the GitHub Models
// proxy. The table maps caller-facing model ids (the names OpenAI and
// OpenRouter clients send) to the ids the GitHub Models endpoint understands.
// Declaration order matters: the substring fallback walks the table in order,
// so earlier routes win ties. The table is built once per configuration load
// and never mutated afterwards; configuration reloads swap in a whole new table.
package registry

import (
	"strings"
	"time"

	"github.com/openclaw/modelsproxy/internal/config"
)

// ModelInfo describes one entry of the OpenAI-compatible /v1/models listing.
type ModelInfo struct {
	// ID is the unique identifier for the model.
	ID string `json:"id"`
	// Object type for the model (always "model").
	Object string `json:"object"`
	// Created timestamp for the listing entry.
	Created int64 `json:"created"`
	// OwnedBy indicates the organization serving the model.
	OwnedBy string `json:"owned_by"`
}

// Table is an ordered, immutable model mapping plus the configured default
// model. Safe for concurrent use without locking.
type Table struct {
	routes       []config.ModelRoute
	defaultModel string
	created      int64
}

// defaultRoutes returns the built-in mapping from OpenAI/OpenRouter model ids
// to GitHub Models ids. Order is significant and must be preserved.
func defaultRoutes() []config.ModelRoute {
	return []config.ModelRoute{
		{Alias: "gpt-4", Model: "gpt-4o"},
		{Alias: "gpt-4-turbo", Model: "gpt-4o"},
		{Alias: "gpt-4o", Model: "gpt-4o"},
		{Alias: "gpt-4o-mini", Model: "gpt-4o-mini"},
		{Alias: "gpt-3.5-turbo", Model: "gpt-4o-mini"},
		{Alias: "o1", Model: "o1"},
		{Alias: "o1-mini", Model: "o1-mini"},
		{Alias: "o1-preview", Model: "o1-preview"},
		{Alias: "claude-3-opus", Model: "claude-3-opus"},
		{Alias: "claude-3-sonnet", Model: "claude-3-sonnet"},
		{Alias: "claude-3-haiku", Model: "claude-3-haiku"},
		{Alias: "claude-3.5-sonnet", Model: "claude-3.5-sonnet"},
		{Alias: "opus-4.5", Model: "claude-4.5-opus"},
		{Alias: "claude-4.5-opus", Model: "claude-4.5-opus"},
		{Alias: "llama-3", Model: "meta-llama-3-70b-instruct"},
		{Alias: "llama-3-70b", Model: "meta-llama-3-70b-instruct"},
		{Alias: "llama-3.1-405b", Model: "meta-llama-3.1-405b-instruct"},
		{Alias: "mistral-large", Model: "mistral-large"},
		{Alias: "mistral-small", Model: "mistral-small"},
		{Alias: "command-r", Model: "cohere-command-r"},
		{Alias: "command-r-plus", Model: "cohere-command-r-plus"},
	}
}

// NewTable builds a mapping table from the built-in routes followed by any
// routes declared in the configuration. Configured routes come after the
// built-ins, so built-in aliases keep their substring-match priority.
func NewTable(cfg *config.Config) *Table {
	routes := defaultRoutes()
	routes = append(routes, cfg.ModelMap...)
	return &Table{
		routes:       routes,
		defaultModel: cfg.DefaultModel,
		created:      time.Now().Unix(),
	}
}

// Resolve maps a requested model id to the upstream id. Resolution always
// succeeds: exact alias match first, then a case-insensitive bidirectional
// substring match in declaration order, then the requested id itself, with
// the configured default covering an empty request.
func (t *Table) Resolve(requested string) string {
	if requested == "" {
		return t.defaultModel
	}

	for _, route := range t.routes {
		if route.Alias == requested {
			return route.Model
		}
	}

	requestedLower := strings.ToLower(requested)
	for _, route := range t.routes {
		aliasLower := strings.ToLower(route.Alias)
		if strings.Contains(requestedLower, aliasLower) || strings.Contains(aliasLower, requestedLower) {
			return route.Model
		}
	}

	return requested
}

// Models returns the OpenAI-style model listing: the distinct upstream ids of
// the table, in first-declared order.
func (t *Table) Models() []ModelInfo {
	seen := make(map[string]struct{}, len(t.routes))
	models := make([]ModelInfo, 0, len(t.routes))
	for _, route := range t.routes {
		if _, ok := seen[route.Model]; ok {
			continue
		}
		seen[route.Model] = struct{}{}
		models = append(models, ModelInfo{
			ID:      route.Model,
			Object:  "model",
			Created: t.created,
			OwnedBy: "github",
		})
	}
	return models
}

// Routes returns the number of routes in the table, for reload logging.
func (t *Table) Routes() int {
	return len(t.routes)
}
