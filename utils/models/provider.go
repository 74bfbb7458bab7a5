// Package models talks to locally hosted LLM servers. The primary backend
// is Ollama's native API; servers that expose an OpenAI-compatible endpoint
// (vLLM, llama.cpp, LM Studio) are supported through a second provider.
package models

import (
	"context"
	"strings"

	"ollamacli/utils/config"
)

// StreamFunc receives each token as it arrives. Returning an error aborts
// the generation.
type StreamFunc func(token string) error

// GenerateRequest is one turn sent to the model.
type GenerateRequest struct {
	Model  string
	Prompt string
	System string
	// Context is the opaque continuation state returned by the previous
	// turn. Nil starts a fresh conversation.
	Context []int
}

// GenerateResult is the completed response for one turn.
type GenerateResult struct {
	Text string
	// Context carries the conversation state to pass into the next turn.
	// Providers without native continuation leave it nil.
	Context []int
}

// Provider is a model backend capable of streaming generation.
type Provider interface {
	Name() string
	ListModels(ctx context.Context) ([]string, error)
	Generate(ctx context.Context, req GenerateRequest, onToken StreamFunc) (*GenerateResult, error)
}

// DetectProvider picks a backend for the current configuration. Ollama is
// preferred when it answers on its endpoint; otherwise the OpenAI-compatible
// endpoint is used if one is configured. When neither responds the Ollama
// provider is returned anyway so the caller gets its connection error.
func DetectProvider(ctx context.Context, cfg *config.Config) Provider {
	ollama := NewOllamaProvider(cfg)
	if ollama.Reachable(ctx) {
		config.DebugLog("[Provider] Ollama reachable at %s", cfg.OllamaURL)
		return ollama
	}
	if cfg.OpenAICompatURL != "" {
		compat := NewOpenAICompatProvider(cfg)
		if compat.Reachable(ctx) {
			config.DebugLog("[Provider] Using OpenAI-compatible endpoint at %s", cfg.OpenAICompatURL)
			return compat
		}
	}
	config.DebugLog("[Provider] No backend reachable, defaulting to Ollama")
	return ollama
}

// MatchesModel reports whether a locally available model name satisfies the
// requested name: exact match, base name before the :tag, or a prefix match
// at a tag or version boundary ("llama3" matches "llama3.2:latest").
func MatchesModel(requested, available string) bool {
	req := strings.ToLower(requested)
	avail := strings.ToLower(available)

	if avail == req {
		return true
	}
	if base, _, ok := strings.Cut(avail, ":"); ok && base == req {
		return true
	}
	if strings.HasPrefix(avail, req) {
		next := avail[len(req):]
		if strings.HasPrefix(next, ":") || strings.HasPrefix(next, ".") {
			return true
		}
	}
	return false
}
