package models

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"

	"ollamacli/utils/config"
	"ollamacli/utils/retry"
)

// OllamaProvider streams generations from an Ollama server.
type OllamaProvider struct {
	baseURL string
	client  *http.Client
}

type ollamaGenerateRequest struct {
	Model   string `json:"model"`
	Prompt  string `json:"prompt"`
	System  string `json:"system,omitempty"`
	Stream  bool   `json:"stream"`
	Context []int  `json:"context,omitempty"`
}

type ollamaGenerateChunk struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
	Context  []int  `json:"context,omitempty"`
	Error    string `json:"error,omitempty"`
}

// OllamaTagsResponse is the body of GET /api/tags.
type OllamaTagsResponse struct {
	Models []OllamaModelTag `json:"models"`
}

// OllamaModelTag is a single installed model.
type OllamaModelTag struct {
	Name string `json:"name"`
}

// NewOllamaProvider creates a provider for the configured Ollama endpoint.
// The connect timeout applies to dialing; the read timeout bounds the whole
// request, streaming included, so a stalled generation cannot hang the chat
// loop forever.
func NewOllamaProvider(cfg *config.Config) *OllamaProvider {
	return &OllamaProvider{
		baseURL: strings.TrimRight(cfg.OllamaURL, "/"),
		client: &http.Client{
			Timeout: cfg.ReadTimeout(),
			Transport: &http.Transport{
				DialContext: (&net.Dialer{Timeout: cfg.ConnectTimeout()}).DialContext,
			},
		},
	}
}

// Name returns the provider name.
func (o *OllamaProvider) Name() string {
	return "ollama"
}

// Reachable reports whether the server answers on /api/tags.
func (o *OllamaProvider) Reachable(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.baseURL+"/api/tags", nil)
	if err != nil {
		return false
	}
	resp, err := o.client.Do(req)
	if err != nil {
		config.DebugLog("[Ollama] Not reachable: %v", err)
		return false
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	return resp.StatusCode == http.StatusOK
}

// ListModels returns the names of locally installed models.
func (o *OllamaProvider) ListModels(ctx context.Context) ([]string, error) {
	return retry.Do(func() ([]string, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.baseURL+"/api/tags", nil)
		if err != nil {
			return nil, fmt.Errorf("error building request: %w", err)
		}
		resp, err := o.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("error calling Ollama API: %v (is Ollama running?)", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(resp.Body)
			return nil, fmt.Errorf("Ollama API error (status %d): %s", resp.StatusCode, string(body))
		}

		var tags OllamaTagsResponse
		if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
			return nil, fmt.Errorf("error parsing model list: %v", err)
		}

		names := make([]string, 0, len(tags.Models))
		for _, m := range tags.Models {
			names = append(names, m.Name)
		}
		return names, nil
	}, retry.IsTransient, retry.DefaultConfig)
}

// ModelAvailable reports whether the requested model (or a tag of it) is
// installed on the server.
func (o *OllamaProvider) ModelAvailable(ctx context.Context, modelName string) bool {
	names, err := o.ListModels(ctx)
	if err != nil {
		config.DebugLog("[Ollama] Availability check failed: %v", err)
		return false
	}
	for _, name := range names {
		if MatchesModel(modelName, name) {
			config.DebugLog("[Ollama] Found local model: %s -> %s", modelName, name)
			return true
		}
	}
	return false
}

// Generate streams one turn from /api/generate, invoking onToken for every
// response chunk. The returned result carries the full text and the
// continuation context from the final chunk.
func (o *OllamaProvider) Generate(ctx context.Context, genReq GenerateRequest, onToken StreamFunc) (*GenerateResult, error) {
	body, err := json.Marshal(ollamaGenerateRequest{
		Model:   genReq.Model,
		Prompt:  genReq.Prompt,
		System:  genReq.System,
		Stream:  true,
		Context: genReq.Context,
	})
	if err != nil {
		return nil, fmt.Errorf("error marshaling request: %v", err)
	}
	config.DebugLog("[Ollama] Generate model=%s prompt=%d bytes context=%d tokens",
		genReq.Model, len(genReq.Prompt), len(genReq.Context))

	// Only establishing the stream is retried. Once tokens have been
	// delivered to the caller a replay would duplicate output.
	resp, err := retry.Do(func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/api/generate", bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("error building request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := o.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("error calling Ollama API: %v (is Ollama running?)", err)
		}
		if resp.StatusCode != http.StatusOK {
			respBody, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			return nil, fmt.Errorf("Ollama API error (status %d): %s", resp.StatusCode, string(respBody))
		}
		return resp, nil
	}, retry.IsTransient, retry.DefaultConfig)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var full strings.Builder
	result := &GenerateResult{}
	decoder := json.NewDecoder(resp.Body)
	for {
		var chunk ollamaGenerateChunk
		if err := decoder.Decode(&chunk); err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("error decoding response stream: %v", err)
		}
		if chunk.Error != "" {
			return nil, fmt.Errorf("Ollama API error: %s", chunk.Error)
		}
		if chunk.Response != "" {
			full.WriteString(chunk.Response)
			if onToken != nil {
				if err := onToken(chunk.Response); err != nil {
					return nil, err
				}
			}
		}
		if chunk.Done {
			result.Context = chunk.Context
			break
		}
	}

	result.Text = full.String()
	config.DebugLog("[Ollama] Generation complete: %d characters", len(result.Text))
	return result, nil
}
