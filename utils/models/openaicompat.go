package models

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"ollamacli/utils/config"
)

// OpenAICompatProvider streams generations from any server that speaks the
// OpenAI chat completions API: vLLM, llama.cpp server, LM Studio. These
// servers have no equivalent of Ollama's context array, so conversation
// state rides along in the prompt and Context stays nil.
type OpenAICompatProvider struct {
	client *openai.Client
}

// NewOpenAICompatProvider creates a provider for the configured endpoint.
// Local servers usually ignore the API key; OLLAMACLI_API_KEY overrides the
// placeholder for servers that enforce one.
func NewOpenAICompatProvider(cfg *config.Config) *OpenAICompatProvider {
	apiKey := os.Getenv("OLLAMACLI_API_KEY")
	if apiKey == "" {
		apiKey = "local"
	}

	clientCfg := openai.DefaultConfig(apiKey)
	clientCfg.BaseURL = normalizeBaseURL(cfg.OpenAICompatURL)
	clientCfg.HTTPClient = &http.Client{
		Timeout: cfg.ReadTimeout(),
		Transport: &http.Transport{
			DialContext: (&net.Dialer{Timeout: cfg.ConnectTimeout()}).DialContext,
		},
	}

	return &OpenAICompatProvider{client: openai.NewClientWithConfig(clientCfg)}
}

func normalizeBaseURL(url string) string {
	url = strings.TrimRight(url, "/")
	if !strings.HasSuffix(url, "/v1") {
		url += "/v1"
	}
	return url
}

// Name returns the provider name.
func (p *OpenAICompatProvider) Name() string {
	return "openai-compat"
}

// Reachable reports whether the server answers on /v1/models.
func (p *OpenAICompatProvider) Reachable(ctx context.Context) bool {
	_, err := p.client.ListModels(ctx)
	if err != nil {
		config.DebugLog("[OpenAICompat] Not reachable: %v", err)
		return false
	}
	return true
}

// ListModels returns the model IDs the server advertises.
func (p *OpenAICompatProvider) ListModels(ctx context.Context) ([]string, error) {
	list, err := p.client.ListModels(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing models: %v", err)
	}
	names := make([]string, 0, len(list.Models))
	for _, m := range list.Models {
		names = append(names, m.ID)
	}
	return names, nil
}

// Generate streams one chat completion, invoking onToken per delta.
func (p *OpenAICompatProvider) Generate(ctx context.Context, genReq GenerateRequest, onToken StreamFunc) (*GenerateResult, error) {
	var messages []openai.ChatCompletionMessage
	if genReq.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: genReq.System,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: genReq.Prompt,
	})

	config.DebugLog("[OpenAICompat] Generate model=%s prompt=%d bytes", genReq.Model, len(genReq.Prompt))

	stream, err := p.client.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
		Model:    genReq.Model,
		Messages: messages,
		Stream:   true,
	})
	if err != nil {
		return nil, fmt.Errorf("error starting completion stream: %v", err)
	}
	defer stream.Close()

	var full strings.Builder
	for {
		resp, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading completion stream: %v", err)
		}
		if len(resp.Choices) == 0 {
			continue
		}
		delta := resp.Choices[0].Delta.Content
		if delta == "" {
			continue
		}
		full.WriteString(delta)
		if onToken != nil {
			if err := onToken(delta); err != nil {
				return nil, err
			}
		}
	}

	config.DebugLog("[OpenAICompat] Generation complete: %d characters", full.Len())
	return &GenerateResult{Text: full.String()}, nil
}
