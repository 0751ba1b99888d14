package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ExpertVagabond/watsonx-mcp-server/internal/watsonx"
)

// Backend is the slice of the watsonx client the tools need.
// *watsonx.Client satisfies this.
type Backend interface {
	Generate(ctx context.Context, prompt string, params watsonx.GenerateParams) (string, error)
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	ListModels(ctx context.Context) ([]watsonx.ModelSpec, error)
}

// Tool describes one callable operation in a tools/list response.
type Tool struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"inputSchema"`
}

func toolList() []Tool {
	return []Tool{
		{
			Name:        "generate_text",
			Description: "Generate text from a prompt using the configured watsonx.ai foundation model",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"prompt": map[string]any{
						"type":        "string",
						"description": "The prompt to send to the model",
					},
					"max_tokens": map[string]any{
						"type":        "integer",
						"description": "Maximum number of tokens to generate (default 200)",
					},
					"temperature": map[string]any{
						"type":        "number",
						"description": "Sampling temperature between 0 and 2 (default 0.7)",
					},
				},
				"required": []string{"prompt"},
			},
		},
		{
			Name:        "list_models",
			Description: "List the foundation models available on watsonx.ai",
			InputSchema: map[string]any{
				"type":       "object",
				"properties": map[string]any{},
			},
		},
		{
			Name:        "embed_text",
			Description: "Compute embedding vectors for one or more texts",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"texts": map[string]any{
						"type":        "array",
						"items":       map[string]any{"type": "string"},
						"description": "Texts to embed, one vector returned per text",
					},
				},
				"required": []string{"texts"},
			},
		},
	}
}

// callTool maps a named tool invocation onto a backend operation and
// renders the result as text.
func callTool(ctx context.Context, backend Backend, name string, args json.RawMessage) (string, error) {
	switch name {
	case "generate_text":
		return callGenerateText(ctx, backend, args)
	case "list_models":
		return callListModels(ctx, backend)
	case "embed_text":
		return callEmbedText(ctx, backend, args)
	default:
		return "", fmt.Errorf("unknown tool: %s", name)
	}
}

func callGenerateText(ctx context.Context, backend Backend, args json.RawMessage) (string, error) {
	var in struct {
		Prompt      string  `json:"prompt"`
		MaxTokens   int     `json:"max_tokens"`
		Temperature float64 `json:"temperature"`
	}
	if err := json.Unmarshal(args, &in); err != nil {
		return "", fmt.Errorf("invalid arguments: %w", err)
	}
	if in.Prompt == "" {
		return "", fmt.Errorf("prompt is required")
	}
	if in.MaxTokens <= 0 {
		in.MaxTokens = 200
	}
	if in.Temperature == 0 {
		in.Temperature = 0.7
	}

	return backend.Generate(ctx, in.Prompt, watsonx.GenerateParams{
		MaxNewTokens: in.MaxTokens,
		Temperature:  in.Temperature,
	})
}

func callListModels(ctx context.Context, backend Backend) (string, error) {
	models, err := backend.ListModels(ctx)
	if err != nil {
		return "", err
	}
	if len(models) == 0 {
		return "No models available.", nil
	}

	var b strings.Builder
	for _, m := range models {
		if m.Label != "" {
			fmt.Fprintf(&b, "%s (%s)\n", m.ModelID, m.Label)
		} else {
			fmt.Fprintln(&b, m.ModelID)
		}
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

func callEmbedText(ctx context.Context, backend Backend, args json.RawMessage) (string, error) {
	var in struct {
		Texts []string `json:"texts"`
	}
	if err := json.Unmarshal(args, &in); err != nil {
		return "", fmt.Errorf("invalid arguments: %w", err)
	}
	if len(in.Texts) == 0 {
		return "", fmt.Errorf("texts is required")
	}

	vectors, err := backend.Embed(ctx, in.Texts)
	if err != nil {
		return "", err
	}

	out, err := json.Marshal(vectors)
	if err != nil {
		return "", fmt.Errorf("failed to encode vectors: %w", err)
	}
	return string(out), nil
}
