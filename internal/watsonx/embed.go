package watsonx

import (
	"context"
	"fmt"
)

type embedRequest struct {
	ModelID   string   `json:"model_id"`
	Inputs    []string `json:"inputs"`
	ProjectID string   `json:"project_id"`
}

type embedResponse struct {
	Results []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"results"`
}

// Embed sends texts to the embeddings endpoint and returns one vector per
// input, preserving input order. The service guarantees positional
// alignment; a count mismatch is reported as an error rather than
// silently misattributed.
func (c *Client) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	req := embedRequest{
		ModelID:   c.embeddingModel,
		Inputs:    texts,
		ProjectID: c.projectID,
	}

	var resp embedResponse
	if err := c.post(ctx, "/ml/v1/text/embeddings", req, &resp); err != nil {
		return nil, err
	}
	if len(resp.Results) != len(texts) {
		return nil, fmt.Errorf("watsonx: embedding count mismatch: sent %d texts, got %d vectors", len(texts), len(resp.Results))
	}

	vectors := make([][]float32, len(resp.Results))
	for i, r := range resp.Results {
		vectors[i] = r.Embedding
	}
	return vectors, nil
}
