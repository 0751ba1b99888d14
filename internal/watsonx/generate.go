package watsonx

import (
	"context"
	"fmt"
)

// GenerateParams bound the sampling behavior of a generation request.
type GenerateParams struct {
	MaxNewTokens  int
	Temperature   float64
	StopSequences []string
}

type generateRequest struct {
	ModelID    string             `json:"model_id"`
	Input      string             `json:"input"`
	ProjectID  string             `json:"project_id"`
	Parameters generateParameters `json:"parameters"`
}

type generateParameters struct {
	DecodingMethod string   `json:"decoding_method"`
	MaxNewTokens   int      `json:"max_new_tokens"`
	Temperature    float64  `json:"temperature"`
	StopSequences  []string `json:"stop_sequences,omitempty"`
}

type generateResponse struct {
	Results []struct {
		GeneratedText string `json:"generated_text"`
	} `json:"results"`
}

// Generate submits a single prompt to the text-generation endpoint and
// returns the first candidate's text.
func (c *Client) Generate(ctx context.Context, prompt string, params GenerateParams) (string, error) {
	if params.MaxNewTokens <= 0 {
		params.MaxNewTokens = 200
	}

	req := generateRequest{
		ModelID:   c.generationModel,
		Input:     prompt,
		ProjectID: c.projectID,
		Parameters: generateParameters{
			DecodingMethod: "sample",
			MaxNewTokens:   params.MaxNewTokens,
			Temperature:    params.Temperature,
			StopSequences:  params.StopSequences,
		},
	}

	var resp generateResponse
	if err := c.post(ctx, "/ml/v1/text/generation", req, &resp); err != nil {
		return "", err
	}
	if len(resp.Results) == 0 {
		return "", fmt.Errorf("watsonx: generation returned no results")
	}
	return resp.Results[0].GeneratedText, nil
}
