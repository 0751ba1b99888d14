package watsonx

import "context"

// ModelSpec describes one foundation model available to the project.
type ModelSpec struct {
	ModelID  string `json:"model_id"`
	Label    string `json:"label"`
	Provider string `json:"provider"`
}

type modelSpecsResponse struct {
	Resources []ModelSpec `json:"resources"`
}

// ListModels returns the foundation models the service exposes.
func (c *Client) ListModels(ctx context.Context) ([]ModelSpec, error) {
	var resp modelSpecsResponse
	if err := c.get(ctx, "/ml/v1/foundation_model_specs", &resp); err != nil {
		return nil, err
	}
	return resp.Resources, nil
}
