package anthropic

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// Model describes an available model.
type Model struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	DisplayName string `json:"display_name"`
	CreatedAt   string `json:"created_at"`
}

// Models lists available models. The list is fetched once per client and
// cached.
func (c *Client) Models(ctx context.Context) ([]*Model, error) {
	return c.models(ctx)
}

// Model returns a single model by id.
func (c *Client) Model(ctx context.Context, id string) (*Model, error) {
	if id == "" {
		return nil, &ConfigError{Reason: "model id is required"}
	}
	var model Model
	if err := c.do(ctx, http.MethodGet, "/v1/models/"+url.PathEscape(id), nil, &model); err != nil {
		return nil, err
	}
	return &model, nil
}

func (c *Client) listModels(ctx context.Context) (models []*Model, err error) {
	afterID := ""
	for {
		path := "/v1/models?limit=100"
		if afterID != "" {
			path += "&after_id=" + url.QueryEscape(afterID)
		}
		var page struct {
			Data    []*Model `json:"data"`
			HasMore bool     `json:"has_more"`
			LastID  string   `json:"last_id"`
		}
		if err := c.do(ctx, http.MethodGet, path, nil, &page); err != nil {
			return nil, fmt.Errorf("anthropic: listing models: %w", err)
		}
		models = append(models, page.Data...)
		if !page.HasMore || page.LastID == "" {
			return models, nil
		}
		afterID = page.LastID
	}
}
