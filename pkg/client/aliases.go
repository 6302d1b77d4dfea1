package client

import (
	"context"
	"net/http"
	"net/url"

	"github.com/boxfleet/boxfleet/internal/model"
)

// ListImageAliases returns the caller's alias -> image id mapping.
func (c *Client) ListImageAliases(ctx context.Context) (map[string]string, error) {
	var resp model.AliasListResponse
	if err := c.doJSON(ctx, http.MethodGet, "/image-alias", nil, &resp); err != nil {
		return nil, err
	}
	return resp.ImageAliases, nil
}

// CreateImageAlias registers one alias.
func (c *Client) CreateImageAlias(ctx context.Context, alias, imageID string) error {
	req := model.CreateAliasRequest{Alias: alias, ImageID: imageID}
	return c.doJSON(ctx, http.MethodPost, "/image-alias", req, nil)
}

// DeleteImageAlias removes one alias.
func (c *Client) DeleteImageAlias(ctx context.Context, alias string) error {
	return c.doEmpty(ctx, http.MethodDelete, "/image-alias/"+url.PathEscape(alias))
}
