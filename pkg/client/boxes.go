package client

import (
	"context"
	"net/http"
	"net/url"

	"github.com/boxfleet/boxfleet/internal/model"
)

// ListBoxes returns the caller's boxes, name-sorted by the server.
func (c *Client) ListBoxes(ctx context.Context) ([]model.Box, error) {
	var resp model.BoxListResponse
	if err := c.doJSON(ctx, http.MethodGet, "/", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Boxes, nil
}

// CreateBox launches a box. When the name is already taken the server hands
// back the existing matching boxes; created reports which case this was.
func (c *Client) CreateBox(ctx context.Context, req model.CreateBoxRequest) (boxes []model.Box, created bool, err error) {
	resp, err := c.doRequest(ctx, http.MethodPost, "/box", req)
	if err != nil {
		return nil, false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, false, handleErrorResponse(resp)
	}

	var out model.BoxListResponse
	if err := decodeJSON(resp, &out); err != nil {
		return nil, false, err
	}
	return out.Boxes, resp.StatusCode == http.StatusCreated, nil
}

// DeleteBox tears down a box by instance id.
func (c *Client) DeleteBox(ctx context.Context, instanceID string) error {
	return c.doEmpty(ctx, http.MethodDelete, "/box/"+url.PathEscape(instanceID))
}

// RebootBox restarts a box in place.
func (c *Client) RebootBox(ctx context.Context, instanceID string) error {
	return c.doEmpty(ctx, http.MethodPost, "/reboot/"+url.PathEscape(instanceID))
}
