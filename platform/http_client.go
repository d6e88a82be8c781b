package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"ticketdesk/models"
)

// HTTPClient talks to the chat platform's REST gateway. It exposes only the
// primitives in Client; everything else about the platform is out of scope.
type HTTPClient struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewHTTPClient constructs a client targeting the provided base URL.
func NewHTTPClient(baseURL, token string, timeout time.Duration) *HTTPClient {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &HTTPClient{
		baseURL: baseURL,
		token:   token,
		client:  &http.Client{Timeout: timeout},
	}
}

func (c *HTTPClient) CreateChannel(ctx context.Context, scope, parentID, name string, overwrites []models.Overwrite) (models.ChannelRef, error) {
	payload := map[string]any{
		"name":       name,
		"parent_id":  parentID,
		"overwrites": overwrites,
	}
	var ref models.ChannelRef
	err := c.do(ctx, http.MethodPost, fmt.Sprintf("/scopes/%s/channels", scope), payload, &ref)
	return ref, err
}

func (c *HTTPClient) RenameChannel(ctx context.Context, channelID, name string) error {
	return c.do(ctx, http.MethodPatch, fmt.Sprintf("/channels/%s", channelID), map[string]any{"name": name}, nil)
}

func (c *HTTPClient) MoveChannel(ctx context.Context, channelID, parentID string) error {
	return c.do(ctx, http.MethodPatch, fmt.Sprintf("/channels/%s", channelID), map[string]any{"parent_id": parentID}, nil)
}

func (c *HTTPClient) DeleteChannel(ctx context.Context, channelID string) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/channels/%s", channelID), nil, nil)
}

func (c *HTTPClient) SetOverwrite(ctx context.Context, channelID, subjectID string, view bool) error {
	payload := map[string]any{"view": view}
	return c.do(ctx, http.MethodPut, fmt.Sprintf("/channels/%s/overwrites/%s", channelID, subjectID), payload, nil)
}

func (c *HTTPClient) FindCategory(ctx context.Context, scope, name string) (*models.CategoryRef, error) {
	var categories []models.CategoryRef
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/scopes/%s/categories", scope), nil, &categories); err != nil {
		return nil, err
	}
	for _, category := range categories {
		if category.Name == name {
			return &category, nil
		}
	}
	return nil, nil
}

func (c *HTTPClient) CreateCategory(ctx context.Context, scope, name string) (models.CategoryRef, error) {
	var ref models.CategoryRef
	err := c.do(ctx, http.MethodPost, fmt.Sprintf("/scopes/%s/categories", scope), map[string]any{"name": name}, &ref)
	return ref, err
}

func (c *HTTPClient) do(ctx context.Context, method, path string, payload, out any) error {
	var body *bytes.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bot "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("%s %s: %s", method, path, resp.Status)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
