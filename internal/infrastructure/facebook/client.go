package facebook

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"autopilot/internal/domain"
	"autopilot/internal/ports"
)

const (
	graphBase      = "https://graph.facebook.com/v22.0"
	requestTimeout = 30 * time.Second
)

// Client posts to a Facebook page through the Graph API.
type Client struct {
	pageID      string
	accessToken string
	baseURL     string
	http        *http.Client
}

var _ ports.SocialClient = (*Client)(nil)

// NewClient builds the Graph API client for one page.
func NewClient(pageID, accessToken string) *Client {
	return &Client{
		pageID:      pageID,
		accessToken: accessToken,
		baseURL:     graphBase,
		http:        &http.Client{Timeout: requestTimeout},
	}
}

type postResponse struct {
	ID     string `json:"id"`
	PostID string `json:"post_id"`
	Error  *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// PostLink publishes a link post on the page feed and returns the post id.
func (c *Client) PostLink(ctx context.Context, message, link string) (string, error) {
	form := url.Values{
		"message": {message},
		"link":    {link},
	}
	return c.post(ctx, fmt.Sprintf("%s/%s/feed", c.baseURL, c.pageID), form)
}

// PostPhoto publishes a photo post with a caption and returns the post id.
func (c *Client) PostPhoto(ctx context.Context, message, photoURL string) (string, error) {
	form := url.Values{
		"message": {message},
		"url":     {photoURL},
	}
	return c.post(ctx, fmt.Sprintf("%s/%s/photos", c.baseURL, c.pageID), form)
}

func (c *Client) post(ctx context.Context, endpoint string, form url.Values) (string, error) {
	form.Set("access_token", c.accessToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("build graph request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", domain.StageFailure("social", domain.ErrTransport, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", domain.StageFailure("social", domain.ErrTransport, err)
	}

	var parsed postResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", domain.StageFailure("social", domain.ErrParse, err)
	}
	if parsed.Error != nil && parsed.Error.Message != "" {
		return "", domain.Stagef("social", domain.ErrProvider, "%s", parsed.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return "", domain.Stagef("social", domain.ErrProvider, "status %d", resp.StatusCode)
	}

	// Photo posts report post_id, feed posts report id.
	if parsed.PostID != "" {
		return parsed.PostID, nil
	}
	if parsed.ID != "" {
		return parsed.ID, nil
	}
	return "", domain.Stagef("social", domain.ErrParse, "response missing post id")
}
