package falqueue

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"autopilot/internal/domain"
	"autopilot/internal/ports"
)

const requestTimeout = 30 * time.Second

// Fixed generation parameters for every submission.
const (
	imageSize   = "landscape_16_9"
	imageWidth  = 1280
	imageHeight = 720
	aspectRatio = "16:9"
)

// Client implements the queue-based image generation protocol: submit a job,
// poll its status, fetch the result.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

var _ ports.ImageQueueClient = (*Client)(nil)

// NewClient builds the queue client against the given base URL.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: requestTimeout},
	}
}

type submitPayload struct {
	Prompt          string   `json:"prompt"`
	ImageSize       string   `json:"image_size"`
	Width           int      `json:"width"`
	Height          int      `json:"height"`
	AspectRatio     string   `json:"aspect_ratio"`
	NumImages       int      `json:"num_images"`
	ImageURLs       []string `json:"image_urls,omitempty"`
	EnableWebSearch bool     `json:"enable_web_search,omitempty"`
}

type submitResponse struct {
	RequestID string `json:"request_id"`
}

type statusResponse struct {
	Status string `json:"status"`
}

// resultResponse covers both result shapes served by different models: a list
// of images and a single image object.
type resultResponse struct {
	Images []struct {
		URL string `json:"url"`
	} `json:"images"`
	Image struct {
		URL string `json:"url"`
	} `json:"image"`
}

// Submit enqueues a generation job and returns the queue request id.
func (c *Client) Submit(ctx context.Context, model string, job ports.ImageJob) (string, error) {
	payload := submitPayload{
		Prompt:          job.Prompt,
		ImageSize:       imageSize,
		Width:           imageWidth,
		Height:          imageHeight,
		AspectRatio:     aspectRatio,
		NumImages:       1,
		ImageURLs:       job.ReferenceURLs,
		EnableWebSearch: job.EnableWebSearch,
	}

	var parsed submitResponse
	if err := c.call(ctx, http.MethodPost, c.baseURL+"/"+model, payload, &parsed); err != nil {
		return "", err
	}
	if parsed.RequestID == "" {
		return "", domain.Stagef("image", domain.ErrParse, "submit response missing request id")
	}
	return parsed.RequestID, nil
}

// Status fetches the current queue status of a request.
func (c *Client) Status(ctx context.Context, model, requestID string) (string, error) {
	var parsed statusResponse
	url := fmt.Sprintf("%s/%s/requests/%s/status", c.baseURL, model, requestID)
	if err := c.call(ctx, http.MethodGet, url, nil, &parsed); err != nil {
		return "", err
	}
	return parsed.Status, nil
}

// Result fetches the finished image URL for a completed request.
func (c *Client) Result(ctx context.Context, model, requestID string) (string, error) {
	var parsed resultResponse
	url := fmt.Sprintf("%s/%s/requests/%s", c.baseURL, model, requestID)
	if err := c.call(ctx, http.MethodGet, url, nil, &parsed); err != nil {
		return "", err
	}

	if len(parsed.Images) > 0 && parsed.Images[0].URL != "" {
		return parsed.Images[0].URL, nil
	}
	if parsed.Image.URL != "" {
		return parsed.Image.URL, nil
	}
	return "", domain.Stagef("image", domain.ErrParse, "result response has no image url")
}

func (c *Client) call(ctx context.Context, method, url string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal queue payload: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return fmt.Errorf("build queue request: %w", err)
	}
	req.Header.Set("Authorization", "Key "+c.apiKey)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return domain.StageFailure("image", domain.ErrTransport, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.StageFailure("image", domain.ErrTransport, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return domain.Stagef("image", domain.ErrProvider, "status %d: %s", resp.StatusCode, truncate(raw, 300))
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return domain.StageFailure("image", domain.ErrParse, err)
	}
	return nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
