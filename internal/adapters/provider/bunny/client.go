package bunny

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"golang.org/x/time/rate"

	"github.com/casting-intake/internal/core/services"
)

const (
	Tag            = "bunny"
	DefaultBaseURL = "https://video.bunnycdn.com"

	maxResponseBody = 1 << 20
)

type Config struct {
	BaseURL   string
	LibraryID string
	APIKey    string
	// RPS paces create, status and collection calls. Binary uploads are not paced.
	RPS float64
}

type Client struct {
	baseURL    string
	libraryID  string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
}

func NewClient(cfg Config, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	limit := rate.Inf
	if cfg.RPS > 0 {
		limit = rate.Limit(cfg.RPS)
	}
	return &Client{
		baseURL:    baseURL,
		libraryID:  cfg.LibraryID,
		apiKey:     cfg.APIKey,
		httpClient: httpClient,
		limiter:    rate.NewLimiter(limit, 1),
	}
}

func (c *Client) Tag() string { return Tag }

func (c *Client) videoURL(videoID string) string {
	return fmt.Sprintf("%s/library/%s/videos/%s", c.baseURL, url.PathEscape(c.libraryID), url.PathEscape(videoID))
}

type createVideoResponse struct {
	GUID  string `json:"guid"`
	Title string `json:"title"`
}

func (c *Client) CreateVideo(ctx context.Context, title string) (services.CreatedVideo, error) {
	var out createVideoResponse
	endpoint := fmt.Sprintf("%s/library/%s/videos", c.baseURL, url.PathEscape(c.libraryID))
	if err := c.postJSON(ctx, "create video", endpoint, map[string]string{"title": title}, &out); err != nil {
		return services.CreatedVideo{}, err
	}
	return services.CreatedVideo{VideoID: out.GUID, Title: out.Title}, nil
}

func (c *Client) UploadVideo(ctx context.Context, req services.UploadRequest) (*services.UploadResponse, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPut, c.videoURL(req.VideoID), req.Body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.ContentLength = req.ContentLength
	httpReq.Header.Set("AccessKey", c.apiKey)
	httpReq.Header.Set("Content-Type", req.ContentType)
	if req.ContentRange != "" {
		httpReq.Header.Set("Content-Range", req.ContentRange)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("making request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	return &services.UploadResponse{
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
	}, nil
}

func (c *Client) FetchStatus(ctx context.Context, videoID string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.videoURL(videoID), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("AccessKey", c.apiKey)
	httpReq.Header.Set("Accept", "application/json")

	return c.do(httpReq, "video status")
}

type createCollectionResponse struct {
	GUID string `json:"guid"`
}

// CreateChannel creates a Stream collection, Bunny's grouping of videos.
func (c *Client) CreateChannel(ctx context.Context, name string) (string, error) {
	var out createCollectionResponse
	endpoint := fmt.Sprintf("%s/library/%s/collections", c.baseURL, url.PathEscape(c.libraryID))
	if err := c.postJSON(ctx, "create collection", endpoint, map[string]string{"name": name}, &out); err != nil {
		return "", err
	}
	if out.GUID == "" {
		return "", &services.ProviderError{Provider: Tag, Op: "create collection", Err: fmt.Errorf("response has no guid")}
	}
	return out.GUID, nil
}

func (c *Client) postJSON(ctx context.Context, op, endpoint string, in, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("AccessKey", c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	raw, err := c.do(httpReq, op)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &services.ProviderError{Provider: Tag, Op: op, Body: string(raw), Err: err}
	}
	return nil
}

func (c *Client) do(httpReq *http.Request, op string) ([]byte, error) {
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("making request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		perr := &services.ProviderError{Provider: Tag, Op: op, StatusCode: resp.StatusCode, Body: string(raw)}
		if resp.StatusCode == http.StatusTooManyRequests {
			perr.Err = services.ErrRateLimited
		}
		return nil, perr
	}
	return raw, nil
}
