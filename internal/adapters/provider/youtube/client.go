package youtube

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"golang.org/x/time/rate"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	yt "google.golang.org/api/youtube/v3"

	"github.com/casting-intake/internal/core/services"
)

const Tag = "youtube"

var statusParts = []string{"snippet", "status", "processingDetails", "contentDetails"}

type Config struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
	// BaseURL overrides the Data API endpoint, mainly for tests.
	BaseURL string
	RPS     float64
}

type Client struct {
	service *yt.Service
	limiter *rate.Limiter
}

// NewService builds a Data API client that refreshes its access token from
// the configured refresh token.
func NewService(ctx context.Context, cfg Config) (*yt.Service, error) {
	oauthCfg := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{yt.YoutubeScope},
	}
	httpClient := oauthCfg.Client(ctx, &oauth2.Token{RefreshToken: cfg.RefreshToken})

	opts := []option.ClientOption{option.WithHTTPClient(httpClient)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithEndpoint(cfg.BaseURL))
	}
	svc, err := yt.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating youtube service: %w", err)
	}
	return svc, nil
}

func NewClient(service *yt.Service, rps float64) *Client {
	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}
	return &Client{service: service, limiter: rate.NewLimiter(limit, 1)}
}

func (c *Client) Tag() string { return Tag }

// CreateChannel inserts an unlisted playlist named after the role.
func (c *Client) CreateChannel(ctx context.Context, name string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}
	playlist := &yt.Playlist{
		Snippet: &yt.PlaylistSnippet{
			Title:       name,
			Description: "Audition videos for " + name,
		},
		Status: &yt.PlaylistStatus{PrivacyStatus: "unlisted"},
	}
	created, err := c.service.Playlists.Insert([]string{"snippet", "status"}, playlist).Context(ctx).Do()
	if err != nil {
		return "", classify("create playlist", err)
	}
	return created.Id, nil
}

func (c *Client) FetchStatus(ctx context.Context, videoID string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	resp, err := c.service.Videos.List(statusParts).Id(videoID).Context(ctx).Do()
	if err != nil {
		return nil, classify("video status", err)
	}
	if len(resp.Items) == 0 {
		return nil, &services.ProviderError{Provider: Tag, Op: "video status", StatusCode: http.StatusNotFound, Body: "video " + videoID + " not found"}
	}
	return json.Marshal(resp.Items[0])
}

// classify maps Data API failures onto the provisioner's retry vocabulary.
func classify(op string, err error) error {
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return &services.ProviderError{Provider: Tag, Op: op, Err: err}
	}

	perr := &services.ProviderError{Provider: Tag, Op: op, StatusCode: gerr.Code, Body: gerr.Message, Err: err}
	if gerr.Code == http.StatusTooManyRequests {
		perr.Err = fmt.Errorf("%w: %w", services.ErrRateLimited, err)
		return perr
	}
	for _, item := range gerr.Errors {
		switch item.Reason {
		case "quotaExceeded", "dailyLimitExceeded":
			perr.Err = fmt.Errorf("%w: %w", services.ErrQuotaExceeded, err)
			return perr
		case "rateLimitExceeded", "userRateLimitExceeded":
			perr.Err = fmt.Errorf("%w: %w", services.ErrRateLimited, err)
			return perr
		}
	}
	return perr
}
