package cloudflare

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"golang.org/x/time/rate"

	"github.com/casting-intake/internal/core/domain"
	"github.com/casting-intake/internal/core/services"
)

const (
	Tag            = "cloudflare"
	DefaultBaseURL = "https://api.cloudflare.com/client/v4"
)

type Config struct {
	BaseURL   string
	AccountID string
	APIToken  string
	RPS       float64
}

// Client reads Cloudflare Stream processing state. Uploads no longer go
// through Cloudflare, so only the status side is implemented.
type Client struct {
	baseURL    string
	accountID  string
	apiToken   string
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
		accountID:  cfg.AccountID,
		apiToken:   cfg.APIToken,
		httpClient: httpClient,
		limiter:    rate.NewLimiter(limit, 1),
	}
}

func (c *Client) Tag() string { return Tag }

func (c *Client) FetchStatus(ctx context.Context, videoID string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	endpoint := fmt.Sprintf("%s/accounts/%s/stream/%s", c.baseURL, url.PathEscape(c.accountID), url.PathEscape(videoID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("making request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		perr := &services.ProviderError{Provider: Tag, Op: "video status", StatusCode: resp.StatusCode, Body: string(body)}
		if resp.StatusCode == http.StatusTooManyRequests {
			perr.Err = services.ErrRateLimited
		}
		return nil, perr
	}
	return body, nil
}

func (c *Client) Normalize(raw []byte) (domain.ReadinessStatus, error) {
	return Normalizer{}.Normalize(raw)
}

var states = map[string]domain.ProcessingState{
	"pendingupload": domain.StateQueued,
	"downloading":   domain.StateProcessing,
	"queued":        domain.StateQueued,
	"inprogress":    domain.StateEncoding,
	"ready":         domain.StateReady,
	"error":         domain.StateFailed,
}

type envelope struct {
	Success bool `json:"success"`
	Result  struct {
		UID           string  `json:"uid"`
		ReadyToStream bool    `json:"readyToStream"`
		Duration      float64 `json:"duration"`
		Thumbnail     string  `json:"thumbnail"`
		Meta          struct {
			Name string `json:"name"`
		} `json:"meta"`
		Status struct {
			State           string `json:"state"`
			PctComplete     string `json:"pctComplete"`
			ErrorReasonCode string `json:"errorReasonCode"`
		} `json:"status"`
	} `json:"result"`
}

type Normalizer struct{}

func (Normalizer) Normalize(raw []byte) (domain.ReadinessStatus, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return domain.ReadinessStatus{}, fmt.Errorf("decoding cloudflare video: %w", err)
	}
	r := env.Result

	rawState := r.Status.State
	if rawState == "" {
		rawState = "unknown"
	}
	state, ok := states[rawState]
	if !ok {
		state = domain.StateUnknown
	}

	// a negative duration is Cloudflare's placeholder for "not yet known"
	duration := r.Duration
	if duration < 0 {
		duration = 0
	}

	confidence, ready := services.ScoreReadiness(state, services.Artifacts{
		Thumbnail:       r.Thumbnail,
		DurationSeconds: duration,
		ProviderFlagged: r.ReadyToStream,
	})

	var progress int
	fmt.Sscanf(r.Status.PctComplete, "%d", &progress)

	return domain.ReadinessStatus{
		Provider:        Tag,
		VideoID:         r.UID,
		RawState:        rawState,
		State:           state,
		ReadyToStream:   ready,
		Confidence:      confidence,
		Title:           r.Meta.Name,
		DurationSeconds: duration,
		Thumbnail:       r.Thumbnail,
		EncodeProgress:  progress,
	}, nil
}
