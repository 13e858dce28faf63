package uploadclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/casting-intake/internal/core/domain"
	"github.com/casting-intake/internal/core/services"
)

const DefaultChunkSize = 5 << 20

// Client drives the browser-side flow against the casting API: open a
// session, push the file in ranged chunks, then poll until the video plays.
type Client struct {
	baseURL    string
	httpClient *http.Client
	chunkSize  int64
	clock      services.Clock
	scheduler  services.Scheduler
	logger     *zap.Logger
}

type Option func(*Client)

func WithChunkSize(n int64) Option {
	return func(c *Client) {
		if n > 0 {
			c.chunkSize = n
		}
	}
}

func WithClock(clock services.Clock, scheduler services.Scheduler) Option {
	return func(c *Client) {
		c.clock = clock
		c.scheduler = scheduler
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

func New(baseURL string, httpClient *http.Client, opts ...Option) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		chunkSize:  DefaultChunkSize,
		clock:      services.RealClock{},
		scheduler:  services.RealScheduler{},
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type Session struct {
	GUID         string    `json:"guid"`
	Title        string    `json:"title"`
	UploadURL    string    `json:"uploadUrl"`
	UploadToken  string    `json:"uploadToken"`
	TokenExpires time.Time `json:"tokenExpires"`
}

type apiError struct {
	Error string `json:"error"`
}

func (c *Client) CreateSession(ctx context.Context, title string) (*Session, error) {
	body, err := json.Marshal(map[string]string{"title": title})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/secure-upload/create", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("making request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, responseError(resp)
	}
	var session Session
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return nil, fmt.Errorf("decoding session: %w", err)
	}
	return &session, nil
}

// Upload sends size bytes from r as consecutive Content-Range chunks.
func (c *Client) Upload(ctx context.Context, session *Session, r io.Reader, size int64) error {
	if size <= 0 {
		return fmt.Errorf("%w: empty upload", services.ErrInvalidInput)
	}
	buf := make([]byte, min(c.chunkSize, size))

	for offset := int64(0); offset < size; {
		n := min(c.chunkSize, size-offset)
		if _, err := io.ReadFull(r, buf[:n]); err != nil {
			return fmt.Errorf("reading chunk at %d: %w", offset, err)
		}
		if err := c.putChunk(ctx, session, buf[:n], offset, size); err != nil {
			return err
		}
		offset += n
		c.logger.Debug("chunk uploaded", zap.String("video_id", session.GUID), zap.Int64("sent", offset), zap.Int64("total", size))
	}
	return nil
}

func (c *Client) putChunk(ctx context.Context, session *Session, chunk []byte, offset, total int64) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, session.UploadURL, bytes.NewReader(chunk))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	req.Header.Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", offset, offset+int64(len(chunk))-1, total))
	req.Header.Set("X-Upload-Token", session.UploadToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", services.ErrUploadTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized && resp.Header.Get("X-Upload-Token-Expired") == "true" {
		return services.ErrTokenExpired
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return responseError(resp)
	}
	io.Copy(io.Discard, resp.Body)
	return nil
}

func (c *Client) Status(ctx context.Context, provider, videoID string) (domain.ReadinessStatus, error) {
	endpoint := fmt.Sprintf("%s/api/video/%s/status", c.baseURL, url.PathEscape(videoID))
	if provider != "" {
		endpoint += "?provider=" + url.QueryEscape(provider)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return domain.ReadinessStatus{}, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.ReadinessStatus{}, fmt.Errorf("making request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.ReadinessStatus{}, responseError(resp)
	}
	var status domain.ReadinessStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return domain.ReadinessStatus{}, fmt.Errorf("decoding status: %w", err)
	}
	return status, nil
}

// PollUntilReady applies the client wait policy: it gives up polling after a
// bounded number of checks and then lets the form proceed anyway.
func (c *Client) PollUntilReady(ctx context.Context, provider, videoID string) (services.WaitResult, error) {
	return services.AwaitReadiness(ctx, c.clock, c.scheduler, services.ClientWaitPolicy(), func(ctx context.Context) (domain.ReadinessStatus, error) {
		return c.Status(ctx, provider, videoID)
	}, c.logger.With(zap.String("video_id", videoID)))
}

type Result struct {
	Session *Session
	Wait    services.WaitResult
}

// UploadAndWait runs the whole flow and returns the resolved video id via
// Result.Session.GUID.
func (c *Client) UploadAndWait(ctx context.Context, provider, title string, r io.Reader, size int64) (*Result, error) {
	session, err := c.CreateSession(ctx, title)
	if err != nil {
		return nil, err
	}
	if err := c.Upload(ctx, session, r, size); err != nil {
		return &Result{Session: session}, err
	}
	wait, err := c.PollUntilReady(ctx, provider, session.GUID)
	return &Result{Session: session, Wait: wait}, err
}

func responseError(resp *http.Response) error {
	var body apiError
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if json.Unmarshal(raw, &body) != nil || body.Error == "" {
		body.Error = strings.TrimSpace(string(raw))
	}
	err := fmt.Errorf("casting api: status %d: %s", resp.StatusCode, body.Error)
	if resp.StatusCode == http.StatusUnprocessableEntity {
		return errors.Join(services.ErrProcessingFailed, err)
	}
	return err
}
