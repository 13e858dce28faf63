package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"
)

type ProxyUploadRequest struct {
	Token         string
	VideoID       string
	Body          io.Reader
	Header        http.Header
	ContentLength int64
}

type UploadProxy struct {
	store    SessionStore
	uploader BinaryUploader
	logger   *zap.Logger
}

func NewUploadProxy(store SessionStore, uploader BinaryUploader, logger *zap.Logger) *UploadProxy {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UploadProxy{store: store, uploader: uploader, logger: logger}
}

// ProxyUpload never contacts the provider unless the token resolves to
// req.VideoID. The session is left in place; expiry is time based only.
func (p *UploadProxy) ProxyUpload(ctx context.Context, req ProxyUploadRequest) (*UploadResponse, error) {
	if req.Token == "" || req.VideoID == "" {
		return nil, ErrUnauthorized
	}

	session, err := p.store.Get(ctx, req.Token)
	if err != nil {
		return nil, fmt.Errorf("looking up upload session: %w", err)
	}
	if session == nil {
		return nil, ErrTokenExpired
	}
	if subtle.ConstantTimeCompare([]byte(session.ProviderVideoID), []byte(req.VideoID)) != 1 {
		p.logger.Warn("upload token does not match video", zap.String("video_id", req.VideoID))
		return nil, ErrUnauthorized
	}

	upload := UploadRequest{
		VideoID:       req.VideoID,
		Body:          req.Body,
		ContentLength: req.ContentLength,
	}
	if req.Header != nil {
		upload.ContentType = req.Header.Get("Content-Type")
		upload.ContentRange = req.Header.Get("Content-Range")
	}
	if upload.ContentType == "" {
		upload.ContentType = "application/octet-stream"
	}

	resp, err := p.uploader.UploadVideo(ctx, upload)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			p.logger.Info("upload cancelled by client", zap.String("video_id", req.VideoID))
		} else {
			p.logger.Error("proxy upload", zap.String("video_id", req.VideoID), zap.Error(err))
		}
		return nil, fmt.Errorf("%w: %w", ErrUploadTransport, err)
	}

	p.logger.Info("upload proxied",
		zap.String("video_id", req.VideoID),
		zap.Int("status_code", resp.StatusCode),
		zap.String("content_range", upload.ContentRange),
	)
	return resp, nil
}
