package services

import (
	"context"
	"io"
)

type CreatedVideo struct {
	VideoID string
	Title   string
}

type VideoCreator interface {
	CreateVideo(ctx context.Context, title string) (CreatedVideo, error)
}

type UploadRequest struct {
	VideoID       string
	Body          io.Reader
	ContentType   string
	ContentLength int64
	ContentRange  string
}

type UploadResponse struct {
	StatusCode  int
	ContentType string
	Body        []byte
}

// BinaryUploader streams a request body to the provider with the real
// credential attached by the implementation.
type BinaryUploader interface {
	UploadVideo(ctx context.Context, req UploadRequest) (*UploadResponse, error)
}

type UploadProvider interface {
	Tag() string
	VideoCreator
	BinaryUploader
}

// ChannelCreator must wrap ErrRateLimited or ErrQuotaExceeded when the provider
// reports those conditions.
type ChannelCreator interface {
	CreateChannel(ctx context.Context, name string) (channelID string, err error)
}

type StatusFetcher interface {
	FetchStatus(ctx context.Context, videoID string) ([]byte, error)
}

type StatusSource interface {
	Tag() string
	StatusFetcher
	StatusNormalizer
}
