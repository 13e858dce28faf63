package domain

import "time"

type VideoStatus string

const (
	VideoStatusReady   VideoStatus = "ready"
	VideoStatusPending VideoStatus = "pending"
	VideoStatusFailed  VideoStatus = "failed"
)

type Audition struct {
	ID              int64
	ProjectID       int64
	Role            string
	FirstNameHe     string
	LastNameHe      string
	FirstNameEn     string
	LastNameEn      string
	Phone           string
	Email           string
	Agency          string
	Age             *int
	Height          *int
	ProfilePictures []string
	ShowreelURL     string
	VideoURL        string
	VideoType       string
	VideoStatus     VideoStatus
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
