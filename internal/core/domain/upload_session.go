package domain

import "time"

type UploadSession struct {
	Token           string
	ProviderVideoID string
	CreatedAt       time.Time
	ExpiresAt       time.Time
}

// Expired reports whether the session is no longer usable at now.
func (s *UploadSession) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
