package bunny

import (
	"encoding/json"
	"fmt"

	"github.com/casting-intake/internal/core/domain"
	"github.com/casting-intake/internal/core/services"
)

var codes = services.CodeTable{
	0: domain.StateQueued,     // created
	1: domain.StateQueued,     // uploaded
	2: domain.StateProcessing, // processing
	3: domain.StateEncoding,   // transcoding
	4: domain.StateReady,      // finished
	5: domain.StateFailed,     // error
	6: domain.StateFailed,     // upload failed
}

type videoPayload struct {
	GUID              string  `json:"guid"`
	Title             string  `json:"title"`
	Status            int     `json:"status"`
	Length            float64 `json:"length"`
	ThumbnailFileName string  `json:"thumbnailFileName"`
	EncodeProgress    int     `json:"encodeProgress"`
	DateUploaded      string  `json:"dateUploaded"`
}

type Normalizer struct{}

func (Normalizer) Normalize(raw []byte) (domain.ReadinessStatus, error) {
	var p videoPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return domain.ReadinessStatus{}, fmt.Errorf("decoding bunny video: %w", err)
	}

	state, rawState := codes.Lookup(p.Status)
	confidence, ready := services.ScoreReadiness(state, services.Artifacts{
		Thumbnail:       p.ThumbnailFileName,
		DurationSeconds: p.Length,
	})

	return domain.ReadinessStatus{
		Provider:        Tag,
		VideoID:         p.GUID,
		RawState:        rawState,
		State:           state,
		ReadyToStream:   ready,
		Confidence:      confidence,
		Title:           p.Title,
		DurationSeconds: p.Length,
		Thumbnail:       p.ThumbnailFileName,
		EncodeProgress:  p.EncodeProgress,
	}, nil
}

func (c *Client) Normalize(raw []byte) (domain.ReadinessStatus, error) {
	return Normalizer{}.Normalize(raw)
}
