package youtube

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"

	yt "google.golang.org/api/youtube/v3"

	"github.com/casting-intake/internal/core/domain"
	"github.com/casting-intake/internal/core/services"
)

var processingStates = map[string]domain.ProcessingState{
	"processing": domain.StateProcessing,
	"succeeded":  domain.StateReady,
	"failed":     domain.StateFailed,
	"terminated": domain.StateFailed,
}

var uploadStates = map[string]domain.ProcessingState{
	"uploaded":  domain.StateQueued,
	"processed": domain.StateReady,
	"rejected":  domain.StateFailed,
	"failed":    domain.StateFailed,
	"deleted":   domain.StateFailed,
}

type Normalizer struct{}

func (Normalizer) Normalize(raw []byte) (domain.ReadinessStatus, error) {
	var v yt.Video
	if err := json.Unmarshal(raw, &v); err != nil {
		return domain.ReadinessStatus{}, fmt.Errorf("decoding youtube video: %w", err)
	}

	var uploadStatus, processingStatus string
	if v.Status != nil {
		uploadStatus = v.Status.UploadStatus
	}
	if v.ProcessingDetails != nil {
		processingStatus = v.ProcessingDetails.ProcessingStatus
	}

	state := domain.StateUnknown
	rawState := "unknown"
	switch {
	case uploadStates[uploadStatus] == domain.StateFailed:
		state, rawState = domain.StateFailed, uploadStatus
	case processingStatus != "":
		rawState = processingStatus
		if s, ok := processingStates[processingStatus]; ok {
			state = s
		}
	case uploadStatus != "":
		rawState = uploadStatus
		if s, ok := uploadStates[uploadStatus]; ok {
			state = s
		}
	}

	var duration float64
	if v.ContentDetails != nil {
		duration = parseISODuration(v.ContentDetails.Duration)
	}
	var title, thumbnail string
	if v.Snippet != nil {
		title = v.Snippet.Title
		if t := v.Snippet.Thumbnails; t != nil && t.Default != nil {
			thumbnail = t.Default.Url
		}
	}

	confidence, ready := services.ScoreReadiness(state, services.Artifacts{
		Thumbnail:       thumbnail,
		DurationSeconds: duration,
		ProviderFlagged: uploadStatus == "processed",
	})

	var progress int
	if v.ProcessingDetails != nil {
		if p := v.ProcessingDetails.ProcessingProgress; p != nil && p.PartsTotal > 0 {
			progress = int(p.PartsProcessed * 100 / p.PartsTotal)
		}
	}

	return domain.ReadinessStatus{
		Provider:        Tag,
		VideoID:         v.Id,
		RawState:        rawState,
		State:           state,
		ReadyToStream:   ready,
		Confidence:      confidence,
		Title:           title,
		DurationSeconds: duration,
		Thumbnail:       thumbnail,
		EncodeProgress:  progress,
	}, nil
}

func (c *Client) Normalize(raw []byte) (domain.ReadinessStatus, error) {
	return Normalizer{}.Normalize(raw)
}

var isoDuration = regexp.MustCompile(`^P(?:(\d+)D)?(?:T(?:(\d+)H)?(?:(\d+)M)?(?:(\d+(?:\.\d+)?)S)?)?$`)

// parseISODuration returns seconds for Data API durations such as PT1M30S.
// Unparseable input and P0D both yield zero.
func parseISODuration(s string) float64 {
	m := isoDuration.FindStringSubmatch(s)
	if m == nil {
		return 0
	}
	var total float64
	for i, unit := range []float64{86400, 3600, 60, 1} {
		if m[i+1] == "" {
			continue
		}
		n, err := strconv.ParseFloat(m[i+1], 64)
		if err != nil {
			return 0
		}
		total += n * unit
	}
	return total
}
