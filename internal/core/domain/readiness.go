package domain

type ProcessingState string

const (
	StateQueued     ProcessingState = "queued"
	StateProcessing ProcessingState = "processing"
	StateEncoding   ProcessingState = "encoding"
	StateReady      ProcessingState = "ready"
	StateFailed     ProcessingState = "failed"
	StateUnknown    ProcessingState = "unknown"
)

type Confidence string

const (
	ConfidenceNone   Confidence = "none"
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// ReadinessStatus is recomputed on every poll and never persisted.
type ReadinessStatus struct {
	Provider        string          `json:"provider"`
	VideoID         string          `json:"guid"`
	RawState        string          `json:"status"`
	State           ProcessingState `json:"state"`
	ReadyToStream   bool            `json:"ready"`
	Confidence      Confidence      `json:"confidence"`
	Title           string          `json:"title,omitempty"`
	DurationSeconds float64         `json:"duration,omitempty"`
	Thumbnail       string          `json:"thumbnail,omitempty"`
	EncodeProgress  int             `json:"encodeProgress,omitempty"`
}

func (s ReadinessStatus) Terminal() bool {
	return s.State == StateFailed
}
