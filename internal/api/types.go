package api

import "encoding/json"

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Manual describes a manual in a transport-friendly format.
type Manual struct {
	ID               string `json:"id"`
	Title            string `json:"title"`
	ProcessingStatus string `json:"processingStatus"`
	VideoPath        string `json:"videoPath,omitempty"`
	LeaseExpiresAt   string `json:"leaseExpiresAt,omitempty"`
	CreatedAt        string `json:"createdAt,omitempty"`
	UpdatedAt        string `json:"updatedAt,omitempty"`
	Steps            []Step `json:"steps"`
}

// Step describes one manual step.
type Step struct {
	ID          string          `json:"id"`
	StepOrder   int             `json:"stepOrder"`
	Description string          `json:"description"`
	Instruction string          `json:"instruction,omitempty"`
	ImagePath   string          `json:"imagePath,omitempty"`
	Metadata    json.RawMessage `json:"metadata,omitempty"`
}

// Stats summarizes manual counts and consumer activity.
type Stats struct {
	Manuals  map[string]int `json:"manuals"`
	Total    int            `json:"total"`
	Expired  int            `json:"expiredLeases"`
	Consumer *ConsumerStats `json:"consumer,omitempty"`
}

// ConsumerStats mirrors queue consumer counters.
type ConsumerStats struct {
	Received  int64  `json:"received"`
	Handled   int64  `json:"handled"`
	Failed    int64  `json:"failed"`
	LastError string `json:"lastError,omitempty"`
}

// Health is the liveness payload.
type Health struct {
	Status  string `json:"status"`
	Running bool   `json:"running"`
	Uptime  string `json:"uptime,omitempty"`
}
