package api

import (
	"encoding/json"
	"strings"
	"time"

	"systemqa/internal/manuals"
)

// FromManual converts a manual record to its API representation.
func FromManual(m *manuals.Manual) Manual {
	if m == nil {
		return Manual{}
	}
	dto := Manual{
		ID:               m.ID,
		Title:            m.Title,
		ProcessingStatus: string(m.ProcessingStatus),
		VideoPath:        m.VideoPath,
		CreatedAt:        formatTime(m.CreatedAt),
		UpdatedAt:        formatTime(m.UpdatedAt),
		Steps:            make([]Step, 0, len(m.Steps)),
	}
	if m.LeaseExpiresAt != nil {
		dto.LeaseExpiresAt = formatTime(*m.LeaseExpiresAt)
	}
	for _, step := range m.Steps {
		dto.Steps = append(dto.Steps, FromStep(step))
	}
	return dto
}

// FromManuals converts a list of manual records.
func FromManuals(list []*manuals.Manual) []Manual {
	out := make([]Manual, 0, len(list))
	for _, m := range list {
		out = append(out, FromManual(m))
	}
	return out
}

// FromStep converts a step record. Metadata that is not valid JSON is
// rendered as a JSON string so the payload stays well formed.
func FromStep(step manuals.Step) Step {
	dto := Step{
		ID:          step.ID,
		StepOrder:   step.StepOrder,
		Description: step.Description,
		Instruction: step.Instruction,
		ImagePath:   step.ImagePath,
	}
	if raw := strings.TrimSpace(step.Metadata); raw != "" {
		if json.Valid([]byte(raw)) {
			dto.Metadata = json.RawMessage(raw)
		} else if encoded, err := json.Marshal(raw); err == nil {
			dto.Metadata = encoded
		}
	}
	return dto
}

// FromStats converts store statistics. consumer may be nil.
func FromStats(stats manuals.Stats, consumer *ConsumerStats) Stats {
	dto := Stats{
		Manuals:  make(map[string]int, len(stats.Counts)),
		Total:    stats.Total(),
		Expired:  stats.Expired,
		Consumer: consumer,
	}
	for _, status := range manuals.AllStatuses() {
		dto.Manuals[string(status)] = stats.Counts[status]
	}
	return dto
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateTimeFormat)
}
