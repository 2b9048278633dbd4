package manuals

import (
	"fmt"
	"strings"
	"time"
)

// Status represents the processing lifecycle of a manual.
type Status string

const (
	StatusWaiting    Status = "WAITING"
	StatusProcessing Status = "PROCESSING"
	StatusSuccess    Status = "SUCCESS"
	StatusFail       Status = "FAIL"
)

var allStatuses = []Status{
	StatusWaiting,
	StatusProcessing,
	StatusSuccess,
	StatusFail,
}

// AllStatuses returns every known status in lifecycle order.
func AllStatuses() []Status {
	out := make([]Status, len(allStatuses))
	copy(out, allStatuses)
	return out
}

// ParseStatus converts user input into a Status, accepting any letter case.
func ParseStatus(value string) (Status, bool) {
	candidate := Status(strings.ToUpper(strings.TrimSpace(value)))
	for _, status := range allStatuses {
		if status == candidate {
			return status, true
		}
	}
	return "", false
}

// IsTerminal reports whether the status has no outgoing transition.
func (s Status) IsTerminal() bool {
	return s == StatusSuccess || s == StatusFail
}

// Manual is a tutorial document backed by an optional screen recording.
type Manual struct {
	ID               string
	Title            string
	ProcessingStatus Status
	VideoPath        string
	LeaseExpiresAt   *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
	Steps            []Step
}

// HasVideo reports whether the manual references a source recording.
func (m *Manual) HasVideo() bool {
	return m != nil && strings.TrimSpace(m.VideoPath) != ""
}

// Step is one instruction unit within a manual.
type Step struct {
	ID          string
	ManualID    string
	StepOrder   int
	Description string
	Instruction string
	ImagePath   string
	// Metadata is the raw serialized record carrying actionAt.
	Metadata string
}

// HasImage reports whether a screenshot has been committed for the step.
func (s Step) HasImage() bool {
	return s.ImagePath != ""
}

// NewManual describes a manual to insert in WAITING.
type NewManual struct {
	Title     string
	VideoPath string
	Steps     []NewStep
}

// NewStep describes one step of a NewManual. StepOrder is assigned from its position.
type NewStep struct {
	Description string
	Instruction string
	Metadata    string
}

// Stats summarises manual counts per status.
type Stats struct {
	Counts map[Status]int
	// Expired counts PROCESSING manuals whose lease has already lapsed.
	Expired int
}

// Total returns the number of manuals across every status.
func (s Stats) Total() int {
	total := 0
	for _, count := range s.Counts {
		total += count
	}
	return total
}

func (s Stats) String() string {
	parts := make([]string, 0, len(allStatuses))
	for _, status := range allStatuses {
		parts = append(parts, fmt.Sprintf("%s=%d", strings.ToLower(string(status)), s.Counts[status]))
	}
	return strings.Join(parts, " ")
}
