package frames

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"systemqa/internal/services"
)

const (
	msPerHour   = 3_600_000
	msPerMinute = 60_000
	msPerSecond = 1_000
)

// FormatTimestamp renders a millisecond offset as HH:MM:SS.mmm. Hours are not
// wrapped at 24.
func FormatTimestamp(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	hours := ms / msPerHour
	minutes := (ms % msPerHour) / msPerMinute
	seconds := (ms % msPerMinute) / msPerSecond
	millis := ms % msPerSecond
	return fmt.Sprintf("%02d:%02d:%02d.%03d", hours, minutes, seconds, millis)
}

// ParseActionAt reads the actionAt offset from serialized step metadata. The
// value may be a JSON number or a numeric string; fractional milliseconds are
// truncated. Empty metadata, or an actionAt that is missing, null or "", is
// reported as ok=false with no error.
func ParseActionAt(metadata string) (int64, bool, error) {
	trimmed := strings.TrimSpace(metadata)
	if trimmed == "" || trimmed == "null" {
		return 0, false, nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(trimmed), &fields); err != nil {
		return 0, false, services.Wrap(services.ErrValidation, "frames", "parse metadata", "step metadata is not a JSON object", err)
	}
	raw, ok := fields["actionAt"]
	if !ok {
		return 0, false, nil
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, false, nil
	}

	var text string
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &text); err != nil {
			return 0, false, services.Wrap(services.ErrValidation, "frames", "parse metadata", "actionAt is not a string", err)
		}
		text = strings.TrimSpace(text)
		if text == "" {
			return 0, false, nil
		}
	} else {
		text = string(raw)
	}

	value, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, false, services.Wrap(services.ErrValidation, "frames", "parse metadata", fmt.Sprintf("actionAt %q is not numeric", text), err)
	}
	if value < 0 {
		return 0, false, services.Wrap(services.ErrValidation, "frames", "parse metadata", fmt.Sprintf("actionAt %q is negative", text), nil)
	}
	return int64(math.Floor(value)), true, nil
}
