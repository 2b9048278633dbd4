package frames_test

import (
	"errors"
	"testing"

	"systemqa/internal/frames"
	"systemqa/internal/services"
)

func TestFormatTimestamp(t *testing.T) {
	cases := []struct {
		ms   int64
		want string
	}{
		{0, "00:00:00.000"},
		{3_723_456, "01:02:03.456"},
		{999, "00:00:00.999"},
		{60_000, "00:01:00.000"},
		{90_061_001, "25:01:01.001"},
	}
	for _, tc := range cases {
		if got := frames.FormatTimestamp(tc.ms); got != tc.want {
			t.Fatalf("FormatTimestamp(%d) = %q, want %q", tc.ms, got, tc.want)
		}
	}
}

func TestParseActionAt(t *testing.T) {
	cases := []struct {
		name     string
		metadata string
		want     int64
		ok       bool
	}{
		{"empty metadata", "", 0, false},
		{"null metadata", "null", 0, false},
		{"missing field", `{"other":1}`, 0, false},
		{"null field", `{"actionAt":null}`, 0, false},
		{"empty string", `{"actionAt":""}`, 0, false},
		{"number", `{"actionAt":1500}`, 1500, true},
		{"numeric string", `{"actionAt":"3723456"}`, 3_723_456, true},
		{"fraction truncated", `{"actionAt":1500.9}`, 1500, true},
		{"zero", `{"actionAt":0}`, 0, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok, err := frames.ParseActionAt(tc.metadata)
			if err != nil {
				t.Fatalf("ParseActionAt failed: %v", err)
			}
			if ok != tc.ok || got != tc.want {
				t.Fatalf("ParseActionAt(%q) = (%d, %v), want (%d, %v)", tc.metadata, got, ok, tc.want, tc.ok)
			}
		})
	}
}

func TestParseActionAtRejectsInvalid(t *testing.T) {
	for _, metadata := range []string{`not json`, `{"actionAt":"soon"}`, `{"actionAt":-5}`, `{"actionAt":true}`} {
		_, _, err := frames.ParseActionAt(metadata)
		if err == nil {
			t.Fatalf("expected error for %q", metadata)
		}
		if !errors.Is(err, services.ErrValidation) {
			t.Fatalf("expected validation error for %q, got %v", metadata, err)
		}
	}
}

func TestScreenshotName(t *testing.T) {
	if got := frames.ScreenshotName(7, "abc"); got != "step-007-abc.png" {
		t.Fatalf("unexpected name %q", got)
	}
}
