package domain

import (
	"testing"
	"time"
)

func TestParseTimestampFormats(t *testing.T) {
	want := time.Date(2026, 3, 1, 12, 30, 45, 0, time.UTC)

	cases := []struct {
		name  string
		value any
	}{
		{"rfc3339", "2026-03-01T12:30:45Z"},
		{"space separated", "2026-03-01 12:30:45"},
		{"t separated no zone", "2026-03-01T12:30:45"},
		{"epoch seconds", float64(want.Unix())},
		{"epoch millis", float64(want.UnixMilli())},
		{"numeric string", "1772368245"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseTimestamp(tc.value)
			if err != nil {
				t.Fatalf("parse %v: %v", tc.value, err)
			}
			if !got.Equal(want) {
				t.Fatalf("expected %v, got %v", want, got)
			}
		})
	}
}

func TestParseTimestampDateOnly(t *testing.T) {
	got, err := ParseTimestamp("2026-03-01")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestParseTimestampRejectsJunk(t *testing.T) {
	for _, value := range []any{"", "not-a-time", true, map[string]any{}} {
		if _, err := ParseTimestamp(value); err == nil {
			t.Fatalf("expected error for %v", value)
		}
	}
}
