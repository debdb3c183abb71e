package poller

import (
	"testing"
	"time"
)

func TestParseScheduleVariants(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		raw      string
		kind     SpecKind
		source   string
		duration time.Duration
	}{
		{name: "seconds", raw: "600s", kind: SpecInterval, source: "duration", duration: 10 * time.Minute},
		{name: "prefixed interval", raw: "interval:45s", kind: SpecInterval, source: "duration", duration: 45 * time.Second},
		{name: "hhmm", raw: "00:10", kind: SpecInterval, source: "hhmm", duration: 10 * time.Minute},
		{name: "cron", raw: "*/10 * * * *", kind: SpecCron, source: "cron"},
		{name: "cron with seconds", raw: "0 */5 * * * *", kind: SpecCron, source: "cron"},
		{name: "descriptor", raw: "@every 10m", kind: SpecCron, source: "cron"},
		{name: "prefixed cron", raw: "cron:@hourly", kind: SpecCron, source: "cron"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := ParseSchedule(tt.raw)
			if err != nil {
				t.Fatalf("ParseSchedule(%q) error: %v", tt.raw, err)
			}
			if got.Kind != tt.kind {
				t.Fatalf("Kind = %v, want %v", got.Kind, tt.kind)
			}
			if got.Source != tt.source {
				t.Fatalf("Source = %s, want %s", got.Source, tt.source)
			}
			if tt.kind == SpecInterval && got.Every != tt.duration {
				t.Fatalf("Every = %v, want %v", got.Every, tt.duration)
			}
			if got.Schedule == nil {
				t.Fatal("Schedule is nil")
			}
		})
	}
}

func TestParseScheduleInvalid(t *testing.T) {
	t.Parallel()
	for _, raw := range []string{"", "not-a-schedule", "500ms", "00:75", "cron:", "* * *"} {
		if _, err := ParseSchedule(raw); err == nil {
			t.Fatalf("ParseSchedule(%q): expected error", raw)
		}
	}
}

func TestIntervalScheduleNext(t *testing.T) {
	t.Parallel()
	spec, err := ParseSchedule("600s")
	if err != nil {
		t.Fatal(err)
	}
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	if got := spec.Schedule.Next(now); !got.Equal(now.Add(10 * time.Minute)) {
		t.Fatalf("Next = %v", got)
	}
}
