package logx

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"visawatch/internal/transport"
)

type chanSender struct {
	got chan string
	to  chan transport.ChatTarget
}

func (c *chanSender) SendText(ctx context.Context, to transport.ChatTarget, text string, opt *transport.SendOptions) (transport.MessageRef, error) {
	c.to <- to
	c.got <- text
	return transport.MessageRef{}, nil
}

func TestFormatTelegramJSON(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"sorted fields", `{"level":"warn","message":"boom","time":"x","z":1,"a":"b"}`, "[WARN] boom\n- a=b\n- z=1"},
		{"no level", `{"message":"hi"}`, "hi"},
		{"not json", "  plain text \n", "plain text"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := formatTelegramJSON([]byte(tt.in)); got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	t.Parallel()
	if got := truncate("abcdefghijklmnop", 12); got != "abcdefghi..." {
		t.Fatalf("got %q", got)
	}
	if got := truncate("abc", 2); got != "ab" {
		t.Fatalf("got %q", got)
	}
	if got := truncate("abc", 10); got != "abc" {
		t.Fatalf("got %q", got)
	}
}

func TestWriterLoggerFields(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	log := NewWriter(&buf, "info").With(String("comp", "test"))
	log.Debug("hidden")
	log.Info("visible", Int("n", 3), Err(errors.New("bad")))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("lines = %q", lines)
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if m["message"] != "visible" || m["comp"] != "test" || m["n"] != float64(3) {
		t.Fatalf("entry = %v", m)
	}
	if _, ok := m["err"]; !ok {
		t.Fatalf("err field missing: %v", m)
	}
}

func TestZeroLoggerIsSafe(t *testing.T) {
	t.Parallel()
	var log Logger
	if !log.IsZero() {
		t.Fatal("zero Logger should report IsZero")
	}
	log.Error("nobody hears this")
	if Nop().IsZero() {
		t.Fatal("Nop is an explicit logger")
	}
}

func TestTelegramSinkForwardsWarnings(t *testing.T) {
	sender := &chanSender{got: make(chan string, 4), to: make(chan transport.ChatTarget, 4)}
	svc, log := New(Config{
		Level: "debug",
		Telegram: TelegramConfig{
			Enabled:    true,
			ChatID:     "-100500",
			MinLevel:   "warn",
			RatePerSec: 100,
		},
	}, sender)
	defer svc.Close()

	log.Info("routine")
	log.Warn("store unreachable", String("driver", "redis"))

	select {
	case msg := <-sender.got:
		if !strings.HasPrefix(msg, "[WARN] store unreachable") || !strings.Contains(msg, "- driver=redis") {
			t.Fatalf("msg = %q", msg)
		}
		if to := <-sender.to; to.ChatID != "-100500" {
			t.Fatalf("target = %+v", to)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("warning was not forwarded")
	}

	select {
	case msg := <-sender.got:
		t.Fatalf("unexpected extra message %q", msg)
	case <-time.After(50 * time.Millisecond):
	}
}
