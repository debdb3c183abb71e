package telegram

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	tele "gopkg.in/telebot.v4"

	"visawatch/internal/transport"
	logx "visawatch/pkg/logx"
)

func TestChatRecipient(t *testing.T) {
	t.Parallel()
	if r, ok := chatRecipient("-100123").(tele.ChatID); !ok || int64(r) != -100123 {
		t.Fatalf("numeric chat id not mapped to tele.ChatID: %#v", chatRecipient("-100123"))
	}
	if got := chatRecipient(" @visa_alerts ").Recipient(); got != "@visa_alerts" {
		t.Fatalf("Recipient() = %q", got)
	}
}

// botAPI answers sendMessage with a fresh message id.
func botAPI(t *testing.T, calls *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		if !strings.HasSuffix(r.URL.Path, "/sendMessage") {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"ok":true,"result":{"message_id":%d,"date":0,"chat":{"id":-100,"type":"group"}}}`, n)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestSendTextOneMessage(t *testing.T) {
	t.Parallel()
	var calls atomic.Int32
	srv := botAPI(t, &calls)
	a, err := New(Config{Token: "123:abc", Offline: true, URL: srv.URL}, logx.Nop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ref, err := a.SendText(context.Background(), transport.ChatTarget{ChatID: "-100"}, "Austria, on date: 2024-05-01 X opened a tourist appointment", nil)
	if err != nil {
		t.Fatalf("SendText: %v", err)
	}
	if calls.Load() != 1 || ref.MessageID != 1 || ref.ChatID != "-100" {
		t.Fatalf("calls = %d ref = %+v", calls.Load(), ref)
	}
}

func TestSendTextRejectsOversized(t *testing.T) {
	t.Parallel()
	var calls atomic.Int32
	srv := botAPI(t, &calls)
	a, err := New(Config{Token: "123:abc", Offline: true, URL: srv.URL}, logx.Nop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	_, err = a.SendText(context.Background(), transport.ChatTarget{ChatID: "-100"}, strings.Repeat("x", transport.TextLimit+1), nil)
	if !errors.Is(err, transport.ErrTextTooLong) {
		t.Fatalf("err = %v", err)
	}
	if calls.Load() != 0 {
		t.Fatalf("oversized text reached the API: %d calls", calls.Load())
	}
}
