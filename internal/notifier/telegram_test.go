package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"visawatch/internal/transport"
	"visawatch/internal/transport/telegram"
	logx "visawatch/pkg/logx"
)

// A Bot API that fails the second sendMessage once must not see the first
// chunk twice.
func TestSendThroughBotAPIRetriesFailedChunkOnly(t *testing.T) {
	t.Parallel()
	var (
		mu    sync.Mutex
		texts []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Text string `json:"text"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		mu.Lock()
		texts = append(texts, body.Text)
		n := len(texts)
		mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		if n == 2 {
			w.WriteHeader(http.StatusBadGateway)
			fmt.Fprint(w, `{"ok":false,"error_code":502,"description":"Bad Gateway"}`)
			return
		}
		fmt.Fprintf(w, `{"ok":true,"result":{"message_id":%d,"date":0,"chat":{"id":-100,"type":"group"}}}`, n)
	}))
	defer srv.Close()

	bot, err := telegram.New(telegram.Config{Token: "123:abc", Offline: true, URL: srv.URL, Timeout: 5 * time.Second}, logx.Nop())
	if err != nil {
		t.Fatalf("telegram.New: %v", err)
	}
	s := New(Config{RetryMax: 2, RetryDelay: time.Millisecond, RatePerSec: 1000}, bot, transport.ChatTarget{ChatID: "-100"}, logx.Nop())

	text := longAlert()
	chunks := transport.SplitText(text, transport.TextLimit)
	d, err := s.Send(context.Background(), text)
	if err != nil {
		t.Fatalf("Send: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(texts) != 3 {
		t.Fatalf("Bot API saw %d sendMessage calls, want 3", len(texts))
	}
	if texts[0] != chunks[0] || texts[1] != chunks[1] || texts[2] != chunks[1] {
		t.Fatal("first chunk resent or chunks out of order")
	}
	if d.Attempts != 3 || d.Chunks != 2 {
		t.Fatalf("delivery = %+v", d)
	}
}
