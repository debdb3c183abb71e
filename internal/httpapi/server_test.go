package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"visawatch/internal/metrics"
	"visawatch/internal/notifier"
	"visawatch/internal/poller"
	"visawatch/internal/runtime/supervisor"
	logx "visawatch/pkg/logx"
)

type fixedStatus poller.Status

func (f fixedStatus) Status() poller.Status { return poller.Status(f) }

type fixedDeliveries []notifier.HistoryItem

func (f fixedDeliveries) Snapshot() []notifier.HistoryItem { return f }

type fixedTasks supervisor.Snapshot

func (f fixedTasks) Snapshot() supervisor.Snapshot { return supervisor.Snapshot(f) }

func TestRouter(t *testing.T) {
	t.Parallel()
	m := metrics.New()
	m.ObserveCycle(poller.Result{State: poller.StateNotified, StartedAt: time.Unix(1, 0)})
	st := fixedStatus{Schedule: "10m0s", Cycles: 3, Last: &poller.Result{CycleID: "abc", State: poller.StateUnchanged}}

	h := NewRouter(Deps{Poller: st, Tasks: fixedTasks{Active: 2}, Registry: m.Registry()})

	tests := []struct {
		path     string
		wantCode int
		contains string
	}{
		{"/healthz", http.StatusOK, `"status":"ok"`},
		{"/status", http.StatusOK, `"cycles":3`},
		{"/metrics", http.StatusOK, `visawatch_cycles_total{state="notified"} 1`},
		{"/debug/pprof/", http.StatusNotFound, ""},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.path, func(t *testing.T) {
			t.Parallel()
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
			if rec.Code != tt.wantCode {
				t.Fatalf("code = %d, want %d", rec.Code, tt.wantCode)
			}
			if tt.contains != "" && !strings.Contains(rec.Body.String(), tt.contains) {
				t.Fatalf("body %q does not contain %q", rec.Body.String(), tt.contains)
			}
		})
	}
}

func TestStatusBody(t *testing.T) {
	t.Parallel()
	st := fixedStatus{Schedule: "10m0s", Last: &poller.Result{CycleID: "abc", State: poller.StateNotified, Message: "x"}}
	rec := httptest.NewRecorder()
	NewRouter(Deps{Poller: st}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))

	var got struct {
		Poller poller.Status `json:"poller"`
		Tasks  any           `json:"tasks"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Poller.Last == nil || got.Poller.Last.State != poller.StateNotified || got.Tasks != nil {
		t.Fatalf("status = %+v", got)
	}
}

func TestStatusListsDeliveries(t *testing.T) {
	t.Parallel()
	at := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	deliveries := fixedDeliveries{{At: at, Attempts: 2, Chunks: 1, Text: "Austria, on date: 2024-05-01 X opened a tourist appointment\n"}}
	rec := httptest.NewRecorder()
	NewRouter(Deps{Poller: fixedStatus{}, Deliveries: deliveries}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))

	var got struct {
		Deliveries []map[string]any `json:"deliveries"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got.Deliveries) != 1 {
		t.Fatalf("deliveries = %s", rec.Body.String())
	}
	d := got.Deliveries[0]
	if d["at"] != "2024-05-01T09:00:00Z" || d["attempts"] != float64(2) || d["chunks"] != float64(1) {
		t.Fatalf("delivery = %v", d)
	}
}

func TestHealthzDegraded(t *testing.T) {
	t.Parallel()
	h := NewRouter(Deps{Poller: fixedStatus{}, Tasks: fixedTasks{FirstError: "poller: boom"}})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("code = %d", rec.Code)
	}
}

func TestServerStopsOnCancel(t *testing.T) {
	t.Parallel()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	srv := NewServer(ln.Addr().String(), NewRouter(Deps{Poller: fixedStatus{}}), logx.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("code = %d", resp.StatusCode)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Serve: %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("server did not stop")
	}
}
