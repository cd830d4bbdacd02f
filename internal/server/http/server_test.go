package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Lotargo/Q-Bridge/internal/admission"
	"github.com/Lotargo/Q-Bridge/internal/durlog"
	pebblestore "github.com/Lotargo/Q-Bridge/internal/storage/pebble"
)

func openTestServer(t *testing.T) (*Server, durlog.Log) {
	t.Helper()
	l, err := durlog.OpenEmbedded(durlog.EmbeddedOptions{
		DataDir: t.TempDir(),
		Fsync:   pebblestore.FsyncModeAlways,
	})
	if err != nil {
		t.Fatalf("open log: %v", err)
	}
	t.Cleanup(func() { _ = l.Close() })
	return New(admission.New(l, "requests", nil), nil), l
}

func TestHealthHandler(t *testing.T) {
	s, _ := openTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/v1/healthz", nil)
	w := httptest.NewRecorder()
	s.srv.Handler.ServeHTTP(w, req)
	if w.Code != 200 {
		t.Fatalf("status: %d", w.Code)
	}
	var body map[string]string
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil || body["status"] != "ok" {
		t.Fatalf("health body: %v %v", body, err)
	}
}

func TestSubmitHandler(t *testing.T) {
	s, l := openTestServer(t)
	body := `{"agent_id":"agent-1","payload":"aGVsbG8=","metadata":{"k":"v"}}`
	req := httptest.NewRequest(http.MethodPost, "/v1/submit", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.srv.Handler.ServeHTTP(w, req)
	if w.Code != http.StatusAccepted {
		t.Fatalf("status: %d", w.Code)
	}
	var resp submitResp
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.RequestID == "" || resp.Status != admission.StatusAccepted {
		t.Fatalf("response: %+v", resp)
	}

	ctx := context.Background()
	_ = l.EnsureGroup(ctx, "requests", "g")
	got, err := l.ReadGroup(ctx, durlog.ReadArgs{Stream: "requests", Group: "g", Consumer: "c1"})
	if err != nil || len(got) != 1 {
		t.Fatalf("buffered entries: %v %v", got, err)
	}
}

func TestSubmitHandlerRejectsBadJSON(t *testing.T) {
	s, _ := openTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/v1/submit", strings.NewReader("{not json"))
	w := httptest.NewRecorder()
	s.srv.Handler.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status: %d", w.Code)
	}
}

func TestSubmitHandlerRejectsGet(t *testing.T) {
	s, _ := openTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/v1/submit", nil)
	w := httptest.NewRecorder()
	s.srv.Handler.ServeHTTP(w, req)
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status: %d", w.Code)
	}
}

type downLog struct{ durlog.Log }

func (downLog) Append(context.Context, string, map[string][]byte) (string, error) {
	return "", errors.New("connection refused")
}

func TestSubmitHandlerMapsLogFailure(t *testing.T) {
	s := New(admission.New(downLog{}, "requests", nil), nil)
	req := httptest.NewRequest(http.MethodPost, "/v1/submit", strings.NewReader(`{"payload":"cA=="}`))
	w := httptest.NewRecorder()
	s.srv.Handler.ServeHTTP(w, req)
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status: %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "durable log") {
		t.Fatalf("failure body missing error text: %q", w.Body.String())
	}
}
