package transport

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/danmuck/xhrcomm/internal/protocol"
	"github.com/danmuck/xhrcomm/internal/testutil/testlog"
)

func newTestTransport(t *testing.T, h http.HandlerFunc) *HTTP {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	tr, err := NewHTTP(Config{Endpoint: srv.URL + "/comm"})
	if err != nil {
		t.Fatalf("new transport: %v", err)
	}
	return tr
}

func TestExchangePostsRequestAndDecodesEvents(t *testing.T) {
	testlog.Start(t)
	var gotBody, gotPath, gotMethod, gotType string
	tr := newTestTransport(t, func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		gotBody = strings.TrimSpace(string(b))
		gotPath = r.URL.Path
		gotMethod = r.Method
		gotType = r.Header.Get("Content-Type")
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `[["connect"],["update",{"n":1}]]`)
	})

	events, err := tr.Exchange(context.Background(), protocol.Request{
		ID:    "id-1",
		Tasks: []protocol.Event{protocol.NewEvent("open", "all:")},
	})
	if err != nil {
		t.Fatalf("exchange: %v", err)
	}
	if gotMethod != http.MethodPost || gotPath != "/comm" {
		t.Fatalf("unexpected request %s %s", gotMethod, gotPath)
	}
	if !strings.HasPrefix(gotType, "application/json") {
		t.Fatalf("unexpected content type %q", gotType)
	}
	if gotBody != `{"id":"id-1","tasks":[["open","all:"]]}` {
		t.Fatalf("unexpected body %s", gotBody)
	}
	if len(events) != 2 || events[0].Name != "connect" || events[1].Name != "update" {
		t.Fatalf("unexpected events %v", events)
	}
}

func TestExchangeEmptyBodyIsIdle(t *testing.T) {
	testlog.Start(t)
	tr := newTestTransport(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	events, err := tr.Exchange(context.Background(), protocol.Request{ID: "id-1"})
	if err != nil {
		t.Fatalf("exchange: %v", err)
	}
	if len(events) != 0 {
		t.Fatalf("expected no events, got %v", events)
	}
}

func TestExchangeBadStatus(t *testing.T) {
	testlog.Start(t)
	tr := newTestTransport(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Server error", http.StatusInternalServerError)
	})
	_, err := tr.Exchange(context.Background(), protocol.Request{ID: "id-1"})
	if !errors.Is(err, ErrBadStatus) {
		t.Fatalf("expected ErrBadStatus, got %v", err)
	}
	if !strings.Contains(err.Error(), "500") {
		t.Fatalf("status missing from error: %v", err)
	}
}

func TestExchangeMalformedBody(t *testing.T) {
	testlog.Start(t)
	tr := newTestTransport(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "<html>proxy login</html>")
	})
	_, err := tr.Exchange(context.Background(), protocol.Request{ID: "id-1"})
	if !errors.Is(err, protocol.ErrMalformedPayload) {
		t.Fatalf("expected ErrMalformedPayload, got %v", err)
	}
}

func TestExchangeNetworkFailure(t *testing.T) {
	testlog.Start(t)
	srv := httptest.NewServer(http.NotFoundHandler())
	endpoint := srv.URL + "/comm"
	srv.Close()

	tr, err := NewHTTP(Config{Endpoint: endpoint})
	if err != nil {
		t.Fatalf("new transport: %v", err)
	}
	if _, err := tr.Exchange(context.Background(), protocol.Request{ID: "id-1"}); err == nil {
		t.Fatalf("expected dial error")
	}
}

func TestNewHTTPValidatesEndpoint(t *testing.T) {
	testlog.Start(t)
	if _, err := NewHTTP(Config{}); !errors.Is(err, ErrEndpointRequired) {
		t.Fatalf("expected ErrEndpointRequired, got %v", err)
	}
	if _, err := NewHTTP(Config{Endpoint: "ws://127.0.0.1/comm"}); err == nil {
		t.Fatalf("expected scheme error")
	}
}
