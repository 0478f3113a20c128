package server_test

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/danmuck/xhrcomm/internal/identity"
	"github.com/danmuck/xhrcomm/internal/protocol"
	"github.com/danmuck/xhrcomm/internal/server"
	"github.com/danmuck/xhrcomm/internal/testutil/testlog"
	"github.com/danmuck/xhrcomm/internal/testutil/tlstest"
	"github.com/danmuck/xhrcomm/internal/transport"
	"github.com/gin-gonic/gin"
)

func TestServeMutualTLS(t *testing.T) {
	testlog.Start(t)
	gin.SetMode(gin.TestMode)
	ca := tlstest.NewAuthority(t, t.TempDir(), "commd-ca")
	certFile, keyFile := ca.IssueServerCert(t, "commd")
	clientCert, clientKey := ca.IssueClientCert(t, "commctl")

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Skipf("listener unavailable: %v", err)
	}
	srv := server.New(server.Config{
		Name:            "tls",
		TLSCertFile:     certFile,
		TLSKeyFile:      keyFile,
		TLSClientCAFile: ca.CAFile(),
	})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()
	defer func() {
		cancel()
		select {
		case <-done:
		case <-time.After(3 * time.Second):
			t.Errorf("serve did not stop")
		}
	}()

	tr, err := transport.NewHTTP(transport.Config{
		Endpoint: "https://" + ln.Addr().String() + "/comm",
		CAFile:   ca.CAFile(),
		CertFile: clientCert,
		KeyFile:  clientKey,
	})
	if err != nil {
		t.Fatalf("transport: %v", err)
	}

	var events []protocol.Event
	id := identity.New().String()
	deadline := time.Now().Add(3 * time.Second)
	for {
		events, err = tr.Exchange(ctx, protocol.Request{ID: id})
		if err == nil || time.Now().After(deadline) {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if err != nil {
		t.Fatalf("exchange over mtls: %v", err)
	}
	if len(events) != 1 || events[0].Name != protocol.EventConnect {
		t.Fatalf("unexpected events: %v", events)
	}
}

func TestServeRejectsPartialTLSConfig(t *testing.T) {
	testlog.Start(t)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Skipf("listener unavailable: %v", err)
	}
	srv := server.New(server.Config{TLSCertFile: "server.crt"})
	if err := srv.Serve(context.Background(), ln); !errors.Is(err, server.ErrTLSConfig) {
		t.Fatalf("expected ErrTLSConfig, got %v", err)
	}
}
