package server

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/danmuck/xhrcomm/internal/auth"
	"github.com/danmuck/xhrcomm/internal/observability"
	"github.com/danmuck/xhrcomm/internal/protocol"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jellydator/ttlcache/v3"
	"github.com/rs/zerolog/log"
)

var ErrAddrRequired = errors.New("server: listen address required")

type Config struct {
	Name string
	Addr string
	// Path is the poll endpoint.
	Path              string
	SessionExpiration time.Duration
	ShutdownTimeout   time.Duration
	CorsOrigins       []string
	// AuthToken, when set, is required on every poll.
	AuthToken string
	// TLSCertFile and TLSKeyFile switch Serve to https. TLSClientCAFile
	// additionally requires client certificates from that CA.
	TLSCertFile     string
	TLSKeyFile      string
	TLSClientCAFile string
}

func DefaultConfig() Config {
	return Config{
		Name:              "commd",
		Addr:              ":9100",
		Path:              "/comm",
		SessionExpiration: 5 * time.Minute,
		ShutdownTimeout:   5 * time.Second,
	}
}

func (c Config) WithDefaults() Config {
	d := DefaultConfig()
	if strings.TrimSpace(c.Name) == "" {
		c.Name = d.Name
	}
	if strings.TrimSpace(c.Addr) == "" {
		c.Addr = d.Addr
	}
	if strings.TrimSpace(c.Path) == "" {
		c.Path = d.Path
	}
	if !strings.HasPrefix(c.Path, "/") {
		c.Path = "/" + c.Path
	}
	if c.SessionExpiration <= 0 {
		c.SessionExpiration = d.SessionExpiration
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = d.ShutdownTimeout
	}
	return c
}

// TaskHandler handles one client task. Returned errors are logged and do not
// stop the remaining tasks of the request.
type TaskHandler func(s *Session, args protocol.Args) error

// SessionHook runs against a session at a fixed point of the request.
type SessionHook func(s *Session)

type Server struct {
	cfg      Config
	router   *gin.Engine
	sessions *ttlcache.Cache[string, *Session]
	started  time.Time

	mu          sync.RWMutex
	handlers    map[string][]TaskHandler
	onConnect   []SessionHook
	onHeartbeat []SessionHook
}

func New(cfg Config) *Server {
	cfg = cfg.WithDefaults()
	observability.RegisterMetrics()

	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(gin.Recovery())
	r.Use(observability.RequestLogger(observability.Component(cfg.Name, "http")))
	r.Use(observability.RequestMetricsMiddleware(cfg.Name))
	r.Use(cors.New(cors.Config{
		AllowOrigins: normalizeOrigins(cfg.CorsOrigins),
		AllowMethods: []string{"GET", "POST"},
		AllowHeaders: []string{"Origin", "Content-Type", "Authorization", auth.TokenHeader},
		MaxAge:       12 * time.Hour,
	}))
	_ = r.SetTrustedProxies([]string{"127.0.0.1", "::1"})

	sessions := ttlcache.New[string, *Session](
		ttlcache.WithTTL[string, *Session](cfg.SessionExpiration),
	)

	s := &Server{
		cfg:      cfg,
		router:   r,
		sessions: sessions,
		started:  time.Now(),
		handlers: make(map[string][]TaskHandler),
	}
	sessions.OnEviction(func(_ context.Context, reason ttlcache.EvictionReason, item *ttlcache.Item[string, *Session]) {
		log.Debug().Msgf("server.Server session dropped id=%s reason=%d", item.Key(), reason)
	})
	s.registerRoutes()
	return s
}

func (s *Server) Config() Config {
	return s.cfg
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Handle registers h for task name. Tasks with no handler are ignored.
func (s *Server) Handle(name string, h TaskHandler) {
	if h == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[name] = append(s.handlers[name], h)
}

// OnConnect runs h whenever a poll opens a new session.
func (s *Server) OnConnect(h SessionHook) {
	if h == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onConnect = append(s.onConnect, h)
}

// OnHeartbeat runs h after the tasks of every poll.
func (s *Server) OnHeartbeat(h SessionHook) {
	if h == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onHeartbeat = append(s.onHeartbeat, h)
}

// Session returns the live session for id.
func (s *Server) Session(id string) (*Session, bool) {
	item := s.sessions.Get(id)
	if item == nil {
		return nil, false
	}
	return item.Value(), true
}

func (s *Server) SessionCount() int {
	return s.sessions.Len()
}

// Broadcast emits to every live session and returns how many it reached.
func (s *Server) Broadcast(name string, args ...any) int {
	n := 0
	for _, item := range s.sessions.Items() {
		item.Value().Emit(name, args...)
		n++
	}
	return n
}

// Run listens on the configured address and serves until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	if strings.TrimSpace(s.cfg.Addr) == "" {
		return ErrAddrRequired
	}
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("server: listen %s: %w", s.cfg.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve runs the endpoint on ln and shuts down gracefully when ctx is done.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	tlsCfg, err := s.tlsConfig()
	if err != nil {
		_ = ln.Close()
		return err
	}
	if tlsCfg != nil {
		ln = tls.NewListener(ln, tlsCfg)
	}
	httpSrv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		TLSConfig:         tlsCfg,
	}

	go s.sessions.Start()
	defer s.sessions.Stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info().Msgf("server.Server listening name=%s addr=%s path=%s tls=%t", s.cfg.Name, ln.Addr(), s.cfg.Path, tlsCfg != nil)
		errCh <- httpSrv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	log.Info().Msgf("server.Server stopped name=%s", s.cfg.Name)
	return nil
}

// session returns the session for id, creating it when absent or expired.
func (s *Server) session(id, namespace string) (*Session, bool) {
	if item := s.sessions.Get(id); item != nil {
		return item.Value(), false
	}
	item, loaded := s.sessions.GetOrSet(id, newSession(id, namespace))
	return item.Value(), !loaded
}

func (s *Server) dropSession(id string) {
	s.sessions.Delete(id)
}

// The gauge is refreshed per poll; eviction callbacks must not call back
// into the cache.
func (s *Server) recordSessions() {
	observability.SetLiveSessions(s.cfg.Name, s.sessions.Len())
}

func (s *Server) taskHandlers(name string) []TaskHandler {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]TaskHandler(nil), s.handlers[name]...)
}

func (s *Server) hooks(connect bool) []SessionHook {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if connect {
		return append([]SessionHook(nil), s.onConnect...)
	}
	return append([]SessionHook(nil), s.onHeartbeat...)
}

func normalizeOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"http://localhost:3000"}
	}
	return origins
}
