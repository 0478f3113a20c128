package server

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/danmuck/xhrcomm/internal/auth"
	"github.com/danmuck/xhrcomm/internal/identity"
	"github.com/danmuck/xhrcomm/internal/observability"
	"github.com/danmuck/xhrcomm/internal/protocol"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

// maxRequestBytes bounds one poll body.
const maxRequestBytes = 1 << 20

func (s *Server) registerRoutes() {
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":   "ok",
			"uptime":   time.Since(s.started).String(),
			"service":  s.cfg.Name,
			"sessions": s.sessions.Len(),
			"version":  "0.0.1",
		})
	})

	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if s.cfg.AuthToken != "" {
		s.router.POST(s.cfg.Path, auth.Middleware(auth.StaticToken{Token: s.cfg.AuthToken}), s.handlePoll)
		return
	}
	s.router.POST(s.cfg.Path, s.handlePoll)
}

func (s *Server) handlePoll(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxRequestBytes))
	if err != nil {
		c.String(http.StatusBadRequest, "read body: %v", err)
		return
	}
	if len(bytes.TrimSpace(body)) == 0 {
		c.String(http.StatusMethodNotAllowed, "Method Not Allowed")
		return
	}

	req, err := protocol.DecodeRequest(bytes.NewReader(body))
	if err != nil {
		log.Warn().Msgf("server.Server rejected poll remote=%s err=%v", c.ClientIP(), err)
		c.String(http.StatusBadRequest, "Bad Request: %v", err)
		return
	}
	id, err := identity.Parse(req.ID)
	if err != nil {
		log.Warn().Msgf("server.Server rejected poll remote=%s err=%v", c.ClientIP(), err)
		c.String(http.StatusBadRequest, "Bad Request: %v", err)
		return
	}

	sess, created := s.session(id.String(), req.Namespace)
	if created {
		log.Debug().Msgf("server.Server session opened id=%s ns=%q", sess.ID, sess.Namespace)
		sess.Emit(protocol.EventConnect, sess.ID)
		for _, h := range s.hooks(true) {
			s.runHook("connect", sess, h)
		}
	}

	for _, task := range req.Tasks {
		s.handleTask(sess, task)
	}
	for _, h := range s.hooks(false) {
		s.runHook("heartbeat", sess, h)
	}

	events, closing := sess.drain()
	if closing {
		s.dropSession(sess.ID)
	}
	s.recordSessions()
	observability.TagPoll(c, observability.PollTag{
		Session:   sess.ID,
		Namespace: sess.Namespace,
		Opened:    created,
		Tasks:     len(req.Tasks),
		Events:    len(events),
	})
	if len(events) == 0 {
		c.Status(http.StatusOK)
		return
	}

	var buf bytes.Buffer
	if err := protocol.EncodeEvents(&buf, events); err != nil {
		log.Error().Msgf("server.Server encode response id=%s err=%v", sess.ID, err)
		c.String(http.StatusInternalServerError, "Server error")
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", buf.Bytes())
}

func (s *Server) handleTask(sess *Session, task protocol.Event) {
	if task.Name == protocol.EventError {
		text, _ := task.Args.String(0)
		log.Warn().Msgf("server.Server client error id=%s ns=%q err=%s", sess.ID, sess.Namespace, text)
		observability.RecordServerTask(s.cfg.Name, "client_error")
	}

	handlers := s.taskHandlers(task.Name)
	if len(handlers) == 0 {
		if task.Name != protocol.EventError {
			observability.RecordServerTask(s.cfg.Name, "unhandled")
		}
		return
	}
	for _, h := range handlers {
		if err := invokeTask(sess, h, task.Args); err != nil {
			log.Warn().Msgf("server.Server task failed id=%s task=%q err=%v", sess.ID, task.Name, err)
			observability.RecordServerTask(s.cfg.Name, "failed")
			continue
		}
		observability.RecordServerTask(s.cfg.Name, "handled")
	}
}

func (s *Server) runHook(stage string, sess *Session, h SessionHook) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Msgf("server.Server %s hook panicked id=%s panic=%v", stage, sess.ID, r)
		}
	}()
	h(sess)
}

var errTaskPanic = errors.New("server: task handler panicked")

func invokeTask(sess *Session, h TaskHandler, args protocol.Args) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", errTaskPanic, r)
		}
	}()
	return h(sess, args)
}
