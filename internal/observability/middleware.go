package observability

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// pollTagKey is the gin context key TagPoll stores its PollTag under.
const pollTagKey = "xhrcomm.poll"

// PollTag describes the session one poll request was served for.
type PollTag struct {
	Session   string
	Namespace string
	Opened    bool
	Tasks     int
	Events    int
}

// TagPoll attaches tag to the request so RequestLogger and
// RequestMetricsMiddleware report it after the handler returns.
func TagPoll(c *gin.Context, tag PollTag) {
	c.Set(pollTagKey, tag)
}

func pollTag(c *gin.Context) (PollTag, bool) {
	v, ok := c.Get(pollTagKey)
	if !ok {
		return PollTag{}, false
	}
	tag, ok := v.(PollTag)
	return tag, ok
}

func requestLevel(status int) zerolog.Level {
	switch {
	case status >= 500:
		return zerolog.ErrorLevel
	case status >= 400:
		return zerolog.WarnLevel
	default:
		// clients heartbeat several times a second
		return zerolog.DebugLevel
	}
}

// RequestLogger logs each request, with the session fields of a tagged poll.
func RequestLogger(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		event := logger.WithLevel(requestLevel(status)).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("duration", time.Since(start)).
			Str("client_ip", c.ClientIP())

		if tag, ok := pollTag(c); ok {
			event = event.
				Str("session", tag.Session).
				Str("ns", tag.Namespace).
				Bool("opened", tag.Opened).
				Int("tasks", tag.Tasks).
				Int("events", tag.Events)
			event.Msg("poll")
			return
		}
		event.Int("bytes", c.Writer.Size()).Msg("http_request")
	}
}

func RequestMetricsMiddleware(node string) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		RecordHTTPRequest(node, c.Request.Method, path, c.Writer.Status(), time.Since(start))
		if tag, ok := pollTag(c); ok {
			RecordPoll(node, tag.Opened, tag.Tasks, tag.Events)
		}
	}
}
