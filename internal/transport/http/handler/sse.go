package handler

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"tenderquote/internal/app"
)

// sseSink translates orchestrator events into SSE frames for one client.
// Once a write fails the client is considered gone: the failure is logged a
// single time and every later event is dropped, never raised back into the
// orchestrator.
type sseSink struct {
	writer  gin.ResponseWriter
	flusher http.Flusher
	dead    bool
}

func newSSESink(c *gin.Context) (*sseSink, bool) {
	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		return nil, false
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	return &sseSink{
		writer:  c.Writer,
		flusher: flusher,
	}, true
}

func (s *sseSink) Send(event app.StreamEvent) {
	if s.dead {
		return
	}

	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("sse: marshal event failed: %v", err)
		return
	}
	if _, err := s.writer.Write(append(append([]byte("data: "), payload...), '\n', '\n')); err != nil {
		s.dead = true
		log.Printf("sse: client gone, dropping remaining events: %v", err)
		return
	}
	s.flusher.Flush()
}
