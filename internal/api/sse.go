package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/scott-cmd11/ai-canada-pulse/internal/coordination"
)

const ssePingInterval = 10 * time.Second

// handleFeedStream holds the connection open and relays every record the
// writer publishes, plus a "ping" event every ssePingInterval as a
// keepalive so intermediary proxies don't time the connection out.
func (s *Server) handleFeedStream(c echo.Context) error {
	if s.redis == nil {
		return errJSON(c, http.StatusServiceUnavailable, fmt.Errorf("event stream is not configured"))
	}

	resp := c.Response()
	resp.Header().Set(echo.HeaderContentType, "text/event-stream")
	resp.Header().Set("Cache-Control", "no-cache")
	resp.Header().Set("Connection", "keep-alive")
	resp.Header().Set("X-Accel-Buffering", "no")
	resp.WriteHeader(http.StatusOK)

	ctx := c.Request().Context()
	sub := coordination.Subscribe(ctx, s.redis, s.sseChannel)
	defer sub.Close()

	ticker := time.NewTicker(ssePingInterval)
	defer ticker.Stop()

	flusher, _ := resp.Writer.(http.Flusher)

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-sub.Channel():
			if !ok {
				return nil
			}
			if err := writeSSEEvent(resp, "new_item", msg.Payload); err != nil {
				return err
			}
			if flusher != nil {
				flusher.Flush()
			}
		case <-ticker.C:
			if err := writeSSEEvent(resp, "ping", `{"ok":true}`); err != nil {
				return err
			}
			if flusher != nil {
				flusher.Flush()
			}
		}
	}
}

func writeSSEEvent(resp *echo.Response, event, data string) error {
	_, err := fmt.Fprintf(resp, "event: %s\ndata: %s\n\n", event, data)
	return err
}
