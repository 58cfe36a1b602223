package handlers

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"cagedesk/internal/adapters/http/middleware"
	"cagedesk/internal/adapters/realtime"
	"cagedesk/internal/pkg/response"
)

const (
	// DefaultFeedWait is how long a long-poll read blocks when wait is omitted
	DefaultFeedWait = 25 * time.Second
	// MaxFeedWait caps the wait query parameter
	MaxFeedWait = 55 * time.Second

	streamKeepAlive = 30 * time.Second
)

// FeedHandler serves row-change notifications to connected consoles
type FeedHandler struct {
	hub *realtime.Hub
}

// NewFeedHandler creates a new feed handler
func NewFeedHandler(hub *realtime.Hub) *FeedHandler {
	return &FeedHandler{hub: hub}
}

// Poll returns changes after since, blocking up to wait seconds for one
// @Summary Change feed (long-poll)
// @Description Returns events with seq > since. Blocks until one arrives or wait elapses. reset=true means the caller missed events and must refetch everything.
// @Tags Feed
// @Produce json
// @Security BearerAuth
// @Param since query int false "Last seen sequence number"
// @Param wait query int false "Seconds to wait (0 = return immediately)"
// @Success 200 {object} response.Response
// @Router /feed [get]
func (h *FeedHandler) Poll(c *fiber.Ctx) error {
	since, err := strconv.ParseUint(c.Query("since", "0"), 10, 64)
	if err != nil {
		return response.Invalid(c, "since", "since must be a sequence number")
	}
	wait := DefaultFeedWait
	if raw := c.Query("wait"); raw != "" {
		secs, err := strconv.Atoi(raw)
		if err != nil || secs < 0 {
			return response.Invalid(c, "wait", "wait must be a number of seconds")
		}
		wait = time.Duration(secs) * time.Second
	}
	if wait > MaxFeedWait {
		wait = MaxFeedWait
	}

	if wait == 0 {
		return response.Success(c, "Feed retrieved", h.hub.Since(since))
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), wait)
	defer cancel()
	batch, err := h.hub.Wait(ctx, since)
	if err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return response.Error(c, fiber.StatusRequestTimeout, "Feed wait cancelled")
	}

	return response.Success(c, "Feed retrieved", batch)
}

// Stream pushes every change as a server-sent event
// @Summary Change feed (stream)
// @Description Server-sent events, one per row change, with a keep-alive comment every 30s
// @Tags Feed
// @Produce text/event-stream
// @Security BearerAuth
// @Router /feed/stream [get]
func (h *FeedHandler) Stream(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return unauthorized(c)
	}

	clientID := "console-" + uuid.NewString()
	head := h.hub.Head()

	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")
	c.Set("Transfer-Encoding", "chunked")

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		client := &realtime.Client{
			ID:      clientID,
			Phone:   actor.Phone,
			Channel: make(chan realtime.Event, 50),
		}

		h.hub.Register(client)
		defer h.hub.Unregister(clientID)

		fmt.Fprintf(w, "event: connected\ndata: {\"client_id\":%q,\"head\":%d}\n\n", clientID, head)
		w.Flush()

		keepAlive := time.NewTicker(streamKeepAlive)
		defer keepAlive.Stop()

		for {
			select {
			case event, ok := <-client.Channel:
				if !ok {
					return
				}
				if err := writeEvent(w, event); err != nil {
					log.Printf("📡 Feed stream client disconnected: %s", clientID)
					return
				}

			case <-keepAlive.C:
				fmt.Fprintf(w, ": keep-alive\n\n")
				if err := w.Flush(); err != nil {
					log.Printf("📡 Feed stream client disconnected: %s", clientID)
					return
				}
			}
		}
	})

	return nil
}

func writeEvent(w *bufio.Writer, event realtime.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "id: %d\nevent: %s\ndata: %s\n\n", event.Seq, event.Topic, data)
	return w.Flush()
}
