package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/example/salon-scheduler/internal/notify"
)

const (
	eventsWriteWait    = 10 * time.Second
	eventsPongWait     = 60 * time.Second
	eventsPingInterval = 30 * time.Second
	eventsBuffer       = 32
)

type eventSubscriber interface {
	Subscribe(ctx context.Context, buffer int) <-chan notify.Event
	LastSeq() uint64
}

// EventsHandler streams change events to websocket clients. Each connection
// first receives a hello frame carrying the current sequence number.
type EventsHandler struct {
	events       eventSubscriber
	upgrader     websocket.Upgrader
	pingInterval time.Duration
	logger       *slog.Logger
}

// NewEventsHandler builds the handler. An empty allowedOrigins or one
// containing "*" accepts any origin.
func NewEventsHandler(events eventSubscriber, allowedOrigins []string, logger *slog.Logger) *EventsHandler {
	return &EventsHandler{
		events: events,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
		pingInterval: eventsPingInterval,
		logger:       defaultLogger(logger),
	}
}

type helloFrame struct {
	Type string `json:"type"`
	Seq  uint64 `json:"seq"`
}

func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.events == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	logger := handlerLogger(r.Context(), h.logger, "EventsHandler", "Stream")

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the error response.
		logger.WarnContext(r.Context(), "websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	events := h.events.Subscribe(ctx, eventsBuffer)
	logger.InfoContext(ctx, "event stream opened")

	go h.readPump(ctx, cancel, conn)

	if err := h.write(conn, helloFrame{Type: "hello", Seq: h.events.LastSeq()}); err != nil {
		logger.WarnContext(ctx, "failed to send hello frame", "error", err)
		return
	}

	ticker := time.NewTicker(h.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, ""),
				time.Now().Add(eventsWriteWait))
			logger.InfoContext(r.Context(), "event stream closed")
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			if err := h.write(conn, event); err != nil {
				logger.WarnContext(ctx, "failed to send event", "error", err, "seq", event.Seq)
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(eventsWriteWait)); err != nil {
				logger.WarnContext(ctx, "failed to ping client", "error", err)
				return
			}
		}
	}
}

func (h *EventsHandler) write(conn *websocket.Conn, payload any) error {
	if err := conn.SetWriteDeadline(time.Now().Add(eventsWriteWait)); err != nil {
		return err
	}
	return conn.WriteJSON(payload)
}

// readPump discards client frames and cancels the stream once the client goes
// away or stops answering pings.
func (h *EventsHandler) readPump(ctx context.Context, cancel context.CancelFunc, conn *websocket.Conn) {
	defer cancel()
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(eventsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(eventsPongWait))
	})
	for {
		if ctx.Err() != nil {
			return
		}
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func originChecker(allowed []string) func(*http.Request) bool {
	set := make(map[string]struct{}, len(allowed))
	for _, origin := range allowed {
		if origin == "*" {
			return func(*http.Request) bool { return true }
		}
		set[origin] = struct{}{}
	}
	if len(set) == 0 {
		return func(*http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}
