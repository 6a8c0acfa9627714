package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/Harshitk-cp/searchmind/internal/domain"
	"github.com/Harshitk-cp/searchmind/internal/service"
)

const (
	wsWriteWait       = 10 * time.Second
	wsMaxMessageBytes = 64 << 10
	wsMaxQueuedTurns  = 4
)

type ChatHandler struct {
	turns    *service.TurnService
	logger   *zap.Logger
	upgrader websocket.Upgrader
	onStream func() func()

	closing   chan struct{}
	closeOnce sync.Once
}

// NewChatHandler builds the chat endpoints. onStream, when set, is called
// for every accepted WebSocket and its result when the socket closes.
func NewChatHandler(turns *service.TurnService, logger *zap.Logger, onStream func() func()) *ChatHandler {
	return &ChatHandler{
		turns:  turns,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// Access is gated by the API key, not by origin.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		onStream: onStream,
		closing:  make(chan struct{}),
	}
}

// CloseStreams ends every open WebSocket stream. Hijacked connections are
// not covered by http.Server.Shutdown.
func (h *ChatHandler) CloseStreams() {
	h.closeOnce.Do(func() { close(h.closing) })
}

// Post runs one turn and returns every event it produced as a JSON array.
func (h *ChatHandler) Post(w http.ResponseWriter, r *http.Request) {
	var req service.TurnRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	events := []domain.Event{}
	err := h.turns.HandleTurn(r.Context(), req, func(ev domain.Event) error {
		events = append(events, ev)
		return nil
	})
	switch {
	case errors.Is(err, service.ErrTurnMessageEmpty):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, service.ErrPropertyNotFound):
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	// Any other failure is already the final error event of the stream.
	writeJSON(w, http.StatusOK, events)
}

// Stream upgrades to a WebSocket and runs one turn per inbound request
// message, in arrival order. Closing the socket cancels the turn in flight.
func (h *ChatHandler) Stream(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	if h.onStream != nil {
		defer h.onStream()()
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	go func() {
		select {
		case <-h.closing:
			cancel()
		case <-ctx.Done():
		}
	}()

	// Server shutdown or a vanished peer ends the stream with a close frame.
	stop := context.AfterFunc(ctx, func() {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, ""),
			time.Now().Add(wsWriteWait))
	})
	defer stop()

	var writeMu sync.Mutex
	emit := func(ev domain.Event) error {
		writeMu.Lock()
		defer writeMu.Unlock()
		if err := conn.SetWriteDeadline(time.Now().Add(wsWriteWait)); err != nil {
			return err
		}
		return conn.WriteJSON(ev)
	}

	requests := make(chan service.TurnRequest, wsMaxQueuedTurns)
	go h.readRequests(ctx, cancel, conn, requests, emit)

	for req := range requests {
		if err := h.turns.HandleTurn(ctx, req, emit); err != nil {
			h.logger.Debug("streamed turn failed", zap.Error(err))
		}
		if ctx.Err() != nil {
			break
		}
	}
}

// readRequests decodes inbound messages until the peer goes away, then
// cancels the connection context.
func (h *ChatHandler) readRequests(
	ctx context.Context,
	cancel context.CancelFunc,
	conn *websocket.Conn,
	requests chan<- service.TurnRequest,
	emit service.EmitFunc,
) {
	defer close(requests)
	defer cancel()

	conn.SetReadLimit(wsMaxMessageBytes)
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.Debug("websocket read ended", zap.Error(err))
			}
			return
		}

		var req service.TurnRequest
		if err := json.Unmarshal(data, &req); err != nil {
			if emit(domain.ErrorEvent("invalid request message")) != nil {
				return
			}
			continue
		}

		select {
		case requests <- req:
		case <-ctx.Done():
			return
		default:
			if emit(domain.ErrorEvent("too many pending requests")) != nil {
				return
			}
		}
	}
}
