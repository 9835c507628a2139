package http

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"movie-quiz-service/internal/app"
	"movie-quiz-service/internal/render"
)

// WSHandler binds one page session to one WebSocket connection.
type WSHandler struct {
	service  *app.QuizService
	logger   *zap.Logger
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.QuizService, logger *zap.Logger) *WSHandler {
	return &WSHandler{
		service: service,
		logger:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type resultPayload struct {
	View app.View    `json:"view"`
	Card render.Card `json:"card"`
}

type failurePayload struct {
	View  app.View     `json:"view"`
	Error errorPayload `json:"error"`
}

// ServeWS upgrades HTTP requests to websockets and drives a quiz session from client events.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	flowID := r.URL.Query().Get("flowId")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	view, err := h.service.Start(ctx, flowID)
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	sessionID := view.SessionID
	defer h.service.End(context.Background(), sessionID)

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	send := make(chan outboundMessage[any], 16)
	writerDone := make(chan struct{})
	var submits sync.WaitGroup

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				h.logger.Debug("ws write error", zap.String("session", sessionID), zap.Error(err))
				// keep draining so senders never block
				for range send {
				}
				return
			}
		}
	}()

	reply := func(view app.View, err error) {
		if err != nil {
			send <- outboundMessage[any]{Type: "error", Payload: failurePayload{View: view, Error: newErrorPayload(err)}}
			return
		}
		send <- outboundMessage[any]{Type: "state", Payload: view}
	}

	send <- outboundMessage[any]{Type: "session", Payload: view}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "state":
			reply(h.service.View(ctx, sessionID))
		case "select":
			var payload selectRequest
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid select payload"}}
				continue
			}
			reply(h.service.Select(ctx, sessionID, payload.Step, payload.Value))
		case "validate":
			var payload stepRequest
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid validate payload"}}
				continue
			}
			reply(h.service.Validate(ctx, sessionID, payload.Step))
		case "advance":
			var payload advanceRequest
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid advance payload"}}
				continue
			}
			view, _, err := h.service.Advance(ctx, sessionID, payload.Direction)
			reply(view, err)
		case "submit":
			// The controller rejects overlapping submissions; the read loop stays free
			// so the client sees the submitting state and can be told about repeats.
			send <- outboundMessage[any]{Type: "submitting", Payload: struct{}{}}
			submits.Add(1)
			go func() {
				defer submits.Done()
				view, err := h.service.Submit(ctx, sessionID)
				if err != nil || view.Result == nil {
					reply(view, err)
					return
				}
				send <- outboundMessage[any]{Type: "result", Payload: resultPayload{View: view, Card: render.Render(*view.Result)}}
			}()
		case "restart":
			reply(h.service.Restart(ctx, sessionID))
		default:
			send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "unsupported message type"}}
		}
	}

	cancel()
	submits.Wait()
	close(send)
	<-writerDone
}
