package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"quiz-engine/internal/app"
	"quiz-engine/internal/domain"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type WSHandler struct {
	service     *app.QuizService
	logger      *zap.Logger
	defaultQuiz string
	upgrader    websocket.Upgrader
}

func NewWSHandler(service *app.QuizService, logger *zap.Logger, defaultQuiz string) *WSHandler {
	return &WSHandler{
		service:     service,
		logger:      logger,
		defaultQuiz: defaultQuiz,
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

type selectPayload struct {
	Option string `json:"option"`
}

type startedPayload struct {
	SessionID string          `json:"sessionId"`
	State     domain.Snapshot `json:"state"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

func errorMessage(err error) outboundMessage[any] {
	return outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
}

// ServeWS upgrades HTTP requests to websockets and runs one play session per connection.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	quizID := r.URL.Query().Get("quizId")
	if quizID == "" {
		quizID = h.defaultQuiz
	}
	if quizID == "" {
		http.Error(w, "missing quizId", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()
	// hijacked connections keep the server's read/write deadlines
	_ = conn.NetConn().SetDeadline(time.Time{})

	// the session outlives the request context only as long as the connection
	ctx := context.WithoutCancel(r.Context())

	sessionID, initial, err := h.service.Start(ctx, quizID)
	if err != nil {
		h.logger.Info("session start rejected", zap.String("quiz", quizID), zap.Error(err))
		_ = conn.WriteJSON(errorMessage(err))
		return
	}
	defer h.service.End(ctx, sessionID)
	log := h.logger.With(zap.String("session", sessionID), zap.String("quiz", quizID))
	log.Info("session started")

	updates, cancel, err := h.service.Subscribe(ctx, sessionID)
	if err != nil {
		_ = conn.WriteJSON(errorMessage(err))
		return
	}
	defer cancel()
	<-updates // initial snapshot goes out with "started"

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Debug("ws write error", zap.Error(err))
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		for {
			select {
			case update, ok := <-updates:
				if !ok {
					return
				}
				select {
				case send <- outboundMessage[any]{Type: "state", Payload: update}:
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	send <- outboundMessage[any]{Type: "started", Payload: startedPayload{SessionID: sessionID, State: initial}}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		if msg, ok := h.dispatch(ctx, sessionID, inbound); ok {
			send <- msg
		}
	}

	log.Info("session closed")
	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}

// dispatch applies one input event. State changes reach the client through
// the subscription; only submission feedback and errors are returned here.
func (h *WSHandler) dispatch(ctx context.Context, sessionID string, inbound inboundMessage) (outboundMessage[any], bool) {
	var err error
	switch inbound.Type {
	case "select":
		var payload selectPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			return errorMessage(errors.New("invalid select payload")), true
		}
		_, err = h.service.Select(ctx, sessionID, payload.Option)
	case "submit":
		var sub domain.Submission
		sub, _, err = h.service.Submit(ctx, sessionID)
		if err == nil {
			return outboundMessage[any]{Type: "submission", Payload: sub}, true
		}
	case "retry":
		_, err = h.service.Retry(ctx, sessionID)
	case "next":
		_, err = h.service.Advance(ctx, sessionID)
	case "restart":
		_, err = h.service.Restart(ctx, sessionID)
	default:
		err = errors.New("unsupported message type")
	}
	if err != nil {
		return errorMessage(err), true
	}
	return outboundMessage[any]{}, false
}
