package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"studypal-quiz-service/internal/app"
	"studypal-quiz-service/internal/domain"

	"github.com/gorilla/websocket"
)

type WSHandler struct {
	service  *app.QuizService
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.QuizService) *WSHandler {
	return &WSHandler{
		service: service,
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

type startPayload struct {
	Settings domain.Settings `json:"settings"`
}

type selectPayload struct {
	Option int `json:"option"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades HTTP requests to websockets and drives one quiz run: the
// client opens a socket per topic, sends "start" with its settings, then
// "select"/"next"/"previous"/"submit"; the server pushes "state" after every
// transition and tick, and "results" once the attempt is submitted.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	topic := r.URL.Query().Get("topic")
	if topic == "" {
		http.Error(w, "missing topic", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	// The first inbound message must start (or resume) the run.
	var first inboundMessage
	if err := conn.ReadJSON(&first); err != nil {
		return
	}
	if first.Type != "start" {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: "expected start message"}})
		return
	}
	var start startPayload
	if err := json.Unmarshal(first.Payload, &start); err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: "invalid start payload"}})
		return
	}

	view, err := h.service.StartAttempt(r.Context(), topic, start.Settings)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}

	updates, cancel, err := h.service.Subscribe(topic)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	defer cancel()
	// Leaving mid-run keeps the snapshot so the attempt can resume later;
	// after submission this is a no-op.
	defer h.service.Abandon(topic)

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
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
				if update.Submitted {
					if summary, ok := h.service.Results(topic); ok {
						select {
						case send <- outboundMessage[any]{Type: "results", Payload: summary}:
						case <-closeSignals:
						}
					}
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	send <- outboundMessage[any]{Type: "started", Payload: view}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		if err := h.handleMessage(r, topic, inbound, send); err != nil {
			send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}

func (h *WSHandler) handleMessage(r *http.Request, topic string, inbound inboundMessage, send chan outboundMessage[any]) error {
	ctx := r.Context()
	switch inbound.Type {
	case "select":
		var payload selectPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			return errors.New("invalid select payload")
		}
		_, err := h.service.Select(ctx, topic, payload.Option)
		return err
	case "next":
		// Results, if this advance submits, arrive via the updates pump.
		_, _, err := h.service.Advance(ctx, topic)
		return err
	case "previous":
		_, err := h.service.Retreat(ctx, topic)
		return err
	case "submit":
		_, _, err := h.service.Submit(ctx, topic)
		return err
	default:
		return errors.New("unsupported message type")
	}
}
