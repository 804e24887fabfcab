package http

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"fuvest-study-service/internal/app"
	"fuvest-study-service/internal/domain"
	"github.com/gorilla/websocket"
)

type WSHandler struct {
	service  *app.ExamService
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.ExamService) *WSHandler {
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

type answerPayload struct {
	QuestionID string `json:"questionId"`
	Option     string `json:"option"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// questionView is the client-facing shape of a question. The correct letter
// and the explanation stay server-side while the exam is running.
type questionView struct {
	ID      string          `json:"id"`
	Number  int             `json:"number"`
	Year    int             `json:"year"`
	Stem    string          `json:"stem"`
	Options []domain.Option `json:"options"`
	Image   string          `json:"image,omitempty"`
	Page    int             `json:"page,omitempty"`
}

type sessionPayload struct {
	SessionID string         `json:"sessionId"`
	Questions []questionView `json:"questions"`
	Total     int            `json:"total"`
	Minutes   int            `json:"minutes"`
	Index     int            `json:"index"`
}

type positionPayload struct {
	Index int `json:"index"`
}

type tickPayload struct {
	RemainingSeconds int `json:"remainingSeconds"`
}

// ServeWS upgrades HTTP requests to websockets and drives one exam session
// over the connection.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	questions, err := strconv.Atoi(r.URL.Query().Get("questions"))
	if err != nil {
		http.Error(w, "missing or invalid questions", http.StatusBadRequest)
		return
	}
	minutes, err := strconv.Atoi(r.URL.Query().Get("minutes"))
	if err != nil {
		http.Error(w, "missing or invalid minutes", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	session, err := h.service.StartExam(r.Context(), domain.ExamConfig{
		Questions: questions,
		TimeLimit: time.Duration(minutes) * time.Minute,
	})
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	sessionID := session.ID()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	tickerDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	// Countdown ticker. The remaining time is derived from the session start
	// on every tick; hitting zero finalizes the exam and closes the socket.
	go func() {
		defer close(tickerDone)
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				remaining, err := h.service.Remaining(sessionID)
				if err != nil {
					return
				}
				if remaining > 0 {
					deliver(send, writerDone, outboundMessage[any]{Type: "tick", Payload: tickPayload{RemainingSeconds: int(remaining.Seconds())}})
					continue
				}
				result, err := h.service.Finish(r.Context(), sessionID)
				if err != nil && result.Total == 0 {
					return
				}
				deliver(send, writerDone, outboundMessage[any]{Type: "timeUp", Payload: struct{}{}})
				deliver(send, writerDone, outboundMessage[any]{Type: "result", Payload: result})
				// Unblocks the reader loop below.
				conn.Close()
				return
			case <-closeSignals:
				return
			}
		}
	}()

	deliver(send, writerDone, outboundMessage[any]{Type: "session", Payload: sessionView(session)})

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		done := h.handleMessage(r, sessionID, inbound, send, writerDone)
		if done {
			break
		}
	}

	// Abandoned connections discard the session without persisting anything.
	if err := h.service.Cancel(sessionID); err == nil {
		log.Printf("exam %s cancelled on disconnect", sessionID)
	}

	close(closeSignals)
	<-tickerDone
	close(send)
	<-writerDone
}

// handleMessage dispatches one inbound message; it reports whether the
// session reached a terminal state.
func (h *WSHandler) handleMessage(r *http.Request, sessionID string, inbound inboundMessage, send chan<- outboundMessage[any], writerDone <-chan struct{}) bool {
	switch inbound.Type {
	case "answer":
		var payload answerPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			deliver(send, writerDone, outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid answer payload"}})
			return false
		}
		if err := h.service.Answer(sessionID, payload.QuestionID, payload.Option); err != nil {
			deliver(send, writerDone, outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}})
			return false
		}
		deliver(send, writerDone, outboundMessage[any]{Type: "answerAck", Payload: payload})
	case "next":
		index, err := h.service.Next(sessionID)
		if err != nil {
			deliver(send, writerDone, outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}})
			return false
		}
		deliver(send, writerDone, outboundMessage[any]{Type: "position", Payload: positionPayload{Index: index}})
	case "prev":
		index, err := h.service.Prev(sessionID)
		if err != nil {
			deliver(send, writerDone, outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}})
			return false
		}
		deliver(send, writerDone, outboundMessage[any]{Type: "position", Payload: positionPayload{Index: index}})
	case "finish":
		result, err := h.service.Finish(r.Context(), sessionID)
		if err != nil {
			deliver(send, writerDone, outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}})
			// A scored result that failed to persist still goes to the client.
			if result.Total == 0 {
				return false
			}
		}
		deliver(send, writerDone, outboundMessage[any]{Type: "result", Payload: result})
		return true
	case "cancel":
		if err := h.service.Cancel(sessionID); err != nil {
			deliver(send, writerDone, outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}})
			return false
		}
		deliver(send, writerDone, outboundMessage[any]{Type: "cancelled", Payload: struct{}{}})
		return true
	default:
		deliver(send, writerDone, outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "unsupported message type"}})
	}
	return false
}

// deliver queues a message for the writer goroutine, giving up once the
// writer has exited so callers never block on a dead connection.
func deliver(send chan<- outboundMessage[any], writerDone <-chan struct{}, msg outboundMessage[any]) {
	select {
	case send <- msg:
	case <-writerDone:
	}
}

func sessionView(session *app.Session) sessionPayload {
	questions := session.Questions()
	views := make([]questionView, 0, len(questions))
	for _, q := range questions {
		views = append(views, questionView{
			ID:      q.ID,
			Number:  q.Number,
			Year:    q.Year,
			Stem:    q.Stem,
			Options: q.Options,
			Image:   q.Image,
			Page:    q.Page,
		})
	}
	return sessionPayload{
		SessionID: session.ID(),
		Questions: views,
		Total:     session.Len(),
		Minutes:   int(session.Config().TimeLimit.Minutes()),
		Index:     session.Index(),
	}
}
