package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"fuvest-study-service/internal/app"
	"fuvest-study-service/internal/domain"
	"fuvest-study-service/internal/infra/memory"
	"github.com/gorilla/websocket"
)

func TestWebSocketExamFlow(t *testing.T) {
	service := newTestService(t)
	wsHandler := NewWSHandler(service)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", wsHandler.ServeWS)
	server := httptest.NewServer(mux)
	defer server.Close()

	u := "ws" + server.URL[len("http"):] + "/ws?questions=6&minutes=30"
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// Expect the session snapshot first.
	msgType, raw := readNext(conn, t, "session")
	if msgType != "session" {
		t.Fatalf("expected session, got %s", msgType)
	}
	var session sessionPayload
	if err := json.Unmarshal(raw, &session); err != nil {
		t.Fatalf("unmarshal session: %v", err)
	}
	if session.Total == 0 || session.Total > 6 {
		t.Fatalf("unexpected session size %d", session.Total)
	}
	// The correct letters must not leak into the client view.
	if strings.Contains(string(raw), `"correct"`) {
		t.Fatalf("session payload leaks correct answers: %s", raw)
	}

	// Answer every question with B (the test banks' correct letter), walking forward.
	for i, q := range session.Questions {
		answer := map[string]any{
			"type":    "answer",
			"payload": map[string]any{"questionId": q.ID, "option": "B"},
		}
		if err := conn.WriteJSON(answer); err != nil {
			t.Fatalf("write answer: %v", err)
		}
		expectType(conn, t, "answerAck")

		if i < len(session.Questions)-1 {
			if err := conn.WriteJSON(map[string]any{"type": "next"}); err != nil {
				t.Fatalf("write next: %v", err)
			}
			expectType(conn, t, "position")
		}
	}

	if err := conn.WriteJSON(map[string]any{"type": "finish"}); err != nil {
		t.Fatalf("write finish: %v", err)
	}
	_, raw = readUntil(conn, t, "result")
	var result domain.Result
	if err := json.Unmarshal(raw, &result); err != nil {
		t.Fatalf("unmarshal result: %v", err)
	}
	if result.Score != result.Total || result.Total != session.Total {
		t.Fatalf("expected perfect score over %d, got %d/%d", session.Total, result.Score, result.Total)
	}
}

func TestWebSocketCancelDiscards(t *testing.T) {
	service := newTestService(t)
	wsHandler := NewWSHandler(service)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", wsHandler.ServeWS)
	server := httptest.NewServer(mux)
	defer server.Close()

	u := "ws" + server.URL[len("http"):] + "/ws?questions=4&minutes=10"
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	readNext(conn, t, "session")
	if err := conn.WriteJSON(map[string]any{"type": "cancel"}); err != nil {
		t.Fatalf("write cancel: %v", err)
	}
	_, _ = readUntil(conn, t, "cancelled")

	results, err := service.History(testContext(t))
	if err != nil || len(results) != 0 {
		t.Fatalf("expected empty history after cancel, got %v err=%v", results, err)
	}
}

func TestWebSocketTimeoutFinalizes(t *testing.T) {
	var mu sync.Mutex
	current := time.Now()
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return current
	}

	service := newTestService(t).WithClock(clock)
	wsHandler := NewWSHandler(service)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", wsHandler.ServeWS)
	server := httptest.NewServer(mux)
	defer server.Close()

	u := "ws" + server.URL[len("http"):] + "/ws?questions=4&minutes=30"
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	readNext(conn, t, "session")

	// Push the clock past the deadline; the next tick finalizes the exam.
	mu.Lock()
	current = current.Add(31 * time.Minute)
	mu.Unlock()

	readUntil(conn, t, "timeUp")
	_, raw := readNext(conn, t, "result")
	var result domain.Result
	if err := json.Unmarshal(raw, &result); err != nil {
		t.Fatalf("unmarshal result: %v", err)
	}
	if result.Total == 0 || result.Score != 0 {
		t.Fatalf("expected unanswered exam scored 0, got %d/%d", result.Score, result.Total)
	}

	results, err := service.History(testContext(t))
	if err != nil || len(results) != 1 {
		t.Fatalf("expected timed-out exam persisted, got %v err=%v", results, err)
	}
	if results[0].ID != result.ID {
		t.Fatalf("persisted id mismatch: %s vs %s", results[0].ID, result.ID)
	}
}

func TestMessageDeliveryStopsWithWriter(t *testing.T) {
	service := newTestService(t)
	h := NewWSHandler(service)

	session, err := service.StartExam(context.Background(), domain.ExamConfig{Questions: 4, TimeLimit: 10 * time.Minute})
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	// No reader on send and the writer already gone: dispatch must not block.
	send := make(chan outboundMessage[any])
	writerDone := make(chan struct{})
	close(writerDone)

	finished := make(chan struct{})
	go func() {
		defer close(finished)
		req := httptest.NewRequest(http.MethodGet, "/ws", nil)
		h.handleMessage(req, session.ID(), inboundMessage{Type: "next"}, send, writerDone)
	}()

	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatalf("handleMessage blocked after writer exit")
	}
}

func TestWebSocketRejectsBadQuery(t *testing.T) {
	service := newTestService(t)
	wsHandler := NewWSHandler(service)

	server := httptest.NewServer(http.HandlerFunc(wsHandler.ServeWS))
	defer server.Close()

	resp, err := http.Get(server.URL + "?questions=abc&minutes=30")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func readNext(conn *websocket.Conn, t *testing.T, expect string) (string, json.RawMessage) {
	t.Helper()
	var msg struct {
		Type    string          `json:"type"`
		Payload json.RawMessage `json:"payload"`
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read json: %v", err)
	}
	if expect != "" && msg.Type != expect {
		t.Fatalf("expected type %s, got %s", expect, msg.Type)
	}
	return msg.Type, msg.Payload
}

// readUntil skips tick messages until the wanted type arrives.
func readUntil(conn *websocket.Conn, t *testing.T, want string) (string, json.RawMessage) {
	t.Helper()
	for i := 0; i < 10; i++ {
		typ, payload := readNext(conn, t, "")
		if typ == want {
			return typ, payload
		}
		if typ != "tick" {
			t.Fatalf("expected %s or tick, got %s", want, typ)
		}
	}
	t.Fatalf("never received %s", want)
	return "", nil
}

func expectType(conn *websocket.Conn, t *testing.T, want string) {
	t.Helper()
	readUntil(conn, t, want)
}

func testContext(t *testing.T) context.Context {
	t.Helper()
	return context.Background()
}

func newTestService(t *testing.T) *app.ExamService {
	t.Helper()
	banks := make(map[int]domain.YearBank)
	years := make([]int, 0, 9)
	for y := 2015; y <= 2023; y++ {
		bank := domain.YearBank{Year: y}
		for n := 1; n <= 10; n++ {
			bank.Questions = append(bank.Questions, domain.Question{
				ID:     fmt.Sprintf("fuvest-%d-q%d", y, n),
				Number: n,
				Year:   y,
				Stem:   fmt.Sprintf("Questao %d de %d", n, y),
				Options: []domain.Option{
					{Key: "A", Text: "alternativa a"},
					{Key: "B", Text: "alternativa b"},
					{Key: "C", Text: "alternativa c"},
				},
				Correct: "B",
			})
		}
		banks[y] = bank
		years = append(years, y)
	}

	repo := memory.NewBankRepository(memory.NewStaticBankLoader(banks), 5*time.Minute)
	composer := app.NewComposer(repo, app.NewRand(17), 3, 6)
	return app.NewExamService(
		composer,
		repo,
		memory.NewSessionStore(),
		memory.NewHistoryStore(),
		memory.NewStatsStore(),
		memory.NewProgressStore(),
		years,
	)
}
