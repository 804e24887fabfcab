package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"fuvest-study-service/internal/app"
	"fuvest-study-service/internal/domain"
	"fuvest-study-service/internal/infra/memory"
)

func TestStartFinishAppendsHistory(t *testing.T) {
	ctx := context.Background()
	service, history := newTestService(t, 21)

	session, err := service.StartExam(ctx, domain.ExamConfig{Questions: 10, TimeLimit: 30 * time.Minute})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if session.Len() == 0 || session.Len() > 10 {
		t.Fatalf("unexpected session size %d", session.Len())
	}

	for _, q := range session.Questions() {
		if err := service.Answer(session.ID(), q.ID, q.Correct); err != nil {
			t.Fatalf("answer: %v", err)
		}
	}

	result, err := service.Finish(ctx, session.ID())
	if err != nil {
		t.Fatalf("finish: %v", err)
	}
	if result.Score != result.Total {
		t.Fatalf("expected perfect score, got %d/%d", result.Score, result.Total)
	}

	results, err := history.List(ctx)
	if err != nil || len(results) != 1 {
		t.Fatalf("expected one persisted result, got %v err=%v", results, err)
	}
	if results[0].ID != result.ID {
		t.Fatalf("persisted id mismatch: %s vs %s", results[0].ID, result.ID)
	}

	// The session is gone after finishing.
	if _, err := service.Remaining(session.ID()); err != domain.ErrSessionNotFound {
		t.Fatalf("expected session gone, got %v", err)
	}
}

func TestCancelPersistsNothing(t *testing.T) {
	ctx := context.Background()
	service, history := newTestService(t, 8)

	session, err := service.StartExam(ctx, domain.ExamConfig{Questions: 5, TimeLimit: 10 * time.Minute})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := service.Cancel(session.ID()); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	results, _ := history.List(ctx)
	if len(results) != 0 {
		t.Fatalf("expected empty history after cancel, got %v", results)
	}
	if err := service.Cancel(session.ID()); err != domain.ErrSessionNotFound {
		t.Fatalf("expected session gone, got %v", err)
	}
}

func TestStartExamValidatesConfig(t *testing.T) {
	service, _ := newTestService(t, 1)
	cases := []domain.ExamConfig{
		{Questions: 0, TimeLimit: time.Minute},
		{Questions: 91, TimeLimit: time.Minute},
		{Questions: 10, TimeLimit: 0},
	}
	for _, cfg := range cases {
		if _, err := service.StartExam(context.Background(), cfg); err != domain.ErrInvalidConfig {
			t.Fatalf("config %+v: expected ErrInvalidConfig, got %v", cfg, err)
		}
	}
}

func TestPracticeAnswerUpdatesStats(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(t, 4)

	questions, err := service.PracticeQuestions(ctx, 2016)
	if err != nil {
		t.Fatalf("practice questions: %v", err)
	}
	q := questions[0]

	correct, correctKey, stats, err := service.PracticeAnswer(ctx, 2016, q.ID, q.Correct)
	if err != nil {
		t.Fatalf("practice answer: %v", err)
	}
	if !correct || correctKey != q.Correct {
		t.Fatalf("expected correct grading, got correct=%v key=%s", correct, correctKey)
	}

	// A wrong answer and a reveal both count as wrong.
	wrongKey := "A"
	if q.Correct == "A" {
		wrongKey = "C"
	}
	if _, _, _, err := service.PracticeAnswer(ctx, 2016, q.ID, wrongKey); err != nil {
		t.Fatalf("wrong answer: %v", err)
	}
	_, stats, err = service.RevealAnswer(ctx, 2016, q.ID)
	if err != nil {
		t.Fatalf("reveal: %v", err)
	}

	if stats.Correct+stats.Wrong != stats.Answered {
		t.Fatalf("invariant broken: %+v", stats)
	}
	if stats.Correct != 1 || stats.Wrong != 2 || stats.Answered != 3 {
		t.Fatalf("unexpected counters: %+v", stats)
	}
}

func TestFinishSurvivesHistoryFailure(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewBankRepository(memory.NewStaticBankLoader(banksOfSize(9, 12)), 5*time.Minute)
	composer := app.NewComposer(repo, app.NewRand(13), 3, 6)
	service := app.NewExamService(
		composer,
		repo,
		memory.NewSessionStore(),
		failingHistory{},
		memory.NewStatsStore(),
		memory.NewProgressStore(),
		yearPool(9),
	)

	session, err := service.StartExam(ctx, domain.ExamConfig{Questions: 5, TimeLimit: 10 * time.Minute})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	q := session.Questions()[0]
	if err := service.Answer(session.ID(), q.ID, q.Correct); err != nil {
		t.Fatalf("answer: %v", err)
	}

	result, err := service.Finish(ctx, session.ID())
	if err == nil {
		t.Fatalf("expected append failure")
	}
	// The exam is still scored and returned to the caller.
	if result.Total != session.Len() || result.Score != 1 {
		t.Fatalf("expected scored result 1/%d, got %d/%d", session.Len(), result.Score, result.Total)
	}

	// The session must be gone, not stuck in a closed state.
	if _, err := service.Finish(ctx, session.ID()); err != domain.ErrSessionNotFound {
		t.Fatalf("expected ErrSessionNotFound on retry, got %v", err)
	}
	if err := service.Cancel(session.ID()); err != domain.ErrSessionNotFound {
		t.Fatalf("expected ErrSessionNotFound on cancel, got %v", err)
	}
}

type failingHistory struct{}

func (failingHistory) Append(context.Context, domain.Result) error { return errors.New("history unavailable") }

func (failingHistory) List(context.Context) ([]domain.Result, error) { return nil, nil }

func (failingHistory) Delete(context.Context, string) error { return nil }

func TestBookStatusValidation(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(t, 2)

	if err := service.SetBookStatus(ctx, "dom-casmurro", "skimmed"); err != domain.ErrInvalidConfig {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
	if err := service.SetBookStatus(ctx, "dom-casmurro", domain.ReadingDone); err != nil {
		t.Fatalf("set status: %v", err)
	}
	statuses, _ := service.BookStatuses(ctx)
	if statuses["dom-casmurro"] != domain.ReadingDone {
		t.Fatalf("unexpected statuses %v", statuses)
	}
}

func newTestService(t *testing.T, seed int64) (*app.ExamService, *memory.HistoryStore) {
	t.Helper()
	banks := banksOfSize(9, 12)
	repo := memory.NewBankRepository(memory.NewStaticBankLoader(banks), 5*time.Minute)
	composer := app.NewComposer(repo, app.NewRand(seed), 3, 6)
	history := memory.NewHistoryStore()
	service := app.NewExamService(
		composer,
		repo,
		memory.NewSessionStore(),
		history,
		memory.NewStatsStore(),
		memory.NewProgressStore(),
		yearPool(9),
	)
	return service, history
}
