package app

import (
	"context"
	"math/rand"
	"time"

	"fuvest-study-service/internal/domain"
	"github.com/google/uuid"
)

// SessionRepository abstracts how exam sessions are stored (in-memory, Redis-tracked, etc).
type SessionRepository interface {
	Put(session *Session)
	Get(sessionID string) (*Session, bool)
	Delete(sessionID string)
}

// HistoryRepository is the append-only store of completed exam results.
type HistoryRepository interface {
	Append(ctx context.Context, result domain.Result) error
	List(ctx context.Context) ([]domain.Result, error)
	Delete(ctx context.Context, resultID string) error
}

// StatsRepository keeps the per-year running counters of the question-browsing feature.
type StatsRepository interface {
	Record(ctx context.Context, year int, correct bool) (domain.YearStats, error)
	Get(ctx context.Context, year int) (domain.YearStats, error)
	All(ctx context.Context) ([]domain.YearStats, error)
}

// ProgressRepository persists syllabus checklist and reading-tracker state.
type ProgressRepository interface {
	ToggleSyllabusItem(ctx context.Context, itemID string) (bool, error)
	SyllabusItems(ctx context.Context) ([]string, error)
	SetBookStatus(ctx context.Context, bookID, status string) error
	BookStatuses(ctx context.Context) (map[string]string, error)
}

// MaxExamQuestions mirrors the first-phase exam size; a session never asks
// for more.
const MaxExamQuestions = 90

// ExamService contains the core study-tracking use cases. All persistence is
// injected; the service holds no global state.
type ExamService struct {
	composer *Composer
	banks    BankRepository
	sessions SessionRepository
	history  HistoryRepository
	stats    StatsRepository
	progress ProgressRepository
	years    []int
	rnd      *rand.Rand
	clock    func() time.Time
}

func NewExamService(
	composer *Composer,
	banks BankRepository,
	sessions SessionRepository,
	history HistoryRepository,
	stats StatsRepository,
	progress ProgressRepository,
	years []int,
) *ExamService {
	return &ExamService{
		composer: composer,
		banks:    banks,
		sessions: sessions,
		history:  history,
		stats:    stats,
		progress: progress,
		years:    years,
		rnd:      NewRand(time.Now().UnixNano()),
		clock:    time.Now,
	}
}

// WithClock is test-only for deterministic session timestamps.
func (s *ExamService) WithClock(now func() time.Time) *ExamService {
	s.clock = now
	return s
}

// Years returns the configured year pool.
func (s *ExamService) Years() []int {
	out := make([]int, len(s.years))
	copy(out, s.years)
	return out
}

// StartExam composes a question list and opens a session over it.
func (s *ExamService) StartExam(ctx context.Context, config domain.ExamConfig) (*Session, error) {
	if config.Questions < 1 || config.Questions > MaxExamQuestions || config.TimeLimit <= 0 {
		return nil, domain.ErrInvalidConfig
	}

	questions, err := s.composer.Compose(ctx, config.Questions, s.years)
	if err != nil {
		return nil, err
	}

	session := NewSessionWithClock(uuid.NewString(), config, questions, s.clock)
	s.sessions.Put(session)
	return session, nil
}

// Answer records an option selection on an active session.
func (s *ExamService) Answer(sessionID, questionID, optionKey string) error {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return domain.ErrSessionNotFound
	}
	return session.SelectAnswer(questionID, optionKey)
}

// Next advances the session position; a no-op at the last question.
func (s *ExamService) Next(sessionID string) (int, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return 0, domain.ErrSessionNotFound
	}
	return session.Next(), nil
}

// Prev moves the session position back; a no-op at the first question.
func (s *ExamService) Prev(sessionID string) (int, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return 0, domain.ErrSessionNotFound
	}
	return session.Prev(), nil
}

// Remaining reports the time left on a session's clock.
func (s *ExamService) Remaining(sessionID string) (time.Duration, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return 0, domain.ErrSessionNotFound
	}
	return session.Remaining(), nil
}

// Finish finalizes a session, appends the result to history and drops the
// session from the store. The session is removed even when the append
// fails: the scored result comes back alongside the error so callers can
// still present it instead of being stuck on a closed session.
func (s *ExamService) Finish(ctx context.Context, sessionID string) (domain.Result, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return domain.Result{}, domain.ErrSessionNotFound
	}
	result, err := session.Finalize()
	if err != nil {
		return domain.Result{}, err
	}
	s.sessions.Delete(sessionID)
	if err := s.history.Append(ctx, result); err != nil {
		return result, err
	}
	return result, nil
}

// Cancel discards a session; nothing is persisted.
func (s *ExamService) Cancel(sessionID string) error {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return domain.ErrSessionNotFound
	}
	if err := session.Cancel(); err != nil {
		return err
	}
	s.sessions.Delete(sessionID)
	return nil
}

// History lists the persisted results, newest first.
func (s *ExamService) History(ctx context.Context) ([]domain.Result, error) {
	return s.history.List(ctx)
}

// DeleteResult removes one history entry.
func (s *ExamService) DeleteResult(ctx context.Context, resultID string) error {
	return s.history.Delete(ctx, resultID)
}

// PracticeQuestions returns a shuffled copy of one year's bank for the
// question-browsing feature.
func (s *ExamService) PracticeQuestions(ctx context.Context, year int) ([]domain.Question, error) {
	bank, err := s.banks.GetBank(ctx, year)
	if err != nil {
		return nil, err
	}
	questions := make([]domain.Question, len(bank.Questions))
	copy(questions, bank.Questions)
	s.rnd.Shuffle(len(questions), func(i, j int) {
		questions[i], questions[j] = questions[j], questions[i]
	})
	return questions, nil
}

// PracticeAnswer grades one browsed question and updates the year counters.
func (s *ExamService) PracticeAnswer(ctx context.Context, year int, questionID, optionKey string) (bool, string, domain.YearStats, error) {
	bank, err := s.banks.GetBank(ctx, year)
	if err != nil {
		return false, "", domain.YearStats{}, err
	}
	correct, correctKey, err := gradeAnswer(bank, questionID, optionKey)
	if err != nil {
		return false, "", domain.YearStats{}, err
	}
	stats, err := s.stats.Record(ctx, year, correct)
	if err != nil {
		return false, "", domain.YearStats{}, err
	}
	return correct, correctKey, stats, nil
}

// RevealAnswer exposes the correct option without a choice; it always counts
// as wrong in the year counters.
func (s *ExamService) RevealAnswer(ctx context.Context, year int, questionID string) (string, domain.YearStats, error) {
	bank, err := s.banks.GetBank(ctx, year)
	if err != nil {
		return "", domain.YearStats{}, err
	}
	var correctKey string
	for i := range bank.Questions {
		if bank.Questions[i].ID == questionID {
			correctKey = bank.Questions[i].Correct
			break
		}
	}
	if correctKey == "" {
		return "", domain.YearStats{}, domain.ErrQuestionNotFound
	}
	stats, err := s.stats.Record(ctx, year, false)
	if err != nil {
		return "", domain.YearStats{}, err
	}
	return correctKey, stats, nil
}

// YearStats lists the counters for every year touched so far.
func (s *ExamService) YearStats(ctx context.Context) ([]domain.YearStats, error) {
	return s.stats.All(ctx)
}

// ToggleSyllabusItem flips one checklist entry and returns its new state.
func (s *ExamService) ToggleSyllabusItem(ctx context.Context, itemID string) (bool, error) {
	return s.progress.ToggleSyllabusItem(ctx, itemID)
}

// SyllabusItems lists the checked checklist entries.
func (s *ExamService) SyllabusItems(ctx context.Context) ([]string, error) {
	return s.progress.SyllabusItems(ctx)
}

// SetBookStatus records the reading status of one book.
func (s *ExamService) SetBookStatus(ctx context.Context, bookID, status string) error {
	switch status {
	case domain.ReadingNotStarted, domain.ReadingInProgress, domain.ReadingDone:
	default:
		return domain.ErrInvalidConfig
	}
	return s.progress.SetBookStatus(ctx, bookID, status)
}

// BookStatuses lists the reading tracker state.
func (s *ExamService) BookStatuses(ctx context.Context) (map[string]string, error) {
	return s.progress.BookStatuses(ctx)
}
