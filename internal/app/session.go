package app

import (
	"sync"
	"time"

	"fuvest-study-service/internal/domain"
)

// State is the lifecycle phase of an exam session.
type State string

const (
	// StateLoading covers the compose phase; a Session object only exists
	// once composition returned a non-empty question list.
	StateLoading   State = "loading"
	StateActive    State = "active"
	StateFinished  State = "finished"
	StateCancelled State = "cancelled"
)

// Session is the in-memory state of one in-progress exam attempt.
// The question list is fixed at creation; navigation and answer selection
// mutate the position and answer map until the session is finalized or
// cancelled.
type Session struct {
	id        string
	config    domain.ExamConfig
	questions []domain.Question
	now       func() time.Time

	mu        sync.RWMutex
	state     State
	index     int
	answers   map[string]string
	startedAt time.Time
}

func NewSession(id string, config domain.ExamConfig, questions []domain.Question) *Session {
	return NewSessionWithClock(id, config, questions, time.Now)
}

// NewSessionWithClock allows deterministic timestamps in tests.
func NewSessionWithClock(id string, config domain.ExamConfig, questions []domain.Question, now func() time.Time) *Session {
	return &Session{
		id:        id,
		config:    config,
		questions: questions,
		now:       now,
		state:     StateActive,
		answers:   make(map[string]string),
		startedAt: now(),
	}
}

func (s *Session) ID() string { return s.id }

// Config returns the session's exam configuration.
func (s *Session) Config() domain.ExamConfig { return s.config }

func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Questions returns a copy of the fixed question list.
func (s *Session) Questions() []domain.Question {
	out := make([]domain.Question, len(s.questions))
	copy(out, s.questions)
	return out
}

func (s *Session) Len() int { return len(s.questions) }

// Index returns the current position.
func (s *Session) Index() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index
}

// Current returns the question at the current position.
func (s *Session) Current() domain.Question {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.questions[s.index]
}

// SelectAnswer records or overwrites the answer for a question. It does not
// advance the position.
func (s *Session) SelectAnswer(questionID, optionKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateActive {
		return domain.ErrSessionClosed
	}

	var question *domain.Question
	for i := range s.questions {
		if s.questions[i].ID == questionID {
			question = &s.questions[i]
			break
		}
	}
	if question == nil {
		return domain.ErrQuestionNotFound
	}
	valid := false
	for _, opt := range question.Options {
		if opt.Key == optionKey {
			valid = true
			break
		}
	}
	if !valid {
		return domain.ErrOptionNotFound
	}

	s.answers[questionID] = optionKey
	return nil
}

// Next moves forward one question; a no-op at the last index.
func (s *Session) Next() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateActive && s.index < len(s.questions)-1 {
		s.index++
	}
	return s.index
}

// Prev moves back one question; a no-op at index zero.
func (s *Session) Prev() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateActive && s.index > 0 {
		s.index--
	}
	return s.index
}

// Remaining reports the time left against the configured limit. It is
// derived from the start timestamp, never stored per tick.
func (s *Session) Remaining() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	remaining := s.config.TimeLimit - s.now().Sub(s.startedAt)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Expired reports whether the configured time limit has elapsed.
func (s *Session) Expired() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.config.TimeLimit > 0 && s.now().Sub(s.startedAt) >= s.config.TimeLimit
}

// Answers returns a copy of the answer map as it stands.
func (s *Session) Answers() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string, len(s.answers))
	for k, v := range s.answers {
		out[k] = v
	}
	return out
}

// Finalize scores the session against the answer map as it stands and moves
// it to the finished state. Unanswered questions count as incorrect.
func (s *Session) Finalize() (domain.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateActive {
		return domain.Result{}, domain.ErrSessionClosed
	}
	s.state = StateFinished
	return scoreLocked(s), nil
}

// Cancel discards the session without producing a result.
func (s *Session) Cancel() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateActive {
		return domain.ErrSessionClosed
	}
	s.state = StateCancelled
	return nil
}
