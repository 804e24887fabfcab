package domain

import "time"

// NoAnswer is the sentinel recorded for questions the user never answered.
// It is distinct from every valid option letter (A-E).
const NoAnswer = "-"

// Option is one lettered alternative of a question.
type Option struct {
	Key  string `json:"key"`
	Text string `json:"text"`
}

// Explanation carries the study material attached to a question.
type Explanation struct {
	Theory   string            `json:"theory,omitempty"`
	Steps    []string          `json:"steps,omitempty"`
	WhyWrong map[string]string `json:"whyWrong,omitempty"`
}

// Question is one exam question, loaded from a year bank and never mutated.
type Question struct {
	ID          string       `json:"id"`
	Number      int          `json:"number"`
	Year        int          `json:"year"`
	Stem        string       `json:"stem"`
	Options     []Option     `json:"options"`
	Correct     string       `json:"correct"`
	Explanation *Explanation `json:"explanation,omitempty"`
	Image       string       `json:"image,omitempty"` // opaque asset reference
	Page        int          `json:"page,omitempty"`  // source exam page
}

// YearBank is the full question collection of one historical exam year.
type YearBank struct {
	Year      int        `json:"year"`
	Questions []Question `json:"questions"`
}

// ExamConfig is the transient per-session configuration.
type ExamConfig struct {
	Questions int           `json:"questions"`
	TimeLimit time.Duration `json:"timeLimit"`
}

// QuestionOutcome records how one question of a finished session was graded.
type QuestionOutcome struct {
	QuestionID string `json:"questionId"`
	Number     int    `json:"number"`
	Year       int    `json:"year"`
	Answer     string `json:"answer"` // NoAnswer when left blank
	Correct    string `json:"correct"`
}

// Result is the persisted record of one finished exam session.
// Invariant: 0 <= Score <= Total. Results are append-only and user-deletable.
type Result struct {
	ID          string            `json:"id"`
	Date        time.Time         `json:"date"`
	Score       int               `json:"score"`
	Total       int               `json:"total"`
	TimeMinutes int               `json:"timeMinutes"`
	Answers     map[string]string `json:"answers"`
	Questions   []QuestionOutcome `json:"questions"`
}

// YearStats are the running counters of the question-browsing feature.
// Invariant: Correct + Wrong == Answered.
type YearStats struct {
	Year     int `json:"year"`
	Correct  int `json:"correct"`
	Wrong    int `json:"wrong"`
	Answered int `json:"answered"`
}

// Reading statuses for the book tracker.
const (
	ReadingNotStarted = "not_started"
	ReadingInProgress = "in_progress"
	ReadingDone       = "done"
)
