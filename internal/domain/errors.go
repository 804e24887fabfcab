package domain

import "errors"

var (
	// ErrBankNotFound indicates a year's question bank could not be retrieved or parsed.
	ErrBankNotFound = errors.New("year bank not found")
	// ErrNoQuestions indicates composition yielded zero usable questions.
	ErrNoQuestions = errors.New("no questions available for exam")
	// ErrSessionNotFound is returned when an exam session has not been started.
	ErrSessionNotFound = errors.New("exam session not found")
	// ErrSessionClosed is returned for actions on a finished or cancelled session.
	ErrSessionClosed = errors.New("exam session already closed")
	// ErrQuestionNotFound indicates a submitted question ID is not part of the session.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrOptionNotFound indicates a submitted option letter is invalid for the question.
	ErrOptionNotFound = errors.New("option not found")
	// ErrResultNotFound indicates a history entry does not exist.
	ErrResultNotFound = errors.New("result not found")
	// ErrInvalidConfig indicates an exam configuration outside the accepted bounds.
	ErrInvalidConfig = errors.New("invalid exam configuration")
)
