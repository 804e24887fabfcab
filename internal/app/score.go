package app

import "fuvest-study-service/internal/domain"

// scoreLocked builds the result record for a session. Callers must hold the
// session lock.
func scoreLocked(s *Session) domain.Result {
	answers := make(map[string]string, len(s.answers))
	for k, v := range s.answers {
		answers[k] = v
	}

	score := 0
	outcomes := make([]domain.QuestionOutcome, 0, len(s.questions))
	for _, q := range s.questions {
		answer, ok := s.answers[q.ID]
		if !ok {
			answer = domain.NoAnswer
		}
		if answer == q.Correct {
			score++
		}
		outcomes = append(outcomes, domain.QuestionOutcome{
			QuestionID: q.ID,
			Number:     q.Number,
			Year:       q.Year,
			Answer:     answer,
			Correct:    q.Correct,
		})
	}

	return domain.Result{
		ID:          s.id,
		Date:        s.now(),
		Score:       score,
		Total:       len(s.questions),
		TimeMinutes: int(s.config.TimeLimit.Minutes()),
		Answers:     answers,
		Questions:   outcomes,
	}
}

// gradeAnswer checks a submitted option against a bank question. Used by the
// question-browsing flow, which grades one question at a time.
func gradeAnswer(bank domain.YearBank, questionID, optionKey string) (bool, string, error) {
	var question *domain.Question
	for i := range bank.Questions {
		if bank.Questions[i].ID == questionID {
			question = &bank.Questions[i]
			break
		}
	}
	if question == nil {
		return false, "", domain.ErrQuestionNotFound
	}

	valid := false
	for _, opt := range question.Options {
		if opt.Key == optionKey {
			valid = true
			break
		}
	}
	if !valid {
		return false, "", domain.ErrOptionNotFound
	}
	return optionKey == question.Correct, question.Correct, nil
}
