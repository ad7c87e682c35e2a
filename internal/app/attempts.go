package app

import (
	"context"
	"log"
	"math"
	"sort"

	"github.com/google/uuid"

	"quizshare-service/internal/domain"
)

// StartAttempt begins a user's run through a quiz. MaxScore is fixed here from
// the quiz's question count; a quiz is immutable after creation so the count
// cannot drift before completion.
func (s *Service) StartAttempt(ctx context.Context, quizID, userID string) (domain.Attempt, error) {
	_, questions, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.Attempt{}, err
	}
	if _, err := s.store.GetUser(ctx, userID); err != nil {
		return domain.Attempt{}, err
	}

	attempt := domain.Attempt{
		ID:        uuid.NewString(),
		QuizID:    quizID,
		UserID:    userID,
		MaxScore:  len(questions),
		StartedAt: s.now(),
	}
	if err := s.store.CreateAttempt(ctx, attempt); err != nil {
		return domain.Attempt{}, err
	}
	return attempt, nil
}

// SubmitAnswer records one answer for an in-progress attempt. An empty
// answerID means the question was left unanswered and scores as incorrect.
// Each question is answered at most once per attempt; the first write wins.
func (s *Service) SubmitAnswer(ctx context.Context, attemptID, questionID, answerID string) (domain.UserAnswer, error) {
	attempt, err := s.store.GetAttempt(ctx, attemptID)
	if err != nil {
		return domain.UserAnswer{}, err
	}
	if attempt.Completed {
		return domain.UserAnswer{}, domain.ErrAttemptCompleted
	}

	_, questions, err := s.quizzes.GetQuiz(ctx, attempt.QuizID)
	if err != nil {
		return domain.UserAnswer{}, err
	}
	question, ok := findQuestion(questions, questionID)
	if !ok {
		return domain.UserAnswer{}, domain.ErrQuestionNotFound
	}

	correct := false
	if answerID != "" {
		answer, ok := findAnswer(question, answerID)
		if !ok {
			return domain.UserAnswer{}, domain.ErrAnswerNotFound
		}
		correct = answer.Correct
	}

	userAnswer := domain.UserAnswer{
		ID:         uuid.NewString(),
		AttemptID:  attemptID,
		QuestionID: questionID,
		AnswerID:   answerID,
		Correct:    correct,
	}
	if err := s.store.InsertUserAnswer(ctx, userAnswer); err != nil {
		return domain.UserAnswer{}, err
	}
	return userAnswer, nil
}

// CompleteAttempt finalizes an attempt. The score computation and the
// completed flag transition happen in one atomic store operation; completing
// twice fails with domain.ErrAttemptCompleted. The finished result is
// published to feed subscribers.
func (s *Service) CompleteAttempt(ctx context.Context, attemptID string) (domain.Attempt, error) {
	attempt, err := s.store.CompleteAttempt(ctx, attemptID, s.now())
	if err != nil {
		return domain.Attempt{}, err
	}

	if s.feed != nil {
		result, err := s.Result(ctx, attemptID)
		if err != nil {
			// Completion already succeeded; a failed projection only costs
			// feed subscribers an update.
			log.Printf("result feed: build result for attempt %s: %v", attemptID, err)
		} else {
			s.feed.Publish(result)
		}
	}
	return attempt, nil
}

// Result aggregates a completed attempt into a scored projection with a
// per-question breakdown ordered by question position.
func (s *Service) Result(ctx context.Context, attemptID string) (domain.QuizResult, error) {
	attempt, err := s.store.GetAttempt(ctx, attemptID)
	if err != nil {
		return domain.QuizResult{}, err
	}
	if !attempt.Completed {
		return domain.QuizResult{}, domain.ErrAttemptNotCompleted
	}

	quiz, questions, err := s.quizzes.GetQuiz(ctx, attempt.QuizID)
	if err != nil {
		return domain.QuizResult{}, err
	}
	user, err := s.store.GetUser(ctx, attempt.UserID)
	if err != nil {
		return domain.QuizResult{}, err
	}
	answers, err := s.store.AttemptAnswers(ctx, attemptID)
	if err != nil {
		return domain.QuizResult{}, err
	}

	byQuestion := make(map[string]domain.UserAnswer, len(answers))
	for _, a := range answers {
		byQuestion[a.QuestionID] = a
	}

	// Sort a copy; the slice may be shared with other readers via the cache.
	questions = append([]domain.Question(nil), questions...)
	sort.Slice(questions, func(i, j int) bool {
		return questions[i].OrderNum < questions[j].OrderNum
	})

	breakdown := make([]domain.QuestionResult, 0, len(questions))
	for _, q := range questions {
		row := domain.QuestionResult{
			QuestionID:   q.ID,
			QuestionText: q.Text,
		}
		if correct, ok := q.CorrectAnswer(); ok {
			row.CorrectAnswer = correct.Text
		}
		if ua, ok := byQuestion[q.ID]; ok && ua.AnswerID != "" {
			row.Answered = true
			row.Correct = ua.Correct
			if chosen, ok := findAnswer(q, ua.AnswerID); ok {
				row.UserAnswer = chosen.Text
			}
		}
		breakdown = append(breakdown, row)
	}

	completedAt := attempt.StartedAt
	if attempt.CompletedAt != nil {
		completedAt = *attempt.CompletedAt
	}

	return domain.QuizResult{
		AttemptID:   attempt.ID,
		QuizID:      quiz.ID,
		QuizTitle:   quiz.Title,
		UserID:      user.ID,
		UserName:    user.Name,
		Score:       attempt.Score,
		MaxScore:    attempt.MaxScore,
		Percentage:  percentage(attempt.Score, attempt.MaxScore),
		StartedAt:   attempt.StartedAt,
		CompletedAt: completedAt,
		Questions:   breakdown,
	}, nil
}

// percentage rounds 100*score/max and yields 0 for an empty quiz instead of
// dividing by zero.
func percentage(score, max int) int {
	if max <= 0 {
		return 0
	}
	return int(math.Round(100 * float64(score) / float64(max)))
}

func findQuestion(questions []domain.Question, id string) (domain.Question, bool) {
	for i := range questions {
		if questions[i].ID == id {
			return questions[i], true
		}
	}
	return domain.Question{}, false
}

func findAnswer(q domain.Question, id string) (domain.Answer, bool) {
	for i := range q.Answers {
		if q.Answers[i].ID == id {
			return q.Answers[i], true
		}
	}
	return domain.Answer{}, false
}
