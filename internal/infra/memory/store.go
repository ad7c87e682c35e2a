package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"quizshare-service/internal/domain"
)

// Store is a mutex-guarded in-memory implementation of app.Store. It honors
// the same invariants as the Postgres store (unique user names, unique access
// codes, first-write-wins answers, atomic completion) so unit tests and
// no-database demo runs exercise identical semantics.
type Store struct {
	mu          sync.RWMutex
	users       map[string]domain.User
	usersByName map[string]string
	quizzes     map[string]domain.Quiz
	quizByCode  map[string]string
	questions   map[string][]domain.Question
	attempts    map[string]domain.Attempt
	answers     map[string]map[string]domain.UserAnswer
}

func NewStore() *Store {
	return &Store{
		users:       make(map[string]domain.User),
		usersByName: make(map[string]string),
		quizzes:     make(map[string]domain.Quiz),
		quizByCode:  make(map[string]string),
		questions:   make(map[string][]domain.Question),
		attempts:    make(map[string]domain.Attempt),
		answers:     make(map[string]map[string]domain.UserAnswer),
	}
}

func (s *Store) FindUserByName(_ context.Context, name string) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if id, ok := s.usersByName[name]; ok {
		return s.users[id], nil
	}
	return domain.User{}, domain.ErrUserNotFound
}

func (s *Store) CreateUser(_ context.Context, user domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.usersByName[user.Name]; ok && existing != user.ID {
		return domain.ErrNameTaken
	}
	s.users[user.ID] = user
	s.usersByName[user.Name] = user.ID
	return nil
}

func (s *Store) GetUser(_ context.Context, id string) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if user, ok := s.users[id]; ok {
		return user, nil
	}
	return domain.User{}, domain.ErrUserNotFound
}

func (s *Store) CreateQuiz(_ context.Context, quiz domain.Quiz, questions []domain.Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.quizByCode[quiz.AccessCode]; taken {
		return domain.ErrAccessCodeTaken
	}
	s.quizzes[quiz.ID] = quiz
	s.quizByCode[quiz.AccessCode] = quiz.ID
	s.questions[quiz.ID] = append([]domain.Question(nil), questions...)
	return nil
}

func (s *Store) FindQuizByCode(_ context.Context, code string) (domain.Quiz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if id, ok := s.quizByCode[code]; ok {
		return s.quizzes[id], nil
	}
	return domain.Quiz{}, domain.ErrQuizNotFound
}

func (s *Store) GetQuiz(_ context.Context, quizID string) (domain.Quiz, []domain.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	quiz, ok := s.quizzes[quizID]
	if !ok {
		return domain.Quiz{}, nil, domain.ErrQuizNotFound
	}
	return quiz, append([]domain.Question(nil), s.questions[quizID]...), nil
}

func (s *Store) QuizzesByCreator(_ context.Context, creatorID string) ([]domain.Quiz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	quizzes := make([]domain.Quiz, 0)
	for _, quiz := range s.quizzes {
		if quiz.CreatorID == creatorID {
			quizzes = append(quizzes, quiz)
		}
	}
	sort.Slice(quizzes, func(i, j int) bool {
		return quizzes[i].CreatedAt.After(quizzes[j].CreatedAt)
	})
	return quizzes, nil
}

func (s *Store) CreateAttempt(_ context.Context, attempt domain.Attempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.quizzes[attempt.QuizID]; !ok {
		return domain.ErrQuizNotFound
	}
	s.attempts[attempt.ID] = attempt
	s.answers[attempt.ID] = make(map[string]domain.UserAnswer)
	return nil
}

func (s *Store) GetAttempt(_ context.Context, id string) (domain.Attempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if attempt, ok := s.attempts[id]; ok {
		return attempt, nil
	}
	return domain.Attempt{}, domain.ErrAttemptNotFound
}

func (s *Store) InsertUserAnswer(_ context.Context, answer domain.UserAnswer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	byQuestion, ok := s.answers[answer.AttemptID]
	if !ok {
		return domain.ErrAttemptNotFound
	}
	if _, exists := byQuestion[answer.QuestionID]; exists {
		return domain.ErrAlreadyAnswered
	}
	byQuestion[answer.QuestionID] = answer
	return nil
}

func (s *Store) CompleteAttempt(_ context.Context, attemptID string, completedAt time.Time) (domain.Attempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	attempt, ok := s.attempts[attemptID]
	if !ok {
		return domain.Attempt{}, domain.ErrAttemptNotFound
	}
	if attempt.Completed {
		return domain.Attempt{}, domain.ErrAttemptCompleted
	}

	score := 0
	for _, answer := range s.answers[attemptID] {
		if answer.Correct {
			score++
		}
	}
	attempt.Score = score
	attempt.Completed = true
	attempt.CompletedAt = &completedAt
	s.attempts[attemptID] = attempt
	return attempt, nil
}

func (s *Store) AttemptAnswers(_ context.Context, attemptID string) ([]domain.UserAnswer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	byQuestion, ok := s.answers[attemptID]
	if !ok {
		return nil, domain.ErrAttemptNotFound
	}
	answers := make([]domain.UserAnswer, 0, len(byQuestion))
	for _, answer := range byQuestion {
		answers = append(answers, answer)
	}
	return answers, nil
}

func (s *Store) AttemptsByUser(_ context.Context, userID string) ([]domain.AttemptSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	summaries := make([]domain.AttemptSummary, 0)
	for _, attempt := range s.attempts {
		if attempt.UserID != userID {
			continue
		}
		quiz := s.quizzes[attempt.QuizID]
		summaries = append(summaries, domain.AttemptSummary{
			Attempt:    attempt,
			QuizTitle:  quiz.Title,
			AccessCode: quiz.AccessCode,
		})
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].StartedAt.After(summaries[j].StartedAt)
	})
	return summaries, nil
}
