package app

import (
	"context"
	"time"

	"quizshare-service/internal/domain"
)

// IdentityStore persists name-keyed user identities.
type IdentityStore interface {
	// FindUserByName returns domain.ErrUserNotFound when no user has the name.
	FindUserByName(ctx context.Context, name string) (domain.User, error)
	// CreateUser fails with domain.ErrNameTaken when another identity already
	// holds the name.
	CreateUser(ctx context.Context, user domain.User) error
	GetUser(ctx context.Context, id string) (domain.User, error)
}

// QuizStore persists quizzes with their questions and answers.
type QuizStore interface {
	// CreateQuiz stores the quiz and its questions atomically. Returns
	// domain.ErrAccessCodeTaken when the access code is already claimed,
	// including by a concurrent save.
	CreateQuiz(ctx context.Context, quiz domain.Quiz, questions []domain.Question) error
	FindQuizByCode(ctx context.Context, code string) (domain.Quiz, error)
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, []domain.Question, error)
	QuizzesByCreator(ctx context.Context, creatorID string) ([]domain.Quiz, error)
}

// AttemptStore persists attempts and their answers.
type AttemptStore interface {
	CreateAttempt(ctx context.Context, attempt domain.Attempt) error
	GetAttempt(ctx context.Context, id string) (domain.Attempt, error)
	// InsertUserAnswer writes one answer row. The first write for an
	// (attempt, question) pair wins; later writes fail with
	// domain.ErrAlreadyAnswered.
	InsertUserAnswer(ctx context.Context, answer domain.UserAnswer) error
	// CompleteAttempt atomically flips the completed flag, stamps completedAt
	// and computes the final score; callers never observe a partially
	// completed attempt. Returns domain.ErrAttemptCompleted when called twice.
	CompleteAttempt(ctx context.Context, attemptID string, completedAt time.Time) (domain.Attempt, error)
	AttemptAnswers(ctx context.Context, attemptID string) ([]domain.UserAnswer, error)
	AttemptsByUser(ctx context.Context, userID string) ([]domain.AttemptSummary, error)
}

// Store is the full persistence collaborator the service operates over.
type Store interface {
	IdentityStore
	QuizStore
	AttemptStore
}

// QuizReader serves quiz reads, usually through a TTL cache in front of the store.
type QuizReader interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, []domain.Question, error)
	FindQuizByCode(ctx context.Context, code string) (domain.Quiz, error)
}
