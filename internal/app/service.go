package app

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	gonanoid "github.com/matoous/go-nanoid/v2"

	"quizshare-service/internal/domain"
)

// Access codes come from an alphabet without 0/O/1/I so they survive being
// read aloud or written down.
const (
	accessCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	accessCodeLen      = 6

	// maxCodeAttempts bounds retries when a generated code collides.
	maxCodeAttempts = 5
)

// Service contains the quiz use cases: identity resolution, authoring,
// access-code lookup, the attempt state machine and result aggregation.
type Service struct {
	store   Store
	quizzes QuizReader
	feed    *ResultFeed
	now     func() time.Time
	newCode func() (string, error)
}

func NewService(store Store, quizzes QuizReader, feed *ResultFeed) *Service {
	return NewServiceWithClock(store, quizzes, feed, time.Now)
}

// NewServiceWithClock is test-only for deterministic timestamps.
func NewServiceWithClock(store Store, quizzes QuizReader, feed *ResultFeed, now func() time.Time) *Service {
	return &Service{
		store:   store,
		quizzes: quizzes,
		feed:    feed,
		now:     now,
		newCode: func() (string, error) {
			return gonanoid.Generate(accessCodeAlphabet, accessCodeLen)
		},
	}
}

// ResolveUser maps a display name to a stable identity, creating it on first
// use. The first user created with a name is authoritative for it.
func (s *Service) ResolveUser(ctx context.Context, name string) (domain.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.User{}, &domain.ValidationError{Field: "name", Message: "name is required"}
	}

	user, err := s.store.FindUserByName(ctx, name)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return domain.User{}, err
	}

	user = domain.User{ID: uuid.NewString(), Name: name}
	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, domain.ErrNameTaken) {
			// Lost a create race; the winning identity is authoritative.
			return s.store.FindUserByName(ctx, name)
		}
		return domain.User{}, err
	}
	return user, nil
}

// CreateQuiz validates the draft and persists it atomically. A custom access
// code is trimmed and upper-cased; otherwise a unique code is generated,
// retrying on collision. Concurrent saves of the same code are resolved by the
// store's uniqueness guarantee, never by a client-side pre-check.
func (s *Service) CreateQuiz(ctx context.Context, creatorID string, draft *domain.QuizDraft) (domain.Quiz, error) {
	if err := draft.Validate(); err != nil {
		return domain.Quiz{}, err
	}
	if _, err := s.store.GetUser(ctx, creatorID); err != nil {
		return domain.Quiz{}, err
	}

	customCode := strings.ToUpper(strings.TrimSpace(draft.AccessCode))

	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code := customCode
		if code == "" {
			generated, err := s.newCode()
			if err != nil {
				return domain.Quiz{}, err
			}
			code = generated
		}

		quiz, questions := buildQuiz(creatorID, code, draft, s.now())
		err := s.store.CreateQuiz(ctx, quiz, questions)
		if err == nil {
			return quiz, nil
		}
		if errors.Is(err, domain.ErrAccessCodeTaken) && customCode == "" {
			continue
		}
		return domain.Quiz{}, err
	}
	return domain.Quiz{}, domain.ErrAccessCodeTaken
}

// buildQuiz materializes a validated draft into persistable records with fresh
// ids and contiguous 1-based order numbers.
func buildQuiz(creatorID, code string, draft *domain.QuizDraft, now time.Time) (domain.Quiz, []domain.Question) {
	quiz := domain.Quiz{
		ID:          uuid.NewString(),
		Title:       strings.TrimSpace(draft.Title),
		Description: strings.TrimSpace(draft.Description),
		CreatorID:   creatorID,
		AccessCode:  code,
		CreatedAt:   now,
	}

	questions := make([]domain.Question, 0, len(draft.Questions))
	for qi, qd := range draft.Questions {
		question := domain.Question{
			ID:       uuid.NewString(),
			QuizID:   quiz.ID,
			Text:     strings.TrimSpace(qd.Text),
			Type:     qd.Type,
			OrderNum: qi + 1,
		}
		for ai, ad := range qd.Answers {
			question.Answers = append(question.Answers, domain.Answer{
				ID:         uuid.NewString(),
				QuestionID: question.ID,
				Text:       strings.TrimSpace(ad.Text),
				Correct:    ad.Correct,
				OrderNum:   ai + 1,
			})
		}
		questions = append(questions, question)
	}
	return quiz, questions
}

// LookupQuiz resolves an access code to its quiz. Comparison is
// case-insensitive; codes are stored upper-cased.
func (s *Service) LookupQuiz(ctx context.Context, code string) (domain.Quiz, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	return s.quizzes.FindQuizByCode(ctx, code)
}

// GetQuiz returns a quiz with its ordered questions and answers.
func (s *Service) GetQuiz(ctx context.Context, quizID string) (domain.Quiz, []domain.Question, error) {
	return s.quizzes.GetQuiz(ctx, quizID)
}

// QuizzesByCreator lists quizzes authored by a user, for the dashboard.
func (s *Service) QuizzesByCreator(ctx context.Context, creatorID string) ([]domain.Quiz, error) {
	return s.store.QuizzesByCreator(ctx, creatorID)
}

// AttemptsByUser lists a user's attempts, newest first, for the dashboard.
func (s *Service) AttemptsByUser(ctx context.Context, userID string) ([]domain.AttemptSummary, error) {
	return s.store.AttemptsByUser(ctx, userID)
}

// SubscribeResults streams completed-attempt results for a quiz. The caller
// must invoke the returned cancel function to avoid leaks.
func (s *Service) SubscribeResults(_ context.Context, quizID string) (<-chan domain.QuizResult, func()) {
	return s.feed.Subscribe(quizID)
}
