package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"quizshare-service/internal/app"
	"quizshare-service/internal/domain"
	"quizshare-service/internal/infra/memory"
)

func TestResolveUserCreatesThenReuses(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService()

	alice, err := service.ResolveUser(ctx, "  Alice ")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if alice.Name != "Alice" || alice.ID == "" {
		t.Fatalf("expected trimmed name and fresh id, got %+v", alice)
	}

	again, err := service.ResolveUser(ctx, "Alice")
	if err != nil {
		t.Fatalf("resolve again: %v", err)
	}
	if again.ID != alice.ID {
		t.Fatalf("expected same identity, got %s and %s", alice.ID, again.ID)
	}
}

func TestResolveUserRejectsBlankName(t *testing.T) {
	service, _ := newTestService()
	if _, err := service.ResolveUser(context.Background(), "   "); !domain.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCreateQuizUppercasesCustomCode(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService()
	creator := resolve(t, service, "Alice")

	draft := capitalsDraft()
	draft.AccessCode = " paris1 "
	quiz, err := service.CreateQuiz(ctx, creator.ID, draft)
	if err != nil {
		t.Fatalf("create quiz: %v", err)
	}
	if quiz.AccessCode != "PARIS1" {
		t.Fatalf("expected upper-cased code, got %q", quiz.AccessCode)
	}

	found, err := service.LookupQuiz(ctx, "paris1")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if found.ID != quiz.ID {
		t.Fatalf("expected case-insensitive lookup to find the quiz")
	}
}

func TestCreateQuizGeneratesUniqueCode(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService()
	creator := resolve(t, service, "Alice")

	quiz, err := service.CreateQuiz(ctx, creator.ID, capitalsDraft())
	if err != nil {
		t.Fatalf("create quiz: %v", err)
	}
	if n := len(quiz.AccessCode); n < domain.AccessCodeMinLen || n > domain.AccessCodeMaxLen {
		t.Fatalf("generated code %q out of bounds", quiz.AccessCode)
	}
}

func TestCreateQuizRetriesGeneratedCodeCollision(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	flaky := &collidingStore{Store: store, collisions: 2}
	service := app.NewService(flaky, memory.NewQuizCache(store, time.Minute), app.NewResultFeed())
	creator := resolve(t, service, "Alice")

	if _, err := service.CreateQuiz(ctx, creator.ID, capitalsDraft()); err != nil {
		t.Fatalf("expected retry to succeed, got %v", err)
	}
	if flaky.creates != 3 {
		t.Fatalf("expected 3 create calls, got %d", flaky.creates)
	}
}

func TestCreateQuizCustomCodeConflictSurfaces(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService()
	creator := resolve(t, service, "Alice")

	draft := capitalsDraft()
	draft.AccessCode = "EUROPE"
	if _, err := service.CreateQuiz(ctx, creator.ID, draft); err != nil {
		t.Fatalf("create quiz: %v", err)
	}
	if _, err := service.CreateQuiz(ctx, creator.ID, draft); !errors.Is(err, domain.ErrAccessCodeTaken) {
		t.Fatalf("expected code conflict, got %v", err)
	}
}

func TestLookupUnknownCodeIsNotFound(t *testing.T) {
	service, _ := newTestService()
	if _, err := service.LookupQuiz(context.Background(), "ZZZZ"); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestAttemptCorrectAnswerScoresFull(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService()
	env := setupCapitals(t, service)

	attempt, err := service.StartAttempt(ctx, env.quiz.ID, env.taker.ID)
	if err != nil {
		t.Fatalf("start attempt: %v", err)
	}
	if attempt.Completed || attempt.Score != 0 || attempt.MaxScore != 1 {
		t.Fatalf("expected fresh in-progress attempt, got %+v", attempt)
	}

	if _, err := service.SubmitAnswer(ctx, attempt.ID, env.question.ID, env.answerID("Paris")); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := service.CompleteAttempt(ctx, attempt.ID); err != nil {
		t.Fatalf("complete: %v", err)
	}

	result, err := service.Result(ctx, attempt.ID)
	if err != nil {
		t.Fatalf("result: %v", err)
	}
	if result.Score != 1 || result.MaxScore != 1 || result.Percentage != 100 {
		t.Fatalf("expected 1/1 at 100%%, got %+v", result)
	}
	if result.QuizTitle != "Capitals" || result.UserName != "Bob" {
		t.Fatalf("expected quiz/user projection, got %+v", result)
	}
}

func TestAttemptWrongAnswerScoresZero(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService()
	env := setupCapitals(t, service)

	attempt, _ := service.StartAttempt(ctx, env.quiz.ID, env.taker.ID)
	if _, err := service.SubmitAnswer(ctx, attempt.ID, env.question.ID, env.answerID("Lyon")); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := service.CompleteAttempt(ctx, attempt.ID); err != nil {
		t.Fatalf("complete: %v", err)
	}

	result, err := service.Result(ctx, attempt.ID)
	if err != nil {
		t.Fatalf("result: %v", err)
	}
	if result.Score != 0 || result.MaxScore != 1 || result.Percentage != 0 {
		t.Fatalf("expected 0/1 at 0%%, got %+v", result)
	}
	row := result.Questions[0]
	if row.CorrectAnswer != "Paris" || row.UserAnswer != "Lyon" || row.Correct {
		t.Fatalf("expected breakdown with Paris as correct answer, got %+v", row)
	}
}

func TestUnansweredQuestionIsIncorrect(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService()
	env := setupCapitals(t, service)

	attempt, _ := service.StartAttempt(ctx, env.quiz.ID, env.taker.ID)
	ua, err := service.SubmitAnswer(ctx, attempt.ID, env.question.ID, "")
	if err != nil {
		t.Fatalf("submit blank: %v", err)
	}
	if ua.Correct {
		t.Fatalf("expected unanswered to be incorrect")
	}
	_, _ = service.CompleteAttempt(ctx, attempt.ID)

	result, _ := service.Result(ctx, attempt.ID)
	if result.Questions[0].Answered {
		t.Fatalf("expected unanswered marker, got %+v", result.Questions[0])
	}
}

func TestDuplicateSubmitRejectedFirstWins(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService()
	env := setupCapitals(t, service)

	attempt, _ := service.StartAttempt(ctx, env.quiz.ID, env.taker.ID)
	if _, err := service.SubmitAnswer(ctx, attempt.ID, env.question.ID, env.answerID("Paris")); err != nil {
		t.Fatalf("first submit: %v", err)
	}
	if _, err := service.SubmitAnswer(ctx, attempt.ID, env.question.ID, env.answerID("Lyon")); !errors.Is(err, domain.ErrAlreadyAnswered) {
		t.Fatalf("expected duplicate rejection, got %v", err)
	}

	_, _ = service.CompleteAttempt(ctx, attempt.ID)
	result, _ := service.Result(ctx, attempt.ID)
	if result.Score != 1 {
		t.Fatalf("expected the first answer to stand, got %+v", result)
	}
}

func TestCompletedAttemptIsTerminal(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService()
	env := setupCapitals(t, service)

	attempt, _ := service.StartAttempt(ctx, env.quiz.ID, env.taker.ID)
	if _, err := service.CompleteAttempt(ctx, attempt.ID); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if _, err := service.CompleteAttempt(ctx, attempt.ID); !errors.Is(err, domain.ErrAttemptCompleted) {
		t.Fatalf("expected second complete rejected, got %v", err)
	}
	if _, err := service.SubmitAnswer(ctx, attempt.ID, env.question.ID, env.answerID("Paris")); !errors.Is(err, domain.ErrAttemptCompleted) {
		t.Fatalf("expected submit after completion rejected, got %v", err)
	}
}

func TestResultRequiresCompletion(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService()
	env := setupCapitals(t, service)

	attempt, _ := service.StartAttempt(ctx, env.quiz.ID, env.taker.ID)
	if _, err := service.Result(ctx, attempt.ID); !errors.Is(err, domain.ErrAttemptNotCompleted) {
		t.Fatalf("expected in-progress result rejected, got %v", err)
	}
}

func TestEmptyQuizPercentageIsZero(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	service := app.NewService(store, memory.NewQuizCache(store, time.Minute), app.NewResultFeed())

	// Seed directly: the authoring path refuses question-less quizzes, but the
	// aggregator must still guard against maxScore=0.
	user := resolve(t, service, "Bob")
	if err := store.CreateQuiz(ctx, domain.Quiz{ID: "quiz-0", Title: "Empty", AccessCode: "EMPT"}, nil); err != nil {
		t.Fatalf("seed quiz: %v", err)
	}

	attempt, err := service.StartAttempt(ctx, "quiz-0", user.ID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := service.CompleteAttempt(ctx, attempt.ID); err != nil {
		t.Fatalf("complete: %v", err)
	}
	result, err := service.Result(ctx, attempt.ID)
	if err != nil {
		t.Fatalf("result: %v", err)
	}
	if result.Percentage != 0 || result.MaxScore != 0 {
		t.Fatalf("expected 0%% on empty quiz, got %+v", result)
	}
}

func TestResultFeedDeliversCompletion(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService()
	env := setupCapitals(t, service)

	updates, cancel := service.SubscribeResults(ctx, env.quiz.ID)
	defer cancel()

	attempt, _ := service.StartAttempt(ctx, env.quiz.ID, env.taker.ID)
	_, _ = service.SubmitAnswer(ctx, attempt.ID, env.question.ID, env.answerID("Paris"))
	if _, err := service.CompleteAttempt(ctx, attempt.ID); err != nil {
		t.Fatalf("complete: %v", err)
	}

	select {
	case result := <-updates:
		if result.AttemptID != attempt.ID || result.Score != 1 {
			t.Fatalf("expected feed to carry the finished result, got %+v", result)
		}
	case <-time.After(time.Second):
		t.Fatalf("expected a feed update")
	}
}

func TestDashboardQueries(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService()
	env := setupCapitals(t, service)

	quizzes, err := service.QuizzesByCreator(ctx, env.creator.ID)
	if err != nil || len(quizzes) != 1 || quizzes[0].ID != env.quiz.ID {
		t.Fatalf("expected creator's quiz listed, got %+v err=%v", quizzes, err)
	}

	attempt, _ := service.StartAttempt(ctx, env.quiz.ID, env.taker.ID)
	_, _ = service.CompleteAttempt(ctx, attempt.ID)

	attempts, err := service.AttemptsByUser(ctx, env.taker.ID)
	if err != nil || len(attempts) != 1 {
		t.Fatalf("expected one attempt listed, got %+v err=%v", attempts, err)
	}
	if attempts[0].QuizTitle != "Capitals" {
		t.Fatalf("expected quiz title on summary, got %+v", attempts[0])
	}
}

type capitalsEnv struct {
	creator  domain.User
	taker    domain.User
	quiz     domain.Quiz
	question domain.Question
}

func (e *capitalsEnv) answerID(text string) string {
	for _, a := range e.question.Answers {
		if a.Text == text {
			return a.ID
		}
	}
	return ""
}

func setupCapitals(t *testing.T, service *app.Service) *capitalsEnv {
	t.Helper()
	ctx := context.Background()

	creator := resolve(t, service, "Alice")
	taker := resolve(t, service, "Bob")

	quiz, err := service.CreateQuiz(ctx, creator.ID, capitalsDraft())
	if err != nil {
		t.Fatalf("create quiz: %v", err)
	}
	_, questions, err := service.GetQuiz(ctx, quiz.ID)
	if err != nil {
		t.Fatalf("get quiz: %v", err)
	}
	if len(questions) != 1 {
		t.Fatalf("expected one question, got %d", len(questions))
	}
	return &capitalsEnv{creator: creator, taker: taker, quiz: quiz, question: questions[0]}
}

func capitalsDraft() *domain.QuizDraft {
	draft := domain.NewQuizDraft()
	draft.Title = "Capitals"
	draft.Questions[0].Text = "Capital of France?"
	for i, text := range []string{"Paris", "Lyon", "Nice", "Rennes"} {
		draft.Questions[0].Answers[i].Text = text
	}
	return draft
}

func resolve(t *testing.T, service *app.Service, name string) domain.User {
	t.Helper()
	user, err := service.ResolveUser(context.Background(), name)
	if err != nil {
		t.Fatalf("resolve %s: %v", name, err)
	}
	return user
}

func newTestService() (*app.Service, *memory.Store) {
	store := memory.NewStore()
	service := app.NewService(store, memory.NewQuizCache(store, 5*time.Minute), app.NewResultFeed())
	return service, store
}

type collidingStore struct {
	*memory.Store
	collisions int
	creates    int
}

func (s *collidingStore) CreateQuiz(ctx context.Context, quiz domain.Quiz, questions []domain.Question) error {
	s.creates++
	if s.creates <= s.collisions {
		return domain.ErrAccessCodeTaken
	}
	return s.Store.CreateQuiz(ctx, quiz, questions)
}
