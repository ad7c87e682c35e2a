package http

import (
	"time"

	"quizshare-service/internal/domain"
)

type resolveUserRequest struct {
	Name string `json:"name" validate:"required"`
}

type answerRequest struct {
	Text    string `json:"text" validate:"required"`
	Correct bool   `json:"correct"`
}

type questionRequest struct {
	Text    string          `json:"text" validate:"required"`
	Type    string          `json:"type" validate:"required,oneof=multiple_choice true_false"`
	Answers []answerRequest `json:"answers" validate:"required,min=2,max=6,dive"`
}

type createQuizRequest struct {
	CreatorID   string            `json:"creatorId" validate:"required"`
	Title       string            `json:"title" validate:"required"`
	Description string            `json:"description"`
	AccessCode  string            `json:"accessCode" validate:"omitempty,min=4,max=10"`
	Questions   []questionRequest `json:"questions" validate:"required,min=1,dive"`
}

func (r createQuizRequest) toDraft() *domain.QuizDraft {
	draft := &domain.QuizDraft{
		Title:       r.Title,
		Description: r.Description,
		AccessCode:  r.AccessCode,
	}
	for _, q := range r.Questions {
		qd := domain.QuestionDraft{Text: q.Text, Type: domain.QuestionType(q.Type)}
		for _, a := range q.Answers {
			qd.Answers = append(qd.Answers, domain.AnswerDraft{Text: a.Text, Correct: a.Correct})
		}
		draft.Questions = append(draft.Questions, qd)
	}
	return draft
}

type startAttemptRequest struct {
	QuizID string `json:"quizId" validate:"required"`
	UserID string `json:"userId" validate:"required"`
}

type submitAnswerRequest struct {
	QuestionID string `json:"questionId" validate:"required"`
	AnswerID   string `json:"answerId"`
}

// Taker-facing quiz payload. Correctness flags are stripped; the server alone
// decides correctness at submission time.
type quizResponse struct {
	Quiz      domain.Quiz           `json:"quiz"`
	Questions []takerQuestionStatus `json:"questions"`
}

type takerQuestionStatus struct {
	ID       string               `json:"id"`
	Text     string               `json:"text"`
	Type     domain.QuestionType  `json:"type"`
	OrderNum int                  `json:"orderNum"`
	Answers  []takerAnswerChoice  `json:"answers"`
}

type takerAnswerChoice struct {
	ID       string `json:"id"`
	Text     string `json:"text"`
	OrderNum int    `json:"orderNum"`
}

func toQuizResponse(quiz domain.Quiz, questions []domain.Question) quizResponse {
	resp := quizResponse{Quiz: quiz, Questions: make([]takerQuestionStatus, 0, len(questions))}
	for _, q := range questions {
		item := takerQuestionStatus{ID: q.ID, Text: q.Text, Type: q.Type, OrderNum: q.OrderNum}
		for _, a := range q.Answers {
			item.Answers = append(item.Answers, takerAnswerChoice{ID: a.ID, Text: a.Text, OrderNum: a.OrderNum})
		}
		resp.Questions = append(resp.Questions, item)
	}
	return resp
}

type userAnswerResponse struct {
	AttemptID  string `json:"attemptId"`
	QuestionID string `json:"questionId"`
	Answered   bool   `json:"answered"`
}

type attemptResponse struct {
	ID          string     `json:"id"`
	QuizID      string     `json:"quizId"`
	UserID      string     `json:"userId"`
	Score       int        `json:"score"`
	MaxScore    int        `json:"maxScore"`
	Completed   bool       `json:"completed"`
	StartedAt   time.Time  `json:"startedAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

func toAttemptResponse(a domain.Attempt) attemptResponse {
	return attemptResponse{
		ID:          a.ID,
		QuizID:      a.QuizID,
		UserID:      a.UserID,
		Score:       a.Score,
		MaxScore:    a.MaxScore,
		Completed:   a.Completed,
		StartedAt:   a.StartedAt,
		CompletedAt: a.CompletedAt,
	}
}

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}
