package domain

import "time"

// QuestionType distinguishes the two supported question shapes.
type QuestionType string

const (
	MultipleChoice QuestionType = "multiple_choice"
	TrueFalse      QuestionType = "true_false"
)

// User is a display-name keyed identity. There is no authentication;
// the first user created with a given name owns it.
type User struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Quiz is an authored quiz. Immutable after creation; shared via AccessCode.
type Quiz struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	CreatorID   string    `json:"creatorId"`
	AccessCode  string    `json:"accessCode"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Question belongs to exactly one quiz. OrderNum is 1-based and contiguous.
type Question struct {
	ID       string       `json:"id"`
	QuizID   string       `json:"quizId"`
	Text     string       `json:"text"`
	Type     QuestionType `json:"type"`
	OrderNum int          `json:"orderNum"`
	Answers  []Answer     `json:"answers"`
}

// Answer belongs to exactly one question. Exactly one answer per question
// carries Correct=true.
type Answer struct {
	ID         string `json:"id"`
	QuestionID string `json:"questionId"`
	Text       string `json:"text"`
	Correct    bool   `json:"correct"`
	OrderNum   int    `json:"orderNum"`
}

// CorrectAnswer returns the single answer marked correct.
func (q Question) CorrectAnswer() (Answer, bool) {
	for _, a := range q.Answers {
		if a.Correct {
			return a, true
		}
	}
	return Answer{}, false
}

// Attempt tracks one user's single linear pass through a quiz.
// MaxScore is fixed at start from the quiz's question count.
type Attempt struct {
	ID          string     `json:"id"`
	QuizID      string     `json:"quizId"`
	UserID      string     `json:"userId"`
	Score       int        `json:"score"`
	MaxScore    int        `json:"maxScore"`
	Completed   bool       `json:"completed"`
	StartedAt   time.Time  `json:"startedAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// UserAnswer records one submitted answer. AnswerID empty means the question
// was left unanswered (always incorrect). Immutable once written.
type UserAnswer struct {
	ID         string `json:"id"`
	AttemptID  string `json:"attemptId"`
	QuestionID string `json:"questionId"`
	AnswerID   string `json:"answerId,omitempty"`
	Correct    bool   `json:"correct"`
}

// AttemptSummary is the dashboard projection of an attempt joined with its quiz.
type AttemptSummary struct {
	Attempt
	QuizTitle  string `json:"quizTitle"`
	AccessCode string `json:"accessCode"`
}

// QuestionResult is one row of a result breakdown, ordered by question OrderNum.
type QuestionResult struct {
	QuestionID    string `json:"questionId"`
	QuestionText  string `json:"questionText"`
	UserAnswer    string `json:"userAnswer"`
	CorrectAnswer string `json:"correctAnswer"`
	Correct       bool   `json:"correct"`
	Answered      bool   `json:"answered"`
}

// QuizResult is the full scored projection of a completed attempt.
type QuizResult struct {
	AttemptID   string           `json:"attemptId"`
	QuizID      string           `json:"quizId"`
	QuizTitle   string           `json:"quizTitle"`
	UserID      string           `json:"userId"`
	UserName    string           `json:"userName"`
	Score       int              `json:"score"`
	MaxScore    int              `json:"maxScore"`
	Percentage  int              `json:"percentage"`
	StartedAt   time.Time        `json:"startedAt"`
	CompletedAt time.Time        `json:"completedAt"`
	Questions   []QuestionResult `json:"questions"`
}
