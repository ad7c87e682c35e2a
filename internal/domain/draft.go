package domain

import (
	"strconv"
	"strings"
)

const (
	// MinAnswers and MaxAnswers bound multiple-choice answer counts.
	MinAnswers = 2
	MaxAnswers = 6

	// AccessCodeMinLen and AccessCodeMaxLen bound custom access codes.
	AccessCodeMinLen = 4
	AccessCodeMaxLen = 10
)

// AnswerDraft is one editable answer of a draft question.
type AnswerDraft struct {
	Text    string `json:"text"`
	Correct bool   `json:"correct"`
}

// QuestionDraft is one editable question of a quiz draft.
type QuestionDraft struct {
	Text    string        `json:"text"`
	Type    QuestionType  `json:"type"`
	Answers []AnswerDraft `json:"answers"`
}

// QuizDraft is a quiz under construction. The mutating methods enforce the
// single-correct-answer invariant and the per-type answer bounds at edit time,
// so a draft built exclusively through them always has exactly one correct
// answer per question. Validate re-checks everything before persistence since
// drafts can also arrive fully formed over the wire.
type QuizDraft struct {
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	AccessCode  string          `json:"accessCode,omitempty"`
	Questions   []QuestionDraft `json:"questions"`
}

// NewQuizDraft returns the authoring starting point: a single multiple-choice
// question with four blank answers, the first marked correct.
func NewQuizDraft() *QuizDraft {
	return &QuizDraft{
		Questions: []QuestionDraft{newMultipleChoiceQuestion()},
	}
}

func newMultipleChoiceQuestion() QuestionDraft {
	return QuestionDraft{
		Type: MultipleChoice,
		Answers: []AnswerDraft{
			{Correct: true},
			{},
			{},
			{},
		},
	}
}

// AddQuestion appends a fresh multiple-choice question template.
func (d *QuizDraft) AddQuestion() {
	d.Questions = append(d.Questions, newMultipleChoiceQuestion())
}

// RemoveQuestion deletes the question at index. At least one question must remain.
func (d *QuizDraft) RemoveQuestion(index int) error {
	if index < 0 || index >= len(d.Questions) {
		return &ValidationError{Field: "question", Message: "no such question"}
	}
	if len(d.Questions) <= 1 {
		return &ValidationError{Field: "questions", Message: "a quiz needs at least one question"}
	}
	d.Questions = append(d.Questions[:index], d.Questions[index+1:]...)
	return nil
}

// SetQuestionType changes a question's type. Switching to true/false replaces
// the answers with True (correct) and False. Switching back to multiple choice
// from the two-answer true/false set resets to the blank four-answer template;
// prior answer text is not preserved.
func (d *QuizDraft) SetQuestionType(index int, t QuestionType) error {
	if index < 0 || index >= len(d.Questions) {
		return &ValidationError{Field: "question", Message: "no such question"}
	}
	q := &d.Questions[index]
	if q.Type == t {
		return nil
	}
	q.Type = t
	switch t {
	case TrueFalse:
		q.Answers = []AnswerDraft{
			{Text: "True", Correct: true},
			{Text: "False"},
		}
	case MultipleChoice:
		if len(q.Answers) == 2 {
			fresh := newMultipleChoiceQuestion()
			q.Answers = fresh.Answers
		}
	default:
		return &ValidationError{Field: "question_type", Message: "unknown question type"}
	}
	return nil
}

// MarkCorrect marks one answer correct and clears the flag on its siblings.
func (d *QuizDraft) MarkCorrect(questionIndex, answerIndex int) error {
	if questionIndex < 0 || questionIndex >= len(d.Questions) {
		return &ValidationError{Field: "question", Message: "no such question"}
	}
	q := &d.Questions[questionIndex]
	if answerIndex < 0 || answerIndex >= len(q.Answers) {
		return &ValidationError{Field: "answer", Message: "no such answer"}
	}
	for i := range q.Answers {
		q.Answers[i].Correct = i == answerIndex
	}
	return nil
}

// AddAnswer appends a blank answer. Disallowed for true/false questions and
// beyond MaxAnswers.
func (d *QuizDraft) AddAnswer(questionIndex int) error {
	if questionIndex < 0 || questionIndex >= len(d.Questions) {
		return &ValidationError{Field: "question", Message: "no such question"}
	}
	q := &d.Questions[questionIndex]
	if q.Type == TrueFalse {
		return &ValidationError{Field: "answers", Message: "true/false questions have exactly two answers"}
	}
	if len(q.Answers) >= MaxAnswers {
		return &ValidationError{Field: "answers", Message: "at most 6 answers per question"}
	}
	q.Answers = append(q.Answers, AnswerDraft{})
	return nil
}

// RemoveAnswer deletes an answer. Disallowed for true/false questions and below
// MinAnswers. Removing the correct answer promotes the first remaining one so
// the single-correct invariant holds.
func (d *QuizDraft) RemoveAnswer(questionIndex, answerIndex int) error {
	if questionIndex < 0 || questionIndex >= len(d.Questions) {
		return &ValidationError{Field: "question", Message: "no such question"}
	}
	q := &d.Questions[questionIndex]
	if q.Type == TrueFalse {
		return &ValidationError{Field: "answers", Message: "true/false questions have exactly two answers"}
	}
	if answerIndex < 0 || answerIndex >= len(q.Answers) {
		return &ValidationError{Field: "answer", Message: "no such answer"}
	}
	if len(q.Answers) <= MinAnswers {
		return &ValidationError{Field: "answers", Message: "at least 2 answers per question"}
	}
	wasCorrect := q.Answers[answerIndex].Correct
	q.Answers = append(q.Answers[:answerIndex], q.Answers[answerIndex+1:]...)
	if wasCorrect {
		q.Answers[0].Correct = true
	}
	return nil
}

// Validate checks the draft before persistence. Checks run in order and the
// first failure wins: title, custom access code length, then per question the
// question text, every answer text, and the presence of a correct answer.
func (d *QuizDraft) Validate() error {
	if strings.TrimSpace(d.Title) == "" {
		return &ValidationError{Field: "title", Message: "title is required"}
	}
	if d.AccessCode != "" {
		code := strings.TrimSpace(d.AccessCode)
		if code == "" {
			return &ValidationError{Field: "access_code", Message: "access code is required when supplied"}
		}
		if len(code) < AccessCodeMinLen || len(code) > AccessCodeMaxLen {
			return &ValidationError{Field: "access_code", Message: "access code must be between 4 and 10 characters"}
		}
	}
	if len(d.Questions) == 0 {
		return &ValidationError{Field: "questions", Message: "a quiz needs at least one question"}
	}
	for i, q := range d.Questions {
		if strings.TrimSpace(q.Text) == "" {
			return &ValidationError{Field: questionField(i), Message: "question text is required"}
		}
		for _, a := range q.Answers {
			if strings.TrimSpace(a.Text) == "" {
				return &ValidationError{Field: questionField(i), Message: "answer text is required"}
			}
		}
		hasCorrect := false
		for _, a := range q.Answers {
			if a.Correct {
				hasCorrect = true
				break
			}
		}
		if !hasCorrect {
			return &ValidationError{Field: questionField(i), Message: "a correct answer is required"}
		}
	}
	return nil
}

func questionField(i int) string {
	return "questions[" + strconv.Itoa(i) + "]"
}
