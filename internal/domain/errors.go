package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrUserNotFound is returned when no identity matches a lookup.
	ErrUserNotFound = errors.New("user not found")
	// ErrQuizNotFound indicates an unknown quiz id or access code.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrAttemptNotFound indicates an unknown attempt id.
	ErrAttemptNotFound = errors.New("attempt not found")
	// ErrQuestionNotFound indicates a submitted question id is not part of the quiz.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrAnswerNotFound indicates a submitted answer id is not part of the question.
	ErrAnswerNotFound = errors.New("answer not found")
	// ErrNameTaken is returned when a user creation races another creation of
	// the same name; the first identity wins.
	ErrNameTaken = errors.New("name already taken")
	// ErrAccessCodeTaken is returned when an access code is already claimed
	// by another quiz, including by a concurrent save.
	ErrAccessCodeTaken = errors.New("access code already in use")
	// ErrAttemptCompleted rejects mutations of a completed attempt,
	// including a second complete call.
	ErrAttemptCompleted = errors.New("attempt already completed")
	// ErrAlreadyAnswered rejects a second answer for the same question within
	// an attempt; the first stored answer stands.
	ErrAlreadyAnswered = errors.New("question already answered in this attempt")
	// ErrAttemptNotCompleted rejects result aggregation for in-progress attempts.
	ErrAttemptNotCompleted = errors.New("attempt not completed")
	// ErrStorageUnavailable wraps backing-store failures. The core does not
	// retry; callers decide on retry/backoff.
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// ValidationError reports the specific field of a quiz draft that failed
// validation, so callers can render a targeted message.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// IsValidation reports whether err is a draft validation failure.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
