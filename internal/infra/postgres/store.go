package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"quizshare-service/internal/domain"
)

const pgUniqueViolation = "23505"

// Store is the Postgres implementation of app.Store. Uniqueness of user names,
// access codes and per-question answers is enforced by constraints, so
// concurrent writers resolve deterministically in the database rather than by
// client-side checks.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) FindUserByName(ctx context.Context, name string) (domain.User, error) {
	var user domain.User
	err := s.pool.QueryRow(ctx, `SELECT id, name FROM users WHERE name=$1`, name).Scan(&user.ID, &user.Name)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, domain.ErrUserNotFound
	}
	if err != nil {
		return domain.User{}, storageErr("find user by name", err)
	}
	return user, nil
}

func (s *Store) CreateUser(ctx context.Context, user domain.User) error {
	_, err := s.pool.Exec(ctx, `INSERT INTO users (id, name) VALUES ($1, $2)`, user.ID, user.Name)
	if isUniqueViolation(err) {
		return domain.ErrNameTaken
	}
	if err != nil {
		return storageErr("create user", err)
	}
	return nil
}

func (s *Store) GetUser(ctx context.Context, id string) (domain.User, error) {
	var user domain.User
	err := s.pool.QueryRow(ctx, `SELECT id, name FROM users WHERE id=$1`, id).Scan(&user.ID, &user.Name)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, domain.ErrUserNotFound
	}
	if err != nil {
		return domain.User{}, storageErr("get user", err)
	}
	return user, nil
}

func (s *Store) CreateQuiz(ctx context.Context, quiz domain.Quiz, questions []domain.Question) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return storageErr("begin create quiz", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO quizzes (id, title, description, creator_id, access_code, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		quiz.ID, quiz.Title, quiz.Description, quiz.CreatorID, quiz.AccessCode, quiz.CreatedAt)
	if isUniqueViolation(err) {
		return domain.ErrAccessCodeTaken
	}
	if err != nil {
		return storageErr("insert quiz", err)
	}

	for _, q := range questions {
		_, err = tx.Exec(ctx,
			`INSERT INTO questions (id, quiz_id, question_text, question_type, order_num)
			 VALUES ($1, $2, $3, $4, $5)`,
			q.ID, q.QuizID, q.Text, q.Type, q.OrderNum)
		if err != nil {
			return storageErr("insert question", err)
		}
		for _, a := range q.Answers {
			_, err = tx.Exec(ctx,
				`INSERT INTO answers (id, question_id, answer_text, is_correct, order_num)
				 VALUES ($1, $2, $3, $4, $5)`,
				a.ID, a.QuestionID, a.Text, a.Correct, a.OrderNum)
			if err != nil {
				return storageErr("insert answer", err)
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAccessCodeTaken
		}
		return storageErr("commit create quiz", err)
	}
	return nil
}

func (s *Store) FindQuizByCode(ctx context.Context, code string) (domain.Quiz, error) {
	quiz, err := s.scanQuiz(s.pool.QueryRow(ctx,
		`SELECT id, title, description, creator_id, access_code, created_at
		 FROM quizzes WHERE access_code=$1`, code))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.Quiz{}, storageErr("find quiz by code", err)
	}
	return quiz, nil
}

func (s *Store) GetQuiz(ctx context.Context, quizID string) (domain.Quiz, []domain.Question, error) {
	quiz, err := s.scanQuiz(s.pool.QueryRow(ctx,
		`SELECT id, title, description, creator_id, access_code, created_at
		 FROM quizzes WHERE id=$1`, quizID))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Quiz{}, nil, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.Quiz{}, nil, storageErr("get quiz", err)
	}

	rows, err := s.pool.Query(ctx,
		`SELECT q.id, q.question_text, q.question_type, q.order_num,
		        a.id, a.answer_text, a.is_correct, a.order_num
		 FROM questions q
		 JOIN answers a ON a.question_id = q.id
		 WHERE q.quiz_id = $1
		 ORDER BY q.order_num, a.order_num`, quizID)
	if err != nil {
		return domain.Quiz{}, nil, storageErr("get quiz questions", err)
	}
	defer rows.Close()

	questions := make([]domain.Question, 0)
	for rows.Next() {
		var (
			q domain.Question
			a domain.Answer
		)
		if err := rows.Scan(&q.ID, &q.Text, &q.Type, &q.OrderNum, &a.ID, &a.Text, &a.Correct, &a.OrderNum); err != nil {
			return domain.Quiz{}, nil, storageErr("scan question", err)
		}
		q.QuizID = quizID
		a.QuestionID = q.ID

		if n := len(questions); n > 0 && questions[n-1].ID == q.ID {
			questions[n-1].Answers = append(questions[n-1].Answers, a)
			continue
		}
		q.Answers = []domain.Answer{a}
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return domain.Quiz{}, nil, storageErr("read questions", err)
	}
	return quiz, questions, nil
}

func (s *Store) QuizzesByCreator(ctx context.Context, creatorID string) ([]domain.Quiz, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, title, description, creator_id, access_code, created_at
		 FROM quizzes WHERE creator_id=$1 ORDER BY created_at DESC`, creatorID)
	if err != nil {
		return nil, storageErr("quizzes by creator", err)
	}
	defer rows.Close()

	quizzes := make([]domain.Quiz, 0)
	for rows.Next() {
		quiz, err := s.scanQuiz(rows)
		if err != nil {
			return nil, storageErr("scan quiz", err)
		}
		quizzes = append(quizzes, quiz)
	}
	return quizzes, rows.Err()
}

func (s *Store) CreateAttempt(ctx context.Context, attempt domain.Attempt) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO quiz_attempts (id, quiz_id, user_id, score, max_score, completed, started_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		attempt.ID, attempt.QuizID, attempt.UserID, attempt.Score, attempt.MaxScore, attempt.Completed, attempt.StartedAt)
	if err != nil {
		return storageErr("create attempt", err)
	}
	return nil
}

func (s *Store) GetAttempt(ctx context.Context, id string) (domain.Attempt, error) {
	attempt, err := s.scanAttempt(s.pool.QueryRow(ctx,
		`SELECT id, quiz_id, user_id, score, max_score, completed, started_at, completed_at
		 FROM quiz_attempts WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Attempt{}, domain.ErrAttemptNotFound
	}
	if err != nil {
		return domain.Attempt{}, storageErr("get attempt", err)
	}
	return attempt, nil
}

// InsertUserAnswer relies on the UNIQUE (attempt_id, question_id) constraint:
// concurrent submissions for the same question resolve to exactly one stored
// row, and the loser sees domain.ErrAlreadyAnswered.
func (s *Store) InsertUserAnswer(ctx context.Context, answer domain.UserAnswer) error {
	var answerID interface{}
	if answer.AnswerID != "" {
		answerID = answer.AnswerID
	}
	tag, err := s.pool.Exec(ctx,
		`INSERT INTO user_answers (id, attempt_id, question_id, answer_id, is_correct)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (attempt_id, question_id) DO NOTHING`,
		answer.ID, answer.AttemptID, answer.QuestionID, answerID, answer.Correct)
	if err != nil {
		return storageErr("insert user answer", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAlreadyAnswered
	}
	return nil
}

// CompleteAttempt computes the score and flips the completed flag in one
// statement, so readers never observe a half-completed attempt.
func (s *Store) CompleteAttempt(ctx context.Context, attemptID string, completedAt time.Time) (domain.Attempt, error) {
	attempt, err := s.scanAttempt(s.pool.QueryRow(ctx,
		`UPDATE quiz_attempts
		 SET completed = TRUE,
		     completed_at = $2,
		     score = (SELECT COUNT(*) FROM user_answers WHERE attempt_id = $1 AND is_correct)
		 WHERE id = $1 AND completed = FALSE
		 RETURNING id, quiz_id, user_id, score, max_score, completed, started_at, completed_at`,
		attemptID, completedAt))
	if errors.Is(err, pgx.ErrNoRows) {
		// Either unknown or already completed; look again to tell them apart.
		if _, getErr := s.GetAttempt(ctx, attemptID); getErr != nil {
			return domain.Attempt{}, getErr
		}
		return domain.Attempt{}, domain.ErrAttemptCompleted
	}
	if err != nil {
		return domain.Attempt{}, storageErr("complete attempt", err)
	}
	return attempt, nil
}

func (s *Store) AttemptAnswers(ctx context.Context, attemptID string) ([]domain.UserAnswer, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, attempt_id, question_id, answer_id, is_correct
		 FROM user_answers WHERE attempt_id=$1`, attemptID)
	if err != nil {
		return nil, storageErr("attempt answers", err)
	}
	defer rows.Close()

	answers := make([]domain.UserAnswer, 0)
	for rows.Next() {
		var (
			answer   domain.UserAnswer
			answerID *string
		)
		if err := rows.Scan(&answer.ID, &answer.AttemptID, &answer.QuestionID, &answerID, &answer.Correct); err != nil {
			return nil, storageErr("scan user answer", err)
		}
		if answerID != nil {
			answer.AnswerID = *answerID
		}
		answers = append(answers, answer)
	}
	return answers, rows.Err()
}

func (s *Store) AttemptsByUser(ctx context.Context, userID string) ([]domain.AttemptSummary, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT a.id, a.quiz_id, a.user_id, a.score, a.max_score, a.completed, a.started_at, a.completed_at,
		        q.title, q.access_code
		 FROM quiz_attempts a
		 JOIN quizzes q ON q.id = a.quiz_id
		 WHERE a.user_id = $1
		 ORDER BY a.started_at DESC`, userID)
	if err != nil {
		return nil, storageErr("attempts by user", err)
	}
	defer rows.Close()

	summaries := make([]domain.AttemptSummary, 0)
	for rows.Next() {
		var (
			summary     domain.AttemptSummary
			completedAt *time.Time
		)
		err := rows.Scan(&summary.ID, &summary.QuizID, &summary.UserID, &summary.Score, &summary.MaxScore,
			&summary.Completed, &summary.StartedAt, &completedAt, &summary.QuizTitle, &summary.AccessCode)
		if err != nil {
			return nil, storageErr("scan attempt summary", err)
		}
		summary.CompletedAt = completedAt
		summaries = append(summaries, summary)
	}
	return summaries, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (s *Store) scanQuiz(row rowScanner) (domain.Quiz, error) {
	var quiz domain.Quiz
	err := row.Scan(&quiz.ID, &quiz.Title, &quiz.Description, &quiz.CreatorID, &quiz.AccessCode, &quiz.CreatedAt)
	return quiz, err
}

func (s *Store) scanAttempt(row rowScanner) (domain.Attempt, error) {
	var (
		attempt     domain.Attempt
		completedAt *time.Time
	)
	err := row.Scan(&attempt.ID, &attempt.QuizID, &attempt.UserID, &attempt.Score, &attempt.MaxScore,
		&attempt.Completed, &attempt.StartedAt, &completedAt)
	if err != nil {
		return domain.Attempt{}, err
	}
	attempt.CompletedAt = completedAt
	return attempt, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

func storageErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %v", op, domain.ErrStorageUnavailable, err)
}
