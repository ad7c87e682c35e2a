package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-playground/validator/v10"

	"quizshare-service/internal/app"
	"quizshare-service/internal/domain"
)

// API exposes the quiz use cases over JSON/HTTP.
type API struct {
	service  *app.Service
	validate *validator.Validate
}

func NewAPI(service *app.Service) *API {
	return &API{
		service:  service,
		validate: validator.New(),
	}
}

func (a *API) HandleResolveUser(w http.ResponseWriter, r *http.Request) {
	var req resolveUserRequest
	if !a.decode(w, r, &req) {
		return
	}
	user, err := a.service.ResolveUser(r.Context(), req.Name)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (a *API) HandleCreateQuiz(w http.ResponseWriter, r *http.Request) {
	var req createQuizRequest
	if !a.decode(w, r, &req) {
		return
	}
	quiz, err := a.service.CreateQuiz(r.Context(), req.CreatorID, req.toDraft())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, quiz)
}

func (a *API) HandleLookupQuiz(w http.ResponseWriter, r *http.Request) {
	quiz, err := a.service.LookupQuiz(r.Context(), r.PathValue("code"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, quiz)
}

func (a *API) HandleGetQuiz(w http.ResponseWriter, r *http.Request) {
	quiz, questions, err := a.service.GetQuiz(r.Context(), r.PathValue("quizID"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toQuizResponse(quiz, questions))
}

func (a *API) HandleCreatorQuizzes(w http.ResponseWriter, r *http.Request) {
	quizzes, err := a.service.QuizzesByCreator(r.Context(), r.PathValue("userID"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, quizzes)
}

func (a *API) HandleUserAttempts(w http.ResponseWriter, r *http.Request) {
	attempts, err := a.service.AttemptsByUser(r.Context(), r.PathValue("userID"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, attempts)
}

func (a *API) HandleStartAttempt(w http.ResponseWriter, r *http.Request) {
	var req startAttemptRequest
	if !a.decode(w, r, &req) {
		return
	}
	attempt, err := a.service.StartAttempt(r.Context(), req.QuizID, req.UserID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toAttemptResponse(attempt))
}

func (a *API) HandleSubmitAnswer(w http.ResponseWriter, r *http.Request) {
	var req submitAnswerRequest
	if !a.decode(w, r, &req) {
		return
	}
	answer, err := a.service.SubmitAnswer(r.Context(), r.PathValue("attemptID"), req.QuestionID, req.AnswerID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, userAnswerResponse{
		AttemptID:  answer.AttemptID,
		QuestionID: answer.QuestionID,
		Answered:   answer.AnswerID != "",
	})
}

func (a *API) HandleCompleteAttempt(w http.ResponseWriter, r *http.Request) {
	attempt, err := a.service.CompleteAttempt(r.Context(), r.PathValue("attemptID"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAttemptResponse(attempt))
}

func (a *API) HandleResult(w http.ResponseWriter, r *http.Request) {
	result, err := a.service.Result(r.Context(), r.PathValue("attemptID"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// decode unmarshals and validates a request body; it writes the error response
// itself and reports whether the handler should proceed.
func (a *API) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return false
	}
	if err := a.validate.Struct(dst); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			writeJSON(w, http.StatusBadRequest, errorResponse{
				Error: "invalid request",
				Field: fieldErrs[0].Namespace(),
			})
			return false
		}
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request"})
		return false
	}
	return true
}

func writeServiceError(w http.ResponseWriter, err error) {
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: ve.Message, Field: ve.Field})
	case errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, domain.ErrQuizNotFound),
		errors.Is(err, domain.ErrAttemptNotFound),
		errors.Is(err, domain.ErrQuestionNotFound),
		errors.Is(err, domain.ErrAnswerNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrAccessCodeTaken),
		errors.Is(err, domain.ErrAlreadyAnswered),
		errors.Is(err, domain.ErrAttemptCompleted),
		errors.Is(err, domain.ErrAttemptNotCompleted):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrStorageUnavailable):
		log.Printf("storage unavailable: %v", err)
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "storage unavailable"})
	default:
		log.Printf("request failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "request failed"})
	}
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("write response: %v", err)
	}
}
