package http

import (
	"net/http"

	"quizshare-service/internal/app"
)

func NewRouter(service *app.Service) http.Handler {
	api := NewAPI(service)
	feed := NewFeedHandler(service)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	mux.HandleFunc("POST /api/users", api.HandleResolveUser)
	mux.HandleFunc("GET /api/users/{userID}/quizzes", api.HandleCreatorQuizzes)
	mux.HandleFunc("GET /api/users/{userID}/attempts", api.HandleUserAttempts)

	mux.HandleFunc("POST /api/quizzes", api.HandleCreateQuiz)
	mux.HandleFunc("GET /api/quizzes/code/{code}", api.HandleLookupQuiz)
	mux.HandleFunc("GET /api/quizzes/{quizID}", api.HandleGetQuiz)

	mux.HandleFunc("POST /api/attempts", api.HandleStartAttempt)
	mux.HandleFunc("POST /api/attempts/{attemptID}/answers", api.HandleSubmitAnswer)
	mux.HandleFunc("POST /api/attempts/{attemptID}/complete", api.HandleCompleteAttempt)
	mux.HandleFunc("GET /api/attempts/{attemptID}/result", api.HandleResult)

	mux.HandleFunc("GET /ws", feed.ServeWS)

	return mux
}
