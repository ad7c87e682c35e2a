package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"quizshare-service/internal/app"
	"quizshare-service/internal/domain"
	"quizshare-service/internal/infra/memory"
)

func TestFeedStreamsCompletedResults(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	service := app.NewService(store, memory.NewQuizCache(store, time.Minute), app.NewResultFeed())
	server := httptest.NewServer(NewRouter(service))
	defer server.Close()

	alice, err := service.ResolveUser(ctx, "Alice")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	bob, _ := service.ResolveUser(ctx, "Bob")

	draft := domain.NewQuizDraft()
	draft.Title = "Capitals"
	draft.Questions[0].Text = "Capital of France?"
	for i, text := range []string{"Paris", "Lyon", "Nice", "Rennes"} {
		draft.Questions[0].Answers[i].Text = text
	}
	quiz, err := service.CreateQuiz(ctx, alice.ID, draft)
	if err != nil {
		t.Fatalf("create quiz: %v", err)
	}

	u := "ws" + server.URL[len("http"):] + "/ws?quizId=" + quiz.ID
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// Wait for the subscription confirmation before triggering a completion.
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var hello struct {
		Type string `json:"type"`
	}
	if err := conn.ReadJSON(&hello); err != nil || hello.Type != "subscribed" {
		t.Fatalf("expected subscribed event, got %+v err=%v", hello, err)
	}

	_, questions, _ := service.GetQuiz(ctx, quiz.ID)
	attempt, err := service.StartAttempt(ctx, quiz.ID, bob.ID)
	if err != nil {
		t.Fatalf("start attempt: %v", err)
	}
	correct, _ := questions[0].CorrectAnswer()
	if _, err := service.SubmitAnswer(ctx, attempt.ID, questions[0].ID, correct.ID); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := service.CompleteAttempt(ctx, attempt.ID); err != nil {
		t.Fatalf("complete: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read feed update: %v", err)
	}
	var msg struct {
		Type    string            `json:"type"`
		Payload domain.QuizResult `json:"payload"`
	}
	if err := json.Unmarshal(raw, &msg); err != nil {
		t.Fatalf("unmarshal update: %v", err)
	}
	if msg.Type != "result" || msg.Payload.AttemptID != attempt.ID || msg.Payload.Score != 1 {
		t.Fatalf("expected result update for the attempt, got %+v", msg)
	}
}

func TestFeedRejectsUnknownQuiz(t *testing.T) {
	store := memory.NewStore()
	service := app.NewService(store, memory.NewQuizCache(store, time.Minute), app.NewResultFeed())
	server := httptest.NewServer(NewRouter(service))
	defer server.Close()

	resp, err := http.Get(server.URL + "/ws?quizId=nope")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}
