package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"quizshare-service/internal/app"
	"quizshare-service/internal/domain"
	"quizshare-service/internal/infra/memory"
)

func TestQuizLifecycleOverHTTP(t *testing.T) {
	server := newTestServer(t)
	defer server.Close()

	alice := resolveUser(t, server, "Alice")
	bob := resolveUser(t, server, "Bob")

	// Author a quiz with a custom code.
	var quiz domain.Quiz
	postJSON(t, server, "/api/quizzes", map[string]any{
		"creatorId":  alice.ID,
		"title":      "Capitals",
		"accessCode": "europe",
		"questions": []map[string]any{
			{
				"text": "Capital of France?",
				"type": "multiple_choice",
				"answers": []map[string]any{
					{"text": "Paris", "correct": true},
					{"text": "Lyon"},
					{"text": "Nice"},
					{"text": "Rennes"},
				},
			},
		},
	}, http.StatusCreated, &quiz)
	if quiz.AccessCode != "EUROPE" {
		t.Fatalf("expected upper-cased code, got %q", quiz.AccessCode)
	}

	// Case-insensitive code lookup.
	var found domain.Quiz
	getJSON(t, server, "/api/quizzes/code/Europe", http.StatusOK, &found)
	if found.ID != quiz.ID {
		t.Fatalf("expected lookup to find quiz, got %+v", found)
	}

	// The taker payload must not leak correctness.
	var quizResp quizResponse
	getJSON(t, server, "/api/quizzes/"+quiz.ID, http.StatusOK, &quizResp)
	if len(quizResp.Questions) != 1 || len(quizResp.Questions[0].Answers) != 4 {
		t.Fatalf("expected question with 4 answers, got %+v", quizResp.Questions)
	}
	raw := getBody(t, server, "/api/quizzes/"+quiz.ID)
	if bytes.Contains(raw, []byte("correct")) {
		t.Fatalf("taker payload leaks correctness flags: %s", raw)
	}

	// Take the quiz.
	var attempt attemptResponse
	postJSON(t, server, "/api/attempts", map[string]any{"quizId": quiz.ID, "userId": bob.ID}, http.StatusCreated, &attempt)
	if attempt.MaxScore != 1 || attempt.Completed {
		t.Fatalf("expected fresh attempt with maxScore 1, got %+v", attempt)
	}

	question := quizResp.Questions[0]
	var paris string
	for _, a := range question.Answers {
		if a.Text == "Paris" {
			paris = a.ID
		}
	}
	var submitted userAnswerResponse
	postJSON(t, server, "/api/attempts/"+attempt.ID+"/answers",
		map[string]any{"questionId": question.ID, "answerId": paris}, http.StatusCreated, &submitted)
	if !submitted.Answered {
		t.Fatalf("expected answered submission, got %+v", submitted)
	}

	// Duplicate submission conflicts.
	postJSON(t, server, "/api/attempts/"+attempt.ID+"/answers",
		map[string]any{"questionId": question.ID, "answerId": paris}, http.StatusConflict, nil)

	var completed attemptResponse
	postJSON(t, server, "/api/attempts/"+attempt.ID+"/complete", nil, http.StatusOK, &completed)
	if !completed.Completed || completed.Score != 1 {
		t.Fatalf("expected completed attempt scoring 1, got %+v", completed)
	}

	// Double complete conflicts.
	postJSON(t, server, "/api/attempts/"+attempt.ID+"/complete", nil, http.StatusConflict, nil)

	var result domain.QuizResult
	getJSON(t, server, "/api/attempts/"+attempt.ID+"/result", http.StatusOK, &result)
	if result.Score != 1 || result.MaxScore != 1 || result.Percentage != 100 {
		t.Fatalf("expected 1/1 at 100%%, got %+v", result)
	}
	if len(result.Questions) != 1 || result.Questions[0].CorrectAnswer != "Paris" {
		t.Fatalf("expected breakdown with correct answer text, got %+v", result.Questions)
	}

	// Dashboard projections.
	var quizzes []domain.Quiz
	getJSON(t, server, "/api/users/"+alice.ID+"/quizzes", http.StatusOK, &quizzes)
	if len(quizzes) != 1 {
		t.Fatalf("expected one created quiz, got %+v", quizzes)
	}
	var attempts []domain.AttemptSummary
	getJSON(t, server, "/api/users/"+bob.ID+"/attempts", http.StatusOK, &attempts)
	if len(attempts) != 1 || attempts[0].QuizTitle != "Capitals" {
		t.Fatalf("expected one attempt summary, got %+v", attempts)
	}
}

func TestUnknownCodeIs404(t *testing.T) {
	server := newTestServer(t)
	defer server.Close()

	resp, err := http.Get(server.URL + "/api/quizzes/code/NOPE")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestCreateQuizValidation(t *testing.T) {
	server := newTestServer(t)
	defer server.Close()
	alice := resolveUser(t, server, "Alice")

	// validator rejects the short access code before the service runs.
	postJSON(t, server, "/api/quizzes", map[string]any{
		"creatorId":  alice.ID,
		"title":      "Capitals",
		"accessCode": "abc",
		"questions": []map[string]any{
			{
				"text": "Q",
				"type": "multiple_choice",
				"answers": []map[string]any{
					{"text": "A", "correct": true},
					{"text": "B"},
				},
			},
		},
	}, http.StatusBadRequest, nil)

	// Domain validation catches the missing correct answer.
	var errResp errorResponse
	postJSON(t, server, "/api/quizzes", map[string]any{
		"creatorId": alice.ID,
		"title":     "Capitals",
		"questions": []map[string]any{
			{
				"text": "Q",
				"type": "multiple_choice",
				"answers": []map[string]any{
					{"text": "A"},
					{"text": "B"},
				},
			},
		},
	}, http.StatusBadRequest, &errResp)
	if errResp.Field != "questions[0]" {
		t.Fatalf("expected failing question field, got %+v", errResp)
	}
}

func TestResolveUserRequiresName(t *testing.T) {
	server := newTestServer(t)
	defer server.Close()
	postJSON(t, server, "/api/users", map[string]any{"name": ""}, http.StatusBadRequest, nil)
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	store := memory.NewStore()
	service := app.NewService(store, memory.NewQuizCache(store, time.Minute), app.NewResultFeed())
	return httptest.NewServer(NewRouter(service))
}

func resolveUser(t *testing.T, server *httptest.Server, name string) domain.User {
	t.Helper()
	var user domain.User
	postJSON(t, server, "/api/users", map[string]any{"name": name}, http.StatusOK, &user)
	return user
}

func postJSON(t *testing.T, server *httptest.Server, path string, body any, wantStatus int, out any) {
	t.Helper()
	payload := []byte("{}")
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
	}
	resp, err := http.Post(server.URL+path, "application/json", bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("post %s: %v", path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != wantStatus {
		t.Fatalf("post %s: expected %d, got %d", path, wantStatus, resp.StatusCode)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s response: %v", path, err)
		}
	}
}

func getJSON(t *testing.T, server *httptest.Server, path string, wantStatus int, out any) {
	t.Helper()
	resp, err := http.Get(server.URL + path)
	if err != nil {
		t.Fatalf("get %s: %v", path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != wantStatus {
		t.Fatalf("get %s: expected %d, got %d", path, wantStatus, resp.StatusCode)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s response: %v", path, err)
		}
	}
}

func getBody(t *testing.T, server *httptest.Server, path string) []byte {
	t.Helper()
	resp, err := http.Get(server.URL + path)
	if err != nil {
		t.Fatalf("get %s: %v", path, err)
	}
	defer resp.Body.Close()
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return buf.Bytes()
}
