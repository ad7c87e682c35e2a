package http

import (
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"quizshare-service/internal/app"
)

// FeedHandler streams completed-attempt results for a quiz over a websocket,
// so an author can watch submissions land on their dashboard.
type FeedHandler struct {
	service  *app.Service
	upgrader websocket.Upgrader
}

func NewFeedHandler(service *app.Service) *FeedHandler {
	return &FeedHandler{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type outboundMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// ServeWS upgrades the request and forwards feed updates until the client
// disconnects. The connection is outbound-only; inbound frames are read solely
// to detect the close.
func (h *FeedHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	quizID := r.URL.Query().Get("quizId")
	if quizID == "" {
		http.Error(w, "missing quizId", http.StatusBadRequest)
		return
	}
	if _, _, err := h.service.GetQuiz(r.Context(), quizID); err != nil {
		writeServiceError(w, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	updates, cancel := h.service.SubscribeResults(r.Context(), quizID)
	defer cancel()

	// Confirm the subscription so clients know the stream is live before any
	// completion they trigger themselves.
	if err := conn.WriteJSON(outboundMessage{Type: "subscribed", Payload: quizID}); err != nil {
		return
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case result, ok := <-updates:
			if !ok {
				return
			}
			if err := conn.WriteJSON(outboundMessage{Type: "result", Payload: result}); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		case <-done:
			return
		}
	}
}
