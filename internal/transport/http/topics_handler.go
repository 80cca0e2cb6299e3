package http

import (
	"encoding/json"
	"net/http"

	"studypal-quiz-service/internal/app"
)

// TopicsHandler exposes the topic unlock board: the dashboard reads it with
// GET and seeds it with POST after the analysis step extracts topic names.
type TopicsHandler struct {
	service *app.QuizService
}

func NewTopicsHandler(service *app.QuizService) *TopicsHandler {
	return &TopicsHandler{service: service}
}

type initTopicsRequest struct {
	Topics []string `json:"topics"`
}

func (h *TopicsHandler) ServeTopics(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, h.service.Topics(r.Context()))
	case http.MethodPost:
		var req initTopicsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Topics) == 0 {
			http.Error(w, "expected non-empty topics list", http.StatusBadRequest)
			return
		}
		writeJSON(w, http.StatusOK, h.service.InitTopics(r.Context(), req.Topics))
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
