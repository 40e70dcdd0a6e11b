package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"quiz-engine/internal/app"
	"quiz-engine/internal/domain"
	"quiz-engine/internal/metrics"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// NewRouter wires health, metrics, the quiz catalogue and the play socket.
func NewRouter(service *app.QuizService, logger *zap.Logger, defaultQuiz string) http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer, metrics.Middleware)

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	router.Handle("/metrics", metrics.Handler())

	router.Get("/quizzes/{id}", func(w http.ResponseWriter, r *http.Request) {
		quiz, err := service.Quiz(r.Context(), chi.URLParam(r, "id"))
		switch {
		case errors.Is(err, domain.ErrQuizNotFound):
			writeJSON(w, http.StatusNotFound, errorPayload{Message: err.Error()})
			return
		case err != nil:
			logger.Error("load quiz failed", zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, errorPayload{Message: "failed to load quiz"})
			return
		}
		writeJSON(w, http.StatusOK, quiz.Summary())
	})

	router.Get("/ws", NewWSHandler(service, logger, defaultQuiz).ServeWS)
	return router
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
