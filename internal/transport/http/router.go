package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"battle-quiz-service/internal/app"
	"battle-quiz-service/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
)

type quizSummary struct {
	ID         string            `json:"id"`
	Title      string            `json:"title"`
	Subject    string            `json:"subject"`
	Difficulty domain.Difficulty `json:"difficulty"`
	Questions  int               `json:"questions"`
	XPReward   int               `json:"xpReward"`
	ItemReward string            `json:"itemReward,omitempty"`
}

// NewRouter wires the HTTP surface: health, quiz previews, the leaderboard and the battle socket.
func NewRouter(service *app.BattleService, quizzes app.QuizRepository, board *app.Leaderboard, log logrus.FieldLogger) http.Handler {
	ws := NewWSHandler(service, board, log)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(log))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	r.Get("/ws", ws.ServeWS)
	r.Get("/leaderboard", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, board.Snapshot())
	})
	r.Get("/quizzes/{quizID}", func(w http.ResponseWriter, r *http.Request) {
		quiz, err := quizzes.GetQuiz(r.Context(), chi.URLParam(r, "quizID"))
		if errors.Is(err, domain.ErrQuizNotFound) {
			writeJSON(w, http.StatusNotFound, errorPayload{Message: err.Error()})
			return
		}
		if err != nil {
			log.WithError(err).Error("Failed to load quiz")
			writeJSON(w, http.StatusInternalServerError, errorPayload{Message: "failed to load quiz"})
			return
		}
		writeJSON(w, http.StatusOK, quizSummary{
			ID:         quiz.ID,
			Title:      quiz.Title,
			Subject:    quiz.Subject,
			Difficulty: quiz.Difficulty,
			Questions:  len(quiz.Questions),
			XPReward:   quiz.XPReward,
			ItemReward: quiz.ItemReward,
		})
	})
	return r
}

// requestLogger does not wrap the ResponseWriter so websocket upgrades can hijack it.
func requestLogger(log logrus.FieldLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			log.WithFields(logrus.Fields{
				"method":     r.Method,
				"path":       r.URL.Path,
				"request_id": middleware.GetReqID(r.Context()),
				"duration":   time.Since(start),
			}).Debug("Request served")
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
