// Package next реализует HTTP-обработчик перехода к следующему вопросу.
package next

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/quiz-access-service/internal/http/middlewarectx"
	"github.com/magabrotheeeer/quiz-access-service/internal/http/response"
	"github.com/magabrotheeeer/quiz-access-service/internal/lib/sl"
	quiz "github.com/magabrotheeeer/quiz-access-service/internal/services/quiz"
)

// Service описывает интерфейс перехода к следующему вопросу.
type Service interface {
	Next(ctx context.Context, username string) (*quiz.State, error)
}

// Handler управляет HTTP-запросами на следующий вопрос.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Следующий вопрос
// @Description Переходит к следующему вопросу сессии практики.
// @Tags Quiz
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} map[string]any "Текущий вопрос"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 404 {object} response.ErrorResponse "Нет активной сессии"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /quiz/next [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.quiz.next"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	username, ok := r.Context().Value(middlewarectx.User).(string)
	if !ok || username == "" {
		log.Error("username missing in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("user identification missing"))
		return
	}

	state, err := h.service.Next(r.Context(), username)
	if err != nil {
		if errors.Is(err, quiz.ErrNoActiveSession) || errors.Is(err, quiz.ErrSessionEvicted) {
			log.Warn("no active quiz session", slog.String("username", username))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("no active quiz session"))
			return
		}
		log.Error("failed to advance quiz session", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to load next question"))
		return
	}

	render.JSON(w, r, response.StatusOKWithData(state))
}
