// Package logout реализует HTTP-обработчик завершения сессии.
package logout

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/quiz-access-service/internal/http/middlewarectx"
	"github.com/magabrotheeeer/quiz-access-service/internal/http/response"
	"github.com/magabrotheeeer/quiz-access-service/internal/lib/sl"
)

// Service описывает интерфейс бизнес-логики завершения сессии.
type Service interface {
	Logout(ctx context.Context, username string) error
}

// QuizStopper завершает активную сессию практики при выходе.
type QuizStopper interface {
	Stop(username string)
}

// Handler управляет HTTP-запросами на выход.
type Handler struct {
	log     *slog.Logger
	service Service
	quiz    QuizStopper
}

// New создает новый Handler с переданными логгером и сервисами.
func New(log *slog.Logger, service Service, quiz QuizStopper) *Handler {
	return &Handler{
		log:     log,
		service: service,
		quiz:    quiz,
	}
}

// ServeHTTP godoc
// @Summary Выйти из системы
// @Description Сбрасывает токен сессии и останавливает активную сессию практики.
// @Tags Auth
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} map[string]any "Сессия завершена"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /logout [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.logout"

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

	if err := h.service.Logout(r.Context(), username); err != nil {
		log.Error("logout failed", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to logout"))
		return
	}
	h.quiz.Stop(username)

	log.Info("user logged out", slog.String("username", username))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"message": "logged out",
	}))
}
