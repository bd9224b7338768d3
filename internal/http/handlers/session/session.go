// Package session реализует HTTP-обработчик снимка состояния сессии.
//
// Снимок — производное представление: допуск к викторине пересчитывается
// из записи пользователя на каждый запрос и нигде не хранится.
package session

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/quiz-access-service/internal/http/middlewarectx"
	"github.com/magabrotheeeer/quiz-access-service/internal/http/response"
	"github.com/magabrotheeeer/quiz-access-service/internal/lib/sl"
	"github.com/magabrotheeeer/quiz-access-service/internal/models"
	entitlement "github.com/magabrotheeeer/quiz-access-service/internal/services/entitlement"
)

// UserProvider описывает чтение записи пользователя.
type UserProvider interface {
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
}

// Handler управляет HTTP-запросами на снимок сессии.
type Handler struct {
	log   *slog.Logger
	users UserProvider
}

// New создает новый Handler с переданными логгером и хранилищем.
func New(log *slog.Logger, users UserProvider) *Handler {
	return &Handler{
		log:   log,
		users: users,
	}
}

// ServeHTTP godoc
// @Summary Снимок состояния сессии
// @Description Возвращает аутентификацию, допуск к викторине, роль и представление пользователя.
// @Tags Session
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} map[string]any "Снимок сессии"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /session [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.session"

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
	role, _ := r.Context().Value(middlewarectx.Role).(string)

	user, err := h.users.GetUserByUsername(r.Context(), username)
	if err != nil {
		log.Error("failed to read user", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal service error"))
		return
	}
	if user == nil {
		log.Error("authenticated user not found", slog.String("username", username))
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("user not found"))
		return
	}

	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"is_authenticated": true,
		"is_admin":         role == "admin",
		"is_entitled":      entitlement.Evaluate(user, time.Now().UTC()),
		"user":             user.View(),
	}))
}
