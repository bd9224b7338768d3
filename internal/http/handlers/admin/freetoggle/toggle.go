// Package freetoggle реализует HTTP-обработчик переключения бесплатного
// доступа пользователя.
package freetoggle

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/quiz-access-service/internal/http/response"
	"github.com/magabrotheeeer/quiz-access-service/internal/lib/sl"
	"github.com/magabrotheeeer/quiz-access-service/internal/models"
	admin "github.com/magabrotheeeer/quiz-access-service/internal/services/admin"
)

// Service описывает интерфейс переключения бесплатного доступа.
type Service interface {
	ToggleFreeAccess(ctx context.Context, username string) (*models.User, error)
}

// Handler управляет HTTP-запросами на переключение бесплатного доступа.
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
// @Summary Переключить бесплатный доступ
// @Description Включает или выключает флаг бесплатного доступа пользователя. Выданная ранее подписка не затрагивается.
// @Tags Admin
// @Produce  json
// @Security BearerAuth
// @Param username path string true "Имя пользователя"
// @Success 200 {object} models.UserView "Обновленный пользователь"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 403 {object} response.ErrorResponse "Требуются права администратора"
// @Failure 404 {object} response.ErrorResponse "Пользователь не найден"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /admin/users/{username}/free-toggle [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.freetoggle"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	username := chi.URLParam(r, "username")
	if username == "" {
		log.Error("username missing in url")
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid username"))
		return
	}

	user, err := h.service.ToggleFreeAccess(r.Context(), username)
	if err != nil {
		if errors.Is(err, admin.ErrUserNotFound) {
			log.Warn("user not found", slog.String("username", username))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("user not found"))
			return
		}
		log.Error("failed to toggle free access", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to toggle free access"))
		return
	}

	log.Info("free access toggled",
		slog.String("username", username), slog.Bool("is_free_user", user.IsFreeUser))
	render.JSON(w, r, response.StatusOKWithData(user.View()))
}
