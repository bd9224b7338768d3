// Package freeusercreate реализует HTTP-обработчик создания пользователя
// с постоянным бесплатным доступом.
package freeusercreate

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/quiz-access-service/internal/http/response"
	"github.com/magabrotheeeer/quiz-access-service/internal/lib/sl"
	"github.com/magabrotheeeer/quiz-access-service/internal/lib/validation"
	"github.com/magabrotheeeer/quiz-access-service/internal/models"
	admin "github.com/magabrotheeeer/quiz-access-service/internal/services/admin"
)

// Request — входные данные для создания бесплатного пользователя.
// Правила состава реквизитов те же, что и при самостоятельной регистрации.
type Request struct {
	Username string `json:"username" validate:"required,logincreds"`
	Password string `json:"password" validate:"required,passcreds"`
}

// Service описывает интерфейс создания бесплатного пользователя.
type Service interface {
	CreateFreeUser(ctx context.Context, username, password string) (*models.User, error)
}

// Handler управляет HTTP-запросами на создание бесплатного пользователя.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validation.New(),
	}
}

// ServeHTTP godoc
// @Summary Создать бесплатного пользователя
// @Description Создает пользователя с постоянным бесплатным доступом к викторине.
// @Tags Admin
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body Request true "Реквизиты нового пользователя"
// @Success 200 {object} map[string]any "Пользователь создан"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 403 {object} response.ErrorResponse "Требуются права администратора"
// @Failure 409 {object} response.ErrorResponse "Имя занято"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /admin/users/free [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.freeusercreate"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	user, err := h.service.CreateFreeUser(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, admin.ErrUsernameTaken) {
			log.Warn("username already taken", slog.String("username", req.Username))
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error("username already taken"))
			return
		}
		log.Error("failed to create free user", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to create free user"))
		return
	}

	log.Info("free user created", slog.String("username", user.Username))
	render.JSON(w, r, response.StatusOKWithData(user.View()))
}
