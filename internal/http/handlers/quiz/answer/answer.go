// Package answer реализует HTTP-обработчик ответа на текущий вопрос.
package answer

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/quiz-access-service/internal/http/middlewarectx"
	"github.com/magabrotheeeer/quiz-access-service/internal/http/response"
	"github.com/magabrotheeeer/quiz-access-service/internal/lib/sl"
	"github.com/magabrotheeeer/quiz-access-service/internal/models"
	quiz "github.com/magabrotheeeer/quiz-access-service/internal/services/quiz"
)

// Request — входные данные для ответа. Индекс передается указателем,
// чтобы отличать отсутствующее поле от нулевого варианта.
type Request struct {
	OptionIndex *int `json:"option_index" validate:"required"`
}

// Service описывает интерфейс ответа на вопрос.
type Service interface {
	Answer(username string, optionIndex int) (*models.Result, error)
}

// Handler управляет HTTP-запросами на ответ.
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
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Ответить на текущий вопрос
// @Description Фиксирует вариант ответа и возвращает результат. Повторный ответ не меняет результата.
// @Tags Quiz
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body Request true "Индекс выбранного варианта"
// @Success 200 {object} map[string]any "Результат ответа"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 404 {object} response.ErrorResponse "Нет активной сессии"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /quiz/answer [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.quiz.answer"

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

	result, err := h.service.Answer(username, *req.OptionIndex)
	if err != nil {
		if errors.Is(err, quiz.ErrNoActiveSession) || errors.Is(err, quiz.ErrSessionEvicted) {
			log.Warn("no active quiz session", slog.String("username", username))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("no active quiz session"))
			return
		}
		log.Error("failed to record answer", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to record answer"))
		return
	}

	render.JSON(w, r, response.StatusOKWithData(result))
}
