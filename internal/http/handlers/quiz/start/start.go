// Package start реализует HTTP-обработчик запуска сессии практики.
//
// Запуск доступен только допущенному пользователю: бесплатный доступ
// или действующая подписка. Первый вопрос возвращается сразу,
// следующие подгружаются в фоне.
package start

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/quiz-access-service/internal/http/middlewarectx"
	"github.com/magabrotheeeer/quiz-access-service/internal/http/response"
	"github.com/magabrotheeeer/quiz-access-service/internal/lib/sl"
	"github.com/magabrotheeeer/quiz-access-service/internal/models"
	entitlement "github.com/magabrotheeeer/quiz-access-service/internal/services/entitlement"
	quiz "github.com/magabrotheeeer/quiz-access-service/internal/services/quiz"
)

// Request — входные данные для запуска сессии практики.
type Request struct {
	Subject    string `json:"subject" validate:"required"`
	Mode       string `json:"mode" validate:"required"`
	Difficulty string `json:"difficulty,omitempty"`
}

// Service описывает интерфейс запуска сессии практики.
type Service interface {
	Start(ctx context.Context, username, token string, subject models.Subject,
		mode models.QuizMode, difficulty models.Difficulty) (*quiz.State, error)
}

// UserProvider описывает чтение записи пользователя для проверки допуска.
type UserProvider interface {
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
}

// Handler управляет HTTP-запросами на запуск сессии.
type Handler struct {
	log      *slog.Logger
	service  Service
	users    UserProvider
	validate *validator.Validate
}

// New создает новый Handler с переданными логгером, сервисом и хранилищем.
func New(log *slog.Logger, service Service, users UserProvider) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		users:    users,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Запустить сессию практики
// @Description Запускает сессию по предмету и режиму и возвращает первый вопрос. Требует допуска.
// @Tags Quiz
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body Request true "Параметры сессии"
// @Success 200 {object} map[string]any "Первый вопрос"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 403 {object} response.ErrorResponse "Нет допуска к викторине"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /quiz/start [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.quiz.start"

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
	token, _ := r.Context().Value(middlewarectx.Token).(string)

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

	subject, mode, difficulty, ok := parseParams(req)
	if !ok {
		log.Error("unsupported subject, mode or difficulty", slog.Any("request", req))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.Error("unsupported subject, mode or difficulty"))
		return
	}

	user, err := h.users.GetUserByUsername(r.Context(), username)
	if err != nil {
		log.Error("failed to read user", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal service error"))
		return
	}
	if !entitlement.Evaluate(user, time.Now().UTC()) {
		log.Warn("quiz access denied", slog.String("username", username))
		w.WriteHeader(http.StatusForbidden)
		render.JSON(w, r, response.Error("subscription required"))
		return
	}

	state, err := h.service.Start(r.Context(), username, token, subject, mode, difficulty)
	if err != nil {
		log.Error("failed to start quiz session", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to start quiz session"))
		return
	}

	log.Info("quiz session started",
		slog.String("username", username), slog.String("subject", string(subject)))
	render.JSON(w, r, response.StatusOKWithData(state))
}

// parseParams сопоставляет строковые параметры с доменными значениями.
func parseParams(req Request) (models.Subject, models.QuizMode, models.Difficulty, bool) {
	var subject models.Subject
	switch models.Subject(req.Subject) {
	case models.SubjectEnglish, models.SubjectGK, models.SubjectMaths, models.SubjectVocab:
		subject = models.Subject(req.Subject)
	default:
		return "", "", "", false
	}

	var mode models.QuizMode
	switch models.QuizMode(req.Mode) {
	case models.ModeQuiz, models.ModePYQ:
		mode = models.QuizMode(req.Mode)
	default:
		return "", "", "", false
	}

	// Сложность имеет смысл только для математики, по умолчанию moderate.
	var difficulty models.Difficulty
	if subject == models.SubjectMaths {
		switch models.Difficulty(req.Difficulty) {
		case models.DifficultyEasy, models.DifficultyModerate, models.DifficultyHard:
			difficulty = models.Difficulty(req.Difficulty)
		case "":
			difficulty = models.DifficultyModerate
		default:
			return "", "", "", false
		}
	}
	return subject, mode, difficulty, true
}
