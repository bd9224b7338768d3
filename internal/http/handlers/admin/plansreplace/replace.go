// Package plansreplace реализует HTTP-обработчик полной замены набора
// тарифных планов.
//
// Планы заменяются только целиком. Ранее выданные подписки продолжают
// действовать до своего срока независимо от судьбы плана.
package plansreplace

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/quiz-access-service/internal/http/response"
	"github.com/magabrotheeeer/quiz-access-service/internal/lib/sl"
	"github.com/magabrotheeeer/quiz-access-service/internal/models"
)

// Request — входные данные для замены планов.
type Request struct {
	Plans []models.DummyPlan `json:"plans" validate:"required,min=1,dive"`
}

// Service описывает интерфейс замены планов.
type Service interface {
	ReplacePlans(ctx context.Context, plans []models.Plan) error
}

// Handler управляет HTTP-запросами на замену планов.
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
// @Summary Заменить тарифные планы
// @Description Полностью заменяет набор планов переданным списком.
// @Tags Admin
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body Request true "Новый набор планов"
// @Success 200 {object} map[string]any "Планы заменены"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 403 {object} response.ErrorResponse "Требуются права администратора"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /admin/plans [put]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.plansreplace"

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

	plans := make([]models.Plan, 0, len(req.Plans))
	for _, p := range req.Plans {
		plans = append(plans, models.Plan{
			ID:           p.ID,
			Name:         p.Name,
			Price:        p.Price,
			DurationDays: p.DurationDays,
		})
	}

	if err := h.service.ReplacePlans(r.Context(), plans); err != nil {
		log.Error("failed to replace plans", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to replace plans"))
		return
	}

	log.Info("plans replaced", slog.Int("count", len(plans)))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"plans": plans,
	}))
}
