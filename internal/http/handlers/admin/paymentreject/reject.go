// Package paymentreject реализует HTTP-обработчик отклонения платёжной
// заявки администратором.
package paymentreject

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/quiz-access-service/internal/http/response"
	"github.com/magabrotheeeer/quiz-access-service/internal/lib/sl"
	payment "github.com/magabrotheeeer/quiz-access-service/internal/services/payment"
)

// Service описывает интерфейс решения заявки.
type Service interface {
	Reject(ctx context.Context, requestID int64) error
}

// Handler управляет HTTP-запросами на отклонение заявки.
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
// @Summary Отклонить платёжную заявку
// @Description Отклоняет заявку; пользователь переходит в статус rejected, подписка не выдается.
// @Tags Admin
// @Produce  json
// @Security BearerAuth
// @Param id path int true "Идентификатор заявки"
// @Success 200 {object} map[string]any "Заявка отклонена"
// @Failure 400 {object} response.ErrorResponse "Некорректный идентификатор"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 403 {object} response.ErrorResponse "Требуются права администратора"
// @Failure 409 {object} response.ErrorResponse "Заявка уже рассмотрена"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /admin/payments/{id}/reject [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.paymentreject"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		log.Error("invalid id format", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid id"))
		return
	}

	if err := h.service.Reject(r.Context(), id); err != nil {
		if errors.Is(err, payment.ErrRequestNotPending) {
			log.Warn("request is not pending", slog.Int64("id", id))
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error("payment request is not pending"))
			return
		}
		log.Error("failed to reject payment request", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to reject payment request"))
		return
	}

	log.Info("payment request rejected", slog.Int64("id", id))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"id":      id,
		"message": "payment request rejected",
	}))
}
