// Package paymentlist реализует HTTP-обработчик списка нерассмотренных
// платёжных заявок для администратора.
package paymentlist

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/quiz-access-service/internal/http/response"
	"github.com/magabrotheeeer/quiz-access-service/internal/lib/sl"
	"github.com/magabrotheeeer/quiz-access-service/internal/models"
)

// Service описывает интерфейс журнала заявок.
type Service interface {
	ListPending(ctx context.Context) ([]*models.PaymentRequest, error)
}

// Handler управляет HTTP-запросами на список заявок.
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
// @Summary Список нерассмотренных заявок
// @Description Возвращает платёжные заявки в ожидании решения, в порядке подачи.
// @Tags Admin
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} map[string]any "Список заявок"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 403 {object} response.ErrorResponse "Требуются права администратора"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /admin/payments [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.paymentlist"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	requests, err := h.service.ListPending(r.Context())
	if err != nil {
		log.Error("failed to list payment requests", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to list payment requests"))
		return
	}

	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"requests": requests,
	}))
}
