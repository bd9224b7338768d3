// Package services реализует журнал заявок на оплату.
//
// Заявка проходит путь pending -> approved|rejected ровно один раз;
// конкурентные решения по одной заявке разрешаются на уровне хранилища.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/quiz-access-service/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/quiz-access-service/internal/lib/sl"
	"github.com/magabrotheeeer/quiz-access-service/internal/models"
)

// ErrRequestNotPending возвращается при попытке решить заявку,
// которой нет или которая уже решена.
var ErrRequestNotPending = errors.New("payment request is not pending")

// ErrPlanNotFound возвращается при подаче заявки на несуществующий план.
var ErrPlanNotFound = errors.New("plan not found")

// RequestRepository описывает операции журнала заявок в хранилище.
type RequestRepository interface {
	CreatePaymentRequest(ctx context.Context, req models.PaymentRequest) (int64, error)
	GetPendingRequest(ctx context.Context, id int64) (*models.PaymentRequest, error)
	ListPendingRequests(ctx context.Context) ([]*models.PaymentRequest, error)
	ResolveRequest(ctx context.Context, id int64, status string, resolvedAt time.Time) (int, error)
}

// UserRepository описывает операции над пользователями, нужные журналу.
type UserRepository interface {
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	UpdatePaymentStatus(ctx context.Context, username, status string) error
	GrantSubscription(ctx context.Context, username, planID string, expiresAt time.Time) error
}

// PlanRepository описывает чтение планов подписки.
type PlanRepository interface {
	GetPlan(ctx context.Context, id string) (*models.Plan, error)
}

// Publisher описывает отправку уведомлений о решениях по заявкам.
type Publisher interface {
	Publish(routingkey string, message any) error
}

// PaymentService реализует подачу и решение заявок на оплату.
type PaymentService struct {
	requests  RequestRepository
	users     UserRepository
	plans     PlanRepository
	publisher Publisher
	log       *slog.Logger
}

// NewPaymentService создает сервис журнала заявок.
func NewPaymentService(requests RequestRepository, users UserRepository,
	plans PlanRepository, publisher Publisher, log *slog.Logger) *PaymentService {
	return &PaymentService{
		requests:  requests,
		users:     users,
		plans:     plans,
		publisher: publisher,
		log:       log,
	}
}

// Submit регистрирует новую заявку на оплату и переводит пользователя
// в статус ожидания решения.
func (s *PaymentService) Submit(ctx context.Context, username, planID,
	transactionID, screenshot string) (*models.PaymentRequest, error) {
	const op = "services.PaymentService.Submit"

	plan, err := s.plans.GetPlan(ctx, planID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if plan == nil {
		return nil, fmt.Errorf("%s: %w", op, ErrPlanNotFound)
	}

	req := models.PaymentRequest{
		Username:      username,
		PlanID:        plan.ID,
		PlanName:      plan.Name,
		Amount:        plan.Price,
		TransactionID: transactionID,
		Screenshot:    screenshot,
		Status:        models.RequestStatusPending,
		CreatedAt:     time.Now().UTC(),
	}
	id, err := s.requests.CreatePaymentRequest(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	req.ID = id

	if err := s.users.UpdatePaymentStatus(ctx, username, models.PaymentStatusPending); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &req, nil
}

// ListPending возвращает все нерешенные заявки в порядке подачи.
func (s *PaymentService) ListPending(ctx context.Context) ([]*models.PaymentRequest, error) {
	const op = "services.PaymentService.ListPending"

	reqs, err := s.requests.ListPendingRequests(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return reqs, nil
}

// Approve решает заявку положительно: подписка выдается на срок плана,
// отсчитанный от момента одобрения, а не от момента подачи заявки.
// План проверяется до каких-либо записей: если он был удален после
// подачи заявки, заявка остается нерассмотренной.
func (s *PaymentService) Approve(ctx context.Context, requestID int64) error {
	const op = "services.PaymentService.Approve"

	req, err := s.requests.GetPendingRequest(ctx, requestID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if req == nil {
		return fmt.Errorf("%s: %w", op, ErrRequestNotPending)
	}

	plan, err := s.plans.GetPlan(ctx, req.PlanID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if plan == nil {
		s.log.Warn("plan deleted after submission, request left pending",
			slog.Int64("request_id", requestID), slog.String("plan_id", req.PlanID))
		return fmt.Errorf("%s: %w", op, ErrPlanNotFound)
	}

	if err := s.markResolved(ctx, requestID, models.RequestStatusApproved); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	expiresAt := time.Now().UTC().Add(time.Duration(plan.DurationDays) * 24 * time.Hour)
	if err := s.users.GrantSubscription(ctx, req.Username, plan.ID, expiresAt); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.notify(rabbitmq.RoutingKeyPaymentApproved, req)
	return nil
}

// Reject решает заявку отрицательно и сбрасывает статус пользователя.
func (s *PaymentService) Reject(ctx context.Context, requestID int64) error {
	const op = "services.PaymentService.Reject"

	req, err := s.resolve(ctx, requestID, models.RequestStatusRejected)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.users.UpdatePaymentStatus(ctx, req.Username, models.PaymentStatusRejected); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.notify(rabbitmq.RoutingKeyPaymentRejected, req)
	return nil
}

// resolve переводит заявку из pending в конечный статус и возвращает её.
func (s *PaymentService) resolve(ctx context.Context, requestID int64, status string) (*models.PaymentRequest, error) {
	req, err := s.requests.GetPendingRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, ErrRequestNotPending
	}
	if err := s.markResolved(ctx, requestID, status); err != nil {
		return nil, err
	}
	return req, nil
}

// markResolved закрывает нерассмотренную заявку. Гонка двух решений по
// одной заявке разрешается условием status='pending' в хранилище:
// побеждает ровно одно решение, второе получает ErrRequestNotPending.
func (s *PaymentService) markResolved(ctx context.Context, requestID int64, status string) error {
	affected, err := s.requests.ResolveRequest(ctx, requestID, status, time.Now().UTC())
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrRequestNotPending
	}
	return nil
}

// notify отправляет уведомление о решении. Отказ брокера не валит
// операцию, только пишется в лог.
func (s *PaymentService) notify(routingkey string, req *models.PaymentRequest) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(routingkey, req); err != nil {
		s.log.Error("failed to publish payment notification",
			slog.Int64("request_id", req.ID), sl.Err(err))
	}
}
