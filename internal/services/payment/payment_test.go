package services

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/quiz-access-service/internal/models"
)

type RequestRepositoryMock struct {
	mock.Mock
}

func (m *RequestRepositoryMock) CreatePaymentRequest(ctx context.Context, req models.PaymentRequest) (int64, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(int64), args.Error(1)
}

func (m *RequestRepositoryMock) GetPendingRequest(ctx context.Context, id int64) (*models.PaymentRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PaymentRequest), args.Error(1)
}

func (m *RequestRepositoryMock) ListPendingRequests(ctx context.Context) ([]*models.PaymentRequest, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.PaymentRequest), args.Error(1)
}

func (m *RequestRepositoryMock) ResolveRequest(ctx context.Context, id int64, status string, resolvedAt time.Time) (int, error) {
	args := m.Called(ctx, id, status, resolvedAt)
	return args.Int(0), args.Error(1)
}

type UserRepositoryMock struct {
	mock.Mock
}

func (m *UserRepositoryMock) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *UserRepositoryMock) UpdatePaymentStatus(ctx context.Context, username, status string) error {
	args := m.Called(ctx, username, status)
	return args.Error(0)
}

func (m *UserRepositoryMock) GrantSubscription(ctx context.Context, username, planID string, expiresAt time.Time) error {
	args := m.Called(ctx, username, planID, expiresAt)
	return args.Error(0)
}

type PlanRepositoryMock struct {
	mock.Mock
}

func (m *PlanRepositoryMock) GetPlan(ctx context.Context, id string) (*models.Plan, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Plan), args.Error(1)
}

type PublisherMock struct {
	mock.Mock
}

func (m *PublisherMock) Publish(routingkey string, message any) error {
	args := m.Called(routingkey, message)
	return args.Error(0)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var yearPlan = &models.Plan{ID: "1", Name: "All Subjects - 1 Year", Price: 50, DurationDays: 365}

func TestSubmit(t *testing.T) {
	ctx := context.Background()
	requests := new(RequestRepositoryMock)
	users := new(UserRepositoryMock)
	plans := new(PlanRepositoryMock)
	svc := NewPaymentService(requests, users, plans, nil, discardLogger())

	plans.On("GetPlan", ctx, "1").Return(yearPlan, nil)
	requests.On("CreatePaymentRequest", ctx, mock.MatchedBy(func(r models.PaymentRequest) bool {
		return r.Username == "alice123" && r.PlanID == "1" &&
			r.PlanName == "All Subjects - 1 Year" && r.Amount == 50 &&
			r.TransactionID == "UTR001" && r.Status == models.RequestStatusPending
	})).Return(int64(7), nil)
	users.On("UpdatePaymentStatus", ctx, "alice123", models.PaymentStatusPending).Return(nil)

	req, err := svc.Submit(ctx, "alice123", "1", "UTR001", "")
	require.NoError(t, err)
	assert.Equal(t, int64(7), req.ID)
	assert.Equal(t, 50, req.Amount)
	requests.AssertExpectations(t)
	users.AssertExpectations(t)
}

func TestSubmitUnknownPlan(t *testing.T) {
	ctx := context.Background()
	requests := new(RequestRepositoryMock)
	users := new(UserRepositoryMock)
	plans := new(PlanRepositoryMock)
	svc := NewPaymentService(requests, users, plans, nil, discardLogger())

	plans.On("GetPlan", ctx, "99").Return(nil, nil)

	_, err := svc.Submit(ctx, "alice123", "99", "UTR001", "")
	assert.ErrorIs(t, err, ErrPlanNotFound)
	requests.AssertNotCalled(t, "CreatePaymentRequest", mock.Anything, mock.Anything)
}

func TestApproveGrantsFromApprovalTime(t *testing.T) {
	ctx := context.Background()
	requests := new(RequestRepositoryMock)
	users := new(UserRepositoryMock)
	plans := new(PlanRepositoryMock)
	publisher := new(PublisherMock)
	svc := NewPaymentService(requests, users, plans, publisher, discardLogger())

	// Заявка подана значительно раньше момента одобрения.
	submitted := time.Now().UTC().Add(-72 * time.Hour)
	req := &models.PaymentRequest{
		ID: 7, Username: "alice123", PlanID: "1",
		Status: models.RequestStatusPending, CreatedAt: submitted,
	}
	requests.On("GetPendingRequest", ctx, int64(7)).Return(req, nil)
	requests.On("ResolveRequest", ctx, int64(7), models.RequestStatusApproved, mock.Anything).
		Return(1, nil)
	plans.On("GetPlan", ctx, "1").Return(yearPlan, nil)

	before := time.Now().UTC().Add(365 * 24 * time.Hour)
	users.On("GrantSubscription", ctx, "alice123", "1", mock.MatchedBy(func(exp time.Time) bool {
		// Срок отсчитан от одобрения, не от подачи.
		return !exp.Before(before) && exp.Before(before.Add(time.Minute))
	})).Return(nil)
	publisher.On("Publish", "payment.approved", req).Return(nil)

	require.NoError(t, svc.Approve(ctx, 7))
	users.AssertExpectations(t)
	publisher.AssertExpectations(t)
}

func TestReject(t *testing.T) {
	ctx := context.Background()
	requests := new(RequestRepositoryMock)
	users := new(UserRepositoryMock)
	plans := new(PlanRepositoryMock)
	publisher := new(PublisherMock)
	svc := NewPaymentService(requests, users, plans, publisher, discardLogger())

	req := &models.PaymentRequest{
		ID: 8, Username: "bob4567", PlanID: "2",
		Status: models.RequestStatusPending,
	}
	requests.On("GetPendingRequest", ctx, int64(8)).Return(req, nil)
	requests.On("ResolveRequest", ctx, int64(8), models.RequestStatusRejected, mock.Anything).
		Return(1, nil)
	users.On("UpdatePaymentStatus", ctx, "bob4567", models.PaymentStatusRejected).Return(nil)
	publisher.On("Publish", "payment.rejected", req).Return(nil)

	require.NoError(t, svc.Reject(ctx, 8))
	users.AssertExpectations(t)
	publisher.AssertExpectations(t)
}

func TestResolveAlreadyResolved(t *testing.T) {
	ctx := context.Background()
	requests := new(RequestRepositoryMock)
	users := new(UserRepositoryMock)
	plans := new(PlanRepositoryMock)
	svc := NewPaymentService(requests, users, plans, nil, discardLogger())

	// Заявки с таким id среди нерешенных нет: либо ее не было,
	// либо по ней уже принято решение.
	requests.On("GetPendingRequest", ctx, int64(7)).Return(nil, nil)

	assert.ErrorIs(t, svc.Approve(ctx, 7), ErrRequestNotPending)
	assert.ErrorIs(t, svc.Reject(ctx, 7), ErrRequestNotPending)
	users.AssertNotCalled(t, "GrantSubscription", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	users.AssertNotCalled(t, "UpdatePaymentStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestResolveLostRace(t *testing.T) {
	ctx := context.Background()
	requests := new(RequestRepositoryMock)
	users := new(UserRepositoryMock)
	plans := new(PlanRepositoryMock)
	svc := NewPaymentService(requests, users, plans, nil, discardLogger())

	req := &models.PaymentRequest{ID: 7, Username: "alice123", PlanID: "1",
		Status: models.RequestStatusPending}
	requests.On("GetPendingRequest", ctx, int64(7)).Return(req, nil)
	plans.On("GetPlan", ctx, "1").Return(yearPlan, nil)
	// Между чтением и решением заявку успел решить кто-то другой.
	requests.On("ResolveRequest", ctx, int64(7), models.RequestStatusApproved, mock.Anything).
		Return(0, nil)

	assert.ErrorIs(t, svc.Approve(ctx, 7), ErrRequestNotPending)
	users.AssertNotCalled(t, "GrantSubscription", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestApproveDeletedPlanLeavesRequestPending(t *testing.T) {
	ctx := context.Background()
	requests := new(RequestRepositoryMock)
	users := new(UserRepositoryMock)
	plans := new(PlanRepositoryMock)
	svc := NewPaymentService(requests, users, plans, nil, discardLogger())

	// План удален администратором уже после подачи заявки.
	req := &models.PaymentRequest{ID: 7, Username: "alice123", PlanID: "1",
		Status: models.RequestStatusPending}
	requests.On("GetPendingRequest", ctx, int64(7)).Return(req, nil)
	plans.On("GetPlan", ctx, "1").Return(nil, nil)

	assert.ErrorIs(t, svc.Approve(ctx, 7), ErrPlanNotFound)
	// Заявка остается нерассмотренной, запись пользователя не тронута.
	requests.AssertNotCalled(t, "ResolveRequest",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	users.AssertNotCalled(t, "GrantSubscription",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	users.AssertNotCalled(t, "UpdatePaymentStatus",
		mock.Anything, mock.Anything, mock.Anything)
}

func TestPublisherFailureDoesNotFailResolution(t *testing.T) {
	ctx := context.Background()
	requests := new(RequestRepositoryMock)
	users := new(UserRepositoryMock)
	plans := new(PlanRepositoryMock)
	publisher := new(PublisherMock)
	svc := NewPaymentService(requests, users, plans, publisher, discardLogger())

	req := &models.PaymentRequest{ID: 9, Username: "alice123", PlanID: "1",
		Status: models.RequestStatusPending}
	requests.On("GetPendingRequest", ctx, int64(9)).Return(req, nil)
	requests.On("ResolveRequest", ctx, int64(9), models.RequestStatusApproved, mock.Anything).
		Return(1, nil)
	plans.On("GetPlan", ctx, "1").Return(yearPlan, nil)
	users.On("GrantSubscription", ctx, "alice123", "1", mock.Anything).Return(nil)
	publisher.On("Publish", "payment.approved", req).Return(assert.AnError)

	assert.NoError(t, svc.Approve(ctx, 9))
}
