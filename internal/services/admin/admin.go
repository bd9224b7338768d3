// Package services реализует административные операции: управление
// планами подписки, бесплатным доступом и списком пользователей.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/quiz-access-service/internal/lib/password"
	"github.com/magabrotheeeer/quiz-access-service/internal/lib/sl"
	"github.com/magabrotheeeer/quiz-access-service/internal/models"
)

// ErrUserNotFound возвращается, когда операция адресует несуществующего
// пользователя.
var ErrUserNotFound = errors.New("user not found")

// ErrUsernameTaken возвращается при создании пользователя с занятым
// именем, сравнение без учета регистра.
var ErrUsernameTaken = errors.New("username already taken")

// UserRepository описывает операции над пользователями для
// административной поверхности.
type UserRepository interface {
	CreateUser(ctx context.Context, user models.User) (string, error)
	UsernameExistsFold(ctx context.Context, username string) (bool, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	ListUsers(ctx context.Context, excludeUsername string) ([]*models.User, error)
	UpdateFreeAccess(ctx context.Context, username string, isFree bool, paymentStatus string) error
}

// PlanRepository описывает хранение планов подписки.
type PlanRepository interface {
	ListPlans(ctx context.Context) ([]models.Plan, error)
	ReplacePlans(ctx context.Context, plans []models.Plan) error
}

// PlanCache описывает кеш списка планов.
type PlanCache interface {
	Get(key string, result any) (bool, error)
	Set(key string, value any, expiration time.Duration) error
	Invalidate(key string) error
}

const (
	plansCacheKey = "plans"
	plansCacheTTL = 10 * time.Minute
)

// AdminService реализует операции, доступные только администратору.
type AdminService struct {
	users         UserRepository
	plans         PlanRepository
	cache         PlanCache
	adminUsername string
	log           *slog.Logger
}

// NewAdminService создает административный сервис. adminUsername
// исключается из пользовательских списков.
func NewAdminService(users UserRepository, plans PlanRepository, cache PlanCache,
	adminUsername string, log *slog.Logger) *AdminService {
	return &AdminService{
		users:         users,
		plans:         plans,
		cache:         cache,
		adminUsername: adminUsername,
		log:           log,
	}
}

// ListPlans возвращает текущие планы подписки, по возможности из кеша.
func (s *AdminService) ListPlans(ctx context.Context) ([]models.Plan, error) {
	const op = "services.AdminService.ListPlans"

	if s.cache != nil {
		var cached []models.Plan
		found, err := s.cache.Get(plansCacheKey, &cached)
		if err != nil {
			s.log.Warn("failed to read plans cache", sl.Err(err))
		}
		if found {
			return cached, nil
		}
	}

	plans, err := s.plans.ListPlans(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if s.cache != nil {
		if err := s.cache.Set(plansCacheKey, plans, plansCacheTTL); err != nil {
			s.log.Warn("failed to cache plans", sl.Err(err))
		}
	}
	return plans, nil
}

// ReplacePlans полностью заменяет набор планов новым списком. Ранее
// выданные подписки продолжают действовать до своего срока даже после
// удаления плана, по которому они были выданы.
func (s *AdminService) ReplacePlans(ctx context.Context, plans []models.Plan) error {
	const op = "services.AdminService.ReplacePlans"

	if err := s.plans.ReplacePlans(ctx, plans); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if s.cache != nil {
		if err := s.cache.Invalidate(plansCacheKey); err != nil {
			s.log.Warn("failed to invalidate plans cache", sl.Err(err))
		}
	}
	return nil
}

// CreateFreeUser создает пользователя с постоянным бесплатным доступом.
func (s *AdminService) CreateFreeUser(ctx context.Context, username, rawPassword string) (*models.User, error) {
	const op = "services.AdminService.CreateFreeUser"

	taken, err := s.users.UsernameExistsFold(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if taken {
		return nil, fmt.Errorf("%s: %w", op, ErrUsernameTaken)
	}

	hash, err := password.GetHash(rawPassword)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	user := models.User{
		Username:      username,
		PasswordHash:  hash,
		IsFreeUser:    true,
		PaymentStatus: models.PaymentStatusApproved,
		CreatedAt:     time.Now().UTC(),
	}
	uid, err := s.users.CreateUser(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	user.UID = uid
	return &user, nil
}

// ToggleFreeAccess переключает флаг бесплатного доступа. При выдаче
// статус оплаты становится approved, при снятии сбрасывается в none.
// Подписка пользователя не затрагивается: если она еще не истекла,
// доступ сохранится и после снятия флага.
func (s *AdminService) ToggleFreeAccess(ctx context.Context, username string) (*models.User, error) {
	const op = "services.AdminService.ToggleFreeAccess"

	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if user == nil {
		return nil, fmt.Errorf("%s: %w", op, ErrUserNotFound)
	}

	isFree := !user.IsFreeUser
	status := models.PaymentStatusNone
	if isFree {
		status = models.PaymentStatusApproved
	}
	if err := s.users.UpdateFreeAccess(ctx, username, isFree, status); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	user.IsFreeUser = isFree
	user.PaymentStatus = status
	return user, nil
}

// ListUsers возвращает всех пользователей кроме администратора.
func (s *AdminService) ListUsers(ctx context.Context) ([]*models.User, error) {
	const op = "services.AdminService.ListUsers"

	users, err := s.users.ListUsers(ctx, s.adminUsername)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return users, nil
}
