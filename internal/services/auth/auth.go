// Package services содержит логику бизнес-уровня для работы с пользователями и аутентификацией.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/magabrotheeeer/quiz-access-service/internal/lib/jwt"
	"github.com/magabrotheeeer/quiz-access-service/internal/lib/password"
	"github.com/magabrotheeeer/quiz-access-service/internal/lib/sl"
	"github.com/magabrotheeeer/quiz-access-service/internal/models"
)

// Зарезервированная административная учетная запись. Вход с этими
// реквизитами — единственный способ получить административные права.
// Учетная запись живет в той же таблице users, это не отдельная сущность.
const (
	SentinelUsername = "$$owner$$sam$$"
	sentinelPassword = "7897979381276306"
)

// Ошибки, возвращаемые вызывающей стороне как типизированный результат.
var (
	// ErrUsernameTaken — имя занято (проверка без учета регистра).
	ErrUsernameTaken = errors.New("username already taken")
	// ErrInvalidCredentials — неверное имя или пароль. Намеренно не
	// различает "нет такого пользователя" и "неверный пароль", чтобы
	// не допускать перебор имен.
	ErrInvalidCredentials = errors.New("invalid username or password")
)

// UserRepository описывает контракт для работы с пользователями в базе данных.
type UserRepository interface {
	// CreateUser сохраняет нового пользователя и возвращает его UID.
	CreateUser(ctx context.Context, user models.User) (string, error)
	// UsernameExistsFold проверяет занятость имени без учета регистра.
	UsernameExistsFold(ctx context.Context, username string) (bool, error)
	// GetUserByUsername возвращает пользователя по точному имени или (nil, nil).
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	// UpdateSessionToken перезаписывает токен сессии пользователя.
	UpdateSessionToken(ctx context.Context, username string, token *string) error
}

// AuthService отвечает за регистрацию, вход и завершение сессии.
type AuthService struct {
	users    UserRepository
	jwtMaker jwt.Maker
	log      *slog.Logger
}

// NewAuthService создает новый экземпляр AuthService.
func NewAuthService(users UserRepository, jwtMaker jwt.Maker, log *slog.Logger) *AuthService {
	return &AuthService{
		users:    users,
		jwtMaker: jwtMaker,
		log:      log,
	}
}

// Register создает нового пользователя с хэшированием пароля.
// Возвращает ErrUsernameTaken, если имя занято (без учета регистра).
func (s *AuthService) Register(ctx context.Context, username, rawPassword string) (string, error) {
	const op = "auth.Register"

	taken, err := s.users.UsernameExistsFold(ctx, username)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if taken {
		return "", ErrUsernameTaken
	}

	hashed, err := password.GetHash(rawPassword)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	user := models.User{
		Username:      username,
		PasswordHash:  hashed,
		PaymentStatus: models.PaymentStatusNone,
	}
	uid, err := s.users.CreateUser(ctx, user)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("registered new user", slog.String("username", username))
	return uid, nil
}

// Login проверяет реквизиты и выдает токен сессии.
//
// Выданный токен безусловно перезаписывает сохраненный на записи
// пользователя: предыдущая сессия с этого момента считается устаревшей
// и будет вытеснена при ближайшей проверке. Возвращает токен и роль.
func (s *AuthService) Login(ctx context.Context, username, rawPassword string) (token, role string, err error) {
	const op = "auth.Login"

	if username == SentinelUsername && rawPassword == sentinelPassword {
		return s.loginSentinel(ctx)
	}

	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		return "", "", fmt.Errorf("%s: %w", op, err)
	}
	if user == nil {
		return "", "", ErrInvalidCredentials
	}
	if err := password.CompareHash(user.PasswordHash, rawPassword); err != nil {
		return "", "", ErrInvalidCredentials
	}

	token, err = s.jwtMaker.GenerateToken(user.Username, jwt.RoleUser)
	if err != nil {
		return "", "", fmt.Errorf("%s: %w", op, err)
	}
	if err = s.users.UpdateSessionToken(ctx, user.Username, &token); err != nil {
		return "", "", fmt.Errorf("%s: %w", op, err)
	}
	return token, jwt.RoleUser, nil
}

// loginSentinel обслуживает вход зарезервированной учетной записи:
// при первом входе лениво создает её запись с пожизненным бесплатным
// доступом, дальше — обычная ротация токена.
func (s *AuthService) loginSentinel(ctx context.Context) (token, role string, err error) {
	const op = "auth.loginSentinel"

	token, err = s.jwtMaker.GenerateToken(SentinelUsername, jwt.RoleAdmin)
	if err != nil {
		return "", "", fmt.Errorf("%s: %w", op, err)
	}

	user, err := s.users.GetUserByUsername(ctx, SentinelUsername)
	if err != nil {
		return "", "", fmt.Errorf("%s: %w", op, err)
	}
	if user == nil {
		hashed, err := password.GetHash(sentinelPassword)
		if err != nil {
			return "", "", fmt.Errorf("%s: %w", op, err)
		}
		_, err = s.users.CreateUser(ctx, models.User{
			Username:      SentinelUsername,
			PasswordHash:  hashed,
			SessionToken:  &token,
			IsFreeUser:    true,
			PaymentStatus: models.PaymentStatusNone,
		})
		if err != nil {
			return "", "", fmt.Errorf("%s: %w", op, err)
		}
		s.log.Info("sentinel account created on first login")
		return token, jwt.RoleAdmin, nil
	}

	if err = s.users.UpdateSessionToken(ctx, SentinelUsername, &token); err != nil {
		return "", "", fmt.Errorf("%s: %w", op, err)
	}
	return token, jwt.RoleAdmin, nil
}

// Logout сбрасывает сохраненный токен сессии пользователя.
func (s *AuthService) Logout(ctx context.Context, username string) error {
	const op = "auth.Logout"
	if err := s.users.UpdateSessionToken(ctx, username, nil); err != nil {
		s.log.Error("failed to clear session token", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ValidateToken проверяет JWT и возвращает имя пользователя и роль.
func (s *AuthService) ValidateToken(_ context.Context, token string) (username, role string, err error) {
	claims, err := s.jwtMaker.ParseToken(token)
	if err != nil {
		return "", "", err
	}
	return claims.Username, claims.Role, nil
}

// IsSentinel сообщает, является ли имя зарезервированной административной
// учетной записью. Сравнение точное, как и вся идентичность пользователей.
func IsSentinel(username string) bool {
	return username == SentinelUsername
}
