package services_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	customjwt "github.com/magabrotheeeer/quiz-access-service/internal/lib/jwt"
	"github.com/magabrotheeeer/quiz-access-service/internal/lib/password"
	"github.com/magabrotheeeer/quiz-access-service/internal/models"
	services "github.com/magabrotheeeer/quiz-access-service/internal/services/auth"
)

// Мок для UserRepository
type UserRepoMock struct {
	mock.Mock
}

func (m *UserRepoMock) CreateUser(ctx context.Context, user models.User) (string, error) {
	args := m.Called(ctx, user)
	return args.String(0), args.Error(1)
}

func (m *UserRepoMock) UsernameExistsFold(ctx context.Context, username string) (bool, error) {
	args := m.Called(ctx, username)
	return args.Bool(0), args.Error(1)
}

func (m *UserRepoMock) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *UserRepoMock) UpdateSessionToken(ctx context.Context, username string, token *string) error {
	args := m.Called(ctx, username, token)
	return args.Error(0)
}

// Мок для jwt.Maker
type JwtMakerMock struct {
	mock.Mock
}

func (m *JwtMakerMock) GenerateToken(username, role string) (string, error) {
	args := m.Called(username, role)
	return args.String(0), args.Error(1)
}

func (m *JwtMakerMock) ParseToken(token string) (*customjwt.CustomClaims, error) {
	args := m.Called(token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*customjwt.CustomClaims), args.Error(1)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestRegister(t *testing.T) {
	ctx := context.Background()
	users := new(UserRepoMock)
	maker := new(JwtMakerMock)
	svc := services.NewAuthService(users, maker, discardLogger())

	users.On("UsernameExistsFold", ctx, "sam123").Return(false, nil)
	users.On("CreateUser", ctx, mock.MatchedBy(func(user models.User) bool {
		return user.Username == "sam123" &&
			user.PasswordHash != "" &&
			user.PasswordHash != "abc123!" &&
			user.PaymentStatus == models.PaymentStatusNone
	})).Return("uid-1", nil)

	uid, err := svc.Register(ctx, "sam123", "abc123!")
	assert.NoError(t, err)
	assert.Equal(t, "uid-1", uid)
	users.AssertExpectations(t)
}

func TestRegisterUsernameTakenFold(t *testing.T) {
	ctx := context.Background()
	users := new(UserRepoMock)
	maker := new(JwtMakerMock)
	svc := services.NewAuthService(users, maker, discardLogger())

	users.On("UsernameExistsFold", ctx, "SAM123").Return(true, nil)

	_, err := svc.Register(ctx, "SAM123", "abc123!")
	assert.ErrorIs(t, err, services.ErrUsernameTaken)
	users.AssertNotCalled(t, "CreateUser", mock.Anything, mock.Anything)
}

func TestLoginRotatesSessionToken(t *testing.T) {
	ctx := context.Background()
	users := new(UserRepoMock)
	maker := new(JwtMakerMock)
	svc := services.NewAuthService(users, maker, discardLogger())

	hashed, err := password.GetHash("abc123!")
	assert.NoError(t, err)

	users.On("GetUserByUsername", ctx, "sam123").Return(&models.User{
		Username:     "sam123",
		PasswordHash: hashed,
	}, nil)
	maker.On("GenerateToken", "sam123", customjwt.RoleUser).Return("new-token", nil)
	users.On("UpdateSessionToken", ctx, "sam123", mock.MatchedBy(func(token *string) bool {
		return token != nil && *token == "new-token"
	})).Return(nil)

	token, role, err := svc.Login(ctx, "sam123", "abc123!")
	assert.NoError(t, err)
	assert.Equal(t, "new-token", token)
	assert.Equal(t, customjwt.RoleUser, role)
	users.AssertExpectations(t)
}

func TestLoginWrongPassword(t *testing.T) {
	ctx := context.Background()
	users := new(UserRepoMock)
	maker := new(JwtMakerMock)
	svc := services.NewAuthService(users, maker, discardLogger())

	hashed, err := password.GetHash("abc123!")
	assert.NoError(t, err)

	users.On("GetUserByUsername", ctx, "sam123").Return(&models.User{
		Username:     "sam123",
		PasswordHash: hashed,
	}, nil)

	_, _, err = svc.Login(ctx, "sam123", "wrong456!")
	assert.ErrorIs(t, err, services.ErrInvalidCredentials)
	users.AssertNotCalled(t, "UpdateSessionToken", mock.Anything, mock.Anything, mock.Anything)
}

func TestLoginUnknownUser(t *testing.T) {
	ctx := context.Background()
	users := new(UserRepoMock)
	maker := new(JwtMakerMock)
	svc := services.NewAuthService(users, maker, discardLogger())

	users.On("GetUserByUsername", ctx, "ghost99x").Return(nil, nil)

	_, _, err := svc.Login(ctx, "ghost99x", "abc123!")
	assert.ErrorIs(t, err, services.ErrInvalidCredentials)
}

func TestLoginSentinelFirstLoginCreatesAccount(t *testing.T) {
	ctx := context.Background()
	users := new(UserRepoMock)
	maker := new(JwtMakerMock)
	svc := services.NewAuthService(users, maker, discardLogger())

	maker.On("GenerateToken", services.SentinelUsername, customjwt.RoleAdmin).Return("admin-token", nil)
	users.On("GetUserByUsername", ctx, services.SentinelUsername).Return(nil, nil)
	users.On("CreateUser", ctx, mock.MatchedBy(func(user models.User) bool {
		return user.Username == services.SentinelUsername &&
			user.IsFreeUser &&
			user.SessionToken != nil && *user.SessionToken == "admin-token"
	})).Return("uid-admin", nil)

	token, role, err := svc.Login(ctx, services.SentinelUsername, "7897979381276306")
	assert.NoError(t, err)
	assert.Equal(t, "admin-token", token)
	assert.Equal(t, customjwt.RoleAdmin, role)
	users.AssertExpectations(t)
}

func TestLoginSentinelSecondLoginRotatesToken(t *testing.T) {
	ctx := context.Background()
	users := new(UserRepoMock)
	maker := new(JwtMakerMock)
	svc := services.NewAuthService(users, maker, discardLogger())

	maker.On("GenerateToken", services.SentinelUsername, customjwt.RoleAdmin).Return("admin-token-2", nil)
	users.On("GetUserByUsername", ctx, services.SentinelUsername).Return(&models.User{
		Username:   services.SentinelUsername,
		IsFreeUser: true,
	}, nil)
	users.On("UpdateSessionToken", ctx, services.SentinelUsername, mock.MatchedBy(func(token *string) bool {
		return token != nil && *token == "admin-token-2"
	})).Return(nil)

	_, role, err := svc.Login(ctx, services.SentinelUsername, "7897979381276306")
	assert.NoError(t, err)
	assert.Equal(t, customjwt.RoleAdmin, role)
	users.AssertNotCalled(t, "CreateUser", mock.Anything, mock.Anything)
}

func TestLoginSentinelWrongPasswordIsOrdinaryLogin(t *testing.T) {
	ctx := context.Background()
	users := new(UserRepoMock)
	maker := new(JwtMakerMock)
	svc := services.NewAuthService(users, maker, discardLogger())

	users.On("GetUserByUsername", ctx, services.SentinelUsername).Return(nil, nil)

	_, _, err := svc.Login(ctx, services.SentinelUsername, "wrong456!")
	assert.ErrorIs(t, err, services.ErrInvalidCredentials)
	maker.AssertNotCalled(t, "GenerateToken", mock.Anything, mock.Anything)
}

func TestLogoutClearsSessionToken(t *testing.T) {
	ctx := context.Background()
	users := new(UserRepoMock)
	maker := new(JwtMakerMock)
	svc := services.NewAuthService(users, maker, discardLogger())

	users.On("UpdateSessionToken", ctx, "sam123", (*string)(nil)).Return(nil)

	assert.NoError(t, svc.Logout(ctx, "sam123"))
	users.AssertExpectations(t)
}

func TestLogoutError(t *testing.T) {
	ctx := context.Background()
	users := new(UserRepoMock)
	maker := new(JwtMakerMock)
	svc := services.NewAuthService(users, maker, discardLogger())

	users.On("UpdateSessionToken", ctx, "sam123", (*string)(nil)).Return(errors.New("db error"))

	assert.Error(t, svc.Logout(ctx, "sam123"))
}
