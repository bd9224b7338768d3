package middlewarectx

import (
	"context"
)

// AuthService описывает проверку JWT токена.
type AuthService interface {
	ValidateToken(ctx context.Context, token string) (username, role string, err error)
}

// SessionTokenReader описывает чтение актуального токена сессии.
type SessionTokenReader interface {
	SessionToken(ctx context.Context, username string) (*string, error)
}
