// Package middlewarectx содержит HTTP middleware для проверки JWT токенов
// и прав доступа.
//
// JWTMiddleware проверяет наличие и валидность JWT токена в заголовке
// Authorization и сверяет его с хранимым токеном сессии: после входа
// с другого устройства старый токен перестает приниматься, даже если
// его подпись и срок действия все еще корректны. В случае успеха в
// контекст запроса добавляются имя пользователя и роль.
package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/quiz-access-service/internal/http/response"
	"github.com/magabrotheeeer/quiz-access-service/internal/lib/sl"
)

// Key тип для ключей контекста HTTP-запроса.
type Key string

const (
	// User — ключ для имени пользователя в контексте
	User Key = "username"
	// Role — ключ для роли пользователя в контексте
	Role Key = "role"
	// Token — ключ для токена сессии в контексте
	Token Key = "token"
)

// JWTMiddleware возвращает HTTP middleware, который проверяет JWT в заголовке
// Authorization и актуальность сессии.
//
// Если токен валиден и совпадает с хранимым токеном сессии, добавляет имя
// пользователя, роль и токен в контекст запроса, иначе возвращает
// HTTP 401 Unauthorized.
func JWTMiddleware(auth AuthService, tokens SessionTokenReader, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.JWTMiddleware"

			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				log.Error("missing or invalid authorization header")
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("missing or invalid authorization header"))
				return
			}
			tokenStr := strings.TrimPrefix(authHeader, "Bearer ")

			username, role, err := auth.ValidateToken(r.Context(), tokenStr)
			if err != nil {
				log.Error("invalid or expired token", sl.Err(err))
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("invalid or expired token"))
				return
			}

			stored, err := tokens.SessionToken(r.Context(), username)
			if err != nil {
				log.Error("failed to read session token", sl.Err(err))
				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, response.Error("internal service error"))
				return
			}
			if stored == nil || *stored != tokenStr {
				log.Warn("session superseded by newer login",
					slog.String("username", username))
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("session is no longer active"))
				return
			}

			ctx := context.WithValue(r.Context(), User, username)
			ctx = context.WithValue(ctx, Role, role)
			ctx = context.WithValue(ctx, Token, tokenStr)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
