// Package services реализует сторожа единственной активной сессии.
//
// Сторож периодически сверяет токен, с которым пользователь вошел,
// с токеном, записанным в хранилище. Вход с другого устройства
// перезаписывает токен, после чего сторож вытесняет старую сессию.
package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/quiz-access-service/internal/lib/sl"
)

// DefaultInterval задает период сверки токена.
const DefaultInterval = 5 * time.Second

// TokenReader описывает чтение актуального токена сессии пользователя.
type TokenReader interface {
	SessionToken(ctx context.Context, username string) (*string, error)
}

// Guard следит за одной сессией одного пользователя.
type Guard struct {
	tokens   TokenReader
	username string
	token    string
	interval time.Duration
	onEvict  func()
	log      *slog.Logger
}

// NewGuard создает сторожа сессии. onEvict вызывается не более одного
// раза, когда сессия перестает быть актуальной. Нулевой interval
// заменяется на DefaultInterval.
func NewGuard(tokens TokenReader, username, token string, interval time.Duration,
	onEvict func(), log *slog.Logger) *Guard {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Guard{
		tokens:   tokens,
		username: username,
		token:    token,
		interval: interval,
		onEvict:  onEvict,
		log:      log,
	}
}

// Run крутит цикл сверки до отмены контекста или до вытеснения.
// После вызова onEvict цикл завершается.
func (g *Guard) Run(ctx context.Context) {
	ticker := time.NewTicker(g.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stale, err := g.check(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				g.log.Warn("session check failed",
					slog.String("username", g.username), sl.Err(err))
				continue
			}
			if stale {
				g.log.Info("session evicted by newer login",
					slog.String("username", g.username))
				g.onEvict()
				return
			}
		}
	}
}

// check возвращает true, если хранимый токен больше не совпадает с
// токеном этой сессии. Отсутствие токена тоже означает вытеснение.
func (g *Guard) check(ctx context.Context) (bool, error) {
	current, err := g.tokens.SessionToken(ctx, g.username)
	if err != nil {
		return false, err
	}
	if current == nil {
		return true, nil
	}
	return *current != g.token, nil
}
