// Package jwt реализует генерацию и парсинг JWT токенов с пользовательскими claim полями.
//
// Maker определяет интерфейс для создания и проверки токенов сессии с username и role.
// MakerImpl — конкретная реализация с использованием секретного ключа и срока жизни.
//
// Подписанная строка токена одновременно служит непрозрачным токеном сессии:
// она сохраняется на записи пользователя, и при входе с другого устройства
// перезаписывается — так обеспечивается единственная активная сессия.
package jwt

import (
	"time"
)

// Roles, допустимые в claim поле role.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Maker описывает интерфейс для генерации и парсинга JWT токенов.
type Maker interface {
	// GenerateToken создает токен с указанием username и роли.
	GenerateToken(username, role string) (string, error)
	// ParseToken возвращает *CustomClaims с username и role.
	ParseToken(tokenStr string) (*CustomClaims, error)
}

// MakerImpl реализует интерфейс Maker с использованием секретного ключа
// и времени жизни токена (TTL).
type MakerImpl struct {
	secretKey string        // Секретный ключ для подписи токенов.
	tokenTTL  time.Duration // Время жизни токена.
}

// NewJWTMaker создаёт новый экземпляр MakerImpl на основе секретного ключа и TTL.
func NewJWTMaker(secretKey string, ttl time.Duration) *MakerImpl {
	return &MakerImpl{
		secretKey: secretKey,
		tokenTTL:  ttl,
	}
}
