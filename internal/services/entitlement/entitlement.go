// Package services содержит правило допуска сессии к викторине.
//
// Допуск — производное представление от записи пользователя и текущего
// времени; он нигде не хранится и пересчитывается при каждом обращении.
package services

import (
	"time"

	"github.com/magabrotheeeer/quiz-access-service/internal/models"
)

// Evaluate возвращает true, если сессия пользователя допущена к викторине.
//
// Правила в порядке применения: пользователя нет — не допущен;
// установлен флаг бесплатного доступа — допущен (подписка не проверяется);
// есть подписка и она не истекла к моменту now — допущен; иначе — нет.
func Evaluate(u *models.User, now time.Time) bool {
	if u == nil {
		return false
	}
	if u.IsFreeUser {
		return true
	}
	if u.Subscription != nil && u.Subscription.ExpiresAt.After(now) {
		return true
	}
	return false
}
