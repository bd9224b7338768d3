// Package models содержит доменные структуры сервиса доступа к викторине:
// пользователи, тарифные планы, платёжные заявки и вопросы.
// Структуры используются в бизнес‑логике и при работе с хранилищем.
package models

import "time"

// Статусы платежа пользователя. Статус хранится на записи пользователя,
// а не на заявке: результат рассмотрения заявки фиксируется именно здесь.
const (
	PaymentStatusNone     = "none"
	PaymentStatusPending  = "pending"
	PaymentStatusApproved = "approved"
	PaymentStatusRejected = "rejected"
)

// User представляет учётную запись пользователя системы.
// Администратор — это тоже User с зарезервированным именем,
// а не отдельная сущность.
type User struct {
	UID           string     // Уникальный идентификатор пользователя
	Username      string     // Имя пользователя (уникальное, регистрозависимое)
	PasswordHash  string     // Хэш пароля пользователя
	SessionToken  *string    // Последний выданный токен сессии (nil, если сессии нет)
	IsFreeUser    bool       // Пожизненный бесплатный доступ, перекрывает подписку
	PaymentStatus string     // none | pending | approved | rejected
	Subscription  *Grant     // Активная подписка (nil, если не выдавалась)
	CreatedAt     time.Time  // Дата регистрации
}

// Grant — выданная подписка: план и абсолютный момент истечения.
// План хранится только по идентификатору и после выдачи не разыменовывается,
// поэтому удаление плана не отзывает уже выданные подписки.
type Grant struct {
	PlanID    string    // Идентификатор плана на момент одобрения
	ExpiresAt time.Time // Момент истечения подписки
}

// UserView — представление пользователя для слоя выдачи:
// без хэша пароля и токена сессии.
type UserView struct {
	Username      string     `json:"username"`
	IsFreeUser    bool       `json:"is_free_user"`
	PaymentStatus string     `json:"payment_status"`
	PlanID        string     `json:"plan_id,omitempty"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
}

// View возвращает безопасное для выдачи представление пользователя.
func (u *User) View() UserView {
	v := UserView{
		Username:      u.Username,
		IsFreeUser:    u.IsFreeUser,
		PaymentStatus: u.PaymentStatus,
	}
	if u.Subscription != nil {
		v.PlanID = u.Subscription.PlanID
		expiresAt := u.Subscription.ExpiresAt
		v.ExpiresAt = &expiresAt
	}
	return v
}
