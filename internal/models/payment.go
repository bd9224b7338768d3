package models

import "time"

// Статусы платёжной заявки в журнале. Заявка создаётся в статусе pending;
// approve/reject переводит её в терминальный статус. Терминальные записи
// сохраняются для аудита, но из списка нерассмотренных исчезают.
const (
	RequestStatusPending  = "pending"
	RequestStatusApproved = "approved"
	RequestStatusRejected = "rejected"
)

// PaymentRequest — заявка на ручное подтверждение оплаты.
// Название и цена плана снимаются в момент подачи заявки: дальнейшее
// изменение или удаление плана на снимок не влияет.
type PaymentRequest struct {
	ID            int64      `json:"id"`                    // Порядковый идентификатор (возрастает с созданием)
	Username      string     `json:"username"`              // Имя пользователя, подавшего заявку
	PlanID        string     `json:"plan_id"`               // Идентификатор плана на момент подачи
	PlanName      string     `json:"plan_name"`             // Снимок названия плана
	Amount        int        `json:"amount"`                // Снимок цены плана
	TransactionID string     `json:"transaction_id"`        // Справочный номер перевода (UTR), не проверяется
	Screenshot    string     `json:"screenshot,omitempty"`  // Подтверждение оплаты (непрозрачная строка base64)
	Status        string     `json:"status"`                // pending | approved | rejected
	CreatedAt     time.Time  `json:"created_at"`            // Момент подачи заявки
	ResolvedAt    *time.Time `json:"resolved_at,omitempty"` // Момент рассмотрения (nil, пока заявка не рассмотрена)
}

// DummyPaymentRequest используется для приёма заявки из JSON-запроса
// до валидации. Имя пользователя берётся из контекста сессии, не из тела.
type DummyPaymentRequest struct {
	PlanID        string `json:"plan_id" validate:"required"`
	TransactionID string `json:"transaction_id" validate:"required"`
	Screenshot    string `json:"screenshot,omitempty"`
}
