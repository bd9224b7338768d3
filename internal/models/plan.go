package models

// Plan представляет тарифный план подписки. Планы изменяются администратором
// целиком (полная замена списка), без точечных обновлений.
type Plan struct {
	ID           string `json:"id"`            // Уникальный идентификатор плана
	Name         string `json:"name"`          // Название плана
	Price        int    `json:"price"`         // Цена в условных единицах (>0)
	DurationDays int    `json:"duration_days"` // Длительность подписки в днях (>0)
}

// DummyPlan используется для приёма плана из JSON-запроса администратора
// до валидации и преобразования в Plan.
type DummyPlan struct {
	ID           string `json:"id" validate:"required"`
	Name         string `json:"name" validate:"required"`
	Price        int    `json:"price" validate:"required,gt=0"`
	DurationDays int    `json:"duration_days" validate:"required,gt=0"`
}
