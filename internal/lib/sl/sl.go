// Package sl содержит вспомогательные функции для работы с логгером slog.
// Все сервисы доступа к викторинам логируют ошибки единообразно,
// через структурированное поле "error".
package sl

import "log/slog"

// Err возвращает slog.Attr с ключом "error" и значением текста ошибки.
//
// Пример:
//
//	log.Error("failed to approve payment request", sl.Err(err))
func Err(err error) slog.Attr {
	return slog.Attr{
		Key:   "error",
		Value: slog.StringValue(err.Error()),
	}
}
