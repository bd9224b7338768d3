// Package questionprovider отвечает за получение вопросов викторины.
//
// Основной источник — внешний генератор вопросов по HTTP. При его
// недоступности используется встроенный резервный банк, поэтому
// викторина никогда не остается без вопроса.
package questionprovider

import (
	"context"

	"github.com/magabrotheeeer/quiz-access-service/internal/models"
)

// Provider описывает источник вопросов викторины.
type Provider interface {
	// Generate возвращает один вопрос по предмету, режиму и сложности.
	// Сложность учитывается только для математики.
	Generate(ctx context.Context, subject models.Subject, mode models.QuizMode,
		difficulty models.Difficulty) (*models.Question, error)
}
