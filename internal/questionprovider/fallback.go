package questionprovider

import (
	"context"
	"log/slog"

	"github.com/magabrotheeeer/quiz-access-service/internal/lib/sl"
	"github.com/magabrotheeeer/quiz-access-service/internal/models"
)

// Fallback оборачивает основной источник вопросов резервным.
// Ошибка основного источника не доходит до вызывающего: вместо нее
// возвращается вопрос из резерва.
type Fallback struct {
	primary Provider
	reserve Provider
	log     *slog.Logger
}

// NewFallback создает источник с резервированием.
func NewFallback(primary, reserve Provider, log *slog.Logger) *Fallback {
	return &Fallback{
		primary: primary,
		reserve: reserve,
		log:     log,
	}
}

// Generate сначала пробует основной источник, при ошибке берет вопрос
// из резерва. Отмена контекста резервом не перекрывается.
func (f *Fallback) Generate(ctx context.Context, subject models.Subject, mode models.QuizMode,
	difficulty models.Difficulty) (*models.Question, error) {
	q, err := f.primary.Generate(ctx, subject, mode, difficulty)
	if err == nil {
		return q, nil
	}
	if ctx.Err() != nil {
		return nil, err
	}

	f.log.Warn("question generator unavailable, serving offline question",
		slog.String("subject", string(subject)), sl.Err(err))
	return f.reserve.Generate(ctx, subject, mode, difficulty)
}
