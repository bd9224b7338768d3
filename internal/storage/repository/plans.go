package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/quiz-access-service/internal/models"
)

// ListPlans возвращает все тарифные планы в порядке их идентификаторов.
func (s *Storage) ListPlans(ctx context.Context) ([]models.Plan, error) {
	const op = "storage.ListPlans"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, name, price, duration_days FROM plans ORDER BY id`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()
	var result []models.Plan
	for rows.Next() {
		var p models.Plan
		if err = rows.Scan(&p.ID, &p.Name, &p.Price, &p.DurationDays); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// GetPlan возвращает план по идентификатору. Отсутствие плана — не ошибка:
// возвращается (nil, nil), вызывающая сторона решает, что с этим делать.
func (s *Storage) GetPlan(ctx context.Context, id string) (*models.Plan, error) {
	const op = "storage.GetPlan"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, name, price, duration_days FROM plans WHERE id = $1`
	p := &models.Plan{}
	if err := s.DB.QueryRowContext(ctx, query, id).Scan(&p.ID, &p.Name, &p.Price, &p.DurationDays); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

// ReplacePlans целиком заменяет список планов в одной транзакции.
// Администратор присылает полное желаемое состояние, без merge-семантики.
// Уже выданные подписки замена не затрагивает.
func (s *Storage) ReplacePlans(ctx context.Context, plans []models.Plan) error {
	const op = "storage.ReplacePlans"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM plans`); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	for _, p := range plans {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO plans (id, name, price, duration_days) VALUES ($1, $2, $3, $4)`,
			p.ID, p.Name, p.Price, p.DurationDays)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
