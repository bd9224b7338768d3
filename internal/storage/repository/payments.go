package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/magabrotheeeer/quiz-access-service/internal/models"
)

// CreatePaymentRequest вставляет новую платёжную заявку и возвращает её ID.
// Идентификаторы выдаются последовательно, порядок создания сохраняется.
func (s *Storage) CreatePaymentRequest(ctx context.Context, req models.PaymentRequest) (int64, error) {
	const op = "storage.CreatePaymentRequest"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO payment_requests (username, plan_id, plan_name, amount,
			      transaction_id, screenshot, status, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			  RETURNING id`
	var newID int64
	err := s.DB.QueryRowContext(ctx, query,
		req.Username, req.PlanID, req.PlanName, req.Amount,
		req.TransactionID, req.Screenshot, models.RequestStatusPending, req.CreatedAt).Scan(&newID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// GetPendingRequest возвращает нерассмотренную заявку по ID.
// Отсутствующая или уже рассмотренная заявка — (nil, nil).
func (s *Storage) GetPendingRequest(ctx context.Context, id int64) (*models.PaymentRequest, error) {
	const op = "storage.GetPendingRequest"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, username, plan_id, plan_name, amount, transaction_id,
			      screenshot, status, created_at, resolved_at
			  FROM payment_requests
			  WHERE id = $1 AND status = $2`
	r := &models.PaymentRequest{}
	var resolvedAt sql.NullTime
	row := s.DB.QueryRowContext(ctx, query, id, models.RequestStatusPending)
	if err := row.Scan(&r.ID, &r.Username, &r.PlanID, &r.PlanName, &r.Amount,
		&r.TransactionID, &r.Screenshot, &r.Status, &r.CreatedAt, &resolvedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if resolvedAt.Valid {
		r.ResolvedAt = &resolvedAt.Time
	}
	return r, nil
}

// ListPendingRequests возвращает нерассмотренные заявки в порядке создания.
func (s *Storage) ListPendingRequests(ctx context.Context) ([]*models.PaymentRequest, error) {
	const op = "storage.ListPendingRequests"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, username, plan_id, plan_name, amount, transaction_id,
			      screenshot, status, created_at, resolved_at
			  FROM payment_requests
			  WHERE status = $1
			  ORDER BY id`
	rows, err := s.DB.QueryContext(ctx, query, models.RequestStatusPending)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()
	var result []*models.PaymentRequest
	for rows.Next() {
		var r models.PaymentRequest
		var resolvedAt sql.NullTime
		if err = rows.Scan(&r.ID, &r.Username, &r.PlanID, &r.PlanName, &r.Amount,
			&r.TransactionID, &r.Screenshot, &r.Status, &r.CreatedAt, &resolvedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if resolvedAt.Valid {
			r.ResolvedAt = &resolvedAt.Time
		}
		result = append(result, &r)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// ResolveRequest переводит нерассмотренную заявку в терминальный статус и
// возвращает число затронутых строк. Условие status = pending гарантирует
// ровно одного победителя при гонке двух администраторов: второй получит 0.
func (s *Storage) ResolveRequest(ctx context.Context, id int64, status string, resolvedAt time.Time) (int, error) {
	const op = "storage.ResolveRequest"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE payment_requests
			  SET status = $1,
			      resolved_at = $2
			  WHERE id = $3 AND status = $4`
	result, err := s.DB.ExecContext(ctx, query, status, resolvedAt, id, models.RequestStatusPending)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}
