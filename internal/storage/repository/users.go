package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/magabrotheeeer/quiz-access-service/internal/models"
)

// CreateUser сохраняет нового пользователя в базу данных и возвращает его UID.
func (s *Storage) CreateUser(ctx context.Context, user models.User) (string, error) {
	const op = "storage.CreateUser"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var newUID string
	query := `INSERT INTO users (username, password_hash, session_token, is_free_user,
			      payment_status)
			  VALUES ($1, $2, $3, $4, $5)
			  RETURNING uid;`
	if err := s.DB.QueryRowContext(ctx, query,
		user.Username, user.PasswordHash, user.SessionToken, user.IsFreeUser,
		user.PaymentStatus).Scan(&newUID); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return newUID, nil
}

// UsernameExistsFold проверяет занятость имени без учета регистра.
// Проверка при создании регистронезависимая, хотя идентичность
// пользователя регистрозависимая.
func (s *Storage) UsernameExistsFold(ctx context.Context, username string) (bool, error) {
	const op = "storage.UsernameExistsFold"
	select {
	case <-ctx.Done():
		return false, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM users WHERE LOWER(username) = LOWER($1))`
	if err := s.DB.QueryRowContext(ctx, query, username).Scan(&exists); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return exists, nil
}

// GetUserByUsername возвращает пользователя по точному (регистрозависимому)
// совпадению имени. Отсутствие пользователя — не ошибка: возвращается (nil, nil).
func (s *Storage) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	const op = "storage.GetUserByUsername"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT uid, username, password_hash, session_token, is_free_user,
			      payment_status, subscription_plan_id, subscription_expires_at, created_at
			  FROM users
			  WHERE username = $1`
	u := &models.User{}
	row := s.DB.QueryRowContext(ctx, query, username)

	var sessionToken, planID sql.NullString
	var expiresAt sql.NullTime
	if err := row.Scan(&u.UID, &u.Username, &u.PasswordHash, &sessionToken,
		&u.IsFreeUser, &u.PaymentStatus, &planID, &expiresAt, &u.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if sessionToken.Valid {
		u.SessionToken = &sessionToken.String
	}
	if planID.Valid && expiresAt.Valid {
		u.Subscription = &models.Grant{PlanID: planID.String, ExpiresAt: expiresAt.Time}
	}
	return u, nil
}

// ListUsers возвращает всех пользователей, кроме зарезервированной
// административной учетной записи.
func (s *Storage) ListUsers(ctx context.Context, excludeUsername string) ([]*models.User, error) {
	const op = "storage.ListUsers"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT uid, username, password_hash, session_token, is_free_user,
			      payment_status, subscription_plan_id, subscription_expires_at, created_at
			  FROM users
			  WHERE username <> $1
			  ORDER BY created_at`
	rows, err := s.DB.QueryContext(ctx, query, excludeUsername)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()
	var result []*models.User
	for rows.Next() {
		var u models.User
		var sessionToken, planID sql.NullString
		var expiresAt sql.NullTime
		if err = rows.Scan(&u.UID, &u.Username, &u.PasswordHash, &sessionToken,
			&u.IsFreeUser, &u.PaymentStatus, &planID, &expiresAt, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if sessionToken.Valid {
			u.SessionToken = &sessionToken.String
		}
		if planID.Valid && expiresAt.Valid {
			u.Subscription = &models.Grant{PlanID: planID.String, ExpiresAt: expiresAt.Time}
		}
		result = append(result, &u)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// SessionToken возвращает хранимый токен сессии пользователя.
// Возвращает nil, если токен сброшен или пользователя нет.
func (s *Storage) SessionToken(ctx context.Context, username string) (*string, error) {
	const op = "storage.SessionToken"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var token sql.NullString
	query := `SELECT session_token
			  FROM users
			  WHERE username = $1`
	err := s.DB.QueryRowContext(ctx, query, username).Scan(&token)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !token.Valid {
		return nil, nil
	}
	return &token.String, nil
}

// UpdateSessionToken безусловно перезаписывает токен сессии пользователя.
// Перезапись инвалидирует ранее выданный токен: активной остается одна сессия.
func (s *Storage) UpdateSessionToken(ctx context.Context, username string, token *string) error {
	const op = "storage.UpdateSessionToken"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE users
			  SET session_token = $1
			  WHERE username = $2`
	_, err := s.DB.ExecContext(ctx, query, token, username)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// UpdatePaymentStatus изменяет статус платежа пользователя.
func (s *Storage) UpdatePaymentStatus(ctx context.Context, username, status string) error {
	const op = "storage.UpdatePaymentStatus"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE users
			  SET payment_status = $1
			  WHERE username = $2`
	_, err := s.DB.ExecContext(ctx, query, status, username)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// UpdateFreeAccess изменяет флаг бесплатного доступа и статус платежа.
// Латентная подписка при этом не затрагивается.
func (s *Storage) UpdateFreeAccess(ctx context.Context, username string, isFree bool, paymentStatus string) error {
	const op = "storage.UpdateFreeAccess"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE users
			  SET is_free_user = $1,
			      payment_status = $2
			  WHERE username = $3`
	_, err := s.DB.ExecContext(ctx, query, isFree, paymentStatus, username)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// GrantSubscription выдает пользователю подписку и фиксирует результат
// рассмотрения заявки на его записи.
func (s *Storage) GrantSubscription(ctx context.Context, username, planID string, expiresAt time.Time) error {
	const op = "storage.GrantSubscription"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE users
			  SET subscription_plan_id = $1,
			      subscription_expires_at = $2,
			      payment_status = $3
			  WHERE username = $4`
	_, err := s.DB.ExecContext(ctx, query, planID, expiresAt, models.PaymentStatusApproved, username)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
