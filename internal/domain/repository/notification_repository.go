package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"peer_coach/internal/common"
	"peer_coach/internal/domain/model"
)

type NotificationRepository interface {
	Create(ctx context.Context, n *model.Notification) error
	FindByID(ctx context.Context, id string) (*model.Notification, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]model.Notification, error)
	MarkRead(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}

type pgNotificationRepository struct {
	db *sql.DB
}

func NewPgNotificationRepository(db *sql.DB) NotificationRepository {
	return &pgNotificationRepository{db: db}
}

const notificationColumns = `id, user_id, type, message, data, read, created_at`

func scanNotification(row interface{ Scan(...any) error }, n *model.Notification) error {
	var data []byte
	if err := row.Scan(&n.ID, &n.UserID, &n.Type, &n.Message, &data, &n.Read, &n.CreatedAt); err != nil {
		return err
	}
	n.Data = nil
	if len(data) > 0 {
		n.Data = append(n.Data[:0], data...)
	}
	return nil
}

func (r *pgNotificationRepository) Create(ctx context.Context, n *model.Notification) error {
	var data any
	if len(n.Data) > 0 {
		data = []byte(n.Data)
	}
	query := `INSERT INTO notifications (id, user_id, type, message, data, read)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          RETURNING created_at`
	if err := r.db.QueryRowContext(ctx, query, n.ID, n.UserID, n.Type, n.Message, data, n.Read).Scan(&n.CreatedAt); err != nil {
		return fmt.Errorf("pgNotificationRepository.Create: %w", err)
	}
	return nil
}

func (r *pgNotificationRepository) FindByID(ctx context.Context, id string) (*model.Notification, error) {
	n := &model.Notification{}
	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE id = $1`
	if err := scanNotification(r.db.QueryRowContext(ctx, query, id), n); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgNotificationRepository.FindByID: %w", err)
	}
	return n, nil
}

func (r *pgNotificationRepository) ListByUser(ctx context.Context, userID string, limit int) ([]model.Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications
	          WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2`
	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("pgNotificationRepository.ListByUser query: %w", err)
	}
	defer rows.Close()

	notifications := []model.Notification{}
	for rows.Next() {
		var n model.Notification
		if err := scanNotification(rows, &n); err != nil {
			return nil, fmt.Errorf("pgNotificationRepository.ListByUser scan: %w", err)
		}
		notifications = append(notifications, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgNotificationRepository.ListByUser rows.Err: %w", err)
	}
	return notifications, nil
}

func (r *pgNotificationRepository) MarkRead(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE notifications SET read = TRUE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("pgNotificationRepository.MarkRead: %w", err)
	}
	return requireAffected(res, "pgNotificationRepository.MarkRead")
}

func (r *pgNotificationRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM notifications WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("pgNotificationRepository.Delete: %w", err)
	}
	return requireAffected(res, "pgNotificationRepository.Delete")
}
