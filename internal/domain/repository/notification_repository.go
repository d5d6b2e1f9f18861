package repository

import (
	"context"
	"database/sql"
	"fmt"

	"hackathon_portal/internal/domain/model"
)

type NotificationRepository interface {
	CreateBatch(ctx context.Context, tx *sql.Tx, notifications []model.Notification) error
}

type pgNotificationRepository struct {
	db *sql.DB
}

func NewPgNotificationRepository(db *sql.DB) NotificationRepository {
	return &pgNotificationRepository{db: db}
}

func (r *pgNotificationRepository) CreateBatch(ctx context.Context, tx *sql.Tx, notifications []model.Notification) error {
	if len(notifications) == 0 {
		return nil
	}
	query := `INSERT INTO notifications (id, user_id, type, title, message, read, application_id, action_user_id)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	q := pick(r.db, tx)
	for _, n := range notifications {
		if _, err := q.ExecContext(ctx, query, n.ID, n.UserID, n.Type, n.Title, n.Message, n.Read, n.ApplicationID, n.ActionUserID); err != nil {
			return fmt.Errorf("pgNotificationRepository.CreateBatch: %w", err)
		}
	}
	return nil
}
