package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/crosswire-app/crosswire/internal/models"
)

type PublishHistoryRepository interface {
	Create(ctx context.Context, h *models.PublishHistory) (int64, error)
	GetByUserID(ctx context.Context, userID int64) ([]*models.PublishHistory, error)
}

type publishHistoryRepository struct {
	db *sql.DB
}

func NewPublishHistoryRepository(db *sql.DB) PublishHistoryRepository {
	return &publishHistoryRepository{db: db}
}

func (r *publishHistoryRepository) Create(ctx context.Context, h *models.PublishHistory) (int64, error) {
	query := `
		INSERT INTO publish_history (user_id, post_id, platforms, external_id, error_message)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	var id int64
	err := r.db.QueryRowContext(ctx, query, h.UserID, h.PostID, h.Platforms, h.ExternalID, h.ErrorMessage).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return id, nil
}

func (r *publishHistoryRepository) GetByUserID(ctx context.Context, userID int64) ([]*models.PublishHistory, error) {
	query := `
		SELECT id, user_id, post_id, platforms, external_id, error_message, created_at
		FROM publish_history WHERE user_id = $1 ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var history []*models.PublishHistory
	for rows.Next() {
		var h models.PublishHistory
		err := rows.Scan(&h.ID, &h.UserID, &h.PostID, &h.Platforms, &h.ExternalID, &h.ErrorMessage, &h.CreatedAt)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		history = append(history, &h)
	}
	return history, nil
}
