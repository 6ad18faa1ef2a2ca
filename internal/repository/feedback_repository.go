package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/socialspark/server/internal/models"
)

type FeedbackRepository interface {
	Create(ctx context.Context, f *models.Feedback) error
	Count(ctx context.Context) (int, error)
	CountByRating(ctx context.Context, rating int) (int, error)
}

type feedbackRepository struct {
	db *sql.DB
}

func NewFeedbackRepository(db *sql.DB) FeedbackRepository {
	return &feedbackRepository{db: db}
}

func (r *feedbackRepository) Create(ctx context.Context, f *models.Feedback) error {
	query := `
		INSERT INTO feedback (id, message_id, rating, comment)
		VALUES ($1, $2, $3, $4)
	`
	_, err := r.db.ExecContext(ctx, query, f.ID, f.MessageID, f.Rating, f.Comment)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *feedbackRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM feedback`).Scan(&count)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	return count, nil
}

func (r *feedbackRepository) CountByRating(ctx context.Context, rating int) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM feedback WHERE rating = $1`, rating).Scan(&count)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	return count, nil
}
