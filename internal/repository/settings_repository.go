package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/socialspark/server/internal/models"
)

type SettingsRepository interface {
	Get(ctx context.Context) (*models.Settings, error)
	Upsert(ctx context.Context, s *models.Settings) error
}

type settingsRepository struct {
	db *sql.DB
}

func NewSettingsRepository(db *sql.DB) SettingsRepository {
	return &settingsRepository{db: db}
}

func (r *settingsRepository) Get(ctx context.Context) (*models.Settings, error) {
	query := `SELECT id, app_id, app_secret, cloudinary_cloud_name, cloudinary_upload_preset, created_at, updated_at FROM settings LIMIT 1`
	row := r.db.QueryRowContext(ctx, query)

	var s models.Settings
	err := row.Scan(&s.ID, &s.AppID, &s.AppSecret, &s.CloudinaryCloudName, &s.CloudinaryUploadPreset, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}

	return &s, nil
}

func (r *settingsRepository) Upsert(ctx context.Context, s *models.Settings) error {
	existing, err := r.Get(ctx)
	if err != nil {
		return err
	}

	if existing == nil {
		query := `
			INSERT INTO settings (app_id, app_secret, cloudinary_cloud_name, cloudinary_upload_preset)
			VALUES ($1, $2, $3, $4)
		`
		_, err = r.db.ExecContext(ctx, query, s.AppID, s.AppSecret, s.CloudinaryCloudName, s.CloudinaryUploadPreset)
	} else {
		query := `
			UPDATE settings
			SET app_id = $1,
				app_secret = $2,
				cloudinary_cloud_name = $3,
				cloudinary_upload_preset = $4,
				updated_at = $5
			WHERE id = $6
		`
		_, err = r.db.ExecContext(ctx, query, s.AppID, s.AppSecret, s.CloudinaryCloudName, s.CloudinaryUploadPreset, time.Now(), existing.ID)
	}
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	return nil
}
