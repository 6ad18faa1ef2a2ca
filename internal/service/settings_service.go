package service

import (
	"context"

	config "github.com/socialspark/server/configs"
	"github.com/socialspark/server/internal/models"
	"github.com/socialspark/server/internal/repository"
	"github.com/socialspark/server/internal/transfer"
	"github.com/socialspark/server/pkg/utils"
)

type SettingsService interface {
	Get(ctx context.Context) (*models.Settings, error)
	Update(ctx context.Context, req *transfer.SettingsUpdate) (*models.Settings, error)
}

type settingsService struct {
	cfg *config.Config
	sr  repository.SettingsRepository
}

func NewSettingsService(cfg *config.Config, sr repository.SettingsRepository) SettingsService {
	return &settingsService{cfg: cfg, sr: sr}
}

func (s *settingsService) Get(ctx context.Context) (*models.Settings, error) {
	settings, err := s.sr.Get(ctx)
	if err != nil {
		return nil, err
	}
	if settings == nil {
		settings = &models.Settings{}
	}
	return settings, nil
}

func (s *settingsService) Update(ctx context.Context, req *transfer.SettingsUpdate) (*models.Settings, error) {
	settings, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}

	if req.AppID != "" {
		settings.AppID = req.AppID
	}
	if req.AppSecret != "" {
		encrypted, err := utils.Encrypt(req.AppSecret, s.cfg.SecretKey)
		if err != nil {
			return nil, err
		}
		settings.AppSecret = encrypted
	}
	if req.CloudinaryCloudName != "" {
		settings.CloudinaryCloudName = req.CloudinaryCloudName
	}
	if req.CloudinaryUploadPreset != "" {
		settings.CloudinaryUploadPreset = req.CloudinaryUploadPreset
	}

	if err := s.sr.Upsert(ctx, settings); err != nil {
		return nil, err
	}
	return settings, nil
}
