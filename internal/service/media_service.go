package service

import (
	"context"
	"log"

	"github.com/socialspark/server/internal/media"
	"github.com/socialspark/server/internal/models"
	"github.com/socialspark/server/internal/repository"
	"github.com/socialspark/server/internal/transfer"
	"github.com/socialspark/server/pkg/apperrors"
)

// MediaHost uploads one media payload and returns where it is hosted.
type MediaHost interface {
	Configured(opts transfer.UploadOptions) error
	Upload(ctx context.Context, item media.Item, opts transfer.UploadOptions) (*transfer.UploadResult, error)
	Delete(ctx context.Context, publicID, resourceType string) error
}

type MediaService interface {
	EnsureUploaded(ctx context.Context, post *models.Post, items []media.Item) (*models.Post, []media.Item, error)
}

type mediaService struct {
	pr   repository.PostRepository
	sr   repository.SettingsRepository
	host MediaHost
}

func NewMediaService(pr repository.PostRepository, sr repository.SettingsRepository, host MediaHost) MediaService {
	return &mediaService{
		pr:   pr,
		sr:   sr,
		host: host,
	}
}

// EnsureUploaded replaces every inline media entry with a hosted public
// URL. Entries that are already URLs are left untouched; when nothing
// changed, the post is returned as-is without a write. The first upload
// failure aborts the remaining entries; any entries uploaded before the
// failure are left for the retry to skip over.
func (s *mediaService) EnsureUploaded(ctx context.Context, post *models.Post, items []media.Item) (*models.Post, []media.Item, error) {
	settings, err := s.sr.Get(ctx)
	if err != nil {
		return nil, nil, err
	}

	var opts transfer.UploadOptions
	if settings != nil {
		opts.CloudName = settings.CloudinaryCloudName
		opts.UploadPreset = settings.CloudinaryUploadPreset
	}

	if err := s.host.Configured(opts); err != nil {
		return nil, nil, err
	}

	resolved := make([]media.Item, len(items))
	copy(resolved, items)

	changed := false
	for i, item := range items {
		if !item.Inline() {
			continue
		}

		log.Printf("[Media] Uploading inline %s for post %s", item.Kind, post.ID)
		result, err := s.host.Upload(ctx, item, opts)
		if err != nil {
			if apperrors.CodeOf(err) == apperrors.CodeConfiguration {
				return nil, nil, err
			}
			return nil, nil, apperrors.MediaUpload("media host upload failed", err)
		}

		resolved[i] = media.Item{Kind: item.Kind, URL: result.URL}
		changed = true
	}

	if !changed {
		return post, items, nil
	}

	refs := media.Refs(resolved)
	if err := s.pr.UpdateMedia(ctx, post.ID, refs); err != nil {
		return nil, nil, err
	}

	updated := *post
	updated.Media = refs
	return &updated, resolved, nil
}
