package service

import (
	"context"
	"log/slog"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/socialspark/server/internal/media"
	"github.com/socialspark/server/internal/models"
	"github.com/socialspark/server/internal/repository"
	"github.com/socialspark/server/internal/transfer"
	"github.com/socialspark/server/pkg/apperrors"
)

type PostService interface {
	Create(ctx context.Context, userID string, req *transfer.PostCreation) (*models.Post, error)
	List(ctx context.Context, userID string) ([]*models.Post, error)
	Get(ctx context.Context, userID, postID string) (*models.Post, error)
	Update(ctx context.Context, userID, postID string, req *transfer.PostUpdate) (*models.Post, error)
	Remove(ctx context.Context, userID, postID string) error
}

type postService struct {
	pr repository.PostRepository
	ar repository.SocialAccountRepository
}

func NewPostService(pr repository.PostRepository, ar repository.SocialAccountRepository) PostService {
	return &postService{pr: pr, ar: ar}
}

func validStatus(status string) bool {
	switch status {
	case models.PostStatusDraft, models.PostStatusScheduled,
		models.PostStatusPublishing, models.PostStatusPublished, models.PostStatusFailed:
		return true
	}
	return false
}

func validPlatformTarget(target string) bool {
	switch target {
	case models.PlatformInstagram, models.PlatformFacebook, models.PlatformBoth:
		return true
	}
	return false
}

func (s *postService) Create(ctx context.Context, userID string, req *transfer.PostCreation) (*models.Post, error) {
	if req.Caption == "" && len(req.Media) == 0 {
		return nil, apperrors.Validation("a post needs a caption or media")
	}
	if !validPlatformTarget(req.PlatformTarget) {
		return nil, apperrors.Validation("invalid platform target: " + req.PlatformTarget)
	}

	status := req.Status
	if status == "" {
		status = models.PostStatusDraft
	}
	if status != models.PostStatusDraft && status != models.PostStatusScheduled {
		return nil, apperrors.Validation("new posts must be draft or scheduled")
	}

	scheduledAt, err := time.Parse(time.RFC3339, req.ScheduledAt)
	if err != nil {
		return nil, apperrors.Validation("scheduled_at must be an RFC 3339 timestamp")
	}

	owned, err := s.ar.CheckByUserID(ctx, req.AccountID, userID)
	if err != nil {
		return nil, err
	}
	if !owned {
		return nil, apperrors.NotFound("social account not found")
	}

	// Media references are validated at ingestion so publish time never
	// sees an unparseable entry.
	if _, err := media.ParseAll(req.Media); err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	id, err := gonanoid.New()
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	post := &models.Post{
		ID:             id,
		UserID:         userID,
		Caption:        req.Caption,
		Media:          req.Media,
		PlatformTarget: req.PlatformTarget,
		AccountID:      req.AccountID,
		ScheduledAt:    scheduledAt,
		Status:         status,
	}

	if err := s.pr.Create(ctx, nil, post); err != nil {
		return nil, err
	}
	return post, nil
}

func (s *postService) List(ctx context.Context, userID string) ([]*models.Post, error) {
	return s.pr.ListByUserID(ctx, userID)
}

func (s *postService) Get(ctx context.Context, userID, postID string) (*models.Post, error) {
	post, err := s.owned(ctx, userID, postID)
	if err != nil {
		return nil, err
	}
	return post, nil
}

func (s *postService) Update(ctx context.Context, userID, postID string, req *transfer.PostUpdate) (*models.Post, error) {
	post, err := s.owned(ctx, userID, postID)
	if err != nil {
		return nil, err
	}

	if req.Caption != nil {
		post.Caption = *req.Caption
	}
	if req.Media != nil {
		if _, err := media.ParseAll(req.Media); err != nil {
			return nil, apperrors.Validation(err.Error())
		}
		post.Media = req.Media
	}
	if req.PlatformTarget != nil {
		if !validPlatformTarget(*req.PlatformTarget) {
			return nil, apperrors.Validation("invalid platform target: " + *req.PlatformTarget)
		}
		post.PlatformTarget = *req.PlatformTarget
	}
	if req.AccountID != nil {
		owned, err := s.ar.CheckByUserID(ctx, *req.AccountID, userID)
		if err != nil {
			return nil, err
		}
		if !owned {
			return nil, apperrors.NotFound("social account not found")
		}
		post.AccountID = *req.AccountID
	}
	if req.ScheduledAt != nil {
		scheduledAt, err := time.Parse(time.RFC3339, *req.ScheduledAt)
		if err != nil {
			return nil, apperrors.Validation("scheduled_at must be an RFC 3339 timestamp")
		}
		post.ScheduledAt = scheduledAt
	}
	if req.Status != nil {
		if !validStatus(*req.Status) {
			return nil, apperrors.Validation("invalid status: " + *req.Status)
		}
		post.Status = *req.Status
		if post.Status != models.PostStatusPublished {
			post.PublishedAt.Valid = false
			post.PublishedAt.Time = time.Time{}
		}
	}

	if err := s.pr.Update(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

func (s *postService) Remove(ctx context.Context, userID, postID string) error {
	if _, err := s.owned(ctx, userID, postID); err != nil {
		return err
	}
	return s.pr.Remove(ctx, postID)
}

func (s *postService) owned(ctx context.Context, userID, postID string) (*models.Post, error) {
	owned, err := s.pr.CheckByUserID(ctx, postID, userID)
	if err != nil {
		return nil, err
	}
	if !owned {
		return nil, apperrors.NotFound("post not found")
	}

	post, err := s.pr.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, apperrors.NotFound("post not found")
	}
	return post, nil
}
