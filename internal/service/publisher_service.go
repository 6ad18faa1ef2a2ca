package service

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"time"

	"github.com/socialspark/server/internal/media"
	"github.com/socialspark/server/internal/models"
	"github.com/socialspark/server/internal/repository"
	"github.com/socialspark/server/pkg/apperrors"
)

type PublisherService interface {
	// PublishNow publishes on demand; on a pre-publish failure the post
	// keeps its previous status.
	PublishNow(ctx context.Context, postID string) (*models.Post, error)
	// PublishScheduled publishes a due post; any failure marks it failed.
	PublishScheduled(ctx context.Context, postID string) error
}

type publisherService struct {
	pr repository.PostRepository
	ar repository.SocialAccountRepository
	ms MediaService
	fb FacebookService
	ig InstagramService
}

func NewPublisherService(pr repository.PostRepository, ar repository.SocialAccountRepository, ms MediaService, fb FacebookService, ig InstagramService) PublisherService {
	return &publisherService{
		pr: pr,
		ar: ar,
		ms: ms,
		fb: fb,
		ig: ig,
	}
}

func (s *publisherService) PublishNow(ctx context.Context, postID string) (*models.Post, error) {
	return s.publish(ctx, postID, false)
}

func (s *publisherService) PublishScheduled(ctx context.Context, postID string) error {
	_, err := s.publish(ctx, postID, true)
	return err
}

func (s *publisherService) publish(ctx context.Context, postID string, scheduled bool) (*models.Post, error) {
	post, err := s.pr.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, apperrors.NotFound("post not found")
	}
	prevStatus := post.Status

	claimed, err := s.pr.ClaimForPublish(ctx, postID)
	if err != nil {
		return nil, err
	}
	if !claimed {
		return nil, apperrors.Validation("post is not in a publishable state")
	}

	account, err := s.ar.GetByID(ctx, post.AccountID)
	if err != nil {
		s.markFailed(ctx, postID)
		return nil, err
	}
	if account == nil {
		s.markFailed(ctx, postID)
		return nil, apperrors.NotFound("social account not found")
	}

	items, err := media.ParseAll(post.Media)
	if err == nil {
		post, items, err = s.ms.EnsureUploaded(ctx, post, items)
	}
	if err != nil {
		// Scheduled runs have no caller to retry, so the post fails;
		// on-demand publishes roll back to where the user left it.
		if scheduled {
			s.markFailed(ctx, postID)
		} else if uerr := s.pr.UpdateStatus(ctx, postID, prevStatus); uerr != nil {
			slog.Info(uerr.Error())
		}
		return nil, err
	}

	switch account.Platform {
	case models.PlatformFacebook:
		result, perr := s.fb.Publish(ctx, post, account, items)
		if perr != nil {
			s.markFailed(ctx, postID)
			return nil, fmt.Errorf("facebook publish: %w", perr)
		}
		log.Printf("[Publisher] Published post %s to Facebook as %s", postID, result.PostID)
	case models.PlatformInstagram:
		result, perr := s.ig.Publish(ctx, post, account, items)
		if perr != nil {
			s.markFailed(ctx, postID)
			return nil, fmt.Errorf("instagram publish: %w", perr)
		}
		log.Printf("[Publisher] Published post %s to Instagram as %s", postID, result.MediaID)
	default:
		s.markFailed(ctx, postID)
		return nil, apperrors.Validation("unsupported platform: " + account.Platform)
	}

	publishedAt := time.Now()
	if err := s.pr.SetPublished(ctx, postID, publishedAt); err != nil {
		return nil, err
	}

	updated := *post
	updated.Status = models.PostStatusPublished
	updated.PublishedAt.Time = publishedAt
	updated.PublishedAt.Valid = true
	return &updated, nil
}

func (s *publisherService) markFailed(ctx context.Context, postID string) {
	if err := s.pr.UpdateStatus(ctx, postID, models.PostStatusFailed); err != nil {
		slog.Info(err.Error())
	}
}
