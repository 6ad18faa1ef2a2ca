package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	config "github.com/socialspark/server/configs"
	"github.com/socialspark/server/internal/media"
	"github.com/socialspark/server/internal/models"
	"github.com/socialspark/server/internal/transfer"
	"github.com/socialspark/server/pkg/apperrors"
	"github.com/socialspark/server/pkg/poll"
	"github.com/socialspark/server/pkg/utils"
)

const (
	igImagePollAttempts = 15
	igVideoPollAttempts = 45
)

type InstagramService interface {
	Publish(ctx context.Context, post *models.Post, account *models.SocialAccount, items []media.Item) (*transfer.InstagramPublishResult, error)
}

type instagramService struct {
	cfg          *config.Config
	graphURL     string
	client       *http.Client
	pollInterval time.Duration
}

func NewInstagramService(cfg *config.Config) InstagramService {
	return &instagramService{
		cfg:          cfg,
		graphURL:     defaultGraphBaseURL,
		client:       &http.Client{Timeout: 2 * time.Minute},
		pollInterval: 2 * time.Second,
	}
}

type igContainerResponse struct {
	ID    string `json:"id"`
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

type igStatusResponse struct {
	StatusCode string `json:"status_code"`
}

// Publish runs the three-phase Instagram flow: create a media
// container, poll it until processing finishes, then publish it.
// Instagram only accepts hosted URLs, so inline media is rejected
// before any network call.
func (s *instagramService) Publish(ctx context.Context, post *models.Post, account *models.SocialAccount, items []media.Item) (*transfer.InstagramPublishResult, error) {
	if len(items) == 0 {
		return nil, apperrors.Validation("instagram posts require at least one media attachment")
	}

	item := items[0]
	if item.Inline() {
		return nil, apperrors.UnsupportedMedia("instagram requires hosted media URLs, got an inline payload")
	}

	accessToken, err := utils.Decrypt(account.AccessToken, s.cfg.SecretKey)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt access token: %w", err)
	}

	igUserID := account.IGUserID
	if igUserID == "" {
		igUserID = account.PageID
	}

	containerID, err := s.createContainer(ctx, igUserID, post.Caption, accessToken, item)
	if err != nil {
		return nil, err
	}

	if err := s.waitForContainer(ctx, containerID, accessToken, item.Kind); err != nil {
		return nil, err
	}

	mediaID, err := s.publishContainer(ctx, igUserID, containerID, accessToken)
	if err != nil {
		return nil, err
	}

	return &transfer.InstagramPublishResult{MediaID: mediaID}, nil
}

func (s *instagramService) createContainer(ctx context.Context, igUserID, caption, accessToken string, item media.Item) (string, error) {
	form := url.Values{}
	form.Set("caption", caption)
	form.Set("access_token", accessToken)
	if item.Kind == media.KindVideo {
		form.Set("media_type", "REELS")
		form.Set("video_url", item.URL)
	} else {
		form.Set("image_url", item.URL)
	}

	endpoint := fmt.Sprintf("%s/%s/media", s.graphURL, igUserID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBufferString(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return "", err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	var result igContainerResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("failed to parse container response: %w", err)
	}

	if resp.StatusCode != http.StatusOK || result.ID == "" {
		message := result.Error.Message
		if message == "" {
			message = "media container creation failed"
		}
		return "", apperrors.PlatformPublish(message, nil)
	}
	return result.ID, nil
}

// waitForContainer polls the container status until Instagram reports
// FINISHED. Failed status requests count against the attempt budget but
// do not abort the wait; only an explicit ERROR status does.
func (s *instagramService) waitForContainer(ctx context.Context, containerID, accessToken string, kind media.Kind) error {
	attempts := igImagePollAttempts
	if kind == media.KindVideo {
		attempts = igVideoPollAttempts
	}

	policy := poll.Policy{MaxAttempts: attempts, Interval: s.pollInterval}
	err := policy.Run(ctx, func(ctx context.Context) (poll.State, error) {
		endpoint := fmt.Sprintf("%s/%s?fields=status_code&access_token=%s", s.graphURL, containerID, url.QueryEscape(accessToken))
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return poll.Failed, err
		}

		resp, err := s.client.Do(req)
		if err != nil {
			slog.Info(err.Error())
			return poll.Pending, nil
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return poll.Pending, nil
		}

		var status igStatusResponse
		if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
			return poll.Pending, nil
		}

		switch status.StatusCode {
		case "FINISHED":
			return poll.Done, nil
		case "ERROR":
			return poll.Failed, apperrors.PlatformPublish("instagram rejected the media container", nil)
		default:
			return poll.Pending, nil
		}
	})

	if err == poll.ErrExhausted {
		return apperrors.ProcessingTimeout("media container did not finish processing in time")
	}
	return err
}

func (s *instagramService) publishContainer(ctx context.Context, igUserID, containerID, accessToken string) (string, error) {
	form := url.Values{}
	form.Set("creation_id", containerID)
	form.Set("access_token", accessToken)

	endpoint := fmt.Sprintf("%s/%s/media_publish", s.graphURL, igUserID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBufferString(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return "", err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	var result igContainerResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("failed to parse publish response: %w", err)
	}

	if resp.StatusCode != http.StatusOK || result.ID == "" {
		message := result.Error.Message
		if message == "" {
			message = "media publish failed"
		}
		return "", apperrors.PlatformPublish(message, nil)
	}
	return result.ID, nil
}
