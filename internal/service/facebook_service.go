package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"time"

	config "github.com/socialspark/server/configs"
	"github.com/socialspark/server/internal/media"
	"github.com/socialspark/server/internal/models"
	"github.com/socialspark/server/internal/transfer"
	"github.com/socialspark/server/pkg/apperrors"
	"github.com/socialspark/server/pkg/utils"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/facebook"
)

const defaultGraphBaseURL = "https://graph.facebook.com/v19.0"

type FacebookService interface {
	Publish(ctx context.Context, post *models.Post, account *models.SocialAccount, items []media.Item) (*transfer.FacebookPublishResult, error)
	AuthCodeURL(state string) string
	ExchangeCode(ctx context.Context, code string) (*oauth2.Token, error)
}

type facebookService struct {
	cfg      *config.Config
	graphURL string
	client   *http.Client
}

func NewFacebookService(cfg *config.Config) FacebookService {
	return &facebookService{
		cfg:      cfg,
		graphURL: defaultGraphBaseURL,
		client:   &http.Client{Timeout: 2 * time.Minute},
	}
}

func (s *facebookService) oauthConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     s.cfg.FacebookAppID,
		ClientSecret: s.cfg.FacebookAppSecret,
		RedirectURL:  s.cfg.FacebookRedirectURI,
		Scopes: []string{
			"pages_show_list",
			"pages_read_engagement",
			"pages_manage_posts",
			"instagram_basic",
			"instagram_content_publish",
		},
		Endpoint: facebook.Endpoint,
	}
}

func (s *facebookService) AuthCodeURL(state string) string {
	return s.oauthConfig().AuthCodeURL(state)
}

func (s *facebookService) ExchangeCode(ctx context.Context, code string) (*oauth2.Token, error) {
	token, err := s.oauthConfig().Exchange(ctx, code)
	if err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("failed to exchange authorization code: %w", err)
	}
	return token, nil
}

type graphPublishResponse struct {
	ID     string `json:"id"`
	PostID string `json:"post_id"`
	Error  struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Publish posts to the account's Facebook page. Text-only posts go to
// the page feed; posts with media publish the first attachment through
// the photos or videos edge with the caption attached.
func (s *facebookService) Publish(ctx context.Context, post *models.Post, account *models.SocialAccount, items []media.Item) (*transfer.FacebookPublishResult, error) {
	accessToken, err := utils.Decrypt(account.AccessToken, s.cfg.SecretKey)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt access token: %w", err)
	}

	if len(items) == 0 {
		return s.publishText(ctx, account.PageID, post.Caption, accessToken)
	}
	return s.publishMedia(ctx, account.PageID, post.Caption, accessToken, items[0])
}

func (s *facebookService) publishText(ctx context.Context, pageID, caption, accessToken string) (*transfer.FacebookPublishResult, error) {
	form := url.Values{}
	form.Set("message", caption)
	form.Set("access_token", accessToken)

	result, err := s.postForm(ctx, fmt.Sprintf("%s/%s/feed", s.graphURL, pageID), form, "feed post failed")
	if err != nil {
		return nil, err
	}
	return &transfer.FacebookPublishResult{PostID: result}, nil
}

func (s *facebookService) publishMedia(ctx context.Context, pageID, caption, accessToken string, item media.Item) (*transfer.FacebookPublishResult, error) {
	edge := "photos"
	captionField := "message"
	urlField := "url"
	filename := "image.jpg"
	if item.Kind == media.KindVideo {
		edge = "videos"
		captionField = "description"
		urlField = "file_url"
		filename = "video.mp4"
	}

	endpoint := fmt.Sprintf("%s/%s/%s", s.graphURL, pageID, edge)

	if item.Inline() {
		result, err := s.postMultipart(ctx, endpoint, caption, captionField, accessToken, item, filename)
		if err != nil {
			return nil, err
		}
		return &transfer.FacebookPublishResult{PostID: result}, nil
	}

	form := url.Values{}
	form.Set(captionField, caption)
	form.Set(urlField, item.URL)
	form.Set("access_token", accessToken)

	result, err := s.postForm(ctx, endpoint, form, edge+" post failed")
	if err != nil {
		return nil, err
	}
	return &transfer.FacebookPublishResult{PostID: result}, nil
}

func (s *facebookService) postForm(ctx context.Context, endpoint string, form url.Values, fallbackMsg string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBufferString(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	return s.do(req, fallbackMsg)
}

func (s *facebookService) postMultipart(ctx context.Context, endpoint, caption, captionField, accessToken string, item media.Item, filename string) (string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	if err := writer.WriteField(captionField, caption); err != nil {
		return "", err
	}
	if err := writer.WriteField("access_token", accessToken); err != nil {
		return "", err
	}

	part, err := writer.CreateFormFile("source", filename)
	if err != nil {
		return "", err
	}
	if _, err := part.Write(item.Data); err != nil {
		return "", err
	}
	if err := writer.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	return s.do(req, "media upload failed")
}

func (s *facebookService) do(req *http.Request, fallbackMsg string) (string, error) {
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

	var result graphPublishResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("failed to parse graph response: %w", err)
	}

	if resp.StatusCode != http.StatusOK || (result.ID == "" && result.PostID == "") {
		message := result.Error.Message
		if message == "" {
			message = fallbackMsg
		}
		return "", apperrors.PlatformPublish(message, nil)
	}

	if result.PostID != "" {
		return result.PostID, nil
	}
	return result.ID, nil
}
