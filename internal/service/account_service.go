package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	config "github.com/socialspark/server/configs"
	"github.com/socialspark/server/internal/models"
	"github.com/socialspark/server/internal/repository"
	"github.com/socialspark/server/internal/transfer"
	"github.com/socialspark/server/pkg/apperrors"
	"github.com/socialspark/server/pkg/utils"
)

// pageTokenLifetime approximates the validity of a long-lived page
// token when the graph response does not carry an expiry.
const pageTokenLifetime = 60 * 24 * time.Hour

type AccountService interface {
	ConnectURL(state string) string
	HandleCallback(ctx context.Context, userID, code string) ([]*models.SocialAccount, error)
	Create(ctx context.Context, userID string, req *transfer.AccountCreation) (*models.SocialAccount, error)
	List(ctx context.Context, userID string) ([]*models.SocialAccount, error)
	Remove(ctx context.Context, userID, accountID string) error
}

type accountService struct {
	cfg      *config.Config
	ar       repository.SocialAccountRepository
	fb       FacebookService
	graphURL string
	client   *http.Client
}

func NewAccountService(cfg *config.Config, ar repository.SocialAccountRepository, fb FacebookService) AccountService {
	return &accountService{
		cfg:      cfg,
		ar:       ar,
		fb:       fb,
		graphURL: defaultGraphBaseURL,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
}

func (s *accountService) ConnectURL(state string) string {
	return s.fb.AuthCodeURL(state)
}

type graphPage struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	AccessToken string `json:"access_token"`
	Instagram   *struct {
		ID       string `json:"id"`
		Username string `json:"username"`
	} `json:"instagram_business_account"`
}

type graphAccountsResponse struct {
	Data  []graphPage `json:"data"`
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// HandleCallback exchanges the OAuth code, lists the user's pages, and
// stores one Facebook account per page plus an Instagram account for
// each page with a linked business profile. Page tokens are encrypted
// at rest.
func (s *accountService) HandleCallback(ctx context.Context, userID, code string) ([]*models.SocialAccount, error) {
	token, err := s.fb.ExchangeCode(ctx, code)
	if err != nil {
		return nil, err
	}

	pages, err := s.listPages(ctx, token.AccessToken)
	if err != nil {
		return nil, err
	}

	expiresAt := time.Now().Add(pageTokenLifetime)

	var accounts []*models.SocialAccount
	for _, page := range pages {
		encrypted, err := utils.Encrypt(page.AccessToken, s.cfg.SecretKey)
		if err != nil {
			return nil, err
		}

		fbAccount, err := s.store(ctx, userID, &models.SocialAccount{
			Platform:       models.PlatformFacebook,
			Username:       page.Name,
			PageID:         page.ID,
			AccessToken:    encrypted,
			TokenExpiresAt: expiresAt,
			IsConnected:    true,
		})
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, fbAccount)

		if page.Instagram == nil {
			continue
		}

		igAccount, err := s.store(ctx, userID, &models.SocialAccount{
			Platform:       models.PlatformInstagram,
			Username:       page.Instagram.Username,
			PageID:         page.ID,
			IGUserID:       page.Instagram.ID,
			AccessToken:    encrypted,
			TokenExpiresAt: expiresAt,
			IsConnected:    true,
		})
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, igAccount)
	}

	return accounts, nil
}

func (s *accountService) listPages(ctx context.Context, accessToken string) ([]graphPage, error) {
	endpoint := fmt.Sprintf("%s/me/accounts?fields=%s&access_token=%s",
		s.graphURL,
		url.QueryEscape("id,name,access_token,instagram_business_account{id,username}"),
		url.QueryEscape(accessToken))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var result graphAccountsResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("failed to parse accounts response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		message := result.Error.Message
		if message == "" {
			message = "failed to list pages"
		}
		return nil, apperrors.PlatformPublish(message, nil)
	}
	return result.Data, nil
}

func (s *accountService) store(ctx context.Context, userID string, account *models.SocialAccount) (*models.SocialAccount, error) {
	id, err := gonanoid.New()
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	account.ID = id
	account.UserID = userID
	if err := s.ar.Create(ctx, nil, account); err != nil {
		return nil, err
	}
	return account, nil
}

// Create registers an account with a manually supplied token, used for
// workspaces that connect outside the OAuth flow.
func (s *accountService) Create(ctx context.Context, userID string, req *transfer.AccountCreation) (*models.SocialAccount, error) {
	if req.Platform != models.PlatformFacebook && req.Platform != models.PlatformInstagram {
		return nil, apperrors.Validation("invalid platform: " + req.Platform)
	}
	if req.AccessToken == "" {
		return nil, apperrors.Validation("access token is required")
	}

	expiresAt := time.Now().Add(pageTokenLifetime)
	if req.TokenExpiresAt != "" {
		parsed, err := time.Parse(time.RFC3339, req.TokenExpiresAt)
		if err != nil {
			return nil, apperrors.Validation("token_expires_at must be an RFC 3339 timestamp")
		}
		expiresAt = parsed
	}

	encrypted, err := utils.Encrypt(req.AccessToken, s.cfg.SecretKey)
	if err != nil {
		return nil, err
	}

	return s.store(ctx, userID, &models.SocialAccount{
		Platform:       req.Platform,
		Username:       req.Username,
		PageID:         req.PageID,
		IGUserID:       req.IGUserID,
		AccessToken:    encrypted,
		TokenExpiresAt: expiresAt,
		IsConnected:    true,
	})
}

func (s *accountService) List(ctx context.Context, userID string) ([]*models.SocialAccount, error) {
	return s.ar.ListByUserID(ctx, userID)
}

func (s *accountService) Remove(ctx context.Context, userID, accountID string) error {
	owned, err := s.ar.CheckByUserID(ctx, accountID, userID)
	if err != nil {
		return err
	}
	if !owned {
		return apperrors.NotFound("social account not found")
	}
	return s.ar.Remove(ctx, accountID)
}
