package service

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"sort"
	"strings"
	"time"

	config "github.com/socialspark/server/configs"
	"github.com/socialspark/server/internal/media"
	"github.com/socialspark/server/internal/transfer"
	"github.com/socialspark/server/pkg/apperrors"
)

const defaultCloudinaryBaseURL = "https://api.cloudinary.com/v1_1"

// reservedPreset is Cloudinary's default preset name; it is never sent
// explicitly because signed uploads reject it.
const reservedPreset = "ml_default"

// CloudinaryService uploads media through the Cloudinary upload API
// with resource type "auto".
type CloudinaryService struct {
	cfg     config.Cloudinary
	baseURL string
	client  *http.Client
	now     func() time.Time
}

func NewCloudinaryService(cfg config.Cloudinary) *CloudinaryService {
	return &CloudinaryService{
		cfg:     cfg,
		baseURL: defaultCloudinaryBaseURL,
		client:  &http.Client{Timeout: 2 * time.Minute},
		now:     time.Now,
	}
}

func (s *CloudinaryService) Configured(opts transfer.UploadOptions) error {
	cloudName := opts.CloudName
	if cloudName == "" {
		cloudName = s.cfg.CloudName
	}
	if cloudName == "" || s.cfg.APIKey == "" || s.cfg.APISecret == "" {
		return apperrors.Configuration("incomplete Cloudinary credentials (cloud name, API key, API secret)")
	}
	return nil
}

type cloudinaryUploadResponse struct {
	SecureURL    string  `json:"secure_url"`
	PublicID     string  `json:"public_id"`
	ResourceType string  `json:"resource_type"`
	Width        int     `json:"width"`
	Height       int     `json:"height"`
	Duration     float64 `json:"duration"`
	Error        struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (s *CloudinaryService) Upload(ctx context.Context, item media.Item, opts transfer.UploadOptions) (*transfer.UploadResult, error) {
	if err := s.Configured(opts); err != nil {
		return nil, err
	}

	cloudName := opts.CloudName
	if cloudName == "" {
		cloudName = s.cfg.CloudName
	}

	preset := opts.UploadPreset
	if preset == "" {
		preset = s.cfg.UploadPreset
	}

	params := map[string]string{
		"timestamp": fmt.Sprintf("%d", s.now().Unix()),
	}
	if preset != "" && preset != reservedPreset {
		params["upload_preset"] = preset
	}
	params["signature"] = s.sign(params)
	params["api_key"] = s.cfg.APIKey

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for key, value := range params {
		if err := writer.WriteField(key, value); err != nil {
			return nil, err
		}
	}

	part, err := writer.CreateFormFile("file", "upload")
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(item.Data); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/%s/auto/upload", s.baseURL, cloudName)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var result cloudinaryUploadResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("failed to parse Cloudinary response: %w", err)
	}

	if resp.StatusCode != http.StatusOK || result.SecureURL == "" {
		message := result.Error.Message
		if message == "" {
			message = fmt.Sprintf("unexpected status code %d", resp.StatusCode)
		}
		return nil, fmt.Errorf("cloudinary upload failed: %s", message)
	}

	slog.Info("cloudinary upload succeeded", "public_id", result.PublicID, "resource_type", result.ResourceType)

	return &transfer.UploadResult{
		URL:          result.SecureURL,
		PublicID:     result.PublicID,
		ResourceType: result.ResourceType,
		Width:        result.Width,
		Height:       result.Height,
		Duration:     result.Duration,
	}, nil
}

func (s *CloudinaryService) Delete(ctx context.Context, publicID, resourceType string) error {
	params := map[string]string{
		"public_id": publicID,
		"timestamp": fmt.Sprintf("%d", s.now().Unix()),
	}
	params["signature"] = s.sign(params)
	params["api_key"] = s.cfg.APIKey

	form := make([]string, 0, len(params))
	for key, value := range params {
		form = append(form, key+"="+value)
	}

	url := fmt.Sprintf("%s/%s/%s/destroy", s.baseURL, s.cfg.CloudName, resourceType)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(strings.Join(form, "&")))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("cloudinary destroy failed: %s", respBody)
	}
	return nil
}

// sign builds the SHA-1 request signature over the sorted parameters,
// excluding api_key, per the Cloudinary upload API.
func (s *CloudinaryService) sign(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for key := range params {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, key := range keys {
		pairs = append(pairs, key+"="+params[key])
	}

	sum := sha1.Sum([]byte(strings.Join(pairs, "&") + s.cfg.APISecret))
	return fmt.Sprintf("%x", sum)
}
