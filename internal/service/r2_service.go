package service

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	gonanoid "github.com/matoous/go-nanoid/v2"
	config "github.com/socialspark/server/configs"
	"github.com/socialspark/server/internal/media"
	"github.com/socialspark/server/internal/transfer"
	"github.com/socialspark/server/pkg/apperrors"
)

// R2Service stores media in a Cloudflare R2 bucket behind a public
// base URL. It is the alternative media host backend.
type R2Service struct {
	cfg config.R2
}

func NewR2Service(cfg config.R2) *R2Service {
	return &R2Service{cfg: cfg}
}

func (r *R2Service) Configured(_ transfer.UploadOptions) error {
	if r.cfg.AccountID == "" || r.cfg.AccessKey == "" || r.cfg.SecretKey == "" || r.cfg.BucketName == "" || r.cfg.PublicURL == "" {
		return apperrors.Configuration("incomplete R2 credentials (account id, keys, bucket, public URL)")
	}
	return nil
}

func (r *R2Service) client(ctx context.Context) (*s3.Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(r.cfg.AccessKey, r.cfg.SecretKey, "")),
		awsconfig.WithRegion("auto"),
	)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(fmt.Sprintf("https://%s.r2.cloudflarestorage.com", r.cfg.AccountID))
	}), nil
}

func (r *R2Service) Upload(ctx context.Context, item media.Item, opts transfer.UploadOptions) (*transfer.UploadResult, error) {
	if err := r.Configured(opts); err != nil {
		return nil, err
	}

	key, err := gonanoid.New()
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	client, err := r.client(ctx)
	if err != nil {
		return nil, err
	}

	input := &s3.PutObjectInput{
		Bucket:      aws.String(r.cfg.BucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(item.Data),
		ContentType: aws.String(item.MIME),
	}

	if _, err := client.PutObject(ctx, input); err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	resourceType := "image"
	if item.Kind == media.KindVideo {
		resourceType = "video"
	}

	return &transfer.UploadResult{
		URL:          fmt.Sprintf("%s/%s", r.cfg.PublicURL, key),
		PublicID:     key,
		ResourceType: resourceType,
	}, nil
}

func (r *R2Service) Delete(ctx context.Context, publicID, _ string) error {
	client, err := r.client(ctx)
	if err != nil {
		return err
	}

	_, err = client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(r.cfg.BucketName),
		Key:    aws.String(publicID),
	})
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
