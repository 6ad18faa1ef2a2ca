package service

import (
	"context"
	"encoding/base64"
	"errors"
	"testing"

	"github.com/socialspark/server/internal/media"
	"github.com/socialspark/server/internal/models"
	"github.com/socialspark/server/pkg/apperrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func inlineRef(payload string) string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte(payload))
}

func TestEnsureUploadedReplacesInlineEntries(t *testing.T) {
	pr := newFakePostRepo()
	host := &stubHost{}
	svc := NewMediaService(pr, &fakeSettingsRepo{}, host)

	post := &models.Post{
		ID:    "p1",
		Media: []string{"https://cdn.example.com/kept.jpg", inlineRef("raw-bytes")},
	}
	pr.put(post)

	items, err := media.ParseAll(post.Media)
	require.NoError(t, err)

	updated, resolved, err := svc.EnsureUploaded(context.Background(), post, items)
	require.NoError(t, err)

	assert.Equal(t, 1, host.uploads)
	assert.Equal(t, "https://cdn.example.com/kept.jpg", updated.Media[0])
	assert.False(t, resolved[1].Inline())
	assert.Equal(t, updated.Media[1], resolved[1].URL)

	stored := pr.get("p1")
	assert.Equal(t, updated.Media, stored.Media)
	assert.Equal(t, 1, pr.mediaWrites)
}

func TestEnsureUploadedIsIdempotentForHostedMedia(t *testing.T) {
	pr := newFakePostRepo()
	host := &stubHost{}
	svc := NewMediaService(pr, &fakeSettingsRepo{}, host)

	post := &models.Post{
		ID:    "p1",
		Media: []string{"https://cdn.example.com/a.jpg", "https://cdn.example.com/b.mp4"},
	}
	pr.put(post)

	items, err := media.ParseAll(post.Media)
	require.NoError(t, err)

	updated, resolved, err := svc.EnsureUploaded(context.Background(), post, items)
	require.NoError(t, err)

	assert.Equal(t, 0, host.uploads)
	assert.Equal(t, 0, pr.mediaWrites)
	assert.Same(t, post, updated)
	assert.Equal(t, items, resolved)
}

func TestEnsureUploadedFailsFastWhenUnconfigured(t *testing.T) {
	pr := newFakePostRepo()
	host := &stubHost{configuredErr: apperrors.Configuration("missing credentials")}
	svc := NewMediaService(pr, &fakeSettingsRepo{}, host)

	post := &models.Post{ID: "p1", Media: []string{inlineRef("raw")}}
	pr.put(post)

	items, err := media.ParseAll(post.Media)
	require.NoError(t, err)

	_, _, err = svc.EnsureUploaded(context.Background(), post, items)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeConfiguration, apperrors.CodeOf(err))
	assert.Equal(t, 0, host.uploads)
}

func TestEnsureUploadedAbortsOnFirstFailure(t *testing.T) {
	pr := newFakePostRepo()
	host := &stubHost{uploadErr: errors.New("host is down")}
	svc := NewMediaService(pr, &fakeSettingsRepo{}, host)

	post := &models.Post{ID: "p1", Media: []string{inlineRef("one"), inlineRef("two")}}
	pr.put(post)

	items, err := media.ParseAll(post.Media)
	require.NoError(t, err)

	_, _, err = svc.EnsureUploaded(context.Background(), post, items)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeMediaUpload, apperrors.CodeOf(err))

	// nothing was persisted
	assert.Equal(t, 0, pr.mediaWrites)
	assert.Equal(t, post.Media, pr.get("p1").Media)
}

func TestEnsureUploadedUsesWorkspaceSettings(t *testing.T) {
	pr := newFakePostRepo()
	host := &stubHost{}
	sr := &fakeSettingsRepo{settings: &models.Settings{
		CloudinaryCloudName:    "workspace-cloud",
		CloudinaryUploadPreset: "workspace-preset",
	}}
	svc := NewMediaService(pr, sr, host)

	post := &models.Post{ID: "p1", Media: []string{inlineRef("raw")}}
	pr.put(post)

	items, err := media.ParseAll(post.Media)
	require.NoError(t, err)

	_, _, err = svc.EnsureUploaded(context.Background(), post, items)
	require.NoError(t, err)

	assert.Equal(t, "workspace-cloud", host.lastOpts.CloudName)
	assert.Equal(t, "workspace-preset", host.lastOpts.UploadPreset)
}
