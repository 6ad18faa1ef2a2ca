package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/socialspark/server/internal/models"
	"github.com/socialspark/server/internal/transfer"
	"github.com/socialspark/server/pkg/apperrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type publisherFixture struct {
	pr  *fakePostRepo
	ar  *fakeAccountRepo
	fb  *stubFacebook
	ig  *stubInstagram
	ms  *stubMediaService
	svc PublisherService
}

func newPublisherFixture() *publisherFixture {
	f := &publisherFixture{
		pr: newFakePostRepo(),
		ar: newFakeAccountRepo(),
		fb: &stubFacebook{result: &transfer.FacebookPublishResult{PostID: "fb1"}},
		ig: &stubInstagram{result: &transfer.InstagramPublishResult{MediaID: "ig1"}},
		ms: &stubMediaService{},
	}
	f.svc = NewPublisherService(f.pr, f.ar, f.ms, f.fb, f.ig)
	return f
}

func (f *publisherFixture) seed(status, platform string) *models.Post {
	f.ar.put(&models.SocialAccount{
		ID:       "acc1",
		UserID:   "u1",
		Platform: platform,
		PageID:   "page123",
	})
	post := &models.Post{
		ID:          "p1",
		UserID:      "u1",
		Caption:     "Hello",
		Media:       []string{"https://cdn.example.com/a.jpg"},
		AccountID:   "acc1",
		ScheduledAt: time.Now().Add(-time.Minute),
		Status:      status,
	}
	f.pr.put(post)
	return post
}

func TestPublishNowMarksPublished(t *testing.T) {
	f := newPublisherFixture()
	f.seed(models.PostStatusDraft, models.PlatformFacebook)

	post, err := f.svc.PublishNow(context.Background(), "p1")
	require.NoError(t, err)

	assert.Equal(t, models.PostStatusPublished, post.Status)
	assert.True(t, post.PublishedAt.Valid)
	assert.Equal(t, 1, f.fb.calls)

	stored := f.pr.get("p1")
	assert.Equal(t, models.PostStatusPublished, stored.Status)
	assert.True(t, stored.PublishedAt.Valid)
}

func TestPublishDispatchesToInstagram(t *testing.T) {
	f := newPublisherFixture()
	f.seed(models.PostStatusScheduled, models.PlatformInstagram)

	require.NoError(t, f.svc.PublishScheduled(context.Background(), "p1"))
	assert.Equal(t, 1, f.ig.calls)
	assert.Equal(t, 0, f.fb.calls)
}

func TestPublishUnknownPostReturnsNotFound(t *testing.T) {
	f := newPublisherFixture()

	_, err := f.svc.PublishNow(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeNotFound, apperrors.CodeOf(err))
}

func TestPublishedPostCannotBeClaimedAgain(t *testing.T) {
	f := newPublisherFixture()
	post := f.seed(models.PostStatusPublished, models.PlatformFacebook)
	post.PublishedAt.Valid = true
	post.PublishedAt.Time = time.Now()
	f.pr.put(post)

	_, err := f.svc.PublishNow(context.Background(), "p1")
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeValidation, apperrors.CodeOf(err))
	assert.Equal(t, 0, f.fb.calls)

	// untouched
	assert.Equal(t, models.PostStatusPublished, f.pr.get("p1").Status)
}

func TestPublishMissingAccountFailsPost(t *testing.T) {
	f := newPublisherFixture()
	post := f.seed(models.PostStatusScheduled, models.PlatformFacebook)
	post.AccountID = "gone"
	f.pr.put(post)

	err := f.svc.PublishScheduled(context.Background(), "p1")
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeNotFound, apperrors.CodeOf(err))
	assert.Equal(t, models.PostStatusFailed, f.pr.get("p1").Status)
}

func TestPublishPlatformFailureMarksFailed(t *testing.T) {
	f := newPublisherFixture()
	f.seed(models.PostStatusScheduled, models.PlatformFacebook)
	f.fb.result = nil
	f.fb.err = apperrors.PlatformPublish("token expired", nil)

	err := f.svc.PublishScheduled(context.Background(), "p1")
	require.Error(t, err)

	stored := f.pr.get("p1")
	assert.Equal(t, models.PostStatusFailed, stored.Status)
	assert.False(t, stored.PublishedAt.Valid)
}

func TestScheduledMediaFailureMarksFailed(t *testing.T) {
	f := newPublisherFixture()
	f.seed(models.PostStatusScheduled, models.PlatformFacebook)
	f.ms.err = apperrors.MediaUpload("upload failed", errors.New("down"))

	err := f.svc.PublishScheduled(context.Background(), "p1")
	require.Error(t, err)
	assert.Equal(t, models.PostStatusFailed, f.pr.get("p1").Status)
	assert.Equal(t, 0, f.fb.calls)
}

func TestOnDemandMediaFailureRestoresPreviousStatus(t *testing.T) {
	f := newPublisherFixture()
	f.seed(models.PostStatusDraft, models.PlatformFacebook)
	f.ms.err = apperrors.Configuration("missing credentials")

	_, err := f.svc.PublishNow(context.Background(), "p1")
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeConfiguration, apperrors.CodeOf(err))
	assert.Equal(t, models.PostStatusDraft, f.pr.get("p1").Status)
	assert.Equal(t, 0, f.fb.calls)
}

func TestPublishUnsupportedPlatformMarksFailed(t *testing.T) {
	f := newPublisherFixture()
	f.seed(models.PostStatusScheduled, "myspace")

	err := f.svc.PublishScheduled(context.Background(), "p1")
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeValidation, apperrors.CodeOf(err))
	assert.Equal(t, models.PostStatusFailed, f.pr.get("p1").Status)
}
