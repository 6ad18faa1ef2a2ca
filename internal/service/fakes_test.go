package service

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/socialspark/server/internal/ai"
	"github.com/socialspark/server/internal/media"
	"github.com/socialspark/server/internal/models"
	"github.com/socialspark/server/internal/transfer"
	"golang.org/x/oauth2"
)

type fakePostRepo struct {
	mu           sync.Mutex
	posts        map[string]*models.Post
	mediaWrites  int
	statusWrites []string
}

func newFakePostRepo() *fakePostRepo {
	return &fakePostRepo{posts: make(map[string]*models.Post)}
}

func (r *fakePostRepo) put(post *models.Post) {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *post
	r.posts[post.ID] = &clone
}

func (r *fakePostRepo) get(id string) *models.Post {
	r.mu.Lock()
	defer r.mu.Unlock()
	if post, ok := r.posts[id]; ok {
		clone := *post
		return &clone
	}
	return nil
}

func (r *fakePostRepo) Create(_ context.Context, _ *sql.Tx, post *models.Post) error {
	r.put(post)
	return nil
}

func (r *fakePostRepo) GetByID(_ context.Context, id string) (*models.Post, error) {
	return r.get(id), nil
}

func (r *fakePostRepo) ListByUserID(_ context.Context, userID string) ([]*models.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var posts []*models.Post
	for _, post := range r.posts {
		if post.UserID == userID {
			clone := *post
			posts = append(posts, &clone)
		}
	}
	sort.Slice(posts, func(i, j int) bool { return posts[i].ID < posts[j].ID })
	return posts, nil
}

func (r *fakePostRepo) FindDue(_ context.Context, now time.Time) ([]*models.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var due []*models.Post
	for _, post := range r.posts {
		if post.Status == models.PostStatusScheduled && !post.ScheduledAt.After(now) {
			clone := *post
			due = append(due, &clone)
		}
	}
	sort.Slice(due, func(i, j int) bool { return due[i].ID < due[j].ID })
	return due, nil
}

func (r *fakePostRepo) ClaimForPublish(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	post, ok := r.posts[id]
	if !ok {
		return false, nil
	}
	if post.Status != models.PostStatusDraft && post.Status != models.PostStatusScheduled {
		return false, nil
	}
	post.Status = models.PostStatusPublishing
	return true, nil
}

func (r *fakePostRepo) UpdateStatus(_ context.Context, id, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if post, ok := r.posts[id]; ok {
		post.Status = status
		post.PublishedAt = sql.NullTime{}
		r.statusWrites = append(r.statusWrites, status)
	}
	return nil
}

func (r *fakePostRepo) SetPublished(_ context.Context, id string, publishedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if post, ok := r.posts[id]; ok {
		post.Status = models.PostStatusPublished
		post.PublishedAt = sql.NullTime{Time: publishedAt, Valid: true}
	}
	return nil
}

func (r *fakePostRepo) UpdateMedia(_ context.Context, id string, mediaRefs []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if post, ok := r.posts[id]; ok {
		post.Media = mediaRefs
		r.mediaWrites++
	}
	return nil
}

func (r *fakePostRepo) Update(_ context.Context, post *models.Post) error {
	r.put(post)
	return nil
}

func (r *fakePostRepo) CheckByUserID(_ context.Context, postID, userID string) (bool, error) {
	post := r.get(postID)
	return post != nil && post.UserID == userID, nil
}

func (r *fakePostRepo) Remove(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.posts, id)
	return nil
}

type fakeAccountRepo struct {
	mu       sync.Mutex
	accounts map[string]*models.SocialAccount
}

func newFakeAccountRepo() *fakeAccountRepo {
	return &fakeAccountRepo{accounts: make(map[string]*models.SocialAccount)}
}

func (r *fakeAccountRepo) put(account *models.SocialAccount) {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *account
	r.accounts[account.ID] = &clone
}

func (r *fakeAccountRepo) Create(_ context.Context, _ *sql.Tx, sa *models.SocialAccount) error {
	r.put(sa)
	return nil
}

func (r *fakeAccountRepo) GetByID(_ context.Context, id string) (*models.SocialAccount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if account, ok := r.accounts[id]; ok {
		clone := *account
		return &clone, nil
	}
	return nil, nil
}

func (r *fakeAccountRepo) ListByUserID(_ context.Context, userID string) ([]*models.SocialAccount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var accounts []*models.SocialAccount
	for _, account := range r.accounts {
		if account.UserID == userID {
			clone := *account
			accounts = append(accounts, &clone)
		}
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].ID < accounts[j].ID })
	return accounts, nil
}

func (r *fakeAccountRepo) ListExpired(_ context.Context, now time.Time) ([]*models.SocialAccount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var expired []*models.SocialAccount
	for _, account := range r.accounts {
		if account.IsConnected && account.TokenExpiresAt.Before(now) {
			clone := *account
			expired = append(expired, &clone)
		}
	}
	return expired, nil
}

func (r *fakeAccountRepo) ListExpiringBetween(_ context.Context, from, to time.Time) ([]*models.SocialAccount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var expiring []*models.SocialAccount
	for _, account := range r.accounts {
		if account.IsConnected && account.TokenExpiresAt.After(from) && account.TokenExpiresAt.Before(to) {
			clone := *account
			expiring = append(expiring, &clone)
		}
	}
	return expiring, nil
}

func (r *fakeAccountRepo) SetConnected(_ context.Context, id string, connected bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if account, ok := r.accounts[id]; ok {
		account.IsConnected = connected
	}
	return nil
}

func (r *fakeAccountRepo) CheckByUserID(_ context.Context, accountID, userID string) (bool, error) {
	account, _ := r.GetByID(context.Background(), accountID)
	return account != nil && account.UserID == userID, nil
}

func (r *fakeAccountRepo) Remove(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.accounts, id)
	return nil
}

type fakeSettingsRepo struct {
	settings *models.Settings
}

func (r *fakeSettingsRepo) Get(_ context.Context) (*models.Settings, error) {
	return r.settings, nil
}

func (r *fakeSettingsRepo) Upsert(_ context.Context, s *models.Settings) error {
	r.settings = s
	return nil
}

type fakeConversationRepo struct {
	conversations map[string]*models.Conversation
	touched       map[string]time.Time
}

func newFakeConversationRepo() *fakeConversationRepo {
	return &fakeConversationRepo{
		conversations: make(map[string]*models.Conversation),
		touched:       make(map[string]time.Time),
	}
}

func (r *fakeConversationRepo) Create(_ context.Context, c *models.Conversation) error {
	clone := *c
	r.conversations[c.ID] = &clone
	return nil
}

func (r *fakeConversationRepo) GetByID(_ context.Context, id string) (*models.Conversation, error) {
	if conv, ok := r.conversations[id]; ok {
		clone := *conv
		return &clone, nil
	}
	return nil, nil
}

func (r *fakeConversationRepo) FindActive(_ context.Context, userID, sessionID string) (*models.Conversation, error) {
	for _, conv := range r.conversations {
		if conv.Status != models.ConversationStatusActive {
			continue
		}
		if (userID != "" && conv.UserID.Valid && conv.UserID.String == userID) || conv.SessionID == sessionID {
			clone := *conv
			return &clone, nil
		}
	}
	return nil, nil
}

func (r *fakeConversationRepo) Touch(_ context.Context, id string, lastMessageAt time.Time) error {
	r.touched[id] = lastMessageAt
	return nil
}

func (r *fakeConversationRepo) Count(_ context.Context) (int, error) {
	return len(r.conversations), nil
}

type fakeMessageRepo struct {
	messages []*models.Message
}

func (r *fakeMessageRepo) Create(_ context.Context, m *models.Message) error {
	clone := *m
	clone.CreatedAt = time.Now()
	r.messages = append(r.messages, &clone)
	return nil
}

func (r *fakeMessageRepo) GetByID(_ context.Context, id string) (*models.Message, error) {
	for _, m := range r.messages {
		if m.ID == id {
			clone := *m
			return &clone, nil
		}
	}
	return nil, nil
}

func (r *fakeMessageRepo) ListByConversation(_ context.Context, conversationID string) ([]*models.Message, error) {
	var messages []*models.Message
	for _, m := range r.messages {
		if m.ConversationID == conversationID {
			clone := *m
			messages = append(messages, &clone)
		}
	}
	return messages, nil
}

func (r *fakeMessageRepo) ListRecent(_ context.Context, conversationID string, limit int) ([]*models.Message, error) {
	all, _ := r.ListByConversation(context.Background(), conversationID)
	// newest first, like the SQL implementation
	var recent []*models.Message
	for i := len(all) - 1; i >= 0 && len(recent) < limit; i-- {
		recent = append(recent, all[i])
	}
	return recent, nil
}

func (r *fakeMessageRepo) Count(_ context.Context) (int, error) {
	return len(r.messages), nil
}

type fakeFeedbackRepo struct {
	feedback []*models.Feedback
}

func (r *fakeFeedbackRepo) Create(_ context.Context, f *models.Feedback) error {
	clone := *f
	r.feedback = append(r.feedback, &clone)
	return nil
}

func (r *fakeFeedbackRepo) Count(_ context.Context) (int, error) {
	return len(r.feedback), nil
}

func (r *fakeFeedbackRepo) CountByRating(_ context.Context, rating int) (int, error) {
	count := 0
	for _, f := range r.feedback {
		if f.Rating == rating {
			count++
		}
	}
	return count, nil
}

type fakeKnowledgeRepo struct {
	entries []*models.KnowledgeEntry
}

func (r *fakeKnowledgeRepo) Create(_ context.Context, e *models.KnowledgeEntry) error {
	clone := *e
	r.entries = append(r.entries, &clone)
	return nil
}

func (r *fakeKnowledgeRepo) FindSimilar(_ context.Context, questionPrefix string) (*models.KnowledgeEntry, error) {
	for _, e := range r.entries {
		if questionPrefix != "" && strings.Contains(e.Question, questionPrefix) {
			clone := *e
			return &clone, nil
		}
	}
	return nil, nil
}

func (r *fakeKnowledgeRepo) RecordUse(_ context.Context, id string, successRate int) error {
	for _, e := range r.entries {
		if e.ID == id {
			e.TimesUsed++
			e.SuccessRate = successRate
		}
	}
	return nil
}

func (r *fakeKnowledgeRepo) Count(_ context.Context) (int, error) {
	return len(r.entries), nil
}

// stubHost is an in-memory MediaHost.
type stubHost struct {
	configuredErr error
	uploadErr     error
	uploads       int
	lastOpts      transfer.UploadOptions
}

func (h *stubHost) Configured(opts transfer.UploadOptions) error {
	h.lastOpts = opts
	return h.configuredErr
}

func (h *stubHost) Upload(_ context.Context, item media.Item, opts transfer.UploadOptions) (*transfer.UploadResult, error) {
	h.lastOpts = opts
	if h.uploadErr != nil {
		return nil, h.uploadErr
	}
	h.uploads++
	return &transfer.UploadResult{
		URL:      "https://cdn.example.com/hosted-" + string(rune('a'+h.uploads-1)) + ".jpg",
		PublicID: "hosted",
	}, nil
}

func (h *stubHost) Delete(_ context.Context, _, _ string) error {
	return nil
}

// stubMediaService passes items through unchanged.
type stubMediaService struct {
	err error
}

func (s *stubMediaService) EnsureUploaded(_ context.Context, post *models.Post, items []media.Item) (*models.Post, []media.Item, error) {
	if s.err != nil {
		return nil, nil, s.err
	}
	return post, items, nil
}

type stubFacebook struct {
	result *transfer.FacebookPublishResult
	err    error
	calls  int
	token  *oauth2.Token
}

func (s *stubFacebook) Publish(_ context.Context, _ *models.Post, _ *models.SocialAccount, _ []media.Item) (*transfer.FacebookPublishResult, error) {
	s.calls++
	return s.result, s.err
}

func (s *stubFacebook) AuthCodeURL(state string) string { return "https://auth.example.com/" + state }

func (s *stubFacebook) ExchangeCode(_ context.Context, _ string) (*oauth2.Token, error) {
	if s.token == nil {
		return nil, errors.New("no token configured")
	}
	return s.token, nil
}

type stubInstagram struct {
	result *transfer.InstagramPublishResult
	err    error
	calls  int
}

func (s *stubInstagram) Publish(_ context.Context, _ *models.Post, _ *models.SocialAccount, _ []media.Item) (*transfer.InstagramPublishResult, error) {
	s.calls++
	return s.result, s.err
}

// stubProvider is a scripted chat completion backend.
type stubProvider struct {
	name  string
	reply string
	err   error
	calls int
}

func (p *stubProvider) Name() string { return p.name }

func (p *stubProvider) Complete(_ context.Context, _ string, history []ai.Turn, _ string) (string, error) {
	p.calls++
	if p.err != nil {
		return "", p.err
	}
	return p.reply, nil
}
