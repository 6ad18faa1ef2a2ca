package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/socialspark/server/internal/ai"
	"github.com/socialspark/server/internal/models"
	"github.com/socialspark/server/internal/transfer"
	"github.com/socialspark/server/pkg/apperrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type supportFixture struct {
	cr  *fakeConversationRepo
	mr  *fakeMessageRepo
	fr  *fakeFeedbackRepo
	kr  *fakeKnowledgeRepo
	svc SupportService
}

func newSupportFixture(providers ...*stubProvider) *supportFixture {
	f := &supportFixture{
		cr: newFakeConversationRepo(),
		mr: &fakeMessageRepo{},
		fr: &fakeFeedbackRepo{},
		kr: &fakeKnowledgeRepo{},
	}
	list := make([]ai.Provider, 0, len(providers))
	for _, p := range providers {
		list = append(list, p)
	}
	f.svc = NewSupportService(list, f.cr, f.mr, f.fr, f.kr)
	return f
}

func TestStartConversationReusesActive(t *testing.T) {
	f := newSupportFixture(&stubProvider{name: "openai", reply: "hi"})

	first, err := f.svc.StartConversation(context.Background(), &transfer.ConversationStart{SessionID: "s1"})
	require.NoError(t, err)

	second, err := f.svc.StartConversation(context.Background(), &transfer.ConversationStart{SessionID: "s1"})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	count, _ := f.cr.Count(context.Background())
	assert.Equal(t, 1, count)
}

func TestRespondUsesFirstWorkingProvider(t *testing.T) {
	openai := &stubProvider{name: "openai", err: errors.New("rate limited")}
	gemini := &stubProvider{name: "gemini", reply: "Here is how you reconnect."}
	claude := &stubProvider{name: "claude", reply: "unused"}
	f := newSupportFixture(openai, gemini, claude)

	conv := startConversation(t, f)

	reply, err := f.svc.Respond(context.Background(), &transfer.ChatRequest{
		ConversationID: conv.ID,
		Message:        "How do I reconnect my account?",
	})
	require.NoError(t, err)

	assert.Equal(t, "gemini", reply.Provider)
	assert.Equal(t, "Here is how you reconnect.", reply.Content)
	assert.Equal(t, 1, openai.calls)
	assert.Equal(t, 1, gemini.calls)
	assert.Equal(t, 0, claude.calls)
}

func TestRespondPersistsBothTurnsOnSuccess(t *testing.T) {
	f := newSupportFixture(&stubProvider{name: "openai", reply: "Sure thing."})
	conv := startConversation(t, f)

	reply, err := f.svc.Respond(context.Background(), &transfer.ChatRequest{
		ConversationID: conv.ID,
		Message:        "Can you help?",
	})
	require.NoError(t, err)

	messages, _ := f.mr.ListByConversation(context.Background(), conv.ID)
	require.Len(t, messages, 2)
	assert.Equal(t, models.MessageRoleUser, messages[0].Role)
	assert.Equal(t, "Can you help?", messages[0].Content)
	assert.Equal(t, models.MessageRoleAssistant, messages[1].Role)
	assert.Equal(t, "openai", messages[1].AIProvider.String)
	assert.Equal(t, reply.MessageID, messages[1].ID)

	_, touched := f.cr.touched[conv.ID]
	assert.True(t, touched)
}

func TestRespondPersistsNothingWhenAllProvidersFail(t *testing.T) {
	f := newSupportFixture(
		&stubProvider{name: "openai", err: errors.New("down")},
		&stubProvider{name: "gemini", err: errors.New("down")},
	)
	conv := startConversation(t, f)

	_, err := f.svc.Respond(context.Background(), &transfer.ChatRequest{
		ConversationID: conv.ID,
		Message:        "Hello?",
	})
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeProvidersUnavailable, apperrors.CodeOf(err))

	messages, _ := f.mr.ListByConversation(context.Background(), conv.ID)
	assert.Empty(t, messages)
}

func TestRespondUnknownConversation(t *testing.T) {
	f := newSupportFixture(&stubProvider{name: "openai", reply: "hi"})

	_, err := f.svc.Respond(context.Background(), &transfer.ChatRequest{
		ConversationID: "missing",
		Message:        "Hello?",
	})
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeNotFound, apperrors.CodeOf(err))
}

func TestPerfectFeedbackCreatesKnowledgeEntry(t *testing.T) {
	f := newSupportFixture(&stubProvider{name: "openai", reply: "Go to Account Manager and reconnect."})
	conv := startConversation(t, f)

	reply, err := f.svc.Respond(context.Background(), &transfer.ChatRequest{
		ConversationID: conv.ID,
		Message:        "How do I reconnect my expired Instagram token?",
	})
	require.NoError(t, err)

	err = f.svc.SubmitFeedback(context.Background(), &transfer.FeedbackRequest{
		MessageID: reply.MessageID,
		Rating:    5,
	})
	require.NoError(t, err)

	require.Len(t, f.kr.entries, 1)
	entry := f.kr.entries[0]
	assert.Equal(t, "How do I reconnect my expired Instagram token?", entry.Question)
	assert.Equal(t, "Go to Account Manager and reconnect.", entry.Answer)
	assert.Equal(t, 80, entry.SuccessRate)
	assert.Equal(t, 1, entry.TimesUsed)
	assert.Equal(t, "learned", entry.Source)
	assert.Contains(t, entry.Keywords, "reconnect")
}

func TestRepeatedPerfectFeedbackRaisesSuccessRate(t *testing.T) {
	f := newSupportFixture(&stubProvider{name: "openai", reply: "Same answer."})
	conv := startConversation(t, f)

	question := "How do I reconnect my expired Instagram token?"

	first, err := f.svc.Respond(context.Background(), &transfer.ChatRequest{ConversationID: conv.ID, Message: question})
	require.NoError(t, err)
	require.NoError(t, f.svc.SubmitFeedback(context.Background(), &transfer.FeedbackRequest{MessageID: first.MessageID, Rating: 5}))

	second, err := f.svc.Respond(context.Background(), &transfer.ChatRequest{ConversationID: conv.ID, Message: question})
	require.NoError(t, err)
	require.NoError(t, f.svc.SubmitFeedback(context.Background(), &transfer.FeedbackRequest{MessageID: second.MessageID, Rating: 5}))

	require.Len(t, f.kr.entries, 1)
	assert.Equal(t, 85, f.kr.entries[0].SuccessRate)
	assert.Equal(t, 2, f.kr.entries[0].TimesUsed)
}

func TestSuccessRateIsCappedAtHundred(t *testing.T) {
	f := newSupportFixture(&stubProvider{name: "openai", reply: "Answer."})
	conv := startConversation(t, f)

	f.kr.entries = append(f.kr.entries, &models.KnowledgeEntry{
		ID:          "k1",
		Question:    "How do I schedule a post for later?",
		SuccessRate: 98,
		TimesUsed:   7,
	})

	reply, err := f.svc.Respond(context.Background(), &transfer.ChatRequest{
		ConversationID: conv.ID,
		Message:        "How do I schedule a post for later?",
	})
	require.NoError(t, err)
	require.NoError(t, f.svc.SubmitFeedback(context.Background(), &transfer.FeedbackRequest{MessageID: reply.MessageID, Rating: 5}))

	assert.Equal(t, 100, f.kr.entries[0].SuccessRate)
	assert.Equal(t, 8, f.kr.entries[0].TimesUsed)
}

func TestLowRatingIsRecordedWithoutLearning(t *testing.T) {
	f := newSupportFixture(&stubProvider{name: "openai", reply: "Not helpful."})
	conv := startConversation(t, f)

	reply, err := f.svc.Respond(context.Background(), &transfer.ChatRequest{
		ConversationID: conv.ID,
		Message:        "Why does publishing fail?",
	})
	require.NoError(t, err)

	require.NoError(t, f.svc.SubmitFeedback(context.Background(), &transfer.FeedbackRequest{
		MessageID: reply.MessageID,
		Rating:    2,
		Comment:   "did not answer the question",
	}))

	assert.Len(t, f.fr.feedback, 1)
	assert.Empty(t, f.kr.entries)
}

func TestFeedbackForUnknownMessage(t *testing.T) {
	f := newSupportFixture(&stubProvider{name: "openai", reply: "hi"})

	err := f.svc.SubmitFeedback(context.Background(), &transfer.FeedbackRequest{MessageID: "missing", Rating: 5})
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeNotFound, apperrors.CodeOf(err))
}

func TestExtractKeywords(t *testing.T) {
	keywords := extractKeywords("How do I reconnect my expired Instagram token, and why does it expire?")

	assert.Equal(t, []string{"reconnect", "expired", "instagram", "token", "expire"}, keywords)
}

func TestExtractKeywordsDedupes(t *testing.T) {
	keywords := extractKeywords("token token token publishing")
	assert.Equal(t, []string{"token", "publishing"}, keywords)
}

func TestStatsComputesSatisfactionRate(t *testing.T) {
	f := newSupportFixture(&stubProvider{name: "openai", reply: "hi"})
	conv := startConversation(t, f)

	for i := 0; i < 4; i++ {
		reply, err := f.svc.Respond(context.Background(), &transfer.ChatRequest{
			ConversationID: conv.ID,
			Message:        "question " + strings.Repeat("x", i+1),
		})
		require.NoError(t, err)

		rating := 3
		if i < 3 {
			rating = 5
		}
		require.NoError(t, f.svc.SubmitFeedback(context.Background(), &transfer.FeedbackRequest{
			MessageID: reply.MessageID,
			Rating:    rating,
		}))
	}

	stats, err := f.svc.Stats(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, stats.TotalConversations)
	assert.Equal(t, 8, stats.TotalMessages)
	assert.Equal(t, 4, stats.TotalFeedback)
	assert.Equal(t, 3, stats.PositiveFeedback)
	assert.InDelta(t, 75.0, stats.SatisfactionRate, 0.001)
}

func startConversation(t *testing.T, f *supportFixture) *models.Conversation {
	t.Helper()
	conv, err := f.svc.StartConversation(context.Background(), &transfer.ConversationStart{SessionID: "s1"})
	require.NoError(t, err)
	return conv
}
