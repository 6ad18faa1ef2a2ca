package service

import (
	"context"
	"log"
	"log/slog"
	"regexp"
	"strings"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/socialspark/server/internal/ai"
	"github.com/socialspark/server/internal/models"
	"github.com/socialspark/server/internal/repository"
	"github.com/socialspark/server/internal/transfer"
	"github.com/socialspark/server/pkg/apperrors"
)

// supportSystemPrompt is the product knowledge base sent as the system
// prompt on every completion.
const supportSystemPrompt = `
You are an AI support assistant for Social Spark, a premium social media management platform designed for content creators and businesses.

CORE PHILOSOPHY:
Social Spark combines powerful AI tools with an intuitive, breathtaking design to help users "Transform Their Social Media Presence". We prioritize aesthetics, usability, and performance.

KEY FEATURES & CAPABILITIES:

1. CONTENT WORKFLOW (Kanban System)
   - Organize content visually: Idea -> Draft -> Review -> Scheduled -> Published
   - Drag-and-drop interface for status management
   - Create quick ideas and convert them to full posts

2. AI POWERHOUSE
   - Smart Caption Generation: Context-aware captions based on tone and platform
   - Intelligent Hashtags: Trending and relevant hashtag suggestions
   - Best Time to Post: AI analysis of audience activity for optimal timing

3. VISUAL SCHEDULING
   - Unified Calendar View: See all posts across all platforms in one place
   - Drag-and-drop rescheduling
   - Support for multiple accounts per platform

4. ADVANCED ANALYTICS
   - Real-time insights on engagement (likes, comments, shares)
   - Audience growth tracking
   - Cross-platform performance comparison

SUPPORTED PLATFORMS:
- Instagram (Feed, Stories, Reels)
- Facebook (Personal Profiles, Pages)
- Twitter / X (Tweets, Threads)
- LinkedIn (Personal, Company Pages)

TROUBLESHOOTING GUIDE:
- "Page not loading": Suggest clearing cache or checking internet connection.
- "Post failed": Check image size/format limits or token expiration.
- "Token expired": Go to Account Manager to reconnect the social profile.

CONTACT & SUPPORT:
- Email: support@socialspark.app (Technical)
- Email: hello@socialspark.app (General)
- Availability: 24/7 AI Support, Human support within 24h for premium.

TONE & STYLE:
- Professional yet approachable.
- Concise and solution-oriented.
- Use emojis sparingly to maintain a friendly vibe.
- Always refer to "Social Spark" as the platform name.
`

// contextWindow is how many recent messages feed the next completion.
const contextWindow = 10

type SupportService interface {
	StartConversation(ctx context.Context, req *transfer.ConversationStart) (*models.Conversation, error)
	Respond(ctx context.Context, req *transfer.ChatRequest) (*transfer.SupportReply, error)
	History(ctx context.Context, conversationID string) ([]*models.Message, error)
	SubmitFeedback(ctx context.Context, req *transfer.FeedbackRequest) error
	Stats(ctx context.Context) (*transfer.SupportStats, error)
}

type supportService struct {
	providers []ai.Provider
	cr        repository.ConversationRepository
	mr        repository.MessageRepository
	fr        repository.FeedbackRepository
	kr        repository.KnowledgeRepository
}

func NewSupportService(providers []ai.Provider, cr repository.ConversationRepository, mr repository.MessageRepository, fr repository.FeedbackRepository, kr repository.KnowledgeRepository) SupportService {
	return &supportService{
		providers: providers,
		cr:        cr,
		mr:        mr,
		fr:        fr,
		kr:        kr,
	}
}

// StartConversation reuses the caller's active conversation when one
// exists, otherwise opens a new one.
func (s *supportService) StartConversation(ctx context.Context, req *transfer.ConversationStart) (*models.Conversation, error) {
	existing, err := s.cr.FindActive(ctx, req.UserID, req.SessionID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	id, err := gonanoid.New()
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	conv := &models.Conversation{
		ID:        id,
		SessionID: req.SessionID,
		Status:    models.ConversationStatusActive,
	}
	if req.UserID != "" {
		conv.UserID.String = req.UserID
		conv.UserID.Valid = true
	}

	if err := s.cr.Create(ctx, conv); err != nil {
		return nil, err
	}
	return conv, nil
}

// Respond tries each enabled provider in priority order. Nothing is
// persisted until a provider answers; then the user turn and the
// assistant turn are stored together.
func (s *supportService) Respond(ctx context.Context, req *transfer.ChatRequest) (*transfer.SupportReply, error) {
	conv, err := s.cr.GetByID(ctx, req.ConversationID)
	if err != nil {
		return nil, err
	}
	if conv == nil {
		return nil, apperrors.NotFound("conversation not found")
	}

	history, err := s.conversationContext(ctx, conv.ID)
	if err != nil {
		return nil, err
	}

	for _, provider := range s.providers {
		log.Printf("Trying AI provider: %s", provider.Name())
		content, err := provider.Complete(ctx, supportSystemPrompt, history, req.Message)
		if err != nil {
			log.Printf("Provider %s failed: %v", provider.Name(), err)
			continue
		}

		messageID, err := s.saveExchange(ctx, conv.ID, req.Message, content, provider.Name())
		if err != nil {
			return nil, err
		}

		return &transfer.SupportReply{
			Content:   content,
			Provider:  provider.Name(),
			MessageID: messageID,
		}, nil
	}

	return nil, apperrors.ProvidersUnavailable("all AI providers are currently unavailable")
}

// conversationContext returns the last messages, oldest first.
func (s *supportService) conversationContext(ctx context.Context, conversationID string) ([]ai.Turn, error) {
	recent, err := s.mr.ListRecent(ctx, conversationID, contextWindow)
	if err != nil {
		return nil, err
	}

	turns := make([]ai.Turn, 0, len(recent))
	for i := len(recent) - 1; i >= 0; i-- {
		turns = append(turns, ai.Turn{Role: recent[i].Role, Content: recent[i].Content})
	}
	return turns, nil
}

func (s *supportService) saveExchange(ctx context.Context, conversationID, userMessage, reply, provider string) (string, error) {
	userID, err := gonanoid.New()
	if err != nil {
		return "", err
	}
	if err := s.mr.Create(ctx, &models.Message{
		ID:             userID,
		ConversationID: conversationID,
		Role:           models.MessageRoleUser,
		Content:        userMessage,
	}); err != nil {
		return "", err
	}

	assistantID, err := gonanoid.New()
	if err != nil {
		return "", err
	}
	assistant := &models.Message{
		ID:             assistantID,
		ConversationID: conversationID,
		Role:           models.MessageRoleAssistant,
		Content:        reply,
	}
	assistant.AIProvider.String = provider
	assistant.AIProvider.Valid = true
	if err := s.mr.Create(ctx, assistant); err != nil {
		return "", err
	}

	if err := s.cr.Touch(ctx, conversationID, time.Now()); err != nil {
		slog.Info(err.Error())
	}

	return assistantID, nil
}

func (s *supportService) History(ctx context.Context, conversationID string) ([]*models.Message, error) {
	conv, err := s.cr.GetByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if conv == nil {
		return nil, apperrors.NotFound("conversation not found")
	}
	return s.mr.ListByConversation(ctx, conversationID)
}

// SubmitFeedback records the rating and, for a perfect rating, feeds
// the answered question back into the knowledge base.
func (s *supportService) SubmitFeedback(ctx context.Context, req *transfer.FeedbackRequest) error {
	message, err := s.mr.GetByID(ctx, req.MessageID)
	if err != nil {
		return err
	}
	if message == nil {
		return apperrors.NotFound("message not found")
	}

	id, err := gonanoid.New()
	if err != nil {
		return err
	}
	if err := s.fr.Create(ctx, &models.Feedback{
		ID:        id,
		MessageID: req.MessageID,
		Rating:    req.Rating,
		Comment:   req.Comment,
	}); err != nil {
		return err
	}

	if req.Rating == 5 {
		if err := s.learn(ctx, message); err != nil {
			slog.Info(err.Error())
		}
	}
	return nil
}

// learn stores a highly rated answer keyed by the user question that
// preceded it. Repeated confirmations raise an existing entry's
// success rate instead of duplicating it.
func (s *supportService) learn(ctx context.Context, answer *models.Message) error {
	question, err := s.precedingUserMessage(ctx, answer)
	if err != nil || question == nil {
		return err
	}

	prefix := question.Content
	if len(prefix) > 50 {
		prefix = prefix[:50]
	}

	existing, err := s.kr.FindSimilar(ctx, prefix)
	if err != nil {
		return err
	}
	if existing != nil {
		rate := existing.SuccessRate + 5
		if rate > 100 {
			rate = 100
		}
		return s.kr.RecordUse(ctx, existing.ID, rate)
	}

	id, err := gonanoid.New()
	if err != nil {
		return err
	}
	return s.kr.Create(ctx, &models.KnowledgeEntry{
		ID:          id,
		Category:    "learned",
		Question:    question.Content,
		Answer:      answer.Content,
		Keywords:    extractKeywords(question.Content),
		SuccessRate: 80,
		TimesUsed:   1,
		Source:      "learned",
	})
}

func (s *supportService) precedingUserMessage(ctx context.Context, answer *models.Message) (*models.Message, error) {
	messages, err := s.mr.ListByConversation(ctx, answer.ConversationID)
	if err != nil {
		return nil, err
	}

	var previous *models.Message
	for _, m := range messages {
		if m.ID == answer.ID {
			return previous, nil
		}
		if m.Role == models.MessageRoleUser {
			previous = m
		}
	}
	return nil, nil
}

var nonWordPattern = regexp.MustCompile(`[^\w\s]`)

var keywordStopwords = map[string]bool{
	"the": true, "is": true, "at": true, "which": true, "on": true,
	"a": true, "an": true, "how": true, "what": true, "when": true,
	"where": true, "why": true, "can": true, "do": true, "does": true,
}

// extractKeywords picks up to five distinct significant words from a
// question for knowledge base lookup.
func extractKeywords(text string) []string {
	cleaned := nonWordPattern.ReplaceAllString(strings.ToLower(text), "")

	var keywords []string
	seen := make(map[string]bool)
	for _, word := range strings.Fields(cleaned) {
		if len(word) <= 3 || keywordStopwords[word] || seen[word] {
			continue
		}
		seen[word] = true
		keywords = append(keywords, word)
		if len(keywords) == 5 {
			break
		}
	}
	return keywords
}

func (s *supportService) Stats(ctx context.Context) (*transfer.SupportStats, error) {
	conversations, err := s.cr.Count(ctx)
	if err != nil {
		return nil, err
	}
	messages, err := s.mr.Count(ctx)
	if err != nil {
		return nil, err
	}
	feedback, err := s.fr.Count(ctx)
	if err != nil {
		return nil, err
	}
	positive, err := s.fr.CountByRating(ctx, 5)
	if err != nil {
		return nil, err
	}
	knowledge, err := s.kr.Count(ctx)
	if err != nil {
		return nil, err
	}

	stats := &transfer.SupportStats{
		TotalConversations: conversations,
		TotalMessages:      messages,
		TotalFeedback:      feedback,
		PositiveFeedback:   positive,
		KnowledgeBaseSize:  knowledge,
	}
	if feedback > 0 {
		stats.SatisfactionRate = float64(positive) / float64(feedback) * 100
	}
	return stats, nil
}
