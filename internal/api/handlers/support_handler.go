package handlers

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/socialspark/server/internal/service"
	"github.com/socialspark/server/internal/transfer"
)

type SupportHandler struct {
	s service.SupportService
}

func NewSupportHandler(s service.SupportService) *SupportHandler {
	return &SupportHandler{s: s}
}

func (h *SupportHandler) StartConversation(c *fiber.Ctx) error {
	var req transfer.ConversationStart
	if err := c.BodyParser(&req); err != nil {
		slog.Error(err.Error())
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse request body",
		})
	}
	if req.SessionID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "session_id is required",
		})
	}

	conv, err := h.s.StartConversation(c.Context(), &req)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(conv)
}

func (h *SupportHandler) Chat(c *fiber.Ctx) error {
	var req transfer.ChatRequest
	if err := c.BodyParser(&req); err != nil {
		slog.Error(err.Error())
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse request body",
		})
	}
	if req.ConversationID == "" || req.Message == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "conversation_id and message are required",
		})
	}

	reply, err := h.s.Respond(c.Context(), &req)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(reply)
}

func (h *SupportHandler) History(c *fiber.Ctx) error {
	conversationID := c.Params("id")

	messages, err := h.s.History(c.Context(), conversationID)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(messages)
}

func (h *SupportHandler) SubmitFeedback(c *fiber.Ctx) error {
	var req transfer.FeedbackRequest
	if err := c.BodyParser(&req); err != nil {
		slog.Error(err.Error())
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse request body",
		})
	}
	if req.MessageID == "" || req.Rating < 1 || req.Rating > 5 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "message_id and a rating from 1 to 5 are required",
		})
	}

	if err := h.s.SubmitFeedback(c.Context(), &req); err != nil {
		return errorJSON(c, err)
	}
	return c.SendStatus(fiber.StatusOK)
}

func (h *SupportHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.s.Stats(c.Context())
	if err != nil {
		return errorJSON(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(stats)
}
