package handlers

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/hibiken/asynq"
	"github.com/socialspark/server/internal/models"
	"github.com/socialspark/server/internal/queue"
	"github.com/socialspark/server/internal/service"
	"github.com/socialspark/server/internal/transfer"
)

type PostHandler struct {
	s           service.PostService
	ps          service.PublisherService
	AsynqClient *asynq.Client
}

func NewPostHandler(s service.PostService, ps service.PublisherService, asynqClient *asynq.Client) *PostHandler {
	return &PostHandler{s: s, ps: ps, AsynqClient: asynqClient}
}

func (h *PostHandler) CreatePost(c *fiber.Ctx) error {
	userID := GetUserID(c)

	var req transfer.PostCreation
	if err := c.BodyParser(&req); err != nil {
		slog.Error(err.Error())
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse request body",
		})
	}

	post, err := h.s.Create(c.Context(), userID, &req)
	if err != nil {
		return errorJSON(c, err)
	}

	// Scheduled posts get a delayed task; the minute sweep is the
	// fallback if the task is lost.
	if post.Status == models.PostStatusScheduled {
		delay := time.Until(post.ScheduledAt)
		if delay < 0 {
			delay = 0
		}
		if err := queue.EnqueuePost(h.AsynqClient, queue.PublishPostPayload{PostID: post.ID}, delay); err != nil {
			slog.Error(err.Error())
		}
	}

	return c.Status(fiber.StatusCreated).JSON(post)
}

func (h *PostHandler) ListPosts(c *fiber.Ctx) error {
	userID := GetUserID(c)
	postID := c.Query("id")

	if postID != "" {
		post, err := h.s.Get(c.Context(), userID, postID)
		if err != nil {
			return errorJSON(c, err)
		}
		return c.Status(fiber.StatusOK).JSON(post)
	}

	posts, err := h.s.List(c.Context(), userID)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(posts)
}

func (h *PostHandler) UpdatePost(c *fiber.Ctx) error {
	userID := GetUserID(c)
	postID := c.Params("id")

	var req transfer.PostUpdate
	if err := c.BodyParser(&req); err != nil {
		slog.Error(err.Error())
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse request body",
		})
	}

	post, err := h.s.Update(c.Context(), userID, postID, &req)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(post)
}

// PublishPost publishes immediately, skipping the schedule.
func (h *PostHandler) PublishPost(c *fiber.Ctx) error {
	userID := GetUserID(c)
	postID := c.Params("id")

	if _, err := h.s.Get(c.Context(), userID, postID); err != nil {
		return errorJSON(c, err)
	}

	post, err := h.ps.PublishNow(c.Context(), postID)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(post)
}

func (h *PostHandler) RemovePost(c *fiber.Ctx) error {
	userID := GetUserID(c)
	postID := c.Params("id")

	if err := h.s.Remove(c.Context(), userID, postID); err != nil {
		return errorJSON(c, err)
	}
	return c.SendStatus(fiber.StatusOK)
}
