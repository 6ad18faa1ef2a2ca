package handlers

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	config "github.com/socialspark/server/configs"
	"github.com/socialspark/server/internal/service"
	"github.com/socialspark/server/internal/transfer"
)

type AccountHandler struct {
	cfg *config.Config
	s   service.AccountService
}

func NewAccountHandler(cfg *config.Config, s service.AccountService) *AccountHandler {
	return &AccountHandler{cfg: cfg, s: s}
}

// Connect redirects the user into the Facebook OAuth flow. The user ID
// rides in the state parameter and comes back on the callback.
func (h *AccountHandler) Connect(c *fiber.Ctx) error {
	userID := GetUserID(c)
	return c.Redirect(h.s.ConnectURL(userID), fiber.StatusTemporaryRedirect)
}

func (h *AccountHandler) Callback(c *fiber.Ctx) error {
	code := c.Query("code")
	state := c.Query("state")
	if code == "" || state == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Missing code or state",
		})
	}

	if _, err := h.s.HandleCallback(c.Context(), state, code); err != nil {
		slog.Error(err.Error())
		return c.Redirect(h.cfg.FrontendURL+"/accounts?connected=0", fiber.StatusTemporaryRedirect)
	}

	return c.Redirect(h.cfg.FrontendURL+"/accounts?connected=1", fiber.StatusTemporaryRedirect)
}

func (h *AccountHandler) CreateAccount(c *fiber.Ctx) error {
	userID := GetUserID(c)

	var req transfer.AccountCreation
	if err := c.BodyParser(&req); err != nil {
		slog.Error(err.Error())
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse request body",
		})
	}

	account, err := h.s.Create(c.Context(), userID, &req)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(account)
}

func (h *AccountHandler) ListAccounts(c *fiber.Ctx) error {
	userID := GetUserID(c)

	accounts, err := h.s.List(c.Context(), userID)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(accounts)
}

func (h *AccountHandler) RemoveAccount(c *fiber.Ctx) error {
	userID := GetUserID(c)
	accountID := c.Params("id")

	if err := h.s.Remove(c.Context(), userID, accountID); err != nil {
		return errorJSON(c, err)
	}
	return c.SendStatus(fiber.StatusOK)
}
