package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/socialspark/server/pkg/apperrors"
)

func GetUserID(c *fiber.Ctx) string {
	userID, _ := c.Locals("user_id").(string)
	return userID
}

// statusFor maps application error codes to HTTP statuses.
func statusFor(err error) int {
	switch apperrors.CodeOf(err) {
	case apperrors.CodeNotFound:
		return fiber.StatusNotFound
	case apperrors.CodeValidation, apperrors.CodeUnsupportedMedia:
		return fiber.StatusBadRequest
	case apperrors.CodeConfiguration:
		return fiber.StatusPreconditionFailed
	case apperrors.CodeProvidersUnavailable:
		return fiber.StatusServiceUnavailable
	case apperrors.CodeProcessingTimeout:
		return fiber.StatusGatewayTimeout
	case apperrors.CodeMediaUpload, apperrors.CodePlatformPublish:
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}

func errorJSON(c *fiber.Ctx, err error) error {
	return c.Status(statusFor(err)).JSON(fiber.Map{
		"error": err.Error(),
	})
}
