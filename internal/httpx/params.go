package httpx

import (
	"errors"

	"padaria-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// ParamID reads a positive numeric route parameter.
func ParamID(c *fiber.Ctx, name string) (uint, error) {
	id, err := c.ParamsInt(name)
	if err != nil || id <= 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "invalid "+name)
	}
	return uint(id), nil
}

// LookupError maps a failed First() to 404 when the row is missing.
func LookupError(err error, notFound string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fiber.NewError(fiber.StatusNotFound, notFound)
	}
	return fiber.NewError(fiber.StatusInternalServerError, "database error")
}

// TransitionError maps lifecycle errors to 409 and everything else to 500.
func TransitionError(err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe
	}
	if errors.Is(err, models.ErrInvalidTransition) {
		return fiber.NewError(fiber.StatusConflict, err.Error())
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fiber.NewError(fiber.StatusNotFound, "not found")
	}
	return err
}

const DateTimeLayout = "2006-01-02 15:04:05"
