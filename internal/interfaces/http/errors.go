package http

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/jhoicas/kpi-tracker/internal/application/dto"
	"github.com/jhoicas/kpi-tracker/internal/domain"
)

// errorMapping categoría de dominio -> status y código HTTP.
var errorMapping = []struct {
	kind   error
	status int
	code   string
}{
	{domain.ErrNotFound, fiber.StatusNotFound, "NOT_FOUND"},
	{domain.ErrForbidden, fiber.StatusForbidden, "FORBIDDEN"},
	{domain.ErrOperationNotPermitted, fiber.StatusConflict, "OPERATION_NOT_PERMITTED"},
	{domain.ErrAlreadyExists, fiber.StatusConflict, "ALREADY_EXISTS"},
	{domain.ErrAlreadyInState, fiber.StatusConflict, "ALREADY_IN_STATE"},
	{domain.ErrInvalidCredential, fiber.StatusUnauthorized, "INVALID_CREDENTIAL"},
	{domain.ErrValidation, fiber.StatusBadRequest, "VALIDATION"},
}

// writeError responde con el cuerpo de error estándar.
func writeError(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(dto.ErrorResponse{
		Timestamp: time.Now(),
		Status:    status,
		Code:      code,
		Message:   message,
	})
}

// respondError traduce un error de caso de uso a respuesta HTTP. Lo no clasificado es 500.
func respondError(c *fiber.Ctx, err error) error {
	for _, m := range errorMapping {
		if errors.Is(err, m.kind) {
			return writeError(c, m.status, m.code, domain.Message(err))
		}
	}
	log.Error().Err(err).Str("path", c.Path()).Str("request_id", GetRequestID(c)).Msg("error interno")
	return writeError(c, fiber.StatusInternalServerError, "INTERNAL", "internal server error")
}

// ErrorHandler para fiber.Config: errores no manejados por los handlers (404 de rutas, body enorme, pánicos recuperados).
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return writeError(c, fe.Code, "HTTP_ERROR", fe.Message)
	}
	return respondError(c, err)
}
