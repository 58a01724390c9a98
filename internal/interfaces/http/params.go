package http

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/kpi-tracker/internal/domain"
)

// pathID lee un id numérico positivo de la ruta.
func pathID(c *fiber.Ctx, name string) (int64, error) {
	return parseID(c.Params(name), name)
}

// queryID lee un id numérico positivo del query string.
func queryID(c *fiber.Ctx, name string) (int64, error) {
	return parseID(c.Query(name), name)
}

func parseID(raw, name string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, domain.NewError(domain.ErrValidation, name+" is required")
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.NewError(domain.ErrValidation, name+" must be a positive integer")
	}
	return id, nil
}

// queryDecimal lee un decimal opcional; ausente = nil.
func queryDecimal(c *fiber.Ctx, name string) (*decimal.Decimal, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, domain.NewError(domain.ErrValidation, name+" must be a number")
	}
	return &d, nil
}
