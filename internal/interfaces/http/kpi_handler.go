package http

import (
	"net/url"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/kpi-tracker/internal/application/dto"
	"github.com/jhoicas/kpi-tracker/internal/application/usecase"
)

// KpiHandler maneja las peticiones HTTP para KPIs (protegido).
type KpiHandler struct {
	uc *usecase.KpiUseCase
}

// NewKpiHandler construye el handler.
func NewKpiHandler(uc *usecase.KpiUseCase) *KpiHandler {
	return &KpiHandler{uc: uc}
}

// Create godoc
// @Summary      Crear KPI
// @Tags         kpis
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateKpiRequest  true  "Datos del KPI"
// @Success      201   {object}  dto.KpiResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Router       /api/kpis [post]
func (h *KpiHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateKpiRequest
	if err := c.BodyParser(&in); err != nil {
		return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
	}
	if err := validateStruct(in); err != nil {
		return respondError(c, err)
	}
	out, err := h.uc.Create(c.UserContext(), GetIdentity(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// GetByID godoc
// @Summary      Obtener KPI por ID
// @Tags         kpis
// @Security     Bearer
// @Produce      json
// @Param        id   path  int  true  "ID del KPI"
// @Success      200  {object}  dto.KpiResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/kpis/{id} [get]
func (h *KpiHandler) GetByID(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	out, err := h.uc.GetByID(c.UserContext(), GetIdentity(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Update godoc
// @Summary      Actualizar valor y umbral
// @Tags         kpis
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  int                   true  "ID del KPI"
// @Param        body  body  dto.UpdateKpiRequest  true  "value, threshold"
// @Success      200   {object}  dto.KpiResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/kpis/{id} [put]
func (h *KpiHandler) Update(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var in dto.UpdateKpiRequest
	if err := c.BodyParser(&in); err != nil {
		return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
	}
	if err := validateStruct(in); err != nil {
		return respondError(c, err)
	}
	out, err := h.uc.Update(c.UserContext(), GetIdentity(c), id, in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Delete godoc
// @Summary      Eliminar KPI (lo quita de todos los reportes)
// @Tags         kpis
// @Security     Bearer
// @Param        id   path  int  true  "ID del KPI"
// @Success      204
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/kpis/{id} [delete]
func (h *KpiHandler) Delete(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	if err := h.uc.Delete(c.UserContext(), GetIdentity(c), id); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Activate godoc
// @Summary      Activar KPI
// @Tags         kpis
// @Security     Bearer
// @Produce      json
// @Param        id   path  int  true  "ID del KPI"
// @Success      200  {object}  dto.KpiResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/kpis/{id}/activate [put]
func (h *KpiHandler) Activate(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	out, err := h.uc.Activate(c.UserContext(), GetIdentity(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Deactivate godoc
// @Summary      Desactivar KPI
// @Tags         kpis
// @Security     Bearer
// @Produce      json
// @Param        id   path  int  true  "ID del KPI"
// @Success      200  {object}  dto.KpiResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/kpis/{id}/deactivate [put]
func (h *KpiHandler) Deactivate(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	out, err := h.uc.Deactivate(c.UserContext(), GetIdentity(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// List godoc
// @Summary      Listar KPIs
// @Tags         kpis
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.KpiListResponse
// @Router       /api/kpis [get]
func (h *KpiHandler) List(c *fiber.Ctx) error {
	out, err := h.uc.List(c.UserContext(), GetIdentity(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// ListActive godoc
// @Summary      Listar KPIs activos
// @Tags         kpis
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.KpiListResponse
// @Router       /api/kpis/active [get]
func (h *KpiHandler) ListActive(c *fiber.Ctx) error {
	out, err := h.uc.ListActive(c.UserContext(), GetIdentity(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// ListExceedingThreshold godoc
// @Summary      KPIs con valor mayor al umbral
// @Tags         kpis
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.KpiListResponse
// @Router       /api/kpis/exceeding-threshold [get]
func (h *KpiHandler) ListExceedingThreshold(c *fiber.Ctx) error {
	out, err := h.uc.ListExceedingThreshold(c.UserContext(), GetIdentity(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// ListByNamePrefix godoc
// @Summary      KPIs cuyo nombre empieza por prefix
// @Tags         kpis
// @Security     Bearer
// @Produce      json
// @Param        prefix  path  string  true  "Prefijo del nombre"
// @Success      200     {object}  dto.KpiListResponse
// @Router       /api/kpis/by-name-prefix/{prefix} [get]
func (h *KpiHandler) ListByNamePrefix(c *fiber.Ctx) error {
	prefix, err := url.PathUnescape(c.Params("prefix"))
	if err != nil {
		return writeError(c, fiber.StatusBadRequest, "VALIDATION", "prefix: invalid encoding")
	}
	out, err := h.uc.ListByNamePrefix(c.UserContext(), GetIdentity(c), prefix)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Filter godoc
// @Summary      Filtrar KPIs por rango de valor y prefijo
// @Tags         kpis
// @Security     Bearer
// @Produce      json
// @Param        min     query  number  false  "Valor mínimo"
// @Param        max     query  number  false  "Valor máximo"
// @Param        prefix  query  string  false  "Prefijo del nombre"
// @Success      200     {object}  dto.KpiListResponse
// @Failure      400     {object}  dto.ErrorResponse
// @Router       /api/kpis/filter [get]
func (h *KpiHandler) Filter(c *fiber.Ctx) error {
	var in dto.KpiFilterRequest
	var err error
	if in.Min, err = queryDecimal(c, "min"); err != nil {
		return respondError(c, err)
	}
	if in.Max, err = queryDecimal(c, "max"); err != nil {
		return respondError(c, err)
	}
	in.Prefix = c.Query("prefix")
	out, err := h.uc.Filter(c.UserContext(), GetIdentity(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// ListMine godoc
// @Summary      KPIs usados en mis reportes
// @Tags         kpis
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.KpiListResponse
// @Router       /api/kpis/my-using [get]
func (h *KpiHandler) ListMine(c *fiber.Ctx) error {
	out, err := h.uc.ListMine(c.UserContext(), GetIdentity(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// FindByUserID godoc
// @Summary      KPIs usados en los reportes de un usuario
// @Tags         kpis
// @Security     Bearer
// @Produce      json
// @Param        userId  path  int  true  "ID del usuario"
// @Success      200     {object}  dto.KpiListResponse
// @Router       /api/kpis/user/{userId} [get]
func (h *KpiHandler) FindByUserID(c *fiber.Ctx) error {
	userID, err := pathID(c, "userId")
	if err != nil {
		return respondError(c, err)
	}
	out, err := h.uc.FindByUserID(c.UserContext(), GetIdentity(c), userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}
