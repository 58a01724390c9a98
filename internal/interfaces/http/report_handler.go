package http

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/kpi-tracker/internal/application/usecase"
	"github.com/jhoicas/kpi-tracker/internal/domain"
)

// defaultRecentDays ventana de /reports/recent cuando no viene days.
const defaultRecentDays = 7

// ReportHandler maneja las peticiones HTTP para reportes (protegido).
type ReportHandler struct {
	uc *usecase.ReportUseCase
}

// NewReportHandler construye el handler.
func NewReportHandler(uc *usecase.ReportUseCase) *ReportHandler {
	return &ReportHandler{uc: uc}
}

// Create godoc
// @Summary      Crear reporte con un KPI inicial
// @Tags         reports
// @Security     Bearer
// @Produce      json
// @Param        kpiId  query  int  true  "KPI inicial"
// @Success      201    {object}  dto.ReportResponse
// @Failure      404    {object}  dto.ErrorResponse
// @Router       /api/reports [post]
func (h *ReportHandler) Create(c *fiber.Ctx) error {
	kpiID, err := queryID(c, "kpiId")
	if err != nil {
		return respondError(c, err)
	}
	out, err := h.uc.Create(c.UserContext(), GetIdentity(c), kpiID)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// GetByID godoc
// @Summary      Obtener reporte por ID
// @Tags         reports
// @Security     Bearer
// @Produce      json
// @Param        id   path  int  true  "ID del reporte"
// @Success      200  {object}  dto.ReportResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/reports/{id} [get]
func (h *ReportHandler) GetByID(c *fiber.Ctx) error {
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

// Delete godoc
// @Summary      Eliminar reporte propio
// @Tags         reports
// @Security     Bearer
// @Param        id   path  int  true  "ID del reporte"
// @Success      204
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/reports/{id} [delete]
func (h *ReportHandler) Delete(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	if err := h.uc.Delete(c.UserContext(), GetIdentity(c), id); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// AddKpi godoc
// @Summary      Agregar KPI a un reporte propio
// @Tags         reports
// @Security     Bearer
// @Produce      json
// @Param        reportId  query  int  true  "ID del reporte"
// @Param        kpiId     query  int  true  "ID del KPI"
// @Success      200       {object}  dto.ReportResponse
// @Failure      404       {object}  dto.ErrorResponse
// @Failure      409       {object}  dto.ErrorResponse
// @Router       /api/reports/add-kpi [put]
func (h *ReportHandler) AddKpi(c *fiber.Ctx) error {
	reportID, kpiID, err := reportAndKpi(c)
	if err != nil {
		return respondError(c, err)
	}
	out, err := h.uc.AddKpi(c.UserContext(), GetIdentity(c), reportID, kpiID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// RemoveKpi godoc
// @Summary      Quitar KPI de un reporte propio
// @Tags         reports
// @Security     Bearer
// @Produce      json
// @Param        reportId  query  int  true  "ID del reporte"
// @Param        kpiId     query  int  true  "ID del KPI"
// @Success      200       {object}  dto.ReportResponse
// @Failure      404       {object}  dto.ErrorResponse
// @Failure      409       {object}  dto.ErrorResponse
// @Router       /api/reports/remove-kpi [put]
func (h *ReportHandler) RemoveKpi(c *fiber.Ctx) error {
	reportID, kpiID, err := reportAndKpi(c)
	if err != nil {
		return respondError(c, err)
	}
	out, err := h.uc.RemoveKpi(c.UserContext(), GetIdentity(c), reportID, kpiID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// ListRecent godoc
// @Summary      Reportes de los últimos N días
// @Tags         reports
// @Security     Bearer
// @Produce      json
// @Param        days  query  int  false  "Días hacia atrás (default 7)"
// @Success      200   {object}  dto.ReportListResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/reports/recent [get]
func (h *ReportHandler) ListRecent(c *fiber.Ctx) error {
	days := defaultRecentDays
	if raw := strings.TrimSpace(c.Query("days")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return respondError(c, domain.NewError(domain.ErrValidation, "days must be an integer"))
		}
		days = n
	}
	out, err := h.uc.ListRecentDays(c.UserContext(), GetIdentity(c), days)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// ListByRole godoc
// @Summary      Reportes cuyo autor tiene el rol
// @Tags         reports
// @Security     Bearer
// @Produce      json
// @Param        role  query  string  true  "CEO | MANAGER | EMPLOYEE"
// @Success      200   {object}  dto.ReportListResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/reports/by-role [get]
func (h *ReportHandler) ListByRole(c *fiber.Ctx) error {
	out, err := h.uc.ListByAuthorRole(c.UserContext(), GetIdentity(c), c.Query("role"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// ListMine godoc
// @Summary      Mis reportes
// @Tags         reports
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.ReportListResponse
// @Router       /api/reports/my-report [get]
func (h *ReportHandler) ListMine(c *fiber.Ctx) error {
	out, err := h.uc.ListMine(c.UserContext(), GetIdentity(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// ExportPDF godoc
// @Summary      Descargar reporte en PDF
// @Tags         reports
// @Security     Bearer
// @Produce      application/pdf
// @Param        id   path  int  true  "ID del reporte"
// @Success      200  {file}    binary
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/reports/{id}/pdf [get]
func (h *ReportHandler) ExportPDF(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	pdf, filename, err := h.uc.ExportPDF(c.UserContext(), GetIdentity(c), id)
	if err != nil {
		return respondError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Send(pdf)
}

func reportAndKpi(c *fiber.Ctx) (reportID, kpiID int64, err error) {
	if reportID, err = queryID(c, "reportId"); err != nil {
		return 0, 0, err
	}
	if kpiID, err = queryID(c, "kpiId"); err != nil {
		return 0, 0, err
	}
	return reportID, kpiID, nil
}
