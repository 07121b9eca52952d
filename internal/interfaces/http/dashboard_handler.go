package http

import (
	"github.com/gofiber/fiber/v2"

	appanalytics "github.com/jhoicas/audita-nfe/internal/application/analytics"
	"github.com/jhoicas/audita-nfe/internal/application/dto"
)

// DashboardHandler maneja los endpoints del panel.
type DashboardHandler struct {
	uc *appanalytics.DashboardUseCase
}

// NewDashboardHandler construye el handler.
func NewDashboardHandler(uc *appanalytics.DashboardUseCase) *DashboardHandler {
	return &DashboardHandler{uc: uc}
}

// GetClient godoc
// @Summary      Panel de un cliente
// @Description  Tarjetas, errores fiscales y productos del último upload del cliente (o del upload_id
// @Description  indicado). Si el upload todavía no tiene corrida se ejecuta sin alíquota.
// @Tags         dashboard
// @Security     Bearer
// @Produce      json
// @Param        client_id  query  string  true   "ID del cliente"
// @Param        upload_id  query  string  false  "ID del upload"
// @Success      200  {object}  dto.DashboardDTO
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/dashboard [get]
func (h *DashboardHandler) GetClient(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	clientID := c.Query("client_id")
	if clientID == "" {
		return badRequest(c, "VALIDATION", "client_id es requerido")
	}
	out, err := h.uc.GetClientDashboard(c.UserContext(), companyID, GetUserID(c), clientID, c.Query("upload_id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// GetOverview devuelve el resumen de todos los clientes de la oficina.
// GET /api/dashboard/overview
//
// Respuesta: OverviewDTO (una fila por cliente con uploads, corridas, receita excluída
// y economía estimada, más los totales). Clientes ordenados por economía.
func (h *DashboardHandler) GetOverview(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Code: "UNAUTHORIZED", Message: "company_id no encontrado en el token",
		})
	}

	overview, err := h.uc.GetOverview(c.UserContext(), companyID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Code: "INTERNAL", Message: err.Error(),
		})
	}

	return c.JSON(overview)
}
