package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/audita-nfe/internal/application/dto"
	"github.com/jhoicas/audita-nfe/internal/application/usecase"
)

// AnalysisHandler corridas del motor y su informe PDF.
type AnalysisHandler struct {
	uc     *usecase.AnalysisUseCase
	report *usecase.ReportUseCase
}

// NewAnalysisHandler construye el handler.
func NewAnalysisHandler(uc *usecase.AnalysisUseCase, report *usecase.ReportUseCase) *AnalysisHandler {
	return &AnalysisHandler{uc: uc, report: report}
}

// Run godoc
// @Summary      Ejecutar el análisis de un upload
// @Description  aliquota e imposto_pago son opcionales y aceptan número o texto ("8,5", "R$ 1.234,56").
// @Description  Con ambos informados manda la alíquota.
// @Tags         analyses
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RunAnalysisRequest  true  "upload_id, aliquota, imposto_pago"
// @Success      201   {object}  dto.AnalysisResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/analyses [post]
func (h *AnalysisHandler) Run(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	var in dto.RunAnalysisRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "cuerpo inválido")
	}
	if in.UploadID == "" {
		return badRequest(c, "VALIDATION", "upload_id es requerido")
	}
	out, err := h.uc.Run(c.UserContext(), companyID, GetUserID(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// GetByID godoc
// @Summary      Detalle de una corrida con totales
// @Tags         analyses
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la corrida"
// @Success      200  {object}  dto.AnalysisResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/analyses/{id} [get]
func (h *AnalysisHandler) GetByID(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	out, err := h.uc.Get(companyID, c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// List godoc
// @Summary      Corridas de un cliente
// @Tags         analyses
// @Security     Bearer
// @Produce      json
// @Param        client_id  query  string  true   "ID del cliente"
// @Param        limit      query  int     false  "Límite"  default(20)
// @Param        offset     query  int     false  "Offset"  default(0)
// @Success      200  {object}  dto.AnalysisListResponse
// @Router       /api/analyses [get]
func (h *AnalysisHandler) List(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	clientID := c.Query("client_id")
	if clientID == "" {
		return badRequest(c, "VALIDATION", "client_id es requerido")
	}
	limit, offset := pagination(c)
	out, err := h.uc.List(companyID, clientID, limit, offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Report godoc
// @Summary      Informe PDF de la corrida
// @Tags         analyses
// @Security     Bearer
// @Produce      application/pdf
// @Param        id   path  string  true  "ID de la corrida"
// @Success      200  {file}    binary
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/analyses/{id}/report.pdf [get]
func (h *AnalysisHandler) Report(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	pdf, filename, err := h.report.DownloadReport(c.UserContext(), companyID, c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Send(pdf)
}
