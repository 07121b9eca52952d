package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/audita-nfe/internal/application/dto"
	"github.com/jhoicas/audita-nfe/internal/application/usecase"
)

// DictionaryHandler consulta y mantenimiento del diccionario monofásico, más las
// sugerencias del LLM.
type DictionaryHandler struct {
	uc *usecase.DictionaryUseCase
	ai *usecase.AIUseCase
}

// NewDictionaryHandler construye el handler.
func NewDictionaryHandler(uc *usecase.DictionaryUseCase, ai *usecase.AIUseCase) *DictionaryHandler {
	return &DictionaryHandler{uc: uc, ai: ai}
}

// Get godoc
// @Summary      Diccionario vigente
// @Tags         dictionary
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.DictionaryResponse
// @Router       /api/dictionary [get]
func (h *DictionaryHandler) Get(c *fiber.Ctx) error {
	return c.JSON(h.uc.Get())
}

// Update godoc
// @Summary      Agregar palabras clave a una categoría
// @Description  Une las palabras y prefijos NCM a la categoría (replace=true los reemplaza),
// @Description  guarda el diccionario y lo recarga. Las corridas en curso no se ven afectadas.
// @Tags         dictionary
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.UpdateCategoryRequest  true  "category, keywords, ncm_prefixes"
// @Success      200   {object}  dto.DictionaryResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      503   {object}  dto.ErrorResponse
// @Router       /api/dictionary [put]
func (h *DictionaryHandler) Update(c *fiber.Ctx) error {
	var in dto.UpdateCategoryRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "cuerpo inválido")
	}
	out, err := h.uc.Update(c.UserContext(), GetCompanyID(c), GetUserID(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Reload godoc
// @Summary      Releer el diccionario desde su fuente
// @Tags         dictionary
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.DictionaryResponse
// @Failure      500  {object}  dto.ErrorResponse
// @Router       /api/dictionary/reload [post]
func (h *DictionaryHandler) Reload(c *fiber.Ctx) error {
	out, err := h.uc.Reload(c.UserContext(), GetCompanyID(c), GetUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Suggest godoc
// @Summary      Sugerir categorías con IA
// @Description  Consulta al LLM sólo por las descripciones que el diccionario no reconoce.
// @Description  Las sugerencias no se aplican; el usuario decide si agregarlas con PUT /api/dictionary.
// @Tags         dictionary
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.SuggestRequest  true  "descriptions (1..50)"
// @Success      200   {object}  dto.SuggestResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      408   {object}  dto.ErrorResponse
// @Failure      503   {object}  dto.ErrorResponse
// @Router       /api/dictionary/suggest [post]
func (h *DictionaryHandler) Suggest(c *fiber.Ctx) error {
	var in dto.SuggestRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "cuerpo inválido")
	}
	out, err := h.ai.SuggestCategories(c.UserContext(), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}
