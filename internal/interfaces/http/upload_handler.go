package http

import (
	"io"
	"mime/multipart"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/audita-nfe/internal/application/dto"
	"github.com/jhoicas/audita-nfe/internal/application/usecase"
)

const maxUploadFiles = 1000 // XML sueltos por petición

// UploadHandler recibe los ZIP de NF-e de un cliente.
type UploadHandler struct {
	uc *usecase.UploadUseCase
}

// NewUploadHandler construye el handler.
func NewUploadHandler(uc *usecase.UploadUseCase) *UploadHandler {
	return &UploadHandler{uc: uc}
}

// Create godoc
// @Summary      Subir NF-e de un cliente
// @Description  multipart/form-data con client_id y un ZIP ("file") o varios XML ("files").
// @Tags         uploads
// @Security     Bearer
// @Accept       multipart/form-data
// @Produce      json
// @Param        client_id  formData  string  true   "ID del cliente"
// @Param        file       formData  file    false  "ZIP con las NF-e"
// @Param        files      formData  file    false  "XML sueltos"
// @Success      201  {object}  dto.UploadResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      422  {object}  dto.ErrorResponse
// @Router       /api/uploads [post]
func (h *UploadHandler) Create(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	form, err := c.MultipartForm()
	if err != nil {
		return badRequest(c, "INVALID_BODY", "se esperaba multipart/form-data")
	}
	clientID := c.FormValue("client_id")
	if clientID == "" {
		return badRequest(c, "VALIDATION", "client_id es requerido")
	}

	headers := append(form.File["file"], form.File["files"]...)
	if len(headers) == 0 {
		return badRequest(c, "VALIDATION", "no se recibieron archivos")
	}
	if len(headers) > maxUploadFiles {
		return badRequest(c, "VALIDATION", "demasiados archivos en una sola petición")
	}
	files := make([]dto.UploadFile, 0, len(headers))
	for _, fh := range headers {
		data, err := readFormFile(fh)
		if err != nil {
			return badRequest(c, "INVALID_FILE", "no se pudo leer "+fh.Filename)
		}
		files = append(files, dto.UploadFile{Name: fh.Filename, Data: data})
	}

	out, err := h.uc.Upload(c.UserContext(), companyID, GetUserID(c), clientID, files)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// List godoc
// @Summary      Listar uploads de un cliente
// @Tags         uploads
// @Security     Bearer
// @Produce      json
// @Param        client_id  query  string  true   "ID del cliente"
// @Param        limit      query  int     false  "Límite"  default(20)
// @Param        offset     query  int     false  "Offset"  default(0)
// @Success      200  {object}  dto.UploadListResponse
// @Router       /api/uploads [get]
func (h *UploadHandler) List(c *fiber.Ctx) error {
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

func readFormFile(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
