package usecase

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/audita-nfe/internal/application/dto"
	"github.com/jhoicas/audita-nfe/internal/domain"
	"github.com/jhoicas/audita-nfe/internal/domain/entity"
	"github.com/jhoicas/audita-nfe/internal/domain/repository"
	"github.com/jhoicas/audita-nfe/internal/infrastructure/nfe"
)

var zipMagic = []byte("PK\x03\x04")

// UploadUseCase recibe los ZIP (o XML sueltos) de un cliente y los guarda.
type UploadUseCase struct {
	clients  repository.ClientRepository
	uploads  repository.UploadRepository
	archives repository.ArchiveStore
	logs     repository.AuditLogRepository
}

// NewUploadUseCase construye el caso de uso.
func NewUploadUseCase(
	clients repository.ClientRepository,
	uploads repository.UploadRepository,
	archives repository.ArchiveStore,
	logs repository.AuditLogRepository,
) *UploadUseCase {
	return &UploadUseCase{clients: clients, uploads: uploads, archives: archives, logs: logs}
}

// Upload guarda los archivos de un cliente. Un único ZIP se guarda tal cual (después
// de verificar que abre); uno o más .xml se empaquetan en un ZIP nuevo.
//
// Retorna:
//   - domain.ErrNotFound       si el cliente no existe o es de otra empresa.
//   - domain.ErrInvalidInput   sin archivos o con archivos que no son ZIP ni XML.
//   - domain.ErrArchiveCorrupt si el ZIP no se puede abrir.
func (uc *UploadUseCase) Upload(
	ctx context.Context,
	companyID, userID, clientID string,
	files []dto.UploadFile,
) (*dto.UploadResponse, error) {
	client, err := uc.clients.GetByID(clientID)
	if err != nil {
		return nil, fmt.Errorf("upload: obtener cliente: %w", err)
	}
	if client == nil || client.CompanyID != companyID {
		return nil, domain.ErrNotFound
	}

	name, data, err := packFiles(files)
	if err != nil {
		return nil, err
	}
	archive, err := nfe.OpenArchive(data)
	if err != nil {
		return nil, err
	}

	sum := sha256.Sum256(data)
	ref, err := uc.archives.Put(ctx, name, data)
	if err != nil {
		return nil, fmt.Errorf("upload: guardar archivo: %w", err)
	}
	upload := &entity.Upload{
		ID:         uuid.New().String(),
		CompanyID:  companyID,
		ClientID:   clientID,
		Filename:   name,
		StorageRef: ref,
		Size:       int64(len(data)),
		SHA256:     hex.EncodeToString(sum[:]),
		UploadedAt: time.Now(),
	}
	if err := uc.uploads.Create(upload); err != nil {
		_ = uc.archives.Delete(ctx, ref)
		return nil, fmt.Errorf("upload: registrar: %w", err)
	}
	// best-effort: el upload ya quedó guardado
	_ = uc.logs.Create(&entity.AuditLog{
		ID:        uuid.New().String(),
		CompanyID: companyID,
		UserID:    userID,
		Action:    entity.ActionUpload,
		Details:   fmt.Sprintf("upload %s (%s, %d bytes) del cliente %s", upload.ID, name, upload.Size, clientID),
		CreatedAt: upload.UploadedAt,
	})

	out := toUploadResponse(upload)
	out.XMLEntries = archive.Len()
	return &out, nil
}

// List uploads del cliente, más recientes primero.
func (uc *UploadUseCase) List(companyID, clientID string, limit, offset int) (*dto.UploadListResponse, error) {
	client, err := uc.clients.GetByID(clientID)
	if err != nil {
		return nil, err
	}
	if client == nil || client.CompanyID != companyID {
		return nil, domain.ErrNotFound
	}
	list, err := uc.uploads.ListByClient(clientID, limit, offset)
	if err != nil {
		return nil, err
	}
	items := make([]dto.UploadResponse, 0, len(list))
	for _, u := range list {
		items = append(items, toUploadResponse(u))
	}
	return &dto.UploadListResponse{Items: items, Page: dto.PageResponse{Limit: limit, Offset: offset}}, nil
}

func packFiles(files []dto.UploadFile) (string, []byte, error) {
	if len(files) == 0 {
		return "", nil, fmt.Errorf("%w: no se recibieron archivos", domain.ErrInvalidInput)
	}
	if len(files) == 1 && isZip(files[0]) {
		return filepath.Base(files[0].Name), files[0].Data, nil
	}

	entries := make([]nfe.Entry, 0, len(files))
	for _, f := range files {
		if !nfe.IsXMLName(f.Name) {
			return "", nil, fmt.Errorf("%w: %s no es .zip ni .xml", domain.ErrInvalidInput, f.Name)
		}
		entries = append(entries, nfe.Entry{Name: f.Name, Data: f.Data})
	}
	data, err := nfe.BuildArchive(entries)
	if err != nil {
		return "", nil, err
	}
	name := strings.TrimSuffix(filepath.Base(files[0].Name), filepath.Ext(files[0].Name)) + ".zip"
	if len(files) > 1 {
		name = fmt.Sprintf("notas_%d.zip", len(files))
	}
	return name, data, nil
}

func isZip(f dto.UploadFile) bool {
	return strings.EqualFold(filepath.Ext(f.Name), ".zip") || bytes.HasPrefix(f.Data, zipMagic)
}

func toUploadResponse(u *entity.Upload) dto.UploadResponse {
	return dto.UploadResponse{
		ID:         u.ID,
		ClientID:   u.ClientID,
		Filename:   u.Filename,
		Size:       u.Size,
		SHA256:     u.SHA256,
		UploadedAt: u.UploadedAt,
	}
}
