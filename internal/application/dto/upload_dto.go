package dto

import "time"

// UploadFile un archivo recibido en el multipart (ZIP o XML suelto).
type UploadFile struct {
	Name string
	Data []byte
}

// UploadResponse metadatos de un upload.
type UploadResponse struct {
	ID         string    `json:"id"`
	ClientID   string    `json:"client_id"`
	Filename   string    `json:"filename"`
	Size       int64     `json:"size"`
	SHA256     string    `json:"sha256"`
	XMLEntries int       `json:"xml_entries,omitempty"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// UploadListResponse lista paginada de uploads.
type UploadListResponse struct {
	Items []UploadResponse `json:"items"`
	Page  PageResponse     `json:"page"`
}
