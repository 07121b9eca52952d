package entity

import "time"

// Upload un ZIP de NF-e subido para un cliente.
type Upload struct {
	ID         string
	CompanyID  string
	ClientID   string
	Filename   string
	StorageRef string // clave en el ArchiveStore (ruta, id de blob)
	Size       int64
	SHA256     string
	UploadedAt time.Time
}
