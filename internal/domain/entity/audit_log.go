package entity

import "time"

// Acciones registradas en el log de auditoría.
const (
	ActionUpload           = "upload"
	ActionAnalysis         = "analysis"
	ActionDictionaryUpdate = "dictionary_update"
	ActionDictionaryReload = "dictionary_reload"
)

// AuditLog registro de una acción de usuario.
type AuditLog struct {
	ID        string
	CompanyID string
	UserID    string
	Action    string
	Details   string
	CreatedAt time.Time
}
