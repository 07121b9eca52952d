package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound           = errors.New("recurso no encontrado")
	ErrUserNotFound       = errors.New("usuario no encontrado")
	ErrEmailAlreadyExists = errors.New("el email ya está registrado")
	ErrInvalidInput       = errors.New("entrada inválida")
	ErrDuplicate          = errors.New("recurso duplicado")
	ErrUnauthorized       = errors.New("no autorizado")
	ErrForbidden          = errors.New("acceso denegado")
	ErrConflict           = errors.New("conflicto con el estado actual")
	ErrUnavailable        = errors.New("servicio no configurado o no disponible")

	// Motor de auditoría
	ErrArchiveCorrupt     = errors.New("el archivo no es un ZIP válido")
	ErrDocumentUnparsable = errors.New("documento XML ilegible o sin raíz NF-e")
	ErrUnknownCategory    = errors.New("categoría inexistente en el diccionario")
)
