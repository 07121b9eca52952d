package repository

import "context"

// ArchiveStore guarda el contenido de los ZIP subidos. ref es la clave devuelta por Put.
type ArchiveStore interface {
	Put(ctx context.Context, name string, data []byte) (ref string, err error)
	Get(ctx context.Context, ref string) ([]byte, error)
	Delete(ctx context.Context, ref string) error
}
