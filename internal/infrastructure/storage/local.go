// Package storage guarda los ZIP subidos en el disco local.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/audita-nfe/internal/domain"
	"github.com/jhoicas/audita-nfe/internal/domain/repository"
)

var _ repository.ArchiveStore = (*LocalStore)(nil)

// LocalStore un archivo por upload bajo dir/AAAA/MM/. La referencia es la ruta relativa.
type LocalStore struct {
	dir string
	now func() time.Time
}

// NewLocalStore crea el directorio raíz si no existe.
func NewLocalStore(dir string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("storage: crear %s: %w", dir, err)
	}
	return &LocalStore{dir: dir, now: time.Now}, nil
}

// Put escribe el contenido y devuelve la referencia.
func (s *LocalStore) Put(ctx context.Context, name string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		ext = ".zip"
	}
	now := s.now().UTC()
	ref := filepath.ToSlash(filepath.Join(now.Format("2006"), now.Format("01"), uuid.New().String()+ext))

	full := filepath.Join(s.dir, filepath.FromSlash(ref))
	if err := os.MkdirAll(filepath.Dir(full), 0o750); err != nil {
		return "", fmt.Errorf("storage: crear directorio: %w", err)
	}
	if err := os.WriteFile(full, data, 0o640); err != nil {
		return "", fmt.Errorf("storage: escribir %s: %w", ref, err)
	}
	return ref, nil
}

// Get lee el contenido; domain.ErrNotFound si no existe.
func (s *LocalStore) Get(ctx context.Context, ref string) ([]byte, error) {
	full, err := s.resolve(ref)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(full)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("storage: leer %s: %w", ref, err)
	}
	return data, nil
}

// Delete borra el archivo. Referencias inexistentes no son error.
func (s *LocalStore) Delete(ctx context.Context, ref string) error {
	full, err := s.resolve(ref)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("storage: borrar %s: %w", ref, err)
	}
	return nil
}

// resolve rechaza referencias que salen del directorio raíz.
func (s *LocalStore) resolve(ref string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(ref))
	if ref == "" || filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: referencia %q", domain.ErrInvalidInput, ref)
	}
	return filepath.Join(s.dir, clean), nil
}
