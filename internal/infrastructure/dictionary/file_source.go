package dictionary

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/jhoicas/audita-nfe/internal/domain/classifier"
	"github.com/jhoicas/audita-nfe/internal/domain/entity"
)

//go:embed default_dictionary.json
var defaultDictionary []byte

// Verificar en tiempo de compilación que FileSource implementa Loader.
var _ classifier.Loader = (*FileSource)(nil)

// Embedded diccionario incluido en el binario; se usa cuando no hay archivo configurado.
func Embedded() classifier.Loader {
	return classifier.LoaderFunc(func(ctx context.Context) ([]entity.CategoryRule, error) {
		return Decode(defaultDictionary, FormatJSON)
	})
}

// FileSource diccionario en un archivo JSON o TOML, con catálogo NCM opcional.
type FileSource struct {
	path       string
	ncmCatalog string
	mu         sync.Mutex // serializa escrituras
}

// NewFileSource crea la fuente. ncmCatalog puede ser vacío.
func NewFileSource(path, ncmCatalog string) *FileSource {
	return &FileSource{path: path, ncmCatalog: ncmCatalog}
}

// Path ruta del archivo del diccionario.
func (s *FileSource) Path() string { return s.path }

// Load implementa classifier.Loader.
func (s *FileSource) Load(ctx context.Context) ([]entity.CategoryRule, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("dictionary: leer %s: %w", s.path, err)
	}
	rules, err := Decode(data, FormatFromPath(s.path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.path, err)
	}
	if s.ncmCatalog == "" {
		return rules, nil
	}
	cat, err := os.ReadFile(s.ncmCatalog)
	if err != nil {
		return nil, fmt.Errorf("dictionary: leer catálogo NCM: %w", err)
	}
	return ApplyNCMCatalog(rules, cat)
}

// Save reemplaza el archivo con las reglas dadas. Escribe a un temporal en el mismo
// directorio y lo renombra, así el watcher nunca lee un archivo a medias.
func (s *FileSource) Save(ctx context.Context, rules []entity.CategoryRule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := Encode(rules, FormatFromPath(s.path))
	if err != nil {
		return err
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("dictionary: crear directorio: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".dictionary-*")
	if err != nil {
		return fmt.Errorf("dictionary: archivo temporal: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("dictionary: escribir: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("dictionary: escribir: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("dictionary: reemplazar %s: %w", s.path, err)
	}
	return nil
}

// WriteDefault copia el diccionario embebido a path si el archivo no existe.
func WriteDefault(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	}
	rules, err := Decode(defaultDictionary, FormatJSON)
	if err != nil {
		return false, err
	}
	if err := NewFileSource(path, "").Save(context.Background(), rules); err != nil {
		return false, err
	}
	return true, nil
}
