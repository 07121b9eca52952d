package classifier

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/jhoicas/audita-nfe/internal/domain/entity"
)

// Loader fuente del diccionario (archivo, embebido, base de datos).
type Loader interface {
	Load(ctx context.Context) ([]entity.CategoryRule, error)
}

// LoaderFunc adapta una función a Loader.
type LoaderFunc func(ctx context.Context) ([]entity.CategoryRule, error)

// Load implementa Loader.
func (f LoaderFunc) Load(ctx context.Context) ([]entity.CategoryRule, error) { return f(ctx) }

// Store mantiene el clasificador vigente. Una recarga compila uno nuevo y lo
// reemplaza de forma atómica; los lectores nunca ven un diccionario a medio cargar.
type Store struct {
	current atomic.Pointer[Classifier]
	loader  Loader
	opts    Options
	mu      sync.Mutex // serializa recargas
}

// NewStore carga el diccionario inicial; falla si no se puede cargar.
func NewStore(ctx context.Context, loader Loader, opts Options) (*Store, error) {
	s := &Store{loader: loader, opts: opts}
	if _, err := s.Reload(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// NewStaticStore store con un clasificador ya compilado y sin fuente de recarga.
func NewStaticStore(c *Classifier) *Store {
	s := &Store{opts: Options{Threshold: c.Threshold()}}
	s.current.Store(c)
	return s
}

// Current clasificador vigente. Una corrida de análisis debe tomarlo una sola vez.
func (s *Store) Current() *Classifier {
	return s.current.Load()
}

// Reload vuelve a leer la fuente y reemplaza el clasificador. Si falla, el
// vigente se mantiene.
func (s *Store) Reload(ctx context.Context) (*Classifier, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.loader == nil {
		return nil, fmt.Errorf("classifier: store sin loader")
	}
	rules, err := s.loader.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("cargar diccionario: %w", err)
	}
	c, err := New(rules, s.opts)
	if err != nil {
		return nil, err
	}
	s.current.Store(c)
	return c, nil
}

// Swap instala un clasificador ya compilado (tests, actualización desde la API).
func (s *Store) Swap(c *Classifier) {
	s.current.Store(c)
}
