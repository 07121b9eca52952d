package dictionary

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/jhoicas/audita-nfe/internal/domain/classifier"
	"github.com/jhoicas/audita-nfe/pkg/logger"
)

const defaultDebounce = 250 * time.Millisecond

// Watcher recarga el diccionario cuando cambia el archivo. Observa el directorio y
// no el archivo: los editores y FileSource.Save reemplazan el archivo con rename.
type Watcher struct {
	path     string
	store    *classifier.Store
	log      *logger.Logger
	debounce time.Duration
	onReload func(*classifier.Classifier, error)
}

// NewWatcher crea el watcher sobre path.
func NewWatcher(path string, store *classifier.Store, log *logger.Logger) *Watcher {
	if log == nil {
		log = logger.Nop()
	}
	return &Watcher{path: filepath.Clean(path), store: store, log: log, debounce: defaultDebounce}
}

// OnReload registra una función llamada después de cada intento de recarga.
func (w *Watcher) OnReload(fn func(*classifier.Classifier, error)) *Watcher {
	w.onReload = fn
	return w
}

// Run bloquea hasta que ctx termine.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("dictionary: crear watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("dictionary: observar %s: %w", w.path, err)
	}
	w.log.Info().Str("path", w.path).Msg("observando diccionario")

	var (
		timer   *time.Timer
		trigger <-chan time.Time
	)
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(ev) {
				continue
			}
			// varias escrituras seguidas producen una sola recarga
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}
			trigger = timer.C

		case <-trigger:
			trigger = nil
			w.reload(ctx)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn().Err(err).Msg("watcher del diccionario")
		}
	}
}

func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if filepath.Clean(ev.Name) != w.path {
		return false
	}
	return ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename)
}

func (w *Watcher) reload(ctx context.Context) {
	c, err := w.store.Reload(ctx)
	if err != nil {
		w.log.Error().Err(err).Str("path", w.path).Msg("recarga del diccionario fallida; se mantiene el vigente")
	} else {
		cats, kws := c.Stats()
		w.log.Info().
			Str("version", c.Fingerprint()).
			Int("categories", cats).
			Int("keywords", kws).
			Msg("diccionario recargado")
	}
	if w.onReload != nil {
		w.onReload(c, err)
	}
}
