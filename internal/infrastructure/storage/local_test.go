package storage_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/audita-nfe/internal/domain"
	"github.com/jhoicas/audita-nfe/internal/infrastructure/storage"
)

func TestLocalStore_PutGetDelete(t *testing.T) {
	s, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	ref, err := s.Put(ctx, "Notas Março.ZIP", []byte("conteudo"))
	require.NoError(t, err)
	assert.Regexp(t, `^\d{4}/\d{2}/[0-9a-f-]{36}\.zip$`, ref)

	data, err := s.Get(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, []byte("conteudo"), data)

	require.NoError(t, s.Delete(ctx, ref))
	_, err = s.Get(ctx, ref)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	assert.NoError(t, s.Delete(ctx, ref), "borrar dos veces no falla")
}

func TestLocalStore_RejectsEscapingRefs(t *testing.T) {
	s, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)

	for _, ref := range []string{"", "../etc/passwd", "/etc/passwd", ".."} {
		_, err := s.Get(context.Background(), ref)
		assert.True(t, errors.Is(err, domain.ErrInvalidInput), ref)
	}
}

func TestLocalStore_CancelledContext(t *testing.T) {
	s, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.Put(ctx, "a.zip", []byte("x"))
	assert.ErrorIs(t, err, context.Canceled)
}
