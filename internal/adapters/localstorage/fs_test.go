package localstorage

import (
	"context"
	"io"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"albumgrab/internal/core/domain"
)

func TestEnsureDir_CreatesRecursivelyAndIsIdempotent(t *testing.T) {
	fs := afero.NewMemMapFs()
	s := NewLocalStorageFs(fs, "/out/nested/albums")

	require.NoError(t, s.EnsureDir(context.Background()))
	ok, err := afero.DirExists(fs, "/out/nested/albums")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, s.EnsureDir(context.Background()))
}

func TestEnsureDir_OnOsFs(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	s := NewLocalStorage(dir)

	require.NoError(t, s.EnsureDir(context.Background()))
	require.NoError(t, s.EnsureDir(context.Background()))
	assert.DirExists(t, dir)
}

func TestCreate_Overwrites(t *testing.T) {
	fs := afero.NewMemMapFs()
	s := NewLocalStorageFs(fs, "/out")
	require.NoError(t, s.EnsureDir(context.Background()))

	write := func(content string) {
		w, err := s.Create("photo.jpg")
		require.NoError(t, err)
		_, err = io.WriteString(w, content)
		require.NoError(t, err)
		require.NoError(t, w.Close())
	}

	write("a much longer first version")
	write("short")

	got, err := afero.ReadFile(fs, "/out/photo.jpg")
	require.NoError(t, err)
	assert.Equal(t, "short", string(got))
}

func TestCreate_RejectsUnsafeNames(t *testing.T) {
	s := NewLocalStorageFs(afero.NewMemMapFs(), "/out")
	require.NoError(t, s.EnsureDir(context.Background()))

	for _, name := range []string{"", ".", "..", "../escape", "sub/file", `sub\file`} {
		_, err := s.Create(name)
		assert.ErrorIs(t, err, domain.ErrUnsafeName, "name %q", name)
	}
}

func TestCreate_MissingDirFails(t *testing.T) {
	s := NewLocalStorageFs(afero.NewReadOnlyFs(afero.NewMemMapFs()), "/out")
	_, err := s.Create("photo.jpg")
	require.Error(t, err)
}
