package storage_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maynagashev/filekeeper/internal/storage"
)

func newMemStorage(t *testing.T) (*storage.LocalStorage, afero.Fs) {
	t.Helper()
	fs := afero.NewMemMapFs()
	s, err := storage.NewLocalStorage(fs, "/data")
	require.NoError(t, err)
	return s, fs
}

func TestLocalStorage_WriteRead(t *testing.T) {
	ctx := context.Background()
	s, fs := newMemStorage(t)

	require.NoError(t, s.Write(ctx, "notes.txt", []byte("hello")))

	data, err := s.Read(ctx, "notes.txt")
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), data)

	onDisk, err := afero.ReadFile(fs, "/data/notes.txt")
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), onDisk)

	exists, err := s.Exists(ctx, "notes.txt")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestLocalStorage_OverwriteReplacesContent(t *testing.T) {
	ctx := context.Background()
	s, fs := newMemStorage(t)

	require.NoError(t, s.Write(ctx, "notes.txt", []byte("a much longer first version")))
	require.NoError(t, s.Write(ctx, "notes.txt", []byte("short")))

	data, err := s.Read(ctx, "notes.txt")
	require.NoError(t, err)
	assert.Equal(t, []byte("short"), data)

	// Временные файлы не остаются в каталоге.
	entries, err := afero.ReadDir(fs, "/data")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "notes.txt", entries[0].Name())
}

func TestLocalStorage_EmptyContent(t *testing.T) {
	ctx := context.Background()
	s, _ := newMemStorage(t)

	require.NoError(t, s.Write(ctx, "empty.bin", nil))

	data, err := s.Read(ctx, "empty.bin")
	require.NoError(t, err)
	assert.Empty(t, data)

	exists, err := s.Exists(ctx, "empty.bin")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestLocalStorage_Missing(t *testing.T) {
	ctx := context.Background()
	s, _ := newMemStorage(t)

	_, err := s.Read(ctx, "missing.txt")
	require.ErrorIs(t, err, storage.ErrObjectNotFound)

	exists, err := s.Exists(ctx, "missing.txt")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestLocalStorage_InvalidKeys(t *testing.T) {
	ctx := context.Background()
	s, fs := newMemStorage(t)
	require.NoError(t, afero.WriteFile(fs, "/secret.txt", []byte("top secret"), 0o600))

	keys := []string{
		"",
		".",
		"..",
		"../secret.txt",
		"dir/file.txt",
		"..\\secret.txt",
		"nul\x00byte",
		".upload-123",
		".filekeeper.lock",
	}
	for _, key := range keys {
		t.Run(key, func(t *testing.T) {
			err := s.Write(ctx, key, []byte("x"))
			require.ErrorIs(t, err, storage.ErrInvalidKey)

			_, err = s.Read(ctx, key)
			require.ErrorIs(t, err, storage.ErrInvalidKey)

			_, err = s.Exists(ctx, key)
			require.ErrorIs(t, err, storage.ErrInvalidKey)
		})
	}

	data, err := afero.ReadFile(fs, "/secret.txt")
	require.NoError(t, err)
	assert.Equal(t, []byte("top secret"), data, "Файл за пределами каталога не должен меняться")
}

func TestValidateKey(t *testing.T) {
	for _, key := range []string{"notes.txt", "Notes.TXT", ".hidden", "a..b", "файл.txt", "with space"} {
		assert.NoError(t, storage.ValidateKey(key), key)
	}
}

func TestLocalStorage_ExistsOnDirectory(t *testing.T) {
	ctx := context.Background()
	s, fs := newMemStorage(t)
	require.NoError(t, fs.MkdirAll("/data/subdir", 0o755))

	exists, err := s.Exists(ctx, "subdir")
	require.NoError(t, err)
	assert.False(t, exists, "Каталог не считается файлом")
}

func TestLocalStorage_WriteError(t *testing.T) {
	ctx := context.Background()
	base := afero.NewMemMapFs()
	require.NoError(t, base.MkdirAll("/data", 0o755))
	s, err := storage.NewLocalStorage(afero.NewReadOnlyFs(base), "/data")
	require.NoError(t, err)

	err = s.Write(ctx, "notes.txt", []byte("hello"))
	require.Error(t, err)
	assert.False(t, errors.Is(err, storage.ErrInvalidKey))
}

func TestLocalStorage_ConcurrentWritersNeverExposePartialContent(t *testing.T) {
	ctx := context.Background()
	s, err := storage.NewLocalStorage(afero.NewOsFs(), t.TempDir())
	require.NoError(t, err)

	versions := [][]byte{
		[]byte(strings.Repeat("a", 64*1024)),
		[]byte(strings.Repeat("b", 64*1024)),
	}
	require.NoError(t, s.Write(ctx, "big.bin", versions[0]))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.Write(ctx, "big.bin", versions[i%2]); err != nil {
				t.Errorf("Write: %v", err)
			}
		}()
		wg.Add(1)
		go func() {
			defer wg.Done()
			data, err := s.Read(ctx, "big.bin")
			if err != nil {
				t.Errorf("Read: %v", err)
				return
			}
			if string(data) != string(versions[0]) && string(data) != string(versions[1]) {
				t.Errorf("Прочитано частично записанное содержимое длиной %d", len(data))
			}
		}()
	}
	wg.Wait()
}

func TestNewLocalStorage_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")

	_, err := storage.NewLocalStorage(afero.NewOsFs(), dir)
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestLockDir(t *testing.T) {
	dir := t.TempDir()

	lock, err := storage.LockDir(dir)
	require.NoError(t, err)

	_, err = storage.LockDir(dir)
	require.ErrorIs(t, err, storage.ErrDirLocked, "Второй захват того же каталога должен завершиться ошибкой")

	require.NoError(t, lock.Unlock())

	again, err := storage.LockDir(dir)
	require.NoError(t, err)
	require.NoError(t, again.Unlock())
}
