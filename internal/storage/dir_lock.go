package storage

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

const lockFileName = ".filekeeper.lock"

// LockDir захватывает файловую блокировку каталога хранилища.
// Реестр владельцев живет в памяти процесса, поэтому один каталог
// может обслуживать только один сервер.
func LockDir(basePath string) (*flock.Flock, error) {
	if err := os.MkdirAll(basePath, dirPerms); err != nil {
		return nil, fmt.Errorf("ошибка создания каталога хранилища '%s': %w", basePath, err)
	}

	lock := flock.New(filepath.Join(basePath, lockFileName))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("ошибка блокировки каталога '%s': %w", basePath, err)
	}
	if !locked {
		return nil, fmt.Errorf("%w: '%s'", ErrDirLocked, basePath)
	}

	log.Printf("[LocalStorage] Каталог '%s' заблокирован за текущим процессом", basePath)
	return lock, nil
}

// Кастомная ошибка блокировки каталога.
var (
	ErrDirLocked = errors.New("каталог хранилища уже используется другим процессом")
)
