package storage

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/afero"
)

const (
	dirPerms  = 0o755
	filePerms = 0o644
	// Префикс временных файлов. Такие имена зарезервированы и не принимаются как ключи.
	tempPrefix = ".upload-"
)

// LocalStorage хранит файлы в одном каталоге файловой системы.
type LocalStorage struct {
	fs       afero.Fs
	basePath string
}

var _ FileStorage = (*LocalStorage)(nil)

// NewLocalStorage создает хранилище в каталоге basePath файловой системы fs.
// Каталог создается, если его нет.
func NewLocalStorage(fs afero.Fs, basePath string) (*LocalStorage, error) {
	exists, err := afero.DirExists(fs, basePath)
	if err != nil {
		return nil, fmt.Errorf("ошибка проверки каталога хранилища '%s': %w", basePath, err)
	}
	if !exists {
		if err = fs.MkdirAll(basePath, dirPerms); err != nil {
			return nil, fmt.Errorf("ошибка создания каталога хранилища '%s': %w", basePath, err)
		}
	}
	log.Printf("[LocalStorage] Файлы хранятся в каталоге '%s'", basePath)
	return &LocalStorage{fs: fs, basePath: basePath}, nil
}

// Write записывает данные во временный файл и переименовывает его поверх key,
// поэтому читатели не видят частично записанный файл.
func (s *LocalStorage) Write(_ context.Context, key string, data []byte) error {
	if err := ValidateKey(key); err != nil {
		return err
	}

	tmpPath := filepath.Join(s.basePath, tempPrefix+uuid.NewString())
	if err := afero.WriteFile(s.fs, tmpPath, data, filePerms); err != nil {
		_ = s.fs.Remove(tmpPath)
		log.Printf("[LocalStorage] Ошибка записи временного файла для '%s': %v", key, err)
		return fmt.Errorf("ошибка записи файла: %w", err)
	}
	if err := s.fs.Rename(tmpPath, s.path(key)); err != nil {
		_ = s.fs.Remove(tmpPath)
		log.Printf("[LocalStorage] Ошибка переименования временного файла в '%s': %v", key, err)
		return fmt.Errorf("ошибка сохранения файла: %w", err)
	}

	log.Printf("[LocalStorage] Файл '%s' сохранен, размер: %d", key, len(data))
	return nil
}

// Read читает содержимое файла key.
func (s *LocalStorage) Read(_ context.Context, key string) ([]byte, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}

	data, err := afero.ReadFile(s.fs, s.path(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrObjectNotFound
		}
		log.Printf("[LocalStorage] Ошибка чтения файла '%s': %v", key, err)
		return nil, fmt.Errorf("ошибка чтения файла: %w", err)
	}
	return data, nil
}

// Exists проверяет наличие файла key.
func (s *LocalStorage) Exists(_ context.Context, key string) (bool, error) {
	if err := ValidateKey(key); err != nil {
		return false, err
	}

	info, err := s.fs.Stat(s.path(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("ошибка проверки файла: %w", err)
	}
	return !info.IsDir(), nil
}

func (s *LocalStorage) path(key string) string {
	return filepath.Join(s.basePath, key)
}

// ValidateKey проверяет, что key - имя файла внутри каталога хранилища,
// а не путь за его пределы.
func ValidateKey(key string) error {
	switch {
	case key == "", key == ".", key == "..":
		return fmt.Errorf("%w: '%s'", ErrInvalidKey, key)
	case strings.ContainsAny(key, "/\\\x00"):
		return fmt.Errorf("%w: '%s' содержит разделитель пути", ErrInvalidKey, key)
	case strings.HasPrefix(key, tempPrefix), key == lockFileName:
		return fmt.Errorf("%w: '%s' зарезервировано", ErrInvalidKey, key)
	}
	return nil
}
