// Package storage содержит хранилища содержимого файлов.
package storage

import (
	"context"
	"errors"
)

// FileStorage определяет интерфейс хранилища содержимого файлов.
// Ключи - плоские имена файлов.
type FileStorage interface {
	// Write полностью заменяет содержимое файла key.
	Write(ctx context.Context, key string, data []byte) error
	// Read возвращает содержимое файла или ErrObjectNotFound.
	Read(ctx context.Context, key string) ([]byte, error)
	// Exists сообщает, есть ли в хранилище файл key.
	Exists(ctx context.Context, key string) (bool, error)
}

// Кастомные ошибки хранилища.
var (
	ErrObjectNotFound = errors.New("объект не найден в хранилище")
	ErrInvalidKey     = errors.New("недопустимое имя файла")
)
