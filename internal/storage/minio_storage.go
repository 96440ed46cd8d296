package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const (
	minioNoSuchKey     = "NoSuchKey"
	defaultContentType = "application/octet-stream"
)

// MinioStorage реализует FileStorage для MinIO/S3.
type MinioStorage struct {
	client     *minio.Client
	bucketName string
}

var _ FileStorage = (*MinioStorage)(nil)

// MinioConfig содержит параметры для подключения к MinIO.
type MinioConfig struct {
	Endpoint        string // Адрес MinIO (например, "localhost:9000")
	AccessKeyID     string
	SecretAccessKey string
	UseSSL          bool
	BucketName      string
	Region          string
}

// NewMinioStorage подключается к MinIO и создает бакет, если его нет.
func NewMinioStorage(ctx context.Context, cfg MinioConfig) (*MinioStorage, error) {
	log.Printf("[Minio] Инициализация клиента для эндпоинта %s...", cfg.Endpoint)

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка инициализации клиента MinIO: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.BucketName)
	if err != nil {
		return nil, fmt.Errorf("ошибка проверки существования бакета '%s': %w", cfg.BucketName, err)
	}
	if !exists {
		log.Printf("[Minio] Бакет '%s' не найден, создаем...", cfg.BucketName)
		err = client.MakeBucket(ctx, cfg.BucketName, minio.MakeBucketOptions{Region: cfg.Region})
		if err != nil {
			return nil, fmt.Errorf("ошибка создания бакета '%s': %w", cfg.BucketName, err)
		}
	}

	log.Printf("[Minio] Клиент инициализирован для бакета '%s'", cfg.BucketName)
	return &MinioStorage{client: client, bucketName: cfg.BucketName}, nil
}

// Write загружает объект key, заменяя предыдущую версию.
func (s *MinioStorage) Write(ctx context.Context, key string, data []byte) error {
	if key == "" {
		return fmt.Errorf("%w: пустой ключ", ErrInvalidKey)
	}

	info, err := s.client.PutObject(ctx, s.bucketName, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: defaultContentType})
	if err != nil {
		log.Printf("[Minio] Ошибка загрузки файла '%s': %v", key, err)
		return fmt.Errorf("ошибка загрузки файла в MinIO: %w", err)
	}

	log.Printf("[Minio] Файл '%s' загружен, размер: %d, ETag: %s", key, info.Size, info.ETag)
	return nil
}

// Read скачивает объект key целиком.
func (s *MinioStorage) Read(ctx context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, fmt.Errorf("%w: пустой ключ", ErrInvalidKey)
	}

	object, err := s.client.GetObject(ctx, s.bucketName, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, s.translateError(key, err)
	}
	defer func() {
		if closeErr := object.Close(); closeErr != nil {
			log.Printf("[Minio] Ошибка закрытия объекта '%s': %v", key, closeErr)
		}
	}()

	// GetObject ленивый: отсутствие ключа обнаруживается только при чтении.
	data, err := io.ReadAll(object)
	if err != nil {
		return nil, s.translateError(key, err)
	}
	return data, nil
}

// Exists проверяет наличие объекта через StatObject.
func (s *MinioStorage) Exists(ctx context.Context, key string) (bool, error) {
	if key == "" {
		return false, fmt.Errorf("%w: пустой ключ", ErrInvalidKey)
	}

	_, err := s.client.StatObject(ctx, s.bucketName, key, minio.StatObjectOptions{})
	if err != nil {
		if isNoSuchKey(err) {
			return false, nil
		}
		return false, fmt.Errorf("ошибка получения метаданных из MinIO: %w", err)
	}
	return true, nil
}

func (s *MinioStorage) translateError(key string, err error) error {
	if isNoSuchKey(err) {
		log.Printf("[Minio] Файл '%s' не найден в бакете '%s'", key, s.bucketName)
		return ErrObjectNotFound
	}
	log.Printf("[Minio] Ошибка получения файла '%s': %v", key, err)
	return fmt.Errorf("ошибка получения файла из MinIO: %w", err)
}

func isNoSuchKey(err error) bool {
	var minioErr minio.ErrorResponse
	if errors.As(err, &minioErr) {
		return minioErr.Code == minioNoSuchKey
	}
	return minio.ToErrorResponse(err).Code == minioNoSuchKey
}
