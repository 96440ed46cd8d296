package storage

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsNoSuchKey(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{name: "NoSuchKey", err: minio.ErrorResponse{Code: minioNoSuchKey}, expected: true},
		{name: "Обернутая NoSuchKey", err: fmt.Errorf("read: %w", minio.ErrorResponse{Code: minioNoSuchKey}), expected: true},
		{name: "AccessDenied", err: minio.ErrorResponse{Code: "AccessDenied"}, expected: false},
		{name: "Обычная ошибка", err: errors.New("connection refused"), expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, isNoSuchKey(tt.err))
		})
	}
}

func TestMinioStorage_TranslateError(t *testing.T) {
	s := &MinioStorage{bucketName: "files"}

	err := s.translateError("notes.txt", minio.ErrorResponse{Code: minioNoSuchKey})
	require.ErrorIs(t, err, ErrObjectNotFound)

	cause := minio.ErrorResponse{Code: "InternalError"}
	err = s.translateError("notes.txt", cause)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrObjectNotFound)
	assert.Contains(t, err.Error(), "ошибка получения файла из MinIO")
}

func TestMinioStorage_EmptyKey(t *testing.T) {
	// minio.New не устанавливает соединение, поэтому клиент можно создать без сервера.
	client, err := minio.New("127.0.0.1:1", &minio.Options{
		Creds: credentials.NewStaticV4("key", "secret", ""),
	})
	require.NoError(t, err)
	s := &MinioStorage{client: client, bucketName: "files"}
	ctx := context.Background()

	err = s.Write(ctx, "", []byte("data"))
	require.ErrorIs(t, err, ErrInvalidKey)

	_, err = s.Read(ctx, "")
	require.ErrorIs(t, err, ErrInvalidKey)

	_, err = s.Exists(ctx, "")
	require.ErrorIs(t, err, ErrInvalidKey)
}
