package services

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/maynagashev/filekeeper/internal/models"
	"github.com/maynagashev/filekeeper/internal/ownership"
	"github.com/maynagashev/filekeeper/internal/repository"
	"github.com/maynagashev/filekeeper/internal/storage"
)

// Сообщения успешных ответов.
const (
	MessageUploaded   = "File uploaded successfully"
	MessageDownloaded = "File downloaded successfully"
)

// FileService определяет интерфейс сервиса загрузки и скачивания файлов.
type FileService interface {
	// UploadFile сохраняет data под именем filename. Первый загрузивший становится владельцем.
	UploadFile(ctx context.Context, filename string, creds models.Credentials, data []byte) (string, error)
	// DownloadFile возвращает содержимое файла его владельцу.
	DownloadFile(ctx context.Context, filename string, creds models.Credentials) ([]byte, string, error)
}

var _ FileService = (*fileService)(nil) // Проверка соответствия интерфейсу

type fileService struct {
	registry *ownership.Registry
	storage  storage.FileStorage
	events   repository.EventRepository
	now      func() time.Time
}

// NewFileService создает сервис файлов. Реестр создается при старте сервера и
// передается сюда явно; events может быть repository.NopEventRepository.
func NewFileService(
	registry *ownership.Registry,
	fileStorage storage.FileStorage,
	events repository.EventRepository,
) FileService {
	return &fileService{
		registry: registry,
		storage:  fileStorage,
		events:   events,
		now:      time.Now,
	}
}

// UploadFile проверяет права на файл и записывает его содержимое.
func (s *fileService) UploadFile(
	ctx context.Context,
	filename string,
	creds models.Credentials,
	data []byte,
) (string, error) {
	err := s.upload(ctx, filename, creds, data)
	size := int64(len(data))
	if err != nil {
		size = 0
	}
	s.record(ctx, models.OperationUpload, filename, creds, size, err)
	if err != nil {
		return "", err
	}
	return MessageUploaded, nil
}

func (s *fileService) upload(ctx context.Context, filename string, creds models.Credentials, data []byte) error {
	if err := validateRequest(filename, creds); err != nil {
		log.Printf("[FileService] Загрузка '%s' отклонена: %v", filename, err)
		return err
	}

	// Решение о правах и запись файла выполняются под одной блокировкой файла.
	unlock := s.registry.LockFile(filename)
	defer unlock()

	decision, err := s.registry.ClaimOrVerify(filename, creds)
	if err != nil {
		log.Printf("[FileService] Ошибка реестра при загрузке '%s': %v", filename, err)
		return newError(ErrInternal, MessageRegistryFailure, err)
	}
	if !decision.Authorized {
		log.Printf("[FileService] Пользователь '%s' не владеет файлом '%s', загрузка запрещена", creds.Username, filename)
		return newError(ErrPermissionDenied, MessageUploadDenied, nil)
	}

	// Отключение клиента не должно оставить владение без записанного файла.
	writeCtx := context.WithoutCancel(ctx)
	if err = s.storage.Write(writeCtx, filename, data); err != nil {
		s.registry.Unclaim(filename, decision)
		log.Printf("[FileService] Ошибка записи файла '%s' (новый владелец: %t): %v", filename, decision.NewOwner, err)
		if errors.Is(err, storage.ErrInvalidKey) {
			return newError(ErrInvalidFilename, MessageInvalidFilename, err)
		}
		return newError(ErrInternal, MessageStorageFailure, err)
	}

	log.Printf("[FileService] Файл '%s' (%d байт) загружен пользователем '%s' (новый владелец: %t)",
		filename, len(data), creds.Username, decision.NewOwner)
	return nil
}

// DownloadFile проверяет права на файл и читает его содержимое.
func (s *fileService) DownloadFile(
	ctx context.Context,
	filename string,
	creds models.Credentials,
) ([]byte, string, error) {
	data, err := s.download(ctx, filename, creds)
	s.record(ctx, models.OperationDownload, filename, creds, int64(len(data)), err)
	if err != nil {
		return nil, "", err
	}
	return data, MessageDownloaded, nil
}

func (s *fileService) download(ctx context.Context, filename string, creds models.Credentials) ([]byte, error) {
	if err := validateRequest(filename, creds); err != nil {
		log.Printf("[FileService] Скачивание '%s' отклонено: %v", filename, err)
		return nil, err
	}

	unlock := s.registry.LockFile(filename)
	defer unlock()

	// Незанятый файл недоступен для чтения так же, как чужой.
	rec, ok := s.registry.Lookup(filename)
	if !ok || !rec.Matches(creds) {
		log.Printf("[FileService] Пользователь '%s' не владеет файлом '%s', скачивание запрещено", creds.Username, filename)
		return nil, newError(ErrPermissionDenied, MessageDownloadDenied, nil)
	}

	readCtx := context.WithoutCancel(ctx)
	exists, err := s.storage.Exists(readCtx, filename)
	if err != nil {
		return nil, s.translateReadError(filename, err)
	}
	if !exists {
		log.Printf("[FileService] Файл '%s' есть в реестре, но отсутствует в хранилище", filename)
		return nil, newError(ErrNotFound, MessageFileNotFound, nil)
	}

	data, err := s.storage.Read(readCtx, filename)
	if err != nil {
		return nil, s.translateReadError(filename, err)
	}

	log.Printf("[FileService] Файл '%s' (%d байт) отдан пользователю '%s'", filename, len(data), creds.Username)
	return data, nil
}

func (s *fileService) translateReadError(filename string, err error) error {
	switch {
	case errors.Is(err, storage.ErrObjectNotFound):
		log.Printf("[FileService] Файл '%s' не найден в хранилище", filename)
		return newError(ErrNotFound, MessageFileNotFound, err)
	case errors.Is(err, storage.ErrInvalidKey):
		return newError(ErrInvalidFilename, MessageInvalidFilename, err)
	default:
		log.Printf("[FileService] Ошибка чтения файла '%s': %v", filename, err)
		return newError(ErrInternal, MessageRetrieveFailure, err)
	}
}

// record пишет событие в журнал. Ошибка журнала не влияет на результат запроса.
func (s *fileService) record(
	ctx context.Context,
	operation, filename string,
	creds models.Credentials,
	size int64,
	opErr error,
) {
	event := &models.FileEvent{
		ID:        uuid.New(),
		Filename:  filename,
		Username:  creds.Username,
		Operation: operation,
		Outcome:   Outcome(opErr),
		SizeBytes: size,
		CreatedAt: s.now().UTC(),
	}
	if err := s.events.RecordEvent(context.WithoutCancel(ctx), event); err != nil {
		log.Printf("[FileService] Ошибка записи события %s '%s' в журнал: %v", operation, filename, err)
	}
}

// validateRequest проверяет наличие учетных данных и имени файла
// до обращения к реестру и хранилищу.
func validateRequest(filename string, creds models.Credentials) error {
	if creds.Username == "" {
		return newError(ErrUnauthenticated, MessageUsernameMissing, nil)
	}
	if creds.Password == "" {
		return newError(ErrUnauthenticated, MessagePasswordMissing, nil)
	}
	if filename == "" {
		return newError(ErrInvalidFilename, MessageInvalidFilename, nil)
	}
	return nil
}
