package services

import (
	"errors"

	"github.com/maynagashev/filekeeper/internal/models"
)

// Сообщения об ошибках, которые видит клиент.
const (
	MessageUsernameMissing = "Username missing"
	MessagePasswordMissing = "Password missing"
	MessageUploadDenied    = "Invalid username or password for existing file"
	MessageDownloadDenied  = "Invalid username or password"
	MessageFileNotFound    = "File not found"
	MessageInvalidFilename = "Invalid filename"
	MessageInternal        = "Internal server error"
	MessageStorageFailure  = "Failed to store file"
	MessageRetrieveFailure = "Failed to read file"
	MessageRegistryFailure = "Failed to register file owner"
)

// Error - ошибка сервиса: вид ошибки (один из Err*), сообщение для клиента и причина.
// Причина в ответ клиенту не попадает.
type Error struct {
	Kind    error
	Message string
	Err     error
}

func newError(kind error, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Err: cause}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Kind.Error() + ": " + e.Message + ": " + e.Err.Error()
	}
	return e.Kind.Error() + ": " + e.Message
}

// Unwrap позволяет проверять и вид ошибки, и причину через errors.Is.
func (e *Error) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

// ClientMessage возвращает сообщение об ошибке, безопасное для отправки клиенту.
func ClientMessage(err error) string {
	var svcErr *Error
	if errors.As(err, &svcErr) {
		return svcErr.Message
	}
	return MessageInternal
}

// Outcome возвращает код результата операции для журнала и ответа клиенту.
func Outcome(err error) string {
	switch {
	case err == nil:
		return models.OutcomeOK
	case errors.Is(err, ErrUnauthenticated):
		return models.CodeUnauthenticated
	case errors.Is(err, ErrPermissionDenied):
		return models.CodePermissionDenied
	case errors.Is(err, ErrNotFound):
		return models.CodeNotFound
	case errors.Is(err, ErrInvalidFilename):
		return models.CodeInvalidArgument
	default:
		return models.CodeInternal
	}
}

// Кастомные ошибки сервиса.
var (
	ErrUnauthenticated  = errors.New("учетные данные не переданы")
	ErrPermissionDenied = errors.New("доступ к файлу запрещен")
	ErrNotFound         = errors.New("файл не найден")
	ErrInvalidFilename  = errors.New("недопустимое имя файла")
	ErrInternal         = errors.New("внутренняя ошибка сервера")
)
