package models

import (
	"time"

	"github.com/google/uuid"
)

// Операции над файлами, фиксируемые в журнале.
const (
	OperationUpload   = "upload"
	OperationDownload = "download"
)

// Результат операции в журнале. Для ошибок совпадает с кодом ErrorResponse.
const OutcomeOK = "ok"

// FileEvent представляет запись журнала обращений к файлам.
// Пароль в журнал не попадает.
type FileEvent struct {
	ID        uuid.UUID `db:"id"`
	Filename  string    `db:"filename"`
	Username  string    `db:"username"`
	Operation string    `db:"operation"`
	Outcome   string    `db:"outcome"`
	SizeBytes int64     `db:"size_bytes"` // Размер переданных данных, 0 при ошибке
	CreatedAt time.Time `db:"created_at"`
}
