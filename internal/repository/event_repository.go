package repository

import (
	"context"
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"

	"github.com/maynagashev/filekeeper/internal/models"
)

// EventRepository определяет методы журнала обращений к файлам.
type EventRepository interface {
	RecordEvent(ctx context.Context, event *models.FileEvent) error
}

// postgresEventRepository реализует EventRepository для PostgreSQL.
type postgresEventRepository struct {
	db *sqlx.DB
}

// NewPostgresEventRepository создает журнал обращений в PostgreSQL.
func NewPostgresEventRepository(db *sqlx.DB) EventRepository {
	return &postgresEventRepository{db: db}
}

// RecordEvent сохраняет событие в таблицу file_events.
func (r *postgresEventRepository) RecordEvent(ctx context.Context, event *models.FileEvent) error {
	query := `INSERT INTO file_events (id, filename, username, operation, outcome, size_bytes, created_at)
	          VALUES (:id, :filename, :username, :operation, :outcome, :size_bytes, :created_at)`

	if _, err := r.db.NamedExecContext(ctx, query, event); err != nil {
		log.Printf("[EventRepo] Ошибка сохранения события %s для файла '%s': %v", event.Operation, event.Filename, err)
		return fmt.Errorf("ошибка выполнения запроса на сохранение события: %w", err)
	}
	return nil
}

// nopEventRepository используется, когда журнал не настроен.
type nopEventRepository struct{}

// NopEventRepository - журнал, который ничего не сохраняет.
var NopEventRepository EventRepository = nopEventRepository{}

func (nopEventRepository) RecordEvent(context.Context, *models.FileEvent) error {
	return nil
}
