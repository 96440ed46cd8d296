package repository

import (
	"fmt"
	"log"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // Драйвер PostgreSQL, импортируем для регистрации
)

// Параметры пула соединений журнала.
const (
	maxOpenConns    = 5
	maxIdleConns    = 2
	connMaxLifetime = 30 * time.Minute
	connMaxIdleTime = 5 * time.Minute
)

// NewPostgresDB открывает пул соединений к БД журнала и проверяет его.
func NewPostgresDB(dsn string) (*sqlx.DB, error) {
	log.Printf("[EventRepo] Подключение к PostgreSQL...")

	// sqlx.Connect выполняет Ping, поэтому недоступная БД обнаруживается при старте.
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("ошибка подключения к БД: %w", err)
	}

	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxLifetime(connMaxLifetime)
	db.SetConnMaxIdleTime(connMaxIdleTime)

	log.Printf("[EventRepo] Пул соединений готов (max open: %d)", maxOpenConns)
	return db, nil
}
