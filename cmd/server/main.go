package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gofrs/flock"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq" // Драйвер PostgreSQL
	"github.com/spf13/afero"

	"github.com/maynagashev/filekeeper/internal/handlers"
	appmiddleware "github.com/maynagashev/filekeeper/internal/middleware"
	"github.com/maynagashev/filekeeper/internal/ownership"
	"github.com/maynagashev/filekeeper/internal/repository"
	"github.com/maynagashev/filekeeper/internal/services"
	"github.com/maynagashev/filekeeper/internal/storage"
)

const (
	defaultReadTimeout     = 60 * time.Second
	defaultWriteTimeout    = 60 * time.Second
	defaultIdleTimeout     = 120 * time.Second
	defaultShutdownTimeout = 10 * time.Second

	// Переменные окружения для MinIO (значения по умолчанию из docker-compose).
	envMinioEndpoint     = "MINIO_ENDPOINT"
	envMinioUser         = "MINIO_USER"
	envMinioPassword     = "MINIO_PASSWORD"
	envMinioBucket       = "MINIO_BUCKET"
	envMinioUseSSL       = "MINIO_USE_SSL"
	defaultMinioEndpoint = "localhost:9000"
	defaultMinioUser     = "minioadmin"
	defaultMinioPassword = "minioadmin"
	defaultMinioBucket   = "filekeeper-files"
)

// Подменяются в тестах.
var (
	newPostgresDB = repository.NewPostgresDB
	migrateDB     = repository.Migrate
)

// Структура для хранения инициализированных зависимостей.
type dependencies struct {
	db          *sqlx.DB     // nil, если журнал отключен
	dirLock     *flock.Flock // nil для MinIO
	registry    *ownership.Registry
	fileStorage storage.FileStorage
	fileHandler *handlers.FileHandler
}

// Close освобождает соединение с БД и блокировку каталога.
func (d *dependencies) Close() {
	if d.db != nil {
		if err := d.db.Close(); err != nil {
			log.Printf("Ошибка закрытия соединения с БД: %v", err)
		}
	}
	if d.dirLock != nil {
		if err := d.dirLock.Unlock(); err != nil {
			log.Printf("Ошибка снятия блокировки каталога хранилища: %v", err)
		}
	}
}

// main - точка входа. Вызывает run и обрабатывает ошибку.
func main() {
	if err := run(); err != nil {
		log.Printf("Ошибка выполнения сервера: %v", err)
		os.Exit(1)
	}
}

// run содержит основную логику запуска сервера и возвращает ошибку.
func run() error {
	if err := godotenv.Load(); err != nil {
		log.Println("Файл .env не найден, используются переменные окружения")
	}

	cfg, err := parseFlags()
	if err != nil {
		return fmt.Errorf("ошибка конфигурации: %w", err)
	}

	log.Println("Запуск сервера FileKeeper...")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, err := setupDependencies(ctx, cfg)
	if err != nil {
		return fmt.Errorf("ошибка инициализации зависимостей: %w", err)
	}
	defer deps.Close()

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      setupRouter(deps.fileHandler),
		ReadTimeout:  defaultReadTimeout,
		WriteTimeout: defaultWriteTimeout,
		IdleTimeout:  defaultIdleTimeout,
	}

	return serve(ctx, server, cfg)
}

// serve запускает сервер и останавливает его при отмене ctx.
func serve(ctx context.Context, server *http.Server, cfg *config) error {
	errCh := make(chan error, 1)
	go func() {
		if cfg.TLSEnabled() {
			log.Printf("Используется сертификат: %s", cfg.CertFile)
			log.Printf("Используется ключ: %s", cfg.KeyFile)
			errCh <- server.ListenAndServeTLS(cfg.CertFile, cfg.KeyFile)
			return
		}
		errCh <- server.ListenAndServe()
	}()

	scheme := "http"
	if cfg.TLSEnabled() {
		scheme = "https"
	}
	log.Printf("FileServer running on %s://%s", scheme, server.Addr)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("ошибка запуска сервера: %w", err)
		}
		return nil
	case <-ctx.Done():
		log.Println("Получен сигнал завершения, останавливаем сервер...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("ошибка остановки сервера: %w", err)
	}
	log.Println("Сервер остановлен")
	return nil
}

// setupDependencies инициализирует и возвращает все необходимые зависимости сервера.
func setupDependencies(ctx context.Context, cfg *config) (*dependencies, error) {
	deps := &dependencies{}
	var err error

	// 1. Хранилище файлов
	switch cfg.StorageBackend {
	case storageMinio:
		deps.fileStorage, err = storage.NewMinioStorage(ctx, minioConfigFromEnv())
		if err != nil {
			return nil, fmt.Errorf("ошибка инициализации клиента MinIO: %w", err)
		}
	default:
		deps.dirLock, err = storage.LockDir(cfg.StorageDir)
		if err != nil {
			return nil, fmt.Errorf("ошибка инициализации локального хранилища: %w", err)
		}
		deps.fileStorage, err = storage.NewLocalStorage(afero.NewOsFs(), cfg.StorageDir)
		if err != nil {
			deps.Close()
			return nil, fmt.Errorf("ошибка инициализации локального хранилища: %w", err)
		}
	}

	// 2. Журнал обращений (необязательный)
	events := repository.NopEventRepository
	if cfg.DatabaseDSN != "" {
		deps.db, err = newPostgresDB(cfg.DatabaseDSN)
		if err != nil {
			deps.Close()
			return nil, fmt.Errorf("ошибка инициализации БД: %w", err)
		}
		if err = migrateDB(ctx, deps.db); err != nil {
			deps.Close()
			return nil, fmt.Errorf("ошибка миграции БД: %w", err)
		}
		log.Println("Соединение с БД успешно установлено, журнал обращений включен.")
		events = repository.NewPostgresEventRepository(deps.db)
	} else {
		log.Println("DATABASE_DSN не задан, журнал обращений отключен.")
	}

	// 3. Реестр владельцев создается один раз на время жизни процесса
	deps.registry = ownership.New(ownership.WithHashCost(cfg.BcryptCost))

	// 4. Сервис и обработчики
	fileService := services.NewFileService(deps.registry, deps.fileStorage, events)
	deps.fileHandler = handlers.NewFileHandler(fileService)

	return deps, nil
}

// minioConfigFromEnv собирает параметры MinIO из переменных окружения.
func minioConfigFromEnv() storage.MinioConfig {
	useSSL, err := strconv.ParseBool(getEnv(envMinioUseSSL, "false"))
	if err != nil {
		log.Printf("Некорректное значение %s, SSL отключен: %v", envMinioUseSSL, err)
		useSSL = false
	}
	return storage.MinioConfig{
		Endpoint:        getEnv(envMinioEndpoint, defaultMinioEndpoint),
		AccessKeyID:     getEnv(envMinioUser, defaultMinioUser),
		SecretAccessKey: getEnv(envMinioPassword, defaultMinioPassword),
		UseSSL:          useSSL,
		BucketName:      getEnv(envMinioBucket, defaultMinioBucket),
	}
}

// setupRouter настраивает и возвращает роутер chi.
func setupRouter(fileHandler *handlers.FileHandler) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// --- Маршруты --- //
	r.Get("/ping", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("pong\n"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			// Учетные данные передаются в каждом запросе
			r.Use(appmiddleware.Credentials)

			r.Post("/files/{"+handlers.FilenameParam+"}", fileHandler.Upload)
			r.Get("/files/{"+handlers.FilenameParam+"}", fileHandler.Download)
		})
	})
	return r
}

// getEnv получает значение переменной окружения или возвращает значение по умолчанию.
func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	log.Printf("Переменная окружения '%s' не установлена, используется значение по умолчанию: '%s'", key, fallback)
	return fallback
}
