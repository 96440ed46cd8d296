package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"

	"golang.org/x/crypto/bcrypt"
)

const (
	defaultServerHost     = "127.0.0.1"
	defaultServerPort     = "50051"
	defaultStorageBackend = storageLocal
	defaultStorageDir     = "data"

	storageLocal = "local"
	storageMinio = "minio"

	// Переменные окружения.
	envServerHost     = "SERVER_HOST"
	envServerPort     = "SERVER_PORT"
	envTLSCertFile    = "TLS_CERT_FILE"
	envTLSKeyFile     = "TLS_KEY_FILE"
	envStorageBackend = "STORAGE_BACKEND"
	envStorageDir     = "STORAGE_DIR"
	envDatabaseDSN    = "DATABASE_DSN"
	envBcryptCost     = "BCRYPT_COST"
)

// config хранит конфигурацию сервера.
type config struct {
	Host           string
	Port           string
	CertFile       string
	KeyFile        string
	StorageBackend string
	StorageDir     string
	DatabaseDSN    string
	BcryptCost     int
}

// TLSEnabled сообщает, заданы ли сертификат и ключ.
func (c *config) TLSEnabled() bool {
	return c.CertFile != "" && c.KeyFile != ""
}

// Addr возвращает адрес для прослушивания.
func (c *config) Addr() string {
	return c.Host + ":" + c.Port
}

// parseFlags разбирает флаги и переменные окружения, возвращает config или ошибку.
func parseFlags() (*config, error) {
	cfg := &config{}

	flag.StringVar(&cfg.Host, "host", "",
		fmt.Sprintf("Адрес для запуска сервера (env: %s, default: %s)", envServerHost, defaultServerHost))
	flag.StringVar(&cfg.Port, "port", "",
		fmt.Sprintf("Порт для запуска сервера (env: %s, default: %s)", envServerPort, defaultServerPort))
	flag.StringVar(&cfg.CertFile, "cert-file", "",
		fmt.Sprintf("Путь к файлу TLS-сертификата (env: %s)", envTLSCertFile))
	flag.StringVar(&cfg.KeyFile, "key-file", "",
		fmt.Sprintf("Путь к файлу TLS-ключа (env: %s)", envTLSKeyFile))
	flag.StringVar(&cfg.StorageBackend, "storage", "",
		fmt.Sprintf("Хранилище файлов: %s или %s (env: %s, default: %s)",
			storageLocal, storageMinio, envStorageBackend, defaultStorageBackend))
	flag.StringVar(&cfg.StorageDir, "storage-dir", "",
		fmt.Sprintf("Каталог локального хранилища (env: %s, default: %s)", envStorageDir, defaultStorageDir))
	flag.StringVar(&cfg.DatabaseDSN, "database-dsn", "",
		fmt.Sprintf("Строка подключения к БД журнала, журнал отключен если пусто (env: %s)", envDatabaseDSN))
	flag.IntVar(&cfg.BcryptCost, "bcrypt-cost", 0,
		fmt.Sprintf("Стоимость bcrypt для паролей владельцев (env: %s, default: %d)", envBcryptCost, bcrypt.DefaultCost))

	flag.Parse()

	// Применяем переменные окружения, если флаги не заданы
	cfg.Host = lookupEnvDefault(cfg.Host, envServerHost, defaultServerHost)
	cfg.Port = lookupEnvDefault(cfg.Port, envServerPort, defaultServerPort)
	cfg.CertFile = lookupEnvDefault(cfg.CertFile, envTLSCertFile, "")
	cfg.KeyFile = lookupEnvDefault(cfg.KeyFile, envTLSKeyFile, "")
	cfg.StorageBackend = lookupEnvDefault(cfg.StorageBackend, envStorageBackend, defaultStorageBackend)
	cfg.StorageDir = lookupEnvDefault(cfg.StorageDir, envStorageDir, defaultStorageDir)
	cfg.DatabaseDSN = lookupEnvDefault(cfg.DatabaseDSN, envDatabaseDSN, "")

	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
		if value, ok := os.LookupEnv(envBcryptCost); ok {
			cost, err := strconv.Atoi(value)
			if err != nil {
				return nil, fmt.Errorf("некорректное значение %s: %w", envBcryptCost, err)
			}
			cfg.BcryptCost = cost
		}
	}

	// Проверяем параметры
	if (cfg.CertFile == "") != (cfg.KeyFile == "") {
		return nil, errors.New("для TLS нужны оба файла: сертификат (--cert-file или " + envTLSCertFile +
			") и ключ (--key-file или " + envTLSKeyFile + ")")
	}
	if cfg.StorageBackend != storageLocal && cfg.StorageBackend != storageMinio {
		return nil, fmt.Errorf("неизвестное хранилище '%s', допустимо: %s, %s",
			cfg.StorageBackend, storageLocal, storageMinio)
	}
	if cfg.BcryptCost < bcrypt.MinCost || cfg.BcryptCost > bcrypt.MaxCost {
		return nil, fmt.Errorf("стоимость bcrypt %d вне диапазона [%d, %d]",
			cfg.BcryptCost, bcrypt.MinCost, bcrypt.MaxCost)
	}

	return cfg, nil
}

// lookupEnvDefault возвращает значение флага, если оно задано,
// иначе значение переменной окружения или fallback.
func lookupEnvDefault(flagValue, key, fallback string) string {
	if flagValue != "" {
		return flagValue
	}
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
