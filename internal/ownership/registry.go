// Package ownership хранит в памяти владельцев файлов: имя файла -> учетные данные
// того, кто первым его загрузил.
package ownership

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/maynagashev/filekeeper/internal/models"
)

// Record представляет право владения одним файлом. Запись неизменяема после создания.
type Record struct {
	Filename     string
	Username     string
	passwordHash []byte
	ClaimedAt    time.Time

	claim uint64
}

// Matches сообщает, совпадают ли учетные данные с владельцем записи.
func (r Record) Matches(creds models.Credentials) bool {
	if subtle.ConstantTimeCompare([]byte(r.Username), []byte(creds.Username)) != 1 {
		return false
	}
	return bcrypt.CompareHashAndPassword(r.passwordHash, passwordDigest(creds.Password)) == nil
}

// passwordDigest приводит пароль любой длины к 64 байтам hex(SHA-256).
// bcrypt учитывает только первые 72 байта входа.
func passwordDigest(password string) []byte {
	sum := sha256.Sum256([]byte(password))
	digest := make([]byte, hex.EncodedLen(len(sum)))
	hex.Encode(digest, sum[:])
	return digest
}

// Decision - результат ClaimOrVerify.
type Decision struct {
	Authorized bool
	NewOwner   bool // true только для запроса, создавшего запись

	claim uint64
}

// Registry хранит текущих владельцев файлов и блокировки по именам файлов.
// Безопасен для конкурентного использования.
type Registry struct {
	mu      sync.Mutex
	records map[string]Record
	locks   map[string]*fileLock
	claims  uint64

	hashCost int
	now      func() time.Time
}

// fileLock - мьютекс одного файла со счетчиком ожидающих.
type fileLock struct {
	mu   sync.Mutex
	refs int
}

// Option настраивает Registry.
type Option func(*Registry)

// WithHashCost задает стоимость bcrypt для хранимых паролей.
func WithHashCost(cost int) Option {
	return func(r *Registry) {
		r.hashCost = cost
	}
}

// WithClock подменяет источник времени для ClaimedAt.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		r.now = now
	}
}

// New создает пустой реестр.
func New(opts ...Option) *Registry {
	r := &Registry{
		records:  make(map[string]Record),
		locks:    make(map[string]*fileLock),
		hashCost: bcrypt.DefaultCost,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Lookup возвращает запись о владельце файла, если файл уже занят.
func (r *Registry) Lookup(filename string) (Record, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.records[filename]
	return rec, ok
}

// ClaimOrVerify закрепляет свободный файл за creds или проверяет, что creds - его владелец.
// Из нескольких одновременных попыток занять свободный файл NewOwner получает ровно одна.
func (r *Registry) ClaimOrVerify(filename string, creds models.Credentials) (Decision, error) {
	if rec, ok := r.Lookup(filename); ok {
		return verify(rec, creds), nil
	}

	// Хеширование дорогое, выполняем его вне мьютекса реестра.
	hash, err := bcrypt.GenerateFromPassword(passwordDigest(creds.Password), r.hashCost)
	if err != nil {
		return Decision{}, fmt.Errorf("%w: %w", ErrHashPassword, err)
	}

	r.mu.Lock()
	if rec, ok := r.records[filename]; ok {
		// Файл успели занять, пока считался хеш.
		r.mu.Unlock()
		return verify(rec, creds), nil
	}
	r.claims++
	claim := r.claims
	r.records[filename] = Record{
		Filename:     filename,
		Username:     creds.Username,
		passwordHash: hash,
		ClaimedAt:    r.now(),
		claim:        claim,
	}
	r.mu.Unlock()

	log.Printf("[Registry] Файл '%s' закреплен за пользователем '%s'", filename, creds.Username)
	return Decision{Authorized: true, NewOwner: true, claim: claim}, nil
}

func verify(rec Record, creds models.Credentials) Decision {
	if rec.Matches(creds) {
		return Decision{Authorized: true}
	}
	return Decision{}
}

// Unclaim снимает закрепление файла, созданное решением d.
// Используется только для отката нового владения, когда запись файла не удалась.
// Решения без NewOwner и решения по другим закреплениям игнорируются.
func (r *Registry) Unclaim(filename string, d Decision) bool {
	if !d.NewOwner {
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.records[filename]
	if !ok || rec.claim != d.claim {
		return false
	}
	delete(r.records, filename)
	log.Printf("[Registry] Закрепление файла '%s' за '%s' отменено", filename, rec.Username)
	return true
}

// LockFile захватывает эксклюзивную блокировку файла и возвращает функцию освобождения.
// Запись в таблице блокировок удаляется, когда ее больше никто не ждет.
func (r *Registry) LockFile(filename string) func() {
	r.mu.Lock()
	l, ok := r.locks[filename]
	if !ok {
		l = &fileLock{}
		r.locks[filename] = l
	}
	l.refs++
	r.mu.Unlock()

	l.mu.Lock()

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Unlock()

			r.mu.Lock()
			l.refs--
			if l.refs == 0 {
				delete(r.locks, filename)
			}
			r.mu.Unlock()
		})
	}
}

// Len возвращает количество занятых файлов.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.records)
}

// Кастомные ошибки реестра.
var (
	ErrHashPassword = errors.New("ошибка хеширования пароля владельца")
)
