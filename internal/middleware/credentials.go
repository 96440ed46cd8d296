package middleware

import (
	"context"
	"net/http"

	"github.com/maynagashev/filekeeper/internal/models"
)

// Тип для ключа контекста.
type contextKey string

// Ключ для хранения учетных данных в контексте.
const CredentialsKey contextKey = "credentials"

// Credentials переносит логин и пароль из заголовков запроса в контекст.
// Запрос без заголовков не отклоняется: отсутствие учетных данных
// обрабатывает сервис, чтобы ответ был одинаковым для всех транспортов.
func Credentials(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		creds := models.Credentials{
			Username: models.DecodeHeaderValue(r.Header.Get(models.HeaderUsername)),
			Password: models.DecodeHeaderValue(r.Header.Get(models.HeaderPassword)),
		}
		ctx := context.WithValue(r.Context(), CredentialsKey, creds)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetCredentialsFromContext извлекает учетные данные из контекста запроса.
func GetCredentialsFromContext(ctx context.Context) (models.Credentials, bool) {
	if ctx == nil {
		return models.Credentials{}, false
	}
	creds, ok := ctx.Value(CredentialsKey).(models.Credentials)
	return creds, ok
}
