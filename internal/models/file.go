package models

import "encoding/base64"

// Credentials представляет пару логин/пароль, передаваемую с каждым запросом.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"-"` // Пароль никогда не сериализуется
}

// FileResponse представляет тело успешного ответа UploadFile/DownloadFile.
// Для загрузки поле Data пустое.
type FileResponse struct {
	Message string `json:"message"`
	Data    []byte `json:"data,omitempty"` // base64 в JSON
}

// ErrorResponse представляет тело ответа с ошибкой.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Коды ошибок, передаваемые клиенту в ErrorResponse.Code.
const (
	CodeUnauthenticated  = "unauthenticated"
	CodePermissionDenied = "permission_denied"
	CodeNotFound         = "not_found"
	CodeInternal         = "internal"
	CodeInvalidArgument  = "invalid_argument"
)

// Заголовки, в которых клиент передает учетные данные.
// Значения кодируются в base64: HTTP обрезает пробелы по краям значений заголовков.
const (
	HeaderUsername = "X-Username"
	HeaderPassword = "X-Password" //nolint:gosec // Имя заголовка, а не секрет
)

// EncodeHeaderValue кодирует логин или пароль для передачи в заголовке.
func EncodeHeaderValue(value string) string {
	return base64.StdEncoding.EncodeToString([]byte(value))
}

// DecodeHeaderValue декодирует значение заголовка с логином или паролем.
// Некорректное значение считается отсутствующим.
func DecodeHeaderValue(value string) string {
	decoded, err := base64.StdEncoding.DecodeString(value)
	if err != nil {
		return ""
	}
	return string(decoded)
}
