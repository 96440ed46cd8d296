// Package api содержит HTTP клиент сервера FileKeeper.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/maynagashev/filekeeper/internal/models"
)

// filesPath - префикс маршрутов UploadFile и DownloadFile.
const filesPath = "/api/files"

// Client определяет интерфейс для взаимодействия с API сервера FileKeeper.
type Client interface {
	// UploadFile загружает содержимое файла и возвращает сообщение сервера.
	UploadFile(ctx context.Context, filename string, creds models.Credentials, data []byte) (string, error)
	// DownloadFile скачивает содержимое файла и возвращает его вместе с сообщением сервера.
	DownloadFile(ctx context.Context, filename string, creds models.Credentials) ([]byte, string, error)
}

// httpClient реализует интерфейс Client для взаимодействия с сервером по HTTP.
type httpClient struct {
	baseURL    string       // Базовый URL сервера, например "http://127.0.0.1:50051"
	httpClient *http.Client // HTTP клиент для выполнения запросов
}

// NewHTTPClient создает новый экземпляр API клиента.
// Нулевой timeout означает отсутствие ограничения.
func NewHTTPClient(baseURL string, timeout time.Duration) Client {
	return &httpClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// UploadFile отправляет содержимое файла телом POST запроса.
func (c *httpClient) UploadFile(
	ctx context.Context,
	filename string,
	creds models.Credentials,
	data []byte,
) (string, error) {
	fileURL, err := c.fileURL(filename)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fileURL, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("ошибка создания запроса на загрузку: %w", err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	setCredentials(req, creds)

	var result models.FileResponse
	if err = c.do(req, &result); err != nil {
		return "", err
	}
	return result.Message, nil
}

// DownloadFile запрашивает содержимое файла.
func (c *httpClient) DownloadFile(
	ctx context.Context,
	filename string,
	creds models.Credentials,
) ([]byte, string, error) {
	fileURL, err := c.fileURL(filename)
	if err != nil {
		return nil, "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("ошибка создания запроса на скачивание: %w", err)
	}
	setCredentials(req, creds)

	var result models.FileResponse
	if err = c.do(req, &result); err != nil {
		return nil, "", err
	}
	return result.Data, result.Message, nil
}

// fileURL формирует URL файла. Имя экранируется целиком, включая '/'.
func (c *httpClient) fileURL(filename string) (string, error) {
	fileURL, err := url.JoinPath(c.baseURL, filesPath)
	if err != nil {
		return "", fmt.Errorf("ошибка формирования URL для файла: %w", err)
	}
	return fileURL + "/" + url.PathEscape(filename), nil
}

// do выполняет запрос и декодирует успешный ответ в out.
func (c *httpClient) do(req *http.Request, out *models.FileResponse) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("ошибка выполнения запроса к серверу: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return newServerError(resp)
	}

	if err = json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("ошибка декодирования ответа сервера: %w", err)
	}
	return nil
}

func setCredentials(req *http.Request, creds models.Credentials) {
	if creds.Username != "" {
		req.Header.Set(models.HeaderUsername, models.EncodeHeaderValue(creds.Username))
	}
	if creds.Password != "" {
		req.Header.Set(models.HeaderPassword, models.EncodeHeaderValue(creds.Password))
	}
}

// ServerError - ошибка, которую вернул сервер. Message - текст из ответа сервера.
type ServerError struct {
	StatusCode int
	Code       string
	Message    string
}

func newServerError(resp *http.Response) *ServerError {
	serverErr := &ServerError{StatusCode: resp.StatusCode}

	var body models.ErrorResponse
	raw, err := io.ReadAll(resp.Body)
	if err == nil && json.Unmarshal(raw, &body) == nil {
		serverErr.Code = body.Code
		serverErr.Message = body.Message
	}
	if serverErr.Message == "" {
		serverErr.Message = http.StatusText(resp.StatusCode)
	}
	return serverErr
}

func (e *ServerError) Error() string {
	return e.Message
}

// Unwrap позволяет проверять вид ошибки через errors.Is.
func (e *ServerError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusUnauthorized:
		return ErrUnauthenticated
	case http.StatusForbidden:
		return ErrPermissionDenied
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusBadRequest:
		return ErrInvalidArgument
	default:
		return ErrServer
	}
}

// Ошибки, которые возвращает клиент.
var (
	ErrUnauthenticated  = errors.New("учетные данные не переданы")
	ErrPermissionDenied = errors.New("доступ запрещен")
	ErrNotFound         = errors.New("файл не найден")
	ErrInvalidArgument  = errors.New("неверный запрос")
	ErrServer           = errors.New("ошибка сервера")
)
