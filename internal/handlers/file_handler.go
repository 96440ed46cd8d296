package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/maynagashev/filekeeper/internal/middleware"
	"github.com/maynagashev/filekeeper/internal/models"
	"github.com/maynagashev/filekeeper/internal/services"
)

// FilenameParam - имя параметра маршрута с именем файла.
const FilenameParam = "filename"

// FileHandler обрабатывает HTTP-запросы UploadFile и DownloadFile.
type FileHandler struct {
	fileService services.FileService
}

// NewFileHandler создает новый экземпляр FileHandler.
func NewFileHandler(fs services.FileService) *FileHandler {
	return &FileHandler{fileService: fs}
}

// Upload обрабатывает POST запрос: тело запроса - содержимое файла.
func (h *FileHandler) Upload(w http.ResponseWriter, r *http.Request) {
	filename, ok := filenameFromRequest(w, r)
	if !ok {
		return
	}
	creds, _ := middleware.GetCredentialsFromContext(r.Context())

	data, err := io.ReadAll(r.Body)
	if err != nil {
		log.Printf("[FileHandler:Upload] Ошибка чтения тела запроса для '%s': %v", filename, err)
		writeError(w, http.StatusBadRequest, models.CodeInvalidArgument, "Failed to read request body")
		return
	}

	message, err := h.fileService.UploadFile(r.Context(), filename, creds, data)
	if err != nil {
		writeServiceError(w, "Upload", filename, err)
		return
	}

	writeJSON(w, http.StatusOK, models.FileResponse{Message: message})
}

// Download обрабатывает GET запрос на скачивание файла.
func (h *FileHandler) Download(w http.ResponseWriter, r *http.Request) {
	filename, ok := filenameFromRequest(w, r)
	if !ok {
		return
	}
	creds, _ := middleware.GetCredentialsFromContext(r.Context())

	data, message, err := h.fileService.DownloadFile(r.Context(), filename, creds)
	if err != nil {
		writeServiceError(w, "Download", filename, err)
		return
	}

	writeJSON(w, http.StatusOK, models.FileResponse{Message: message, Data: data})
}

// filenameFromRequest извлекает имя файла из маршрута.
// Если путь содержал экранированные символы (например, %2F), chi отдает параметр
// в экранированном виде, и его нужно раскодировать.
func filenameFromRequest(w http.ResponseWriter, r *http.Request) (string, bool) {
	filename := chi.URLParam(r, FilenameParam)
	if r.URL.RawPath != "" {
		unescaped, err := url.PathUnescape(filename)
		if err != nil {
			log.Printf("[FileHandler] Неверно экранированное имя файла '%s': %v", filename, err)
			writeError(w, http.StatusBadRequest, models.CodeInvalidArgument, services.MessageInvalidFilename)
			return "", false
		}
		filename = unescaped
	}
	return filename, true
}

// writeServiceError отображает ошибку сервиса в HTTP статус.
func writeServiceError(w http.ResponseWriter, op, filename string, err error) {
	var status int
	switch {
	case errors.Is(err, services.ErrUnauthenticated):
		status = http.StatusUnauthorized
	case errors.Is(err, services.ErrPermissionDenied):
		status = http.StatusForbidden
	case errors.Is(err, services.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, services.ErrInvalidFilename):
		status = http.StatusBadRequest
	default:
		status = http.StatusInternalServerError
		log.Printf("[FileHandler:%s] Внутренняя ошибка для файла '%s': %v", op, filename, err)
	}
	writeError(w, status, services.Outcome(err), services.ClientMessage(err))
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, models.ErrorResponse{Code: code, Message: message})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("[FileHandler] Ошибка кодирования ответа: %v", err)
	}
}
