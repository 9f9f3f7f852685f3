package handlers

import (
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/h2non/filetype"

	"github.com/hustlehub/backend/internal/dto"
	"github.com/hustlehub/backend/internal/http/handlers/common"
	"github.com/hustlehub/backend/internal/storage"
)

// Разрешённые типы изображений.
var allowedMimeTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// MediaHandler принимает загрузку изображений (вложения задач, аватары).
// Тип файла проверяется по магическим байтам, а не по расширению.
type MediaHandler struct {
	storage *storage.FileStorage
}

// NewMediaHandler создаёт хэндлер.
func NewMediaHandler(storage *storage.FileStorage) *MediaHandler {
	return &MediaHandler{storage: storage}
}

// Upload обрабатывает POST /api/media.
func (h *MediaHandler) Upload(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		common.RespondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "поле file обязательно")
		return
	}
	if file.Size == 0 {
		common.RespondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "файл не может быть пустым")
		return
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !allowedExtensions[ext] {
		common.RespondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "неподдерживаемый формат файла")
		return
	}

	src, err := file.Open()
	if err != nil {
		common.RespondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "не удалось открыть файл")
		return
	}
	defer src.Close()

	// Магические байты определяют реальный тип независимо от расширения.
	buffer := make([]byte, 512)
	n, err := src.Read(buffer)
	if err != nil && err != io.EOF {
		common.RespondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "не удалось прочитать файл")
		return
	}

	kind, err := filetype.Match(buffer[:n])
	if err != nil || kind == filetype.Unknown || !allowedMimeTypes[kind.MIME.Value] {
		common.RespondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "разрешены только изображения")
		return
	}

	if seeker, ok := src.(io.Seeker); ok {
		if _, err := seeker.Seek(0, io.SeekStart); err != nil {
			common.RespondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "не удалось обработать файл")
			return
		}
	}

	relativePath, _, err := h.storage.Save(c.Request.Context(), userID, file.Filename, src)
	if err != nil {
		common.RespondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "не удалось сохранить файл")
		return
	}

	common.RespondData(c, http.StatusCreated, dto.MediaUploadResponse{
		URL: fmt.Sprintf("/media/%s", filepath.ToSlash(relativePath)),
	})
}
