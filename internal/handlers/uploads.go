package handlers

import (
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"adoption-service/internal/domain"
	"adoption-service/internal/storage"
)

// UploadHandler streams listing and evidence photos to the photo store.
type UploadHandler struct {
	store storage.PhotoStore
}

// NewUploadHandler builds an UploadHandler.
func NewUploadHandler(store storage.PhotoStore) *UploadHandler {
	return &UploadHandler{store: store}
}

// Upload accepts one multipart file and returns its public URL. Objects
// are keyed under the uploader's id so evidence stays attributable even
// if the later flag write fails.
func (h *UploadHandler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		respondError(c, domain.Validationf("missing file field"))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respondError(c, domain.Validationf("could not read file"))
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	key := sessionUserID(c) + "/" + uuid.NewString() + ext

	url, err := h.store.Upload(c.Request.Context(), key, fileHeader.Header.Get("Content-Type"), file)
	if err != nil {
		respondError(c, domain.Transientf("photo upload failed"))
		return
	}

	c.JSON(http.StatusCreated, gin.H{"url": url})
}
