package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gigconnect/backend/internal/http/handlers/common"
	"github.com/gigconnect/backend/internal/models"
	"github.com/gigconnect/backend/internal/repository"
	"github.com/gigconnect/backend/internal/storage"
)

type UploadHandler struct {
	files *storage.FileStorage
	audit *repository.AuditRepository
}

func NewUploadHandler(files *storage.FileStorage, audit *repository.AuditRepository) *UploadHandler {
	return &UploadHandler{files: files, audit: audit}
}

// Upload POST /uploads/:category
//
// Accepts a multipart form with a single "file" field. The content type
// is sniffed from the bytes, never trusted from the request, and the
// metadata record starts with an empty used_by list; files still
// unreferenced after a grace period are removed by the cleanup worker.
func (h *UploadHandler) Upload(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		common.RespondBadRequest(c, "file field is required")
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		common.RespondBadRequest(c, "cannot read uploaded file")
		return
	}
	defer f.Close()

	saved, err := h.files.Save(c.Request.Context(), userID, c.Param("category"), fileHeader.Filename, f)
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	meta := &models.FileMetadata{
		StorageURL: saved.RelativePath,
		UploaderID: userID.String(),
		FileType:   saved.MIMEType,
		Size:       saved.Size,
		UsedBy:     []string{},
	}
	if err := h.audit.SaveFileMetadata(c.Request.Context(), meta); err != nil {
		// The file is on disk; the cleanup worker will collect it if
		// this record never lands.
		common.Fail(c, err)
		return
	}

	common.RespondData(c, http.StatusCreated, gin.H{
		"id":        meta.ID.Hex(),
		"url":       saved.RelativePath,
		"mime_type": saved.MIMEType,
		"size":      saved.Size,
	})
}
