package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/taskmaster-hq/bugtracker/internal/auth"
	"github.com/taskmaster-hq/bugtracker/internal/models"
)

// UploadAttachment validates and stores one uploaded file for a task.
func (h *Handler) UploadAttachment(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	if _, err := h.db.GetTask(id); err != nil {
		writeError(c, err)
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file provided"})
		return
	}

	existing, err := h.db.GetTaskAttachments(id)
	if err != nil {
		writeError(c, err)
		return
	}
	var existingTotal int64
	for _, a := range existing {
		existingTotal += a.FileSize
	}

	if err := h.storage.Validate(fileHeader.Filename, fileHeader.Size, len(existing), existingTotal); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	storedName, relativePath, err := h.storage.SaveFile(fileHeader, id)
	if err != nil {
		writeError(c, err)
		return
	}

	attachment := &models.Attachment{
		TaskID:           id,
		Filename:         storedName,
		OriginalFilename: fileHeader.Filename,
		FilePath:         relativePath,
		FileSize:         fileHeader.Size,
		ContentType:      fileHeader.Header.Get("Content-Type"),
		UploadedBy:       auth.CurrentUserID(c),
	}
	if err := h.db.AddAttachment(attachment); err != nil {
		h.storage.DeleteFile(relativePath)
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, attachment)
}

func (h *Handler) ListAttachments(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	attachments, err := h.db.GetTaskAttachments(id)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, attachments)
}

// DownloadAttachment streams the stored file under its original name.
func (h *Handler) DownloadAttachment(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	attachment, err := h.db.GetAttachment(id)
	if err != nil {
		writeError(c, err)
		return
	}

	c.FileAttachment(h.storage.GetFilePath(attachment.FilePath), attachment.OriginalFilename)
}

// DeleteAttachment removes the record and then the file. A missing file
// is not an error; the record is the source of truth.
func (h *Handler) DeleteAttachment(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	attachment, err := h.db.GetAttachment(id)
	if err != nil {
		writeError(c, err)
		return
	}

	if err := h.db.DeleteAttachment(id); err != nil {
		writeError(c, err)
		return
	}

	_ = h.storage.DeleteFile(attachment.FilePath)

	c.JSON(http.StatusOK, gin.H{"message": "Attachment deleted"})
}
