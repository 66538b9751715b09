package storage

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// blockedExtensions are rejected regardless of declared content type.
var blockedExtensions = map[string]bool{
	".exe": true, ".bat": true, ".cmd": true, ".scr": true, ".vbs": true,
	".js": true, ".jar": true, ".com": true, ".pif": true, ".msi": true,
}

// Limits caps what a single task may accumulate in attachments.
type Limits struct {
	MaxFileSizeMB   int64
	MaxFilesPerTask int
	MaxTotalSizeMB  int64
}

// FileStorage keeps attachment files on disk under generated names; the
// original filename lives only in the attachment record.
type FileStorage struct {
	basePath string
	limits   Limits
}

func NewFileStorage(basePath string, limits Limits) (*FileStorage, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &FileStorage{basePath: basePath, limits: limits}, nil
}

// Validate checks one candidate upload against the size cap, the
// extension blocklist, and the task's accumulated count and size.
func (fs *FileStorage) Validate(filename string, size int64, existingCount int, existingTotal int64) error {
	ext := strings.ToLower(filepath.Ext(filename))
	if blockedExtensions[ext] {
		return fmt.Errorf("file type %q is not allowed for security reasons", ext)
	}

	if size > fs.limits.MaxFileSizeMB*1024*1024 {
		return fmt.Errorf("file too large, maximum size is %dMB", fs.limits.MaxFileSizeMB)
	}

	if existingCount >= fs.limits.MaxFilesPerTask {
		return fmt.Errorf("task already has the maximum of %d attachments", fs.limits.MaxFilesPerTask)
	}

	if existingTotal+size > fs.limits.MaxTotalSizeMB*1024*1024 {
		return fmt.Errorf("task attachments would exceed the %dMB total limit", fs.limits.MaxTotalSizeMB)
	}

	return nil
}

// SaveFile writes the upload under a generated unique name and returns
// (stored name, relative path). The extension is kept so downloads get a
// sensible content type.
func (fs *FileStorage) SaveFile(fileHeader *multipart.FileHeader, taskID uint) (string, string, error) {
	dir := filepath.Join(fs.basePath, fmt.Sprintf("task_%d", taskID))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", "", fmt.Errorf("failed to create directory: %w", err)
	}

	filename := uuid.NewString() + strings.ToLower(filepath.Ext(fileHeader.Filename))
	fullPath := filepath.Join(dir, filename)

	src, err := fileHeader.Open()
	if err != nil {
		return "", "", fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(fullPath)
	if err != nil {
		return "", "", fmt.Errorf("failed to create destination file: %w", err)
	}
	defer dst.Close()

	if _, err = io.Copy(dst, src); err != nil {
		return "", "", fmt.Errorf("failed to save file: %w", err)
	}

	relativePath := filepath.Join(fmt.Sprintf("task_%d", taskID), filename)
	return filename, relativePath, nil
}

func (fs *FileStorage) GetFilePath(path string) string {
	return filepath.Join(fs.basePath, path)
}

func (fs *FileStorage) DeleteFile(path string) error {
	return os.Remove(filepath.Join(fs.basePath, path))
}
