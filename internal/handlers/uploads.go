package handlers

import (
	"fmt"
	"mime/multipart"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// saveUpload writes one multipart file into the temp dir under a fresh name
// and returns its path. The services remove the file after pushing it to
// blob storage.
func saveUpload(c *gin.Context, file *multipart.FileHeader, tempDir string) (string, error) {
	name := uuid.New().String() + filepath.Ext(file.Filename)
	path := filepath.Join(tempDir, name)

	if err := c.SaveUploadedFile(file, path); err != nil {
		return "", fmt.Errorf("failed to save uploaded file: %w", err)
	}

	return path, nil
}

// saveOptionalUpload saves the named form file when present; absence is not
// an error.
func saveOptionalUpload(c *gin.Context, field, tempDir string) (string, error) {
	file, err := c.FormFile(field)
	if err != nil {
		return "", nil
	}
	return saveUpload(c, file, tempDir)
}

// saveUploads saves every file under the named form field, capped at max
func saveUploads(c *gin.Context, field, tempDir string, max int) ([]string, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, nil
	}

	files := form.File[field]
	if len(files) > max {
		return nil, fmt.Errorf("at most %d images are allowed", max)
	}

	paths := make([]string, 0, len(files))
	for _, file := range files {
		path, err := saveUpload(c, file, tempDir)
		if err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}

	return paths, nil
}
