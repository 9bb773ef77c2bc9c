package utils

import (
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"regexp"
	"strings"
)

const (
	// MaxFileSize is 10MB in bytes
	MaxFileSize = 10 * 1024 * 1024
)

// allowedImageTypes maps accepted extensions to their content type
var allowedImageTypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".webp": "image/webp",
}

var unsafeFileNameChars = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

// FileUploadError represents a file upload validation error
type FileUploadError struct {
	Code    string
	Message string
}

func (e *FileUploadError) Error() string {
	return e.Message
}

// ValidateImage checks the size and extension of an image before it is stored
func ValidateImage(filename string, size int64) error {
	if size > MaxFileSize {
		return &FileUploadError{
			Code:    "FILE_TOO_LARGE",
			Message: fmt.Sprintf("File size exceeds maximum allowed size of %d MB", MaxFileSize/(1024*1024)),
		}
	}
	if size == 0 {
		return &FileUploadError{
			Code:    "EMPTY_FILE",
			Message: "File is empty",
		}
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if _, ok := allowedImageTypes[ext]; !ok {
		return &FileUploadError{
			Code:    "INVALID_FILE_FORMAT",
			Message: "Only png, jpg, jpeg and webp images are allowed",
		}
	}

	return nil
}

// ValidateImageFile validates an uploaded multipart image
func ValidateImageFile(fileHeader *multipart.FileHeader) error {
	return ValidateImage(fileHeader.Filename, fileHeader.Size)
}

// ReadUploadedFile validates and reads a multipart image into memory
func ReadUploadedFile(fileHeader *multipart.FileHeader) (content []byte, err error) {
	if err := ValidateImageFile(fileHeader); err != nil {
		return nil, err
	}

	src, err := fileHeader.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer func() {
		if closeErr := src.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close uploaded file: %w", closeErr)
		}
	}()

	content, err = io.ReadAll(io.LimitReader(src, MaxFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read uploaded file: %w", err)
	}
	if len(content) > MaxFileSize {
		return nil, &FileUploadError{Code: "FILE_TOO_LARGE", Message: "File size exceeds maximum allowed size"}
	}
	return content, nil
}

// ImageContentType returns the content type for an image file name
func ImageContentType(filename string) string {
	if ct, ok := allowedImageTypes[strings.ToLower(filepath.Ext(filename))]; ok {
		return ct
	}
	return "application/octet-stream"
}

// CleanFileName makes a user-supplied file name safe for an object key:
// spaces become underscores, anything outside [a-zA-Z0-9._-] is dropped, and
// the result is lower-cased.
func CleanFileName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.ReplaceAll(name, " ", "_")
	name = unsafeFileNameChars.ReplaceAllString(name, "")
	name = strings.ToLower(name)
	if name == "" || name == "." || name == ".." {
		return "image"
	}
	return name
}
