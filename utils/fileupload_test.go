package utils

import (
	"bytes"
	"mime/multipart"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// createFileHeader builds a real multipart.FileHeader by parsing a multipart body
func createFileHeader(t *testing.T, filename string, content []byte) *multipart.FileHeader {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("image", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest("POST", "/upload", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(MaxFileSize))

	_, header, err := req.FormFile("image")
	require.NoError(t, err)
	return header
}

func TestValidateImage(t *testing.T) {
	tests := []struct {
		name         string
		filename     string
		size         int64
		expectedCode string
	}{
		{name: "valid png", filename: "fabric.png", size: 1024},
		{name: "valid jpg", filename: "fabric.jpg", size: 1024},
		{name: "valid uppercase jpeg", filename: "FABRIC.JPEG", size: 1024},
		{name: "valid webp", filename: "fabric.webp", size: 1024},
		{name: "exactly max size", filename: "fabric.png", size: MaxFileSize},
		{name: "too large", filename: "fabric.png", size: MaxFileSize + 1, expectedCode: "FILE_TOO_LARGE"},
		{name: "empty file", filename: "fabric.png", size: 0, expectedCode: "EMPTY_FILE"},
		{name: "gif rejected", filename: "fabric.gif", size: 1024, expectedCode: "INVALID_FILE_FORMAT"},
		{name: "no extension", filename: "fabric", size: 1024, expectedCode: "INVALID_FILE_FORMAT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateImage(tt.filename, tt.size)
			if tt.expectedCode == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			uploadErr, ok := err.(*FileUploadError)
			require.True(t, ok, "error should be a FileUploadError")
			assert.Equal(t, tt.expectedCode, uploadErr.Code)
		})
	}
}

func TestReadUploadedFile(t *testing.T) {
	content := []byte("fake jpeg bytes")
	header := createFileHeader(t, "tissu wax.jpg", content)

	read, err := ReadUploadedFile(header)
	require.NoError(t, err)
	assert.Equal(t, content, read)

	_, err = ReadUploadedFile(createFileHeader(t, "notes.txt", []byte("hello")))
	assert.Error(t, err)
}

func TestImageContentType(t *testing.T) {
	assert.Equal(t, "image/png", ImageContentType("a.png"))
	assert.Equal(t, "image/jpeg", ImageContentType("a.JPG"))
	assert.Equal(t, "image/webp", ImageContentType("a.webp"))
	assert.Equal(t, "application/octet-stream", ImageContentType("a.bin"))
}

func TestCleanFileName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Tissu Wax Bleu.JPG", "tissu_wax_bleu.jpg"},
		{"photo (1).png", "photo_1.png"},
		{"élégant.webp", "lgant.webp"},
		{"../../etc/passwd", "passwd"},
		{"C:\\Users\\awa\\modèle.jpeg", "modle.jpeg"},
		{"???", "image"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, CleanFileName(tt.input))
		})
	}
}
