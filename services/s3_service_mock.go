package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

const mockBlobBaseURL = "https://test-bucket.s3.us-east-1.amazonaws.com"

// MockS3Service is an in-memory BlobStore for tests
type MockS3Service struct {
	uploadedFiles map[string][]byte // map of object key to file content
	mu            sync.RWMutex

	// FailUploads and FailDeletes make the next calls return an error
	FailUploads bool
	FailDeletes bool
}

// NewMockS3Service creates a new mock blob store
func NewMockS3Service() *MockS3Service {
	return &MockS3Service{
		uploadedFiles: make(map[string][]byte),
	}
}

// Upload stores the content under key
func (m *MockS3Service) Upload(ctx context.Context, key string, content []byte, contentType string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailUploads {
		return "", errors.New("mock S3 upload failure")
	}
	m.uploadedFiles[key] = append([]byte(nil), content...)
	return mockBlobBaseURL + "/" + key, nil
}

// PresignGet returns a fake presigned URL for an existing key
func (m *MockS3Service) PresignGet(ctx context.Context, key string, expires time.Duration) (string, error) {
	m.mu.RLock()
	_, exists := m.uploadedFiles[key]
	m.mu.RUnlock()

	if !exists {
		return "", fmt.Errorf("%w: %s", ErrBlobNotFound, key)
	}
	return fmt.Sprintf("%s/%s?mock=true&expires=%d", mockBlobBaseURL, key, int(expires.Seconds())), nil
}

// Delete removes key
func (m *MockS3Service) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailDeletes {
		return errors.New("mock S3 delete failure")
	}
	delete(m.uploadedFiles, key)
	return nil
}

// KeyFromURL extracts the key from a mock URL
func (m *MockS3Service) KeyFromURL(ref string) string {
	return keyFromURL(ref, mockBlobBaseURL, "test-bucket")
}

// GetUploadedFiles returns all uploaded files (for testing assertions)
func (m *MockS3Service) GetUploadedFiles() map[string][]byte {
	m.mu.RLock()
	defer m.mu.RUnlock()

	// Return a copy to prevent race conditions
	files := make(map[string][]byte, len(m.uploadedFiles))
	for k, v := range m.uploadedFiles {
		files[k] = v
	}
	return files
}

// FileExists checks if a file exists in mock storage
func (m *MockS3Service) FileExists(key string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, exists := m.uploadedFiles[key]
	return exists
}
