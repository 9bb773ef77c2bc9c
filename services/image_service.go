package services

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"path"
	"strings"
	"time"

	"github.com/fildor/atelier-api/models"
	"github.com/fildor/atelier-api/utils"
)

// presignedURLExpiry is how long an image redirect stays valid
const presignedURLExpiry = time.Hour

// ImageUpload is an image held in memory until it is stored
type ImageUpload struct {
	Filename    string
	ContentType string
	Content     []byte
}

// NewImageUpload validates and reads a multipart image
func NewImageUpload(fileHeader *multipart.FileHeader) (*ImageUpload, error) {
	content, err := utils.ReadUploadedFile(fileHeader)
	if err != nil {
		return nil, err
	}
	return &ImageUpload{
		Filename:    fileHeader.Filename,
		ContentType: utils.ImageContentType(fileHeader.Filename),
		Content:     content,
	}, nil
}

// ImageService handles order images: upload, read access, and deletion
type ImageService interface {
	// UploadOrderImage stores the image under the order's namespace and returns its URL
	UploadOrderImage(ctx context.Context, orderID string, kind models.ImageKind, upload *ImageUpload) (string, error)

	// PresignedURL returns a time-limited read URL for a stored image URL or key
	PresignedURL(ctx context.Context, ref string) (string, error)

	// DeleteImage removes a stored image given its URL or key
	DeleteImage(ctx context.Context, ref string) error

	// BelongsToOrder reports whether ref points inside the order's own namespace
	BelongsToOrder(orderID, ref string) bool
}

// BlobImageService implements ImageService over a BlobStore
type BlobImageService struct {
	store BlobStore
	now   func() time.Time
}

// NewImageService creates an image service over store
func NewImageService(store BlobStore) *BlobImageService {
	return &BlobImageService{store: store, now: time.Now}
}

// OrderImagePrefix is the key namespace holding every image of an order
func OrderImagePrefix(orderID string) string {
	return "orders/" + orderID + "/"
}

// OrderImageKey builds orders/{orderID}/{kind}/{unix millis}-{clean file name}
func OrderImageKey(orderID string, kind models.ImageKind, filename string, at time.Time) string {
	return fmt.Sprintf("%s%s/%d-%s", OrderImagePrefix(orderID), kind, at.UnixMilli(), utils.CleanFileName(filename))
}

// UploadOrderImage validates and uploads an order image
func (s *BlobImageService) UploadOrderImage(ctx context.Context, orderID string, kind models.ImageKind, upload *ImageUpload) (string, error) {
	if upload == nil {
		return "", newError(ErrValidationFailed, "no image provided")
	}
	if err := utils.ValidateImage(upload.Filename, int64(len(upload.Content))); err != nil {
		return "", &ServiceError{Kind: ErrValidationFailed, Message: err.Error()}
	}

	key := OrderImageKey(orderID, kind, upload.Filename, s.now())
	contentType := upload.ContentType
	if contentType == "" {
		contentType = utils.ImageContentType(upload.Filename)
	}

	url, err := s.store.Upload(ctx, key, upload.Content, contentType)
	if err != nil {
		return "", &ServiceError{Kind: ErrUploadFailed, Message: "failed to upload image", Err: err}
	}
	return url, nil
}

// PresignedURL returns a read URL for an image
func (s *BlobImageService) PresignedURL(ctx context.Context, ref string) (string, error) {
	key := s.store.KeyFromURL(ref)
	if key == "" {
		return "", newError(ErrNotFound, "image not found")
	}

	url, err := s.store.PresignGet(ctx, key, presignedURLExpiry)
	if errors.Is(err, ErrBlobNotFound) {
		return "", newError(ErrNotFound, "image not found")
	}
	if err != nil {
		return "", fmt.Errorf("failed to generate image URL: %w", err)
	}
	return url, nil
}

// DeleteImage deletes an image; an empty reference is a no-op
func (s *BlobImageService) DeleteImage(ctx context.Context, ref string) error {
	key := s.store.KeyFromURL(ref)
	if key == "" {
		return nil
	}

	if err := s.store.Delete(ctx, key); err != nil {
		return fmt.Errorf("failed to delete image: %w", err)
	}
	return nil
}

// BelongsToOrder checks the key of ref sits under orders/{orderID}/. Keys that
// would change under path cleaning are refused.
func (s *BlobImageService) BelongsToOrder(orderID, ref string) bool {
	if strings.TrimSpace(orderID) == "" {
		return false
	}
	key := s.store.KeyFromURL(ref)
	if key == "" || path.Clean(key) != key {
		return false
	}
	return strings.HasPrefix(key, OrderImagePrefix(orderID))
}
