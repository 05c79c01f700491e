package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const (
	defaultMaxPhotoSize = 5 * 1024 * 1024
	photoURLTTL         = 24 * time.Hour
	photoPathPrefix     = "profile-photos"
)

var (
	ErrFileTooBig      = errors.New("file size exceeds limit")
	ErrInvalidFileType = errors.New("invalid file type, only JPEG, PNG and WEBP images are allowed")
	ErrUploadFailed    = errors.New("failed to upload file")
	ErrObjectURL       = errors.New("invalid file URL")
	ErrObjectNotFound  = errors.New("file not found")

	photoExtensions = map[string]string{
		"image/jpeg": ".jpg",
		"image/png":  ".png",
		"image/webp": ".webp",
	}
)

type StorageService interface {
	UploadProfilePhoto(ctx context.Context, userID int, file io.Reader, size int64, contentType string) (string, error)
	DeleteObject(ctx context.Context, key string) error
	PhotoURL(ctx context.Context, key string) (string, error)
	ObjectKey(rawURL string) (string, error)
	Open(ctx context.Context, key string) (*StoredObject, error)
}

// StoredObject: тело объекта и метаданные для отдачи клиенту.
type StoredObject struct {
	Body        io.ReadCloser
	Size        int64
	ContentType string
	Name        string
}

type minioStorageService struct {
	client  *minio.Client
	bucket  string
	maxSize int64
}

func NewMinIOStorageService(ctx context.Context, endpoint, accessKey, secretKey, bucket string, useSSL bool, maxSize int64) (StorageService, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %q: %w", bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket %q: %w", bucket, err)
		}
	}
	if maxSize <= 0 {
		maxSize = defaultMaxPhotoSize
	}
	return &minioStorageService{client: client, bucket: bucket, maxSize: maxSize}, nil
}

// validatePhoto returns the normalized content type and file extension.
func validatePhoto(size, maxSize int64, contentType string) (string, string, error) {
	if size <= 0 || size > maxSize {
		return "", "", ErrFileTooBig
	}
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.Index(ct, ";"); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	ext, ok := photoExtensions[ct]
	if !ok {
		return "", "", ErrInvalidFileType
	}
	return ct, ext, nil
}

func (s *minioStorageService) UploadProfilePhoto(ctx context.Context, userID int, file io.Reader, size int64, contentType string) (string, error) {
	ct, ext, err := validatePhoto(size, s.maxSize, contentType)
	if err != nil {
		return "", err
	}

	key := fmt.Sprintf("%s/user-%d/%s%s", photoPathPrefix, userID, uuid.New().String(), ext)
	_, err = s.client.PutObject(ctx, s.bucket, key, file, size, minio.PutObjectOptions{
		ContentType: ct,
		UserMetadata: map[string]string{
			"User-ID":     fmt.Sprintf("%d", userID),
			"Uploaded-At": time.Now().UTC().Format(time.RFC3339),
		},
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	return key, nil
}

func (s *minioStorageService) DeleteObject(ctx context.Context, key string) error {
	if strings.TrimSpace(key) == "" {
		return nil
	}
	return s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{})
}

func (s *minioStorageService) PhotoURL(ctx context.Context, key string) (string, error) {
	u, err := s.client.PresignedGetObject(ctx, s.bucket, key, photoURLTTL, url.Values{})
	if err != nil {
		return "", err
	}
	return u.String(), nil
}

// objectKeyFromURL принимает только ссылки на наш endpoint и бакет:
// http(s)://<host>/<bucket>/<key>, query (подпись) игнорируется.
func objectKeyFromURL(raw, host, bucket string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return "", ErrObjectURL
	}
	if !strings.EqualFold(u.Host, host) {
		return "", ErrObjectURL
	}
	parts := strings.SplitN(strings.TrimPrefix(u.Path, "/"), "/", 2)
	if len(parts) < 2 || parts[0] != bucket || parts[1] == "" {
		return "", ErrObjectURL
	}
	for _, seg := range strings.Split(parts[1], "/") {
		if seg == "" || seg == "." || seg == ".." {
			return "", ErrObjectURL
		}
	}
	return parts[1], nil
}

func (s *minioStorageService) ObjectKey(rawURL string) (string, error) {
	return objectKeyFromURL(rawURL, s.client.EndpointURL().Host, s.bucket)
}

func (s *minioStorageService) Open(ctx context.Context, key string) (*StoredObject, error) {
	info, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, ErrObjectNotFound
		}
		return nil, fmt.Errorf("stat %q: %w", key, err)
	}
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get %q: %w", key, err)
	}
	return &StoredObject{
		Body:        obj,
		Size:        info.Size,
		ContentType: info.ContentType,
		Name:        path.Base(key),
	}, nil
}
