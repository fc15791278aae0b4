package picture

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/givingly/giveaway-api/internal/domain"
	s3infra "github.com/givingly/giveaway-api/internal/infrastructure/s3"
	"github.com/givingly/giveaway-api/internal/pkg/id"
)

type UploadInput struct {
	Reader      io.Reader
	Filename    string
	ContentType string
	Size        int64
	UploaderID  string
}

// presignTTL bounds how long a presigned download link stays valid.
const presignTTL = 15 * time.Minute

type Service interface {
	Upload(ctx context.Context, caller domain.Caller, input UploadInput) (*domain.Picture, error)
	Download(ctx context.Context, pictureID string) (io.ReadCloser, *domain.Picture, error)
	DownloadURL(ctx context.Context, pictureID string) (string, error)
	Delete(ctx context.Context, caller domain.Caller, pictureID string) error
}

type pictureStore interface {
	Put(ctx context.Context, p *domain.Picture) error
	Get(ctx context.Context, pictureID string) (*domain.Picture, error)
	SoftDelete(ctx context.Context, pictureID string) error
}

type blobStore interface {
	Upload(ctx context.Context, key string, r io.Reader, contentType string) (string, error)
	Download(ctx context.Context, key string) (io.ReadCloser, error)
	PresignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
	Delete(ctx context.Context, key string) error
}

type service struct {
	blobs blobStore
	repo  pictureStore
}

func NewService(blobs blobStore, repo pictureStore) Service {
	return &service{blobs: blobs, repo: repo}
}

func (s *service) Upload(ctx context.Context, caller domain.Caller, input UploadInput) (*domain.Picture, error) {
	if !caller.LoggedIn() {
		return nil, fmt.Errorf("upload picture: %w", domain.ErrNotLoggedIn)
	}
	contentType := input.ContentType
	if contentType == "" {
		contentType = s3infra.DetectContentType(input.Filename)
	}
	if !strings.HasPrefix(contentType, "image/") {
		return nil, fmt.Errorf("unsupported content type %q: %w", contentType, domain.ErrBadRequest)
	}

	safeName := sanitizeFilename(input.Filename)
	pictureID := id.New()
	key := fmt.Sprintf("pictures/%s/%s", pictureID, safeName)
	if _, err := s.blobs.Upload(ctx, key, input.Reader, contentType); err != nil {
		return nil, err
	}

	p := &domain.Picture{
		PictureID:   pictureID,
		UserID:      caller.ID,
		FileName:    safeName,
		ContentType: contentType,
		S3Key:       key,
		Size:        input.Size,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.repo.Put(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *service) Download(ctx context.Context, pictureID string) (io.ReadCloser, *domain.Picture, error) {
	p, err := s.repo.Get(ctx, pictureID)
	if err != nil {
		return nil, nil, err
	}
	if p.Deleted {
		return nil, nil, fmt.Errorf("picture not found: %w", domain.ErrNotFound)
	}
	rc, err := s.blobs.Download(ctx, p.S3Key)
	if err != nil {
		return nil, nil, err
	}
	return rc, p, nil
}

// DownloadURL hands out a time-limited presigned link so large pictures can
// be fetched from S3 directly instead of streaming through the API.
func (s *service) DownloadURL(ctx context.Context, pictureID string) (string, error) {
	p, err := s.repo.Get(ctx, pictureID)
	if err != nil {
		return "", err
	}
	if p.Deleted {
		return "", fmt.Errorf("picture not found: %w", domain.ErrNotFound)
	}
	return s.blobs.PresignedURL(ctx, p.S3Key, presignTTL)
}

func (s *service) Delete(ctx context.Context, caller domain.Caller, pictureID string) error {
	p, err := s.repo.Get(ctx, pictureID)
	if err != nil {
		return err
	}
	if p.Deleted {
		return fmt.Errorf("picture not found: %w", domain.ErrNotFound)
	}
	if !domain.OwnerOrModsOrAdmins(caller.ID, caller.Role, p.UserID) {
		return fmt.Errorf("delete picture %s: %w", pictureID, domain.ErrNotAuthorized)
	}
	if err := s.blobs.Delete(ctx, p.S3Key); err != nil {
		return err
	}
	return s.repo.SoftDelete(ctx, pictureID)
}

// sanitizeFilename strips directory components and keeps only safe characters
// (alphanumeric, dot, dash, underscore) to prevent path traversal in S3 keys.
func sanitizeFilename(name string) string {
	name = path.Base(name)
	var b strings.Builder
	for _, r := range name {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
			(r >= '0' && r <= '9') || r == '.' || r == '-' || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	if result := b.String(); result != "" && result != "." {
		return result
	}
	return "_"
}
