package picture

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/givingly/giveaway-api/internal/domain"
)

type mockPictureStore struct{ mock.Mock }

func (m *mockPictureStore) Put(ctx context.Context, p *domain.Picture) error {
	return m.Called(ctx, p).Error(0)
}
func (m *mockPictureStore) Get(ctx context.Context, pictureID string) (*domain.Picture, error) {
	args := m.Called(ctx, pictureID)
	if p, ok := args.Get(0).(*domain.Picture); ok {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockPictureStore) SoftDelete(ctx context.Context, pictureID string) error {
	return m.Called(ctx, pictureID).Error(0)
}

type mockBlobStore struct{ mock.Mock }

func (m *mockBlobStore) Upload(ctx context.Context, key string, r io.Reader, contentType string) (string, error) {
	args := m.Called(ctx, key, r, contentType)
	return args.String(0), args.Error(1)
}
func (m *mockBlobStore) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	args := m.Called(ctx, key)
	if rc, ok := args.Get(0).(io.ReadCloser); ok {
		return rc, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockBlobStore) PresignedURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	args := m.Called(ctx, key, ttl)
	return args.String(0), args.Error(1)
}
func (m *mockBlobStore) Delete(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

func TestDownloadURL_ReturnsPresignedLink(t *testing.T) {
	repo := &mockPictureStore{}
	repo.On("Get", mock.Anything, "p1").Return(&domain.Picture{
		PictureID: "p1",
		S3Key:     "pictures/p1/cat.jpg",
	}, nil)
	blobs := &mockBlobStore{}
	blobs.On("PresignedURL", mock.Anything, "pictures/p1/cat.jpg", presignTTL).
		Return("https://bucket.s3.amazonaws.com/pictures/p1/cat.jpg?X-Amz-Signature=abc", nil)

	svc := NewService(blobs, repo)
	url, err := svc.DownloadURL(context.Background(), "p1")

	assert.NoError(t, err)
	assert.Contains(t, url, "X-Amz-Signature")
	blobs.AssertExpectations(t)
}

func TestDownloadURL_DeletedPicture(t *testing.T) {
	repo := &mockPictureStore{}
	repo.On("Get", mock.Anything, "p1").Return(&domain.Picture{
		PictureID: "p1",
		S3Key:     "pictures/p1/cat.jpg",
		Deleted:   true,
	}, nil)
	blobs := &mockBlobStore{}

	svc := NewService(blobs, repo)
	_, err := svc.DownloadURL(context.Background(), "p1")

	assert.ErrorIs(t, err, domain.ErrNotFound)
	blobs.AssertNotCalled(t, "PresignedURL", mock.Anything, mock.Anything, mock.Anything)
}
