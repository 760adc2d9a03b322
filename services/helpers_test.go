package services

import (
	"context"
	"io"
	"log/slog"

	"github.com/Dosada05/pong-arena/models"
	"github.com/Dosada05/pong-arena/repositories"
	"github.com/Dosada05/pong-arena/storage"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeUserRepo struct {
	users   map[int]*models.User
	friends map[int][]int
	err     error
}

func (r *fakeUserRepo) GetByID(_ context.Context, id int) (*models.User, error) {
	if r.err != nil {
		return nil, r.err
	}
	u, ok := r.users[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	return u, nil
}

func (r *fakeUserRepo) ListFriendIDs(_ context.Context, id int) ([]int, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.friends[id], nil
}

type fakeMatchRepo struct {
	created []models.MatchRecord
	limit   int
	err     error
}

func (r *fakeMatchRepo) Create(_ context.Context, rec *models.MatchRecord) error {
	if r.err != nil {
		return r.err
	}
	rec.ID = int64(len(r.created) + 1)
	r.created = append(r.created, *rec)
	return nil
}

func (r *fakeMatchRepo) ListByUser(_ context.Context, _ int, limit int) ([]models.MatchRecord, error) {
	r.limit = limit
	return r.created, r.err
}

type memoryUploader struct {
	objects map[string][]byte
	types   map[string]string
	err     error
}

func newMemoryUploader() *memoryUploader {
	return &memoryUploader{objects: map[string][]byte{}, types: map[string]string{}}
}

func (u *memoryUploader) Upload(_ context.Context, key, contentType string, reader io.Reader) (*storage.UploadResult, error) {
	if u.err != nil {
		return nil, u.err
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}
	u.objects[key] = body
	u.types[key] = contentType
	return &storage.UploadResult{Key: key, Location: u.GetPublicURL(key)}, nil
}

func (u *memoryUploader) GetPublicURL(key string) string {
	return "https://cdn.test/" + key
}
