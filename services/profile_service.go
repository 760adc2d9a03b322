package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/Dosada05/pong-arena/models"
	"github.com/Dosada05/pong-arena/repositories"
	"github.com/Dosada05/pong-arena/storage"
)

// ProfileService turns stored accounts into the public profiles shown in game.
type ProfileService struct {
	users         repositories.UserRepository
	uploader      storage.FileUploader
	defaultAvatar string
}

// NewProfileService builds the service. uploader may be nil, in which case
// every user gets defaultAvatar.
func NewProfileService(users repositories.UserRepository, uploader storage.FileUploader, defaultAvatar string) *ProfileService {
	return &ProfileService{users: users, uploader: uploader, defaultAvatar: defaultAvatar}
}

func (s *ProfileService) GetProfile(ctx context.Context, userID int) (models.Profile, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return models.Profile{}, fmt.Errorf("%w: id %d", ErrUserNotFound, userID)
		}
		return models.Profile{}, fmt.Errorf("failed to get user %d: %w", userID, err)
	}
	return models.Profile{
		ID:     user.ID,
		Name:   user.Nickname,
		Avatar: s.avatarURL(user),
	}, nil
}

func (s *ProfileService) GetFriendIDs(ctx context.Context, userID int) ([]int, error) {
	ids, err := s.users.ListFriendIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get friends of user %d: %w", userID, err)
	}
	return ids, nil
}

func (s *ProfileService) avatarURL(user *models.User) string {
	if user.LogoKey != nil && *user.LogoKey != "" && s.uploader != nil {
		if url := s.uploader.GetPublicURL(*user.LogoKey); url != "" {
			return url
		}
	}
	return s.defaultAvatar
}
