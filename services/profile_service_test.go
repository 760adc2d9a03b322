package services

import (
	"context"
	"errors"
	"testing"

	"github.com/Dosada05/pong-arena/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileService_GetProfile(t *testing.T) {
	logo := "avatars/1.png"
	repo := &fakeUserRepo{users: map[int]*models.User{
		1: {ID: 1, Nickname: "alice", LogoKey: &logo},
		2: {ID: 2, Nickname: "bob"},
	}}
	svc := NewProfileService(repo, newMemoryUploader(), "/default.png")

	alice, err := svc.GetProfile(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, models.Profile{ID: 1, Name: "alice", Avatar: "https://cdn.test/avatars/1.png"}, alice)

	bob, err := svc.GetProfile(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, "/default.png", bob.Avatar)

	_, err = svc.GetProfile(context.Background(), 3)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestProfileService_WithoutStorage(t *testing.T) {
	logo := "avatars/1.png"
	repo := &fakeUserRepo{users: map[int]*models.User{1: {ID: 1, Nickname: "alice", LogoKey: &logo}}}
	svc := NewProfileService(repo, nil, "/default.png")

	p, err := svc.GetProfile(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "/default.png", p.Avatar)
}

func TestProfileService_GetFriendIDs(t *testing.T) {
	repo := &fakeUserRepo{friends: map[int][]int{1: {2, 3}}}
	svc := NewProfileService(repo, nil, "")

	ids, err := svc.GetFriendIDs(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 3}, ids)

	repo.err = errors.New("connection reset")
	_, err = svc.GetFriendIDs(context.Background(), 1)
	assert.ErrorContains(t, err, "connection reset")
}
