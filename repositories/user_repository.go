package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/pong-arena/models"
	"github.com/lib/pq"
)

var ErrUserNotFound = errors.New("user not found")

// UserRepository reads accounts and friendships. Both tables are owned by the
// account service, so there are no writes here.
type UserRepository interface {
	GetByID(ctx context.Context, id int) (*models.User, error)
	ListFriendIDs(ctx context.Context, userID int) ([]int, error)
}

type postgresUserRepository struct {
	db *sql.DB
}

func NewPostgresUserRepository(db *sql.DB) UserRepository {
	return &postgresUserRepository{db: db}
}

func (r *postgresUserRepository) GetByID(ctx context.Context, id int) (*models.User, error) {
	query := `
		SELECT id, nickname, email, logo_key, created_at
		FROM users
		WHERE id = $1`

	user := &models.User{}
	var logoKey sql.NullString
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&user.ID,
		&user.Nickname,
		&user.Email,
		&logoKey,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to scan user %d: %w", id, err)
	}
	if logoKey.Valid && logoKey.String != "" {
		user.LogoKey = &logoKey.String
	}
	return user, nil
}

// ListFriendIDs returns accepted friendships in either direction, sorted.
func (r *postgresUserRepository) ListFriendIDs(ctx context.Context, userID int) ([]int, error) {
	query := `
		SELECT COALESCE(array_agg(friend_id ORDER BY friend_id), '{}')
		FROM (
			SELECT addressee_id AS friend_id FROM friendships
			WHERE requester_id = $1 AND status = 'accepted'
			UNION
			SELECT requester_id FROM friendships
			WHERE addressee_id = $1 AND status = 'accepted'
		) f`

	var ids pq.Int64Array
	if err := r.db.QueryRowContext(ctx, query, userID).Scan(&ids); err != nil {
		return nil, fmt.Errorf("failed to list friends of user %d: %w", userID, err)
	}

	out := make([]int, len(ids))
	for i, id := range ids {
		out[i] = int(id)
	}
	return out, nil
}
