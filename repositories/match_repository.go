package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/pong-arena/models"
)

var (
	ErrMatchPlayerInvalid = errors.New("match references an unknown user")
	ErrMatchInvalid       = errors.New("match violates a table constraint")
)

type MatchRepository interface {
	Create(ctx context.Context, rec *models.MatchRecord) error
	ListByUser(ctx context.Context, userID int, limit int) ([]models.MatchRecord, error)
}

type postgresMatchRepository struct {
	db *sql.DB
}

func NewPostgresMatchRepository(db *sql.DB) MatchRepository {
	return &postgresMatchRepository{db: db}
}

func (r *postgresMatchRepository) Create(ctx context.Context, rec *models.MatchRecord) error {
	query := `
		INSERT INTO matches (tournament_id, left_id, left_guest_name, right_id, right_guest_name,
			winner, score_left, score_right, duration_ms, forfeit, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id`

	err := r.db.QueryRowContext(ctx, query,
		rec.TournamentID,
		rec.LeftID,
		rec.LeftGuestName,
		rec.RightID,
		rec.RightGuestName,
		rec.WinnerIndicator,
		rec.ScoreLeft,
		rec.ScoreRight,
		rec.Duration,
		rec.Forfeit,
		rec.CreatedAt,
	).Scan(&rec.ID)
	if err != nil {
		switch code, constraint := pqErrorCode(err); code {
		case pqForeignKeyViolation:
			return fmt.Errorf("%w (%s)", ErrMatchPlayerInvalid, constraint)
		case pqCheckViolation, pqUniqueViolation:
			return fmt.Errorf("%w (%s)", ErrMatchInvalid, constraint)
		}
		return fmt.Errorf("failed to insert match: %w", err)
	}
	return nil
}

// ListByUser returns the most recent matches a user played, newest first.
func (r *postgresMatchRepository) ListByUser(ctx context.Context, userID int, limit int) ([]models.MatchRecord, error) {
	query := `
		SELECT id, tournament_id, left_id, left_guest_name, right_id, right_guest_name,
			winner, score_left, score_right, duration_ms, forfeit, created_at
		FROM matches
		WHERE left_id = $1 OR right_id = $1
		ORDER BY created_at DESC
		LIMIT $2`

	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches of user %d: %w", userID, err)
	}
	defer rows.Close()

	matches := make([]models.MatchRecord, 0)
	for rows.Next() {
		var (
			m            models.MatchRecord
			tournamentID sql.NullString
			leftID       sql.NullInt64
			leftGuest    sql.NullString
			rightID      sql.NullInt64
			rightGuest   sql.NullString
		)
		if err := rows.Scan(
			&m.ID,
			&tournamentID,
			&leftID,
			&leftGuest,
			&rightID,
			&rightGuest,
			&m.WinnerIndicator,
			&m.ScoreLeft,
			&m.ScoreRight,
			&m.Duration,
			&m.Forfeit,
			&m.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan match: %w", err)
		}
		m.TournamentID = nullString(tournamentID)
		m.LeftID = nullInt(leftID)
		m.LeftGuestName = nullString(leftGuest)
		m.RightID = nullInt(rightID)
		m.RightGuestName = nullString(rightGuest)
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return matches, nil
}

func nullString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	return &v.String
}

func nullInt(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	i := int(v.Int64)
	return &i
}
