package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/Dosada05/pong-arena/models"
	"github.com/golang-jwt/jwt/v4"
)

// Claim names shared with the account service that issues the tokens.
const (
	jwtClaimUserID = "user_id"
	jwtClaimEmail  = "email"
	jwtClaimType   = "type"

	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

// TokenService checks HS256 tokens signed with the shared secret.
type TokenService struct {
	secret []byte
	now    func() time.Time
}

func NewTokenService(secret string) *TokenService {
	return &TokenService{secret: []byte(secret), now: time.Now}
}

// Issue signs a token for identity. The game server only verifies; Issue
// exists for tooling and tests.
func (s *TokenService) Issue(identity models.Identity, refresh bool, ttl time.Duration) (string, error) {
	now := s.now()
	tokenType := tokenTypeAccess
	if refresh {
		tokenType = tokenTypeRefresh
	}
	claims := jwt.MapClaims{
		jwtClaimUserID: identity.UserID,
		jwtClaimEmail:  identity.Email,
		jwtClaimType:   tokenType,
		"iat":          now.Unix(),
		"exp":          now.Add(ttl).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify parses token and checks it is of the requested kind.
func (s *TokenService) Verify(token string, refresh bool) (models.Identity, error) {
	parser := jwt.Parser{ValidMethods: []string{jwt.SigningMethodHS256.Alg()}}
	claims := jwt.MapClaims{}
	_, err := parser.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil {
		var validationErr *jwt.ValidationError
		if errors.As(err, &validationErr) && validationErr.Errors&jwt.ValidationErrorExpired != 0 {
			return models.Identity{}, fmt.Errorf("%w: token expired", ErrInvalidToken)
		}
		return models.Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	want := tokenTypeAccess
	if refresh {
		want = tokenTypeRefresh
	}
	if got, _ := claims[jwtClaimType].(string); got != want {
		return models.Identity{}, fmt.Errorf("%w: want %s, got %q", ErrWrongTokenType, want, got)
	}

	userID, err := userIDFromClaims(claims)
	if err != nil {
		return models.Identity{}, err
	}
	email, _ := claims[jwtClaimEmail].(string)
	return models.Identity{UserID: userID, Email: email}, nil
}

func userIDFromClaims(claims jwt.MapClaims) (int, error) {
	raw, ok := claims[jwtClaimUserID]
	if !ok {
		return 0, fmt.Errorf("%w: missing '%s' claim", ErrInvalidToken, jwtClaimUserID)
	}
	f, ok := raw.(float64)
	if !ok {
		return 0, fmt.Errorf("%w: invalid type for '%s' claim: %T", ErrInvalidToken, jwtClaimUserID, raw)
	}
	if f != float64(int(f)) || f <= 0 {
		return 0, fmt.Errorf("%w: invalid '%s' claim value %v", ErrInvalidToken, jwtClaimUserID, f)
	}
	return int(f), nil
}
