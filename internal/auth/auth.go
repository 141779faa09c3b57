package auth

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// User is the session identity attached to every authenticated request.
// OrganizationID is what scopes all attendance reads and deletes.
type User struct {
	ID             int64  `json:"id"`
	Email          string `json:"email"`
	Name           string `json:"name,omitempty"`
	OrganizationID string `json:"organization_id"`
}

// TokenGenerator creates and validates session tokens.
type TokenGenerator interface {
	GenerateAccessToken(userID, email, organizationID string) (token string, err error)
	GenerateRefreshToken(userID, email, organizationID string) (token string, err error)
	ValidateToken(tokenString string) (*Claims, error)
}

// AuthService performs authentication-related business logic.
type AuthService interface {
	Authenticate(dto LoginDTO) (AuthTokens, error)
	RefreshTokens(refreshToken string) (AuthTokens, error)
	ValidateAccessToken(tokenString string) (*Claims, error)
	GetSessionUser(userID int64) (*User, error)
}

type AuthTokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Claims represents JWT token claims
type Claims struct {
	UserID         string `json:"user_id"`
	Email          string `json:"email"`
	OrganizationID string `json:"organization_id"`
	jwt.RegisteredClaims
}

type JWTTokenGenerator struct {
	AccessTokenSecret  []byte
	RefreshTokenSecret []byte
	AccessTokenTTL     time.Duration
	RefreshTokenTTL    time.Duration
}

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrTokenExpired       = errors.New("token expired")
	ErrUserInactive       = errors.New("user is inactive")
)

type ctxKey string

const ContextUserKey ctxKey = "auth_user"

// UserFromContext returns the session user placed by the auth middleware.
func UserFromContext(ctx context.Context) (*User, bool) {
	user, ok := ctx.Value(ContextUserKey).(*User)
	return user, ok
}

func ContextWithUser(ctx context.Context, user *User) context.Context {
	return context.WithValue(ctx, ContextUserKey, user)
}
