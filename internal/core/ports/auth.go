package ports

import (
	"context"

	"github.com/fieldops/tracker/internal/core/domain"
)

// AuthRepository defines the interface for user persistence.
type AuthRepository interface {
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id int64) (*domain.User, error)
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
}

// TokenClaims is the identity payload carried by a session token.
type TokenClaims struct {
	ID       int64
	Email    string
	Username string
}

// AuthResult is returned by register and login: a signed session token
// plus the public view of the user.
type AuthResult struct {
	Token string            `json:"access_token"`
	User  domain.PublicUser `json:"user"`
}

// AuthService implements registration, login and token handling.
type AuthService interface {
	Register(ctx context.Context, email, username, password string) (*AuthResult, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	// ValidateUser hydrates the full user record for a previously
	// verified token subject.
	ValidateUser(ctx context.Context, id int64) (*domain.User, error)
	// VerifyToken checks the signature and expiry of a bearer token and
	// returns its claims.
	VerifyToken(token string) (*TokenClaims, error)
}
