// Package identity authenticates users: bcrypt password checks and HS256 bearer tokens.
package identity

import (
	"context"
	"errors"

	"qcportal/internal/qc/model"
	"qcportal/internal/qc/repository"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInactive           = errors.New("user account is inactive")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

// Provider resolves credentials and tokens to users
type Provider struct {
	users  repository.UserRepository
	hasher *Hasher
	tokens *TokenIssuer
}

func NewProvider(users repository.UserRepository, hasher *Hasher, tokens *TokenIssuer) *Provider {
	return &Provider{users: users, hasher: hasher, tokens: tokens}
}

// HashPassword hashes a new user's password
func (p *Provider) HashPassword(password string) (string, error) {
	return p.hasher.Hash(password)
}

// Verify checks a username/password pair against the stored hash. Unknown users,
// wrong passwords and inactive accounts all fail.
func (p *Provider) Verify(ctx context.Context, username, password string) (*model.User, error) {
	user, err := p.users.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			p.hasher.burn(password)
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	ok, err := p.hasher.Compare(user.PasswordHash, password)
	if err != nil {
		return nil, err
	}
	// bcrypt ignores ctx; do not report success past the caller's deadline
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrInactive
	}
	return user, nil
}

// Login verifies credentials and issues an access token
func (p *Provider) Login(ctx context.Context, username, password string) (*model.LoginResp, error) {
	user, err := p.Verify(ctx, username, password)
	if err != nil {
		return nil, err
	}

	token, expiresAt, err := p.tokens.Issue(user)
	if err != nil {
		return nil, err
	}
	return &model.LoginResp{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresAt:   expiresAt.UTC(),
		User:        user,
	}, nil
}

// Resolve maps a bearer token back to its current user. Role and active flag are
// re-read from the store, so deactivation takes effect before the token expires.
func (p *Provider) Resolve(ctx context.Context, token string) (*model.User, error) {
	claims, err := p.tokens.Parse(token)
	if err != nil {
		return nil, err
	}

	user, err := p.users.GetUser(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrInactive
	}
	return user, nil
}
