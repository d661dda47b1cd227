// Package service implements staff authentication: password login with an
// HS256 access token, recorded in the audit log.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	auditdomain "license-desk/backend/internal/audit/domain"
	auditrepo "license-desk/backend/internal/audit/repository"
	"license-desk/backend/internal/db"
	"license-desk/backend/internal/security"
	userdomain "license-desk/backend/internal/user/domain"
)

// ErrInvalidCredentials covers unknown usernames and wrong passwords alike;
// the login response never says which it was.
var ErrInvalidCredentials = errors.New("invalid credentials")

// AuthResult is a successful login: the signed access token plus the
// authenticated user.
type AuthResult struct {
	AccessToken string
	ExpiresAt   time.Time
	User        *userdomain.User
}

// UserRepo is the slice of the user repository the auth service needs.
type UserRepo interface {
	GetByUsername(ctx context.Context, username string) (*userdomain.User, error)
	UpdateLastLogin(ctx context.Context, id string, at time.Time) error
}

// AuthService authenticates staff against stored bcrypt hashes.
type AuthService struct {
	users  UserRepo
	logs   auditrepo.Repository
	txm    db.TxManager
	hasher *security.Hasher
	tokens *security.TokenProvider
	now    func() time.Time
	logger *slog.Logger
}

// NewAuthService returns an AuthService. nowFn may be nil; it defaults to
// time.Now in UTC.
func NewAuthService(users UserRepo, logs auditrepo.Repository, txm db.TxManager, hasher *security.Hasher, tokens *security.TokenProvider, logger *slog.Logger, nowFn func() time.Time) *AuthService {
	if nowFn == nil {
		nowFn = func() time.Time { return time.Now().UTC() }
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{users: users, logs: logs, txm: txm, hasher: hasher, tokens: tokens, now: nowFn, logger: logger}
}

// Login verifies the password, stamps the user's last login, appends the
// login audit entry, and issues an access token. The stamp and the entry
// commit together.
func (s *AuthService) Login(ctx context.Context, username, password string) (*AuthResult, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrInvalidCredentials
	}
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}
	if err := s.hasher.Compare(user.PasswordHash, []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	now := s.now()
	err = s.txm.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.users.UpdateLastLogin(ctx, user.ID, now); err != nil {
			return err
		}
		return s.logs.Append(ctx, auditdomain.NewLoginEntry(user.ID, user.Username, now))
	})
	if err != nil {
		return nil, err
	}
	user.LastLoginAt = &now

	token, expiresAt, err := s.tokens.Issue(user.ID, user.Username, string(user.Role))
	if err != nil {
		return nil, err
	}
	s.logger.Info("user logged in", "user_id", user.ID, "username", user.Username)
	return &AuthResult{AccessToken: token, ExpiresAt: expiresAt, User: user}, nil
}
