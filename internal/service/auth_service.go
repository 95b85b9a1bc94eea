package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"farmap/api/internal/farcaster"
	"farmap/api/internal/models"
	"farmap/api/internal/repository"
	"farmap/api/internal/security"
)

var ErrSessionExpired = errors.New("session expired")

// AuthService owns the sign-in lifecycle: nonce issuance, credential
// verification, and session tokens.
type AuthService struct {
	nonces     *repository.NonceRepository
	sessions   *repository.SessionRepository
	verifier   farcaster.Verifier
	sessionTTL time.Duration
	nonceTTL   time.Duration
	log        zerolog.Logger
}

func NewAuthService(
	nonces *repository.NonceRepository,
	sessions *repository.SessionRepository,
	verifier farcaster.Verifier,
	sessionTTL time.Duration,
	nonceTTL time.Duration,
	log zerolog.Logger,
) *AuthService {
	if sessionTTL <= 0 {
		sessionTTL = 24 * time.Hour
	}
	if nonceTTL <= 0 {
		nonceTTL = 5 * time.Minute
	}
	return &AuthService{
		nonces:     nonces,
		sessions:   sessions,
		verifier:   verifier,
		sessionTTL: sessionTTL,
		nonceTTL:   nonceTTL,
		log:        log,
	}
}

// BeginVerification mints and persists a fresh single-use nonce.
func (s *AuthService) BeginVerification(ctx context.Context) (string, error) {
	nonce := uuid.NewString()
	now := time.Now().UTC()

	err := s.nonces.Create(ctx, models.Nonce{
		Nonce:     nonce,
		ExpiresAt: now.Add(s.nonceTTL),
		CreatedAt: now,
	})
	if err != nil {
		return "", err
	}
	return nonce, nil
}

// Verify consumes the credential's nonce, then delegates signature
// verification. The nonce is burned before the verifier is called and
// regardless of its outcome, so a captured signature can never be
// replayed against the same nonce.
func (s *AuthService) Verify(ctx context.Context, credential farcaster.Credential) (int64, error) {
	if err := s.nonces.Consume(ctx, credential.Nonce, time.Now()); err != nil {
		return 0, err
	}

	fid, err := s.verifier.Verify(ctx, credential)
	if err != nil {
		return 0, err
	}
	return fid, nil
}

// CreateSession issues an opaque bearer token for the user.
func (s *AuthService) CreateSession(ctx context.Context, userID int64) (string, error) {
	token, err := security.GenerateSessionToken(32)
	if err != nil {
		return "", err
	}

	now := time.Now().UTC()
	err = s.sessions.Create(ctx, models.Session{
		Token:     token,
		UserID:    userID,
		ExpiresAt: now.Add(s.sessionTTL),
		CreatedAt: now,
	})
	if err != nil {
		return "", err
	}
	return token, nil
}

// Resolve maps a session token to its user id. Expiry is a logical
// check against expires_at; the row may still exist.
func (s *AuthService) Resolve(ctx context.Context, token string) (int64, error) {
	session, err := s.sessions.GetByToken(ctx, token)
	if err != nil {
		return 0, err
	}
	if !time.Now().Before(session.ExpiresAt) {
		return 0, ErrSessionExpired
	}
	return session.UserID, nil
}

// SignOut revokes the presenting session only. Other sessions of the
// same user stay active.
func (s *AuthService) SignOut(ctx context.Context, token string) error {
	return s.sessions.DeleteByToken(ctx, token)
}

// SessionTTL is exposed for the cookie max-age.
func (s *AuthService) SessionTTL() time.Duration {
	return s.sessionTTL
}
