package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jmoiron/sqlx"

	"github.com/fiwb/twin-gateway/internal/models"
	"github.com/fiwb/twin-gateway/pkg/identity"
)

// Store keys. KeyUserIDAlias is the legacy camel-case spelling some older
// builds wrote; reads fall back to it.
const (
	KeyUserEmail   = "user_email"
	KeyUserID      = "user_id"
	KeyUserIDAlias = "userId"
	KeyIDToken     = "id_token"
)

const sessionSchema = `
CREATE TABLE IF NOT EXISTS session_store (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL
)`

// SessionRepository is the gateway's local identity store. It survives
// restarts so users do not have to re-enter their identity on every launch.
type SessionRepository struct {
	db *sqlx.DB
}

// NewSessionRepository ensures the backing table exists.
func NewSessionRepository(db *sqlx.DB) (*SessionRepository, error) {
	if _, err := db.Exec(sessionSchema); err != nil {
		return nil, fmt.Errorf("create session schema: %w", err)
	}
	return &SessionRepository{db: db}, nil
}

// Get returns the stored value for a key, or sql.ErrNoRows.
func (r *SessionRepository) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.GetContext(ctx, &value, "SELECT value FROM session_store WHERE key = ?", key)
	if err != nil {
		return "", err
	}
	return value, nil
}

// Set upserts one key.
func (r *SessionRepository) Set(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO session_store (key, value, updated_at) VALUES (?, ?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at",
		key, value, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("set session key %s: %w", key, err)
	}
	return nil
}

// Delete removes one key; missing keys are not an error.
func (r *SessionRepository) Delete(ctx context.Context, key string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM session_store WHERE key = ?", key); err != nil {
		return fmt.Errorf("delete session key %s: %w", key, err)
	}
	return nil
}

// Identity resolves the current session identity. A missing identity returns
// (nil, nil): per the client contract, operations guard on it silently rather
// than erroring. Email comes back normalized.
func (r *SessionRepository) Identity(ctx context.Context) (*models.SessionIdentity, error) {
	email, err := r.lookup(ctx, KeyUserEmail)
	if err != nil {
		return nil, err
	}
	userID, err := r.lookup(ctx, KeyUserID)
	if err != nil {
		return nil, err
	}
	if userID == "" {
		if userID, err = r.lookup(ctx, KeyUserIDAlias); err != nil {
			return nil, err
		}
	}

	if email == "" || userID == "" {
		tokenEmail, tokenSub := r.claimsFromIDToken(ctx)
		if email == "" {
			email = tokenEmail
		}
		if userID == "" {
			userID = tokenSub
		}
	}

	email = identity.NormalizeEmail(email)
	if email == "" {
		return nil, nil
	}
	return &models.SessionIdentity{Email: email, UserID: userID}, nil
}

func (r *SessionRepository) lookup(ctx context.Context, key string) (string, error) {
	value, err := r.Get(ctx, key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return value, err
}

// claimsFromIDToken recovers email/subject from a stored OIDC id token. The
// token was already verified by the auth provider when it was issued; the
// claims are used for request scoping only, so no signature check happens here.
func (r *SessionRepository) claimsFromIDToken(ctx context.Context) (email, sub string) {
	raw, err := r.lookup(ctx, KeyIDToken)
	if err != nil || raw == "" {
		return "", ""
	}

	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(raw, claims); err != nil {
		return "", ""
	}

	if v, ok := claims["email"].(string); ok {
		email = v
	}
	if v, ok := claims["sub"].(string); ok {
		sub = v
	}
	return email, sub
}
