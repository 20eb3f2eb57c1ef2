package repository

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSessionRepoMock(t *testing.T) (*SessionRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS session_store").
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo, err := NewSessionRepository(sqlx.NewDb(db, "sqlmock"))
	require.NoError(t, err)
	return repo, mock, func() { db.Close() }
}

func expectKey(mock sqlmock.Sqlmock, key, value string) {
	rows := sqlmock.NewRows([]string{"value"})
	if value != "" {
		rows.AddRow(value)
	}
	mock.ExpectQuery(regexp.QuoteMeta("SELECT value FROM session_store WHERE key = ?")).
		WithArgs(key).
		WillReturnRows(rows)
}

func TestSessionRepositoryIdentity(t *testing.T) {
	repo, mock, cleanup := newSessionRepoMock(t)
	defer cleanup()

	expectKey(mock, KeyUserEmail, "  User@Example.COM ")
	expectKey(mock, KeyUserID, "42")

	identity, err := repo.Identity(context.Background())
	require.NoError(t, err)
	require.NotNil(t, identity)
	assert.Equal(t, "user@example.com", identity.Email)
	assert.Equal(t, "42", identity.UserID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepositoryIdentityMissing(t *testing.T) {
	repo, mock, cleanup := newSessionRepoMock(t)
	defer cleanup()

	expectKey(mock, KeyUserEmail, "")
	expectKey(mock, KeyUserID, "")
	expectKey(mock, KeyUserIDAlias, "")
	expectKey(mock, KeyIDToken, "")

	identity, err := repo.Identity(context.Background())
	require.NoError(t, err)
	assert.Nil(t, identity)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepositoryIdentityUserIDAlias(t *testing.T) {
	repo, mock, cleanup := newSessionRepoMock(t)
	defer cleanup()

	expectKey(mock, KeyUserEmail, "user@example.com")
	expectKey(mock, KeyUserID, "")
	expectKey(mock, KeyUserIDAlias, "7")

	identity, err := repo.Identity(context.Background())
	require.NoError(t, err)
	require.NotNil(t, identity)
	assert.Equal(t, "7", identity.UserID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func unsignedToken(t *testing.T, claims map[string]interface{}) string {
	t.Helper()
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"none","typ":"JWT"}`))
	payload, err := json.Marshal(claims)
	require.NoError(t, err)
	return header + "." + base64.RawURLEncoding.EncodeToString(payload) + "."
}

func TestSessionRepositoryIdentityFromIDToken(t *testing.T) {
	repo, mock, cleanup := newSessionRepoMock(t)
	defer cleanup()

	token := unsignedToken(t, map[string]interface{}{
		"email": "Token.User@Example.com",
		"sub":   "sub-99",
	})

	expectKey(mock, KeyUserEmail, "")
	expectKey(mock, KeyUserID, "")
	expectKey(mock, KeyUserIDAlias, "")
	expectKey(mock, KeyIDToken, token)

	identity, err := repo.Identity(context.Background())
	require.NoError(t, err)
	require.NotNil(t, identity)
	assert.Equal(t, "token.user@example.com", identity.Email)
	assert.Equal(t, "sub-99", identity.UserID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepositorySet(t *testing.T) {
	repo, mock, cleanup := newSessionRepoMock(t)
	defer cleanup()

	mock.ExpectExec("INSERT INTO session_store").
		WithArgs(KeyUserEmail, "user@example.com", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, repo.Set(context.Background(), KeyUserEmail, "user@example.com"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
