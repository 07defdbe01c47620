package main

import (
	"context"
	"database/sql"
	"math"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"emotiondiary/internal/classifier"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "test.db") + "?_foreign_keys=on"
	db, err := openDB(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestRegisterThenAuthenticate(t *testing.T) {
	users := NewUserStore(setupDB(t))
	ctx := context.Background()

	creds := []struct{ username, password string }{
		{"alice", "correct horse"},
		{"bob", "x"},
		{"ünïcødé", "pässwörd"},
	}
	for _, c := range creds {
		u, err := users.Register(ctx, c.username, c.password)
		require.NoError(t, err, c.username)
		assert.NotZero(t, u.ID)
		assert.NotEqual(t, c.password, u.PasswordHash)

		got, err := users.Authenticate(ctx, c.username, c.password)
		require.NoError(t, err, c.username)
		assert.Equal(t, u.ID, got.ID)

		_, err = users.Authenticate(ctx, c.username, c.password+"!")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	}
}

func TestAuthenticate_UnknownUser(t *testing.T) {
	users := NewUserStore(setupDB(t))

	_, err := users.Authenticate(context.Background(), "nobody", "pw")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRegister_Validation(t *testing.T) {
	users := NewUserStore(setupDB(t))
	ctx := context.Background()

	_, err := users.Register(ctx, "", "pw")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = users.Register(ctx, "alice", "")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestRegister_LongPasswordRoundTrip(t *testing.T) {
	users := NewUserStore(setupDB(t))
	ctx := context.Background()

	long := strings.Repeat("p", 80)
	u, err := users.Register(ctx, "alice", long)
	require.NoError(t, err)

	got, err := users.Authenticate(ctx, "alice", long)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	// Passwords sharing the first 72 bytes must not collide.
	_, err = users.Authenticate(ctx, "alice", strings.Repeat("p", 72)+"q")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRegister_Duplicate(t *testing.T) {
	users := NewUserStore(setupDB(t))
	ctx := context.Background()

	_, err := users.Register(ctx, "alice", "pw")
	require.NoError(t, err)

	_, err = users.Register(ctx, "alice", "other")
	assert.ErrorIs(t, err, ErrDuplicateUser)
}

func TestRegister_DuplicateFromConstraint(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()

	_, err := db.Exec("INSERT INTO user (username, password_hash) VALUES ('alice', 'x')")
	require.NoError(t, err)

	_, err = db.Exec("INSERT INTO user (username, password_hash) VALUES ('alice', 'y')")
	assert.True(t, isUniqueViolation(err))

	_, err = NewUserStore(db).Register(ctx, "alice", "pw")
	assert.ErrorIs(t, err, ErrDuplicateUser)
}

func TestUserByID(t *testing.T) {
	users := NewUserStore(setupDB(t))
	ctx := context.Background()

	u, err := users.Register(ctx, "alice", "pw")
	require.NoError(t, err)

	got, err := users.ByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)

	_, err = users.ByID(ctx, u.ID+100)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestScoresRoundTrip(t *testing.T) {
	in := classifier.Scores{
		"joy":        0.9123456789012345,
		"sadness":    1e-9,
		"neutral":    0,
		"admiration": 1.0 / 3.0,
		"curiosity":  math.SmallestNonzeroFloat64,
	}

	enc, err := EncodeScores(in)
	require.NoError(t, err)
	assert.Equal(t, in, DecodeScores(enc))
}

func TestDecodeScores_Malformed(t *testing.T) {
	assert.Nil(t, DecodeScores(""))
	assert.Nil(t, DecodeScores("{not json"))
	assert.Nil(t, DecodeScores(`["joy"]`))
}

func TestAnalyses_ScopedToOwner(t *testing.T) {
	db := setupDB(t)
	users := NewUserStore(db)
	analyses := NewAnalysisStore(db)
	ctx := context.Background()

	alice, err := users.Register(ctx, "alice", "pw")
	require.NoError(t, err)
	bob, err := users.Register(ctx, "bob", "pw")
	require.NoError(t, err)

	_, err = analyses.Create(ctx, alice.ID, "first", classifier.Scores{"joy": 0.8})
	require.NoError(t, err)
	_, err = analyses.Create(ctx, bob.ID, "bob's", classifier.Scores{"anger": 0.7})
	require.NoError(t, err)
	_, err = analyses.Create(ctx, alice.ID, "second", classifier.Scores{"sadness": 0.6})
	require.NoError(t, err)

	list, err := analyses.ListForUser(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	for _, a := range list {
		assert.Equal(t, alice.ID, a.UserID)
	}
	assert.Equal(t, "first", list[0].Text)
	assert.Equal(t, "second", list[1].Text)
	assert.Equal(t, classifier.Scores{"sadness": 0.6}, DecodeScores(list[1].EmotionStats))

	list, err = analyses.ListForUser(ctx, bob.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "bob's", list[0].Text)
}

func TestAnalyses_EmptyListIsNotNil(t *testing.T) {
	list, err := NewAnalysisStore(setupDB(t)).ListForUser(context.Background(), 1)
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

func TestAnalyses_RequireExistingUser(t *testing.T) {
	_, err := NewAnalysisStore(setupDB(t)).Create(context.Background(), 42, "orphan", classifier.Scores{"joy": 1})
	assert.Error(t, err)
}
