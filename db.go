package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"

	"emotiondiary/internal/classifier"
	"emotiondiary/migrations"
)

var (
	ErrNotFound           = errors.New("record not found")
	ErrValidation         = errors.New("username and password are required")
	ErrDuplicateUser      = errors.New("username already exists")
	ErrInvalidCredentials = errors.New("invalid username or password")
)

func openDB(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}
	if err := runMigrations(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migration error: %w", err)
	}
	return db, nil
}

func runMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("sqlite3"); err != nil {
		return err
	}
	return goose.UpContext(ctx, db, ".")
}

// --- Users ---

type UserStore struct {
	db *sql.DB
}

func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

// Register stores a new user with a bcrypt hash of password.
func (s *UserStore) Register(ctx context.Context, username, password string) (*User, error) {
	if username == "" || password == "" {
		return nil, ErrValidation
	}

	_, err := s.ByUsername(ctx, username)
	if err == nil {
		return nil, ErrDuplicateUser
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	hash, err := hashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	res, err := s.db.ExecContext(ctx, "INSERT INTO user (username, password_hash) VALUES (?, ?)", username, hash)
	if isUniqueViolation(err) {
		return nil, ErrDuplicateUser
	}
	if err != nil {
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read user id: %w", err)
	}
	return &User{ID: id, Username: username, PasswordHash: hash}, nil
}

// Authenticate returns the user when password matches the stored hash. An
// unknown username and a wrong password both yield ErrInvalidCredentials.
func (s *UserStore) Authenticate(ctx context.Context, username, password string) (*User, error) {
	u, err := s.ByUsername(ctx, username)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !checkPassword(u.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

func (s *UserStore) ByID(ctx context.Context, id int64) (*User, error) {
	return s.queryOne(ctx, "SELECT id, username, password_hash FROM user WHERE id = ?", id)
}

func (s *UserStore) ByUsername(ctx context.Context, username string) (*User, error) {
	return s.queryOne(ctx, "SELECT id, username, password_hash FROM user WHERE username = ?", username)
}

func (s *UserStore) queryOne(ctx context.Context, query string, arg any) (*User, error) {
	var u User
	err := s.db.QueryRowContext(ctx, query, arg).Scan(&u.ID, &u.Username, &u.PasswordHash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	return &u, nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
}

// --- Analyses ---

type AnalysisStore struct {
	db *sql.DB
}

func NewAnalysisStore(db *sql.DB) *AnalysisStore {
	return &AnalysisStore{db: db}
}

func (s *AnalysisStore) Create(ctx context.Context, userID int64, text string, scores classifier.Scores) (*Analysis, error) {
	stats, err := EncodeScores(scores)
	if err != nil {
		return nil, err
	}

	res, err := s.db.ExecContext(ctx,
		"INSERT INTO analysis (user_id, text, emotion_stats) VALUES (?, ?, ?)",
		userID, text, stats)
	if err != nil {
		return nil, fmt.Errorf("failed to insert analysis: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read analysis id: %w", err)
	}
	return &Analysis{ID: id, UserID: userID, Text: text, EmotionStats: stats}, nil
}

// ListForUser returns every analysis owned by userID in storage order.
func (s *AnalysisStore) ListForUser(ctx context.Context, userID int64) ([]Analysis, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, user_id, text, emotion_stats FROM analysis WHERE user_id = ? ORDER BY id",
		userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list analyses: %w", err)
	}
	defer rows.Close()

	analyses := []Analysis{}
	for rows.Next() {
		var a Analysis
		if err := rows.Scan(&a.ID, &a.UserID, &a.Text, &a.EmotionStats); err != nil {
			return nil, fmt.Errorf("failed to scan analysis row: %w", err)
		}
		analyses = append(analyses, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate analysis rows: %w", err)
	}
	return analyses, nil
}

// EncodeScores serializes scores for the emotion_stats column.
func EncodeScores(scores classifier.Scores) (string, error) {
	if scores == nil {
		scores = classifier.Scores{}
	}
	b, err := json.Marshal(scores)
	if err != nil {
		return "", fmt.Errorf("failed to encode emotion scores: %w", err)
	}
	return string(b), nil
}

// DecodeScores is the inverse of EncodeScores. Malformed input yields nil.
func DecodeScores(s string) classifier.Scores {
	var scores classifier.Scores
	if err := json.Unmarshal([]byte(s), &scores); err != nil {
		return nil
	}
	return scores
}
