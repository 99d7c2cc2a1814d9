package sessions

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"docchat/internal/models"
)

var (
	// ErrNotFound reports an unknown or already ended session id.
	ErrNotFound = errors.New("chat session not found")
	// ErrConflict reports a concurrent append that won the version race.
	ErrConflict = errors.New("chat session was modified concurrently")
)

// Service persists chat sessions in the relational store.
type Service struct {
	db *sql.DB
}

// NewService constructs the session store over an open database handle.
func NewService(db *sql.DB) (*Service, error) {
	if db == nil {
		return nil, errors.New("database handle is required")
	}
	return &Service{db: db}, nil
}

// Create inserts a new session referencing the stored file and returns it.
func (s *Service) Create(ctx context.Context, filePath string) (*models.ChatSession, error) {
	if strings.TrimSpace(filePath) == "" {
		return nil, errors.New("file path is required")
	}
	now := time.Now().UTC()
	session := &models.ChatSession{
		ID:        uuid.NewString(),
		FilePath:  filePath,
		Messages:  []models.Message{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO chat_sessions (id, file_path, messages, version, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		session.ID, session.FilePath, "[]", session.Version, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("create chat session: %w", err)
	}
	return session, nil
}

// Get returns one session with its decoded message history.
func (s *Service) Get(ctx context.Context, id string) (*models.ChatSession, error) {
	var (
		session models.ChatSession
		history []byte
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, file_path, messages, version, created_at, updated_at FROM chat_sessions WHERE id = ?`,
		id,
	).Scan(&session.ID, &session.FilePath, &history, &session.Version, &session.CreatedAt, &session.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get chat session: %w", err)
	}
	if len(history) > 0 {
		if err := json.Unmarshal(history, &session.Messages); err != nil {
			return nil, fmt.Errorf("decode message history: %w", err)
		}
	}
	if session.Messages == nil {
		session.Messages = []models.Message{}
	}
	return &session, nil
}

// AppendExchange appends the user/assistant message pair in order and
// bumps updated_at. The write is a single conditional update so two
// concurrent turns cannot silently overwrite each other.
func (s *Service) AppendExchange(ctx context.Context, id string, userMsg, assistantMsg models.Message) (*models.ChatSession, error) {
	session, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.saveExchange(ctx, session, userMsg, assistantMsg)
}

// saveExchange writes the grown history guarded by the version the caller
// read. Zero affected rows means the row vanished or another turn won.
func (s *Service) saveExchange(ctx context.Context, session *models.ChatSession, userMsg, assistantMsg models.Message) (*models.ChatSession, error) {
	history := append(session.Messages, userMsg, assistantMsg)
	encoded, err := json.Marshal(history)
	if err != nil {
		return nil, fmt.Errorf("encode message history: %w", err)
	}
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`UPDATE chat_sessions SET messages = ?, version = version + 1, updated_at = ? WHERE id = ? AND version = ?`,
		string(encoded), now, session.ID, session.Version,
	)
	if err != nil {
		return nil, fmt.Errorf("append messages: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("append rows affected: %w", err)
	}
	if affected == 0 {
		if _, err := s.Get(ctx, session.ID); errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, ErrConflict
	}
	session.Messages = history
	session.Version++
	session.UpdatedAt = now
	return session, nil
}

// Delete removes the session row.
func (s *Service) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM chat_sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete chat session: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("session rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
