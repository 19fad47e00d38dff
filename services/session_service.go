package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const sessionTTL = 30 * time.Minute

// AnalysisSession carries an in-flight photo analysis across the
// clarification roundtrip. Sessions live in Redis and expire on their own.
type AnalysisSession struct {
	ID        string          `json:"id"`
	UserID    uint            `json:"user_id"`
	ImageKey  string          `json:"image_key"`
	Result    *AnalysisResult `json:"result"`
	CreatedAt time.Time       `json:"created_at"`
}

type SessionService struct {
	rdb *redis.Client
}

func NewSessionService(rdb *redis.Client) *SessionService {
	return &SessionService{rdb: rdb}
}

func sessionKey(id string) string {
	return "analysis_session:" + id
}

// Create stores a new session and returns its id.
func (s *SessionService) Create(ctx context.Context, userID uint, imageKey string, result *AnalysisResult) (string, error) {
	session := AnalysisSession{
		ID:        uuid.NewString(),
		UserID:    userID,
		ImageKey:  imageKey,
		Result:    result,
		CreatedAt: time.Now(),
	}
	payload, err := json.Marshal(session)
	if err != nil {
		return "", fmt.Errorf("encode session: %w", err)
	}
	if err := s.rdb.Set(ctx, sessionKey(session.ID), payload, sessionTTL).Err(); err != nil {
		return "", fmt.Errorf("store session: %w", err)
	}
	return session.ID, nil
}

// Get returns the session, or ErrNotFound once it has expired.
func (s *SessionService) Get(ctx context.Context, id string) (*AnalysisSession, error) {
	payload, err := s.rdb.Get(ctx, sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	var session AnalysisSession
	if err := json.Unmarshal(payload, &session); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &session, nil
}

// Update overwrites the session result and refreshes the TTL.
func (s *SessionService) Update(ctx context.Context, session *AnalysisSession) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	return s.rdb.Set(ctx, sessionKey(session.ID), payload, sessionTTL).Err()
}

// Delete removes a finished session. Missing keys are not an error.
func (s *SessionService) Delete(ctx context.Context, id string) error {
	return s.rdb.Del(ctx, sessionKey(id)).Err()
}
