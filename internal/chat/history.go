package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"feedback-backend/internal/ai"

	"github.com/redis/go-redis/v9"
)

const (
	DefaultHistoryLimit = 10
	DefaultHistoryTTL   = 24 * time.Hour
)

// History keeps the last few turns of each chat session
type History interface {
	Get(ctx context.Context, sessionID string) ([]ai.Turn, error)
	Append(ctx context.Context, sessionID string, turns ...ai.Turn) error
}

type memorySession struct {
	turns    []ai.Turn
	lastSeen time.Time
}

// MemoryHistory is a per-process history. It is lost on restart.
type MemoryHistory struct {
	mu       sync.Mutex
	limit    int
	ttl      time.Duration
	sessions map[string]*memorySession
	now      func() time.Time
}

func NewMemoryHistory(limit int, ttl time.Duration) *MemoryHistory {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if ttl <= 0 {
		ttl = DefaultHistoryTTL
	}
	return &MemoryHistory{
		limit:    limit,
		ttl:      ttl,
		sessions: make(map[string]*memorySession),
		now:      time.Now,
	}
}

func (h *MemoryHistory) Get(ctx context.Context, sessionID string) ([]ai.Turn, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	s, ok := h.sessions[sessionID]
	if !ok || h.now().Sub(s.lastSeen) > h.ttl {
		return nil, nil
	}
	out := make([]ai.Turn, len(s.turns))
	copy(out, s.turns)
	return out, nil
}

func (h *MemoryHistory) Append(ctx context.Context, sessionID string, turns ...ai.Turn) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	now := h.now()
	h.evictIdle(now)

	s, ok := h.sessions[sessionID]
	if !ok {
		s = &memorySession{}
		h.sessions[sessionID] = s
	}
	s.turns = append(s.turns, turns...)
	if over := len(s.turns) - h.limit; over > 0 {
		s.turns = append([]ai.Turn(nil), s.turns[over:]...)
	}
	s.lastSeen = now
	return nil
}

// evictIdle drops sessions not touched within ttl. Caller holds mu.
func (h *MemoryHistory) evictIdle(now time.Time) {
	for id, s := range h.sessions {
		if now.Sub(s.lastSeen) > h.ttl {
			delete(h.sessions, id)
		}
	}
}

// RedisHistory shares chat history across instances
type RedisHistory struct {
	client *redis.Client
	limit  int
	ttl    time.Duration
}

func NewRedisHistory(client *redis.Client, limit int, ttl time.Duration) *RedisHistory {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if ttl <= 0 {
		ttl = DefaultHistoryTTL
	}
	return &RedisHistory{client: client, limit: limit, ttl: ttl}
}

func historyKey(sessionID string) string {
	return "chat:history:" + sessionID
}

func (h *RedisHistory) Get(ctx context.Context, sessionID string) ([]ai.Turn, error) {
	raw, err := h.client.LRange(ctx, historyKey(sessionID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("reading chat history: %w", err)
	}

	turns := make([]ai.Turn, 0, len(raw))
	for _, item := range raw {
		var t ai.Turn
		if err := json.Unmarshal([]byte(item), &t); err != nil {
			continue
		}
		turns = append(turns, t)
	}
	return turns, nil
}

func (h *RedisHistory) Append(ctx context.Context, sessionID string, turns ...ai.Turn) error {
	if len(turns) == 0 {
		return nil
	}

	values := make([]interface{}, 0, len(turns))
	for _, t := range turns {
		b, err := json.Marshal(t)
		if err != nil {
			return err
		}
		values = append(values, b)
	}

	key := historyKey(sessionID)
	_, err := h.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, key, values...)
		pipe.LTrim(ctx, key, int64(-h.limit), -1)
		pipe.Expire(ctx, key, h.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("appending chat history: %w", err)
	}
	return nil
}
