// Package orphans records uploaded media whose record was never stored, so an
// operator can delete the objects by hand.
package orphans

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultKey is the Redis list holding entries, oldest first.
const DefaultKey = "pokedex:orphaned_media"

// Entry describes one orphaned media object.
type Entry struct {
	PublicID   string    `json:"public_id"`
	URL        string    `json:"url"`
	PokemonID  int       `json:"pokemon_id"`
	Name       string    `json:"name"`
	Reason     string    `json:"reason"`
	RequestID  string    `json:"request_id,omitempty"`
	RecordedAt time.Time `json:"recorded_at"`
}

// Memory keeps entries in process. Entries are lost on restart.
type Memory struct {
	mu      sync.Mutex
	entries []Entry
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Record(_ context.Context, e Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, e)
	return nil
}

func (m *Memory) List(_ context.Context) ([]Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.entries), nil
}

// Redis appends entries as JSON to a list so they survive restarts and are
// shared by every replica.
type Redis struct {
	client redis.UniversalClient
	key    string
}

func NewRedis(client redis.UniversalClient) *Redis {
	return &Redis{client: client, key: DefaultKey}
}

func (r *Redis) Record(ctx context.Context, e Entry) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode orphan entry: %w", err)
	}
	if err := r.client.RPush(ctx, r.key, payload).Err(); err != nil {
		return fmt.Errorf("record orphan entry: %w", err)
	}
	return nil
}

func (r *Redis) List(ctx context.Context) ([]Entry, error) {
	raw, err := r.client.LRange(ctx, r.key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list orphan entries: %w", err)
	}
	entries := make([]Entry, 0, len(raw))
	for _, item := range raw {
		var e Entry
		if err := json.Unmarshal([]byte(item), &e); err != nil {
			return nil, fmt.Errorf("decode orphan entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}
