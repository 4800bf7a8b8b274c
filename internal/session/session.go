// Package session guarda sessões do lado do servidor: o cookie carrega
// apenas um identificador opaco, o payload vive no armazenamento.
package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	// ErrNotFound é retornado quando a sessão não existe ou expirou.
	ErrNotFound = errors.New("sessão não encontrada")
)

const keyPrefix = "session:"

// Store abstrai o armazenamento de sessões, permitindo substituição por
// uma implementação em memória nos testes.
type Store interface {
	Create(ctx context.Context, userID uuid.UUID, ttl time.Duration) (string, error)
	Get(ctx context.Context, id string) (uuid.UUID, error)
	Delete(ctx context.Context, id string) error
}

type payload struct {
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// NewID gera identificador de sessão aleatório seguro.
func NewID() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// RedisStore persiste sessões no Redis com TTL nativo.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Create(ctx context.Context, userID uuid.UUID, ttl time.Duration) (string, error) {
	id, err := NewID()
	if err != nil {
		return "", err
	}

	raw, err := json.Marshal(payload{UserID: userID.String(), CreatedAt: time.Now().UTC()})
	if err != nil {
		return "", err
	}

	if err := s.client.Set(ctx, keyPrefix+id, raw, ttl).Err(); err != nil {
		return "", err
	}
	return id, nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (uuid.UUID, error) {
	raw, err := s.client.Get(ctx, keyPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return uuid.Nil, ErrNotFound
		}
		return uuid.Nil, err
	}

	var p payload
	if err := json.Unmarshal(raw, &p); err != nil {
		return uuid.Nil, ErrNotFound
	}
	userID, err := uuid.Parse(p.UserID)
	if err != nil {
		return uuid.Nil, ErrNotFound
	}
	return userID, nil
}

// Delete remove a sessão; remover sessão inexistente não é erro.
func (s *RedisStore) Delete(ctx context.Context, id string) error {
	return s.client.Del(ctx, keyPrefix+id).Err()
}

// MemoryStore implementa Store em memória para testes.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
}

type memoryEntry struct {
	userID  uuid.UUID
	expires time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]memoryEntry)}
}

func (s *MemoryStore) Create(ctx context.Context, userID uuid.UUID, ttl time.Duration) (string, error) {
	id, err := NewID()
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[id] = memoryEntry{userID: userID, expires: time.Now().Add(ttl)}
	return id, nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[id]
	if !ok {
		return uuid.Nil, ErrNotFound
	}
	if time.Now().After(entry.expires) {
		delete(s.entries, id)
		return uuid.Nil, ErrNotFound
	}
	return entry.userID, nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, id)
	return nil
}
