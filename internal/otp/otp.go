// Package otp issues and verifies the 6-digit email verification codes.
// Codes live for a bounded window (10 minutes by default) and are deleted
// on successful verification only.
package otp

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Generate returns a random 6-digit numeric code.
func Generate() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

// Store keeps pending codes keyed by email address.
type Store interface {
	Put(ctx context.Context, email, code string) error
	// Consume reports whether the code matches and, if so, removes it.
	// A wrong code leaves the stored entry in place.
	Consume(ctx context.Context, email, code string) (bool, error)
}

type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func otpKey(email string) string {
	return "otp:" + email
}

func (s *RedisStore) Put(ctx context.Context, email, code string) error {
	if s.client == nil {
		return errors.New("redis_not_configured")
	}
	return s.client.Set(ctx, otpKey(email), code, s.ttl).Err()
}

func (s *RedisStore) Consume(ctx context.Context, email, code string) (bool, error) {
	if s.client == nil {
		return false, errors.New("redis_not_configured")
	}
	value, err := s.client.Get(ctx, otpKey(email)).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if value != code {
		return false, nil
	}
	return true, s.client.Del(ctx, otpKey(email)).Err()
}

// MemoryStore is the process-local fallback used when redis is not
// configured. Entries expire by timestamp since there is no TTL machinery.
type MemoryStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]memoryEntry
}

type memoryEntry struct {
	code      string
	expiresAt time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{ttl: ttl, entries: map[string]memoryEntry{}}
}

func (s *MemoryStore) Put(_ context.Context, email, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[email] = memoryEntry{code: code, expiresAt: time.Now().Add(s.ttl)}
	return nil
}

func (s *MemoryStore) Consume(_ context.Context, email, code string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[email]
	if !ok {
		return false, nil
	}
	if time.Now().After(entry.expiresAt) {
		delete(s.entries, email)
		return false, nil
	}
	if entry.code != code {
		return false, nil
	}
	delete(s.entries, email)
	return true, nil
}
