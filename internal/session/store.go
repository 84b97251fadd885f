package session

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/referenda/refclient/internal/store"
)

// TokenStore persists the bearer token between visits.
type TokenStore interface {
	// Token returns the stored token, or "" when there is none.
	Token() string
	SetToken(token string) error
	ClearToken() error
}

// MemoryStore keeps the token in memory.
type MemoryStore struct {
	mu    sync.Mutex
	token string
}

// NewMemoryStore returns a store holding token.
func NewMemoryStore(token string) *MemoryStore {
	return &MemoryStore{token: token}
}

func (m *MemoryStore) Token() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token
}

func (m *MemoryStore) SetToken(token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	return nil
}

func (m *MemoryStore) ClearToken() error {
	return m.SetToken("")
}

// KeyValue is a string key-value store such as store.LocalStorage.
type KeyValue interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Remove(key string) error
}

// TokenKey is the key the token is kept under in local storage.
const TokenKey = "token"

// StorageStore keeps the token under TokenKey in a KeyValue store.
type StorageStore struct {
	kv     KeyValue
	logger *slog.Logger
}

// NewStorageStore wraps kv.
func NewStorageStore(kv KeyValue, logger *slog.Logger) *StorageStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &StorageStore{kv: kv, logger: logger}
}

func (s *StorageStore) Token() string {
	token, err := s.kv.Get(TokenKey)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			s.logger.Warn("failed to read token", "error", err)
		}
		return ""
	}
	return token
}

func (s *StorageStore) SetToken(token string) error {
	return s.kv.Set(TokenKey, token)
}

func (s *StorageStore) ClearToken() error {
	return s.kv.Remove(TokenKey)
}
