package session

import (
	"errors"
	"os"
	"sync"
)

// TokenStorage persists the session token between process runs. The store
// treats failures as "no token"; storage never decides authentication.
type TokenStorage interface {
	Load() (string, error)
	Store(token string) error
	Clear() error
}

// MemoryStorage keeps the token in memory only. Useful for tests and for
// callers that do not want persistence.
type MemoryStorage struct {
	mu    sync.Mutex
	token string
}

func NewMemoryStorage() *MemoryStorage { return &MemoryStorage{} }

func (m *MemoryStorage) Load() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token, nil
}

func (m *MemoryStorage) Store(token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	return nil
}

func (m *MemoryStorage) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = ""
	return nil
}

// FileStorage persists the token to a single file with 0600 permissions.
type FileStorage struct {
	path string
	mu   sync.Mutex
}

func NewFileStorage(path string) *FileStorage {
	return &FileStorage{path: path}
}

func (f *FileStorage) Load() (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (f *FileStorage) Store(token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return os.WriteFile(f.path, []byte(token), 0o600)
}

func (f *FileStorage) Clear() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	err := os.Remove(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
