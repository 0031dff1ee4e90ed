// Package auth keeps the session token: where it is stored and whether the
// user currently counts as logged in.
package auth

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/storefront-console/storefront/internal/config"
	"github.com/storefront-console/storefront/internal/interfaces"
)

// ErrNotFound is returned by Retrieve when nothing is stored under the key.
var ErrNotFound = errors.New("key not found")

// Purger is implemented by stores that keep key material on this machine.
type Purger interface {
	Purge() error
}

var (
	_ Purger = (*FileStore)(nil)

	_ interfaces.TokenStore = (*MemoryStore)(nil)
	_ interfaces.TokenStore = (*FileStore)(nil)
	_ interfaces.TokenStore = (*RedisStore)(nil)
)

// MemoryStore keeps values for the lifetime of the process.
type MemoryStore struct {
	data  map[string]string
	mutex sync.RWMutex
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]string)}
}

func (s *MemoryStore) Store(_ context.Context, key, value string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.data[key] = value
	return nil
}

func (s *MemoryStore) Retrieve(_ context.Context, key string) (string, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	value, exists := s.data[key]
	if !exists {
		return "", ErrNotFound
	}
	return value, nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	delete(s.data, key)
	return nil
}

func (s *MemoryStore) Exists(_ context.Context, key string) bool {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	_, exists := s.data[key]
	return exists
}

// FileStore keeps encrypted values in a small YAML file readable only by
// the owner.
type FileStore struct {
	path     string
	security config.SecurityManager
	mutex    sync.Mutex
}

// NewFileStore creates a store backed by path. Values are sealed with
// security before they are written.
func NewFileStore(path string, security config.SecurityManager) (*FileStore, error) {
	if security == nil {
		return nil, fmt.Errorf("security manager cannot be nil")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create token directory: %w", err)
	}
	return &FileStore{path: path, security: security}, nil
}

func (s *FileStore) read() (map[string]string, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read token file: %w", err)
	}

	entries := map[string]string{}
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse token file: %w", err)
	}
	return entries, nil
}

func (s *FileStore) write(entries map[string]string) error {
	if len(entries) == 0 {
		if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to remove token file: %w", err)
		}
		return nil
	}

	data, err := yaml.Marshal(entries)
	if err != nil {
		return fmt.Errorf("failed to marshal token file: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	return nil
}

func (s *FileStore) Store(_ context.Context, key, value string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	entries, err := s.read()
	if err != nil {
		return err
	}
	sealed, err := s.security.EncryptCredential(value)
	if err != nil {
		return fmt.Errorf("failed to encrypt %s: %w", key, err)
	}
	entries[key] = sealed
	return s.write(entries)
}

func (s *FileStore) Retrieve(_ context.Context, key string) (string, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	entries, err := s.read()
	if err != nil {
		return "", err
	}
	sealed, ok := entries[key]
	if !ok {
		return "", ErrNotFound
	}
	value, err := s.security.DecryptCredential(sealed)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt %s: %w", key, err)
	}
	return value, nil
}

func (s *FileStore) Delete(_ context.Context, key string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	entries, err := s.read()
	if err != nil {
		return err
	}
	if _, ok := entries[key]; !ok {
		return nil
	}
	delete(entries, key)
	return s.write(entries)
}

// Purge removes the token file and the encryption key. The store cannot be
// used afterwards; the next run generates a new key.
func (s *FileStore) Purge() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove token file: %w", err)
	}
	return s.security.ClearSecurityData()
}

func (s *FileStore) Exists(_ context.Context, key string) bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	entries, err := s.read()
	if err != nil {
		return false
	}
	_, ok := entries[key]
	return ok
}
