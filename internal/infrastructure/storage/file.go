// Package storage provides the durable session store: two records (bearer
// token and cached user) behind ports.SessionStore, with a file-backed
// implementation for single-user installs and a Redis-backed one for shared
// deployments.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/sweetcrumb/bakery-portal/internal/core/domain"
)

const (
	tokenFile = "token"
	userFile  = "user.json"
)

// FileStore persists the session under a state directory as two files.
// Reads of the user record are schema-validated; anything that fails to
// parse or validate is reported as absent, never as an error.
type FileStore struct {
	dir      string
	validate *validator.Validate

	mu sync.Mutex
}

func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, err
	}
	return &FileStore{dir: dir, validate: validator.New()}, nil
}

func (s *FileStore) SetToken(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return os.WriteFile(filepath.Join(s.dir, tokenFile), []byte(token), 0o600)
}

func (s *FileStore) Token(_ context.Context) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := os.ReadFile(filepath.Join(s.dir, tokenFile))
	if err != nil {
		return "", false
	}
	token := strings.TrimSpace(string(data))
	if token == "" {
		return "", false
	}
	return token, true
}

func (s *FileStore) RemoveToken(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return removeIfPresent(filepath.Join(s.dir, tokenFile))
}

func (s *FileStore) SetUser(_ context.Context, user *domain.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return os.WriteFile(filepath.Join(s.dir, userFile), data, 0o600)
}

func (s *FileStore) User(_ context.Context) (*domain.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := os.ReadFile(filepath.Join(s.dir, userFile))
	if err != nil {
		return nil, false
	}
	return decodeUser(s.validate, data)
}

// Clear removes both records. Callers never observe a partial clear: the
// mutex holds readers out until both files are gone.
func (s *FileStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return errors.Join(
		removeIfPresent(filepath.Join(s.dir, tokenFile)),
		removeIfPresent(filepath.Join(s.dir, userFile)),
	)
}

func removeIfPresent(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// decodeUser parses and schema-checks a persisted user record. Both failure
// modes degrade to absent per the store contract.
func decodeUser(validate *validator.Validate, data []byte) (*domain.User, bool) {
	var user domain.User
	if err := json.Unmarshal(data, &user); err != nil {
		return nil, false
	}
	if err := validate.Struct(&user); err != nil {
		return nil, false
	}
	return &user, true
}
