package auth

import (
	"os"
	"strings"
	"sync"
)

// MemoryCredentialStore keeps the secret in process memory only. Used in
// tests and for sessions that should not outlive the process.
type MemoryCredentialStore struct {
	mu     sync.Mutex
	secret string
	ok     bool
}

var _ CredentialStore = (*MemoryCredentialStore)(nil)

func NewMemoryCredentialStore() *MemoryCredentialStore {
	return &MemoryCredentialStore{}
}

func (s *MemoryCredentialStore) Put(secret string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.secret = secret
	s.ok = true
	return nil
}

func (s *MemoryCredentialStore) Get() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.secret, s.ok
}

func (s *MemoryCredentialStore) Delete() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.secret = ""
	s.ok = false
	return nil
}

// FileCredentialStore persists the secret to a single file with owner-only
// permissions, the closest portable analog of a keychain entry.
type FileCredentialStore struct {
	path string
}

var _ CredentialStore = (*FileCredentialStore)(nil)

func NewFileCredentialStore(path string) *FileCredentialStore {
	return &FileCredentialStore{path: path}
}

func (s *FileCredentialStore) Put(secret string) error {
	return os.WriteFile(s.path, []byte(secret), 0o600)
}

func (s *FileCredentialStore) Get() (string, bool) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return "", false
	}
	secret := strings.TrimSpace(string(data))
	if secret == "" {
		return "", false
	}
	return secret, true
}

func (s *FileCredentialStore) Delete() error {
	err := os.Remove(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
