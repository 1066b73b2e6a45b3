package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// TokenKey is the key the session token is saved under.
const TokenKey = "authToken"

// TokenStore persists the session in a small JSON file.
type TokenStore struct {
	path string
}

// NewTokenStore stores the session at path.
func NewTokenStore(path string) *TokenStore {
	return &TokenStore{path: path}
}

// DefaultTokenPath returns the session file under the user config directory.
func DefaultTokenPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "applitrack", "session.json"), nil
}

type storedSession struct {
	Token  string `json:"authToken"`
	UserID string `json:"userId,omitempty"`
}

// Load returns the saved token and user id; both are empty when nothing is stored.
func (s *TokenStore) Load() (token, userID string, err error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return "", "", nil
	}
	if err != nil {
		return "", "", err
	}

	var sess storedSession
	if err := json.Unmarshal(data, &sess); err != nil {
		return "", "", fmt.Errorf("corrupt session file %s: %w", s.path, err)
	}
	return sess.Token, sess.UserID, nil
}

// Save writes the session, readable by the owner only.
func (s *TokenStore) Save(token, userID string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}
	data, err := json.Marshal(storedSession{Token: token, UserID: userID})
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0o600)
}

// Clear removes the session.
func (s *TokenStore) Clear() error {
	err := os.Remove(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
