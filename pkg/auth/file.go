package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// FileStore is a file-based session store for CLI applications.
// Sessions are stored as JSON files in a config directory.
type FileStore struct {
	mu      sync.RWMutex
	baseDir string
}

// NewFileStore creates a new file-based session store.
// If baseDir is empty, defaults to ~/.config/wmscap/sessions/
func NewFileStore(baseDir string) (*FileStore, error) {
	if baseDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home dir: %w", err)
		}
		baseDir = filepath.Join(home, ".config", "wmscap", "sessions")
	}
	if err := os.MkdirAll(baseDir, 0o700); err != nil {
		return nil, fmt.Errorf("create session dir: %w", err)
	}
	return &FileStore{baseDir: baseDir}, nil
}

func (s *FileStore) sessionPath(sessionID string) string {
	return filepath.Join(s.baseDir, sessionID+".json")
}

// Get returns the session, or nil when it is absent or expired. Expired
// session files are removed under the write lock.
func (s *FileStore) Get(ctx context.Context, sessionID string) (*Session, error) {
	s.mu.RLock()
	sess, err := s.read(sessionID)
	s.mu.RUnlock()
	if err != nil || sess == nil || !sess.IsExpired() {
		return sess, err
	}
	s.removeExpired(sessionID)
	return nil, nil
}

func (s *FileStore) read(sessionID string) (*Session, error) {
	data, err := os.ReadFile(s.sessionPath(sessionID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read session file: %w", err)
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("parse session: %w", err)
	}
	return &sess, nil
}

// removeExpired deletes the session file unless a concurrent Set replaced
// it with a live session after Get released the read lock.
func (s *FileStore) removeExpired(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, err := s.read(sessionID); err == nil && sess != nil && sess.IsExpired() {
		os.Remove(s.sessionPath(sessionID))
	}
}

func (s *FileStore) Set(ctx context.Context, sess *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	if err := os.WriteFile(s.sessionPath(sess.ID), data, 0o600); err != nil {
		return fmt.Errorf("write session file: %w", err)
	}
	return nil
}

func (s *FileStore) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.sessionPath(sessionID)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove session file: %w", err)
	}
	return nil
}

// Cleanup removes session files whose expiry has passed.
func (s *FileStore) Cleanup(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return fmt.Errorf("read session dir: %w", err)
	}

	now := time.Now()
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		path := filepath.Join(s.baseDir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var sess Session
		if err := json.Unmarshal(data, &sess); err != nil {
			continue
		}
		if !sess.ExpiresAt.IsZero() && now.After(sess.ExpiresAt) {
			os.Remove(path)
		}
	}
	return nil
}

// Path returns the base directory for session files.
func (s *FileStore) Path() string {
	return s.baseDir
}

var _ Store = (*FileStore)(nil)

// =============================================================================
// Session-backed Authenticator
// =============================================================================

const defaultSessionID = "wmscap"

// SessionAuthenticator is an [Authenticator] reading the token of a single
// well-known session from a [Store]. Each query reads the store, so logins
// and logouts by other processes are observed immediately.
type SessionAuthenticator struct {
	store     Store
	sessionID string
}

// NewSessionAuthenticator wraps store.
func NewSessionAuthenticator(store Store) *SessionAuthenticator {
	return &SessionAuthenticator{store: store, sessionID: defaultSessionID}
}

// Login stores token as the current session. See [NewSession] for ttl.
func (a *SessionAuthenticator) Login(ctx context.Context, token string, ttl time.Duration) (*Session, error) {
	sess, err := NewSession(token, ttl)
	if err != nil {
		return nil, err
	}
	sess.ID = a.sessionID
	if err := a.store.Set(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// Logout removes the current session.
func (a *SessionAuthenticator) Logout(ctx context.Context) error {
	return a.store.Delete(ctx, a.sessionID)
}

// Session returns the live session or [ErrNotLoggedIn].
func (a *SessionAuthenticator) Session(ctx context.Context) (*Session, error) {
	sess, err := a.store.Get(ctx, a.sessionID)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, ErrNotLoggedIn
	}
	return sess, nil
}

func (a *SessionAuthenticator) IsAuthenticated() bool {
	sess, err := a.Session(context.Background())
	return err == nil && sess.AccessToken != ""
}

func (a *SessionAuthenticator) Token() string {
	sess, err := a.Session(context.Background())
	if err != nil {
		return ""
	}
	return sess.AccessToken
}

var _ Authenticator = (*SessionAuthenticator)(nil)
