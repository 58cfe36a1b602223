package console

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cagedesk/internal/pkg/fingerprint"
)

const (
	fingerprintFile = "device_id"
	sessionFile     = "session.json"
)

// LocalStore keeps the device fingerprint and the cached session on disk
type LocalStore struct {
	dir string
}

// NewLocalStore opens (creating if needed) the state directory
func NewLocalStore(dir string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create state dir: %w", err)
	}
	return &LocalStore{dir: dir}, nil
}

// Fingerprint returns this device's fingerprint, minting it on first use.
// It is never regenerated afterwards.
func (s *LocalStore) Fingerprint() (string, error) {
	path := filepath.Join(s.dir, fingerprintFile)
	raw, err := os.ReadFile(path)
	if err == nil {
		if fp := strings.TrimSpace(string(raw)); fingerprint.Valid(fp) {
			return fp, nil
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("read fingerprint: %w", err)
	}

	fp, err := fingerprint.New()
	if err != nil {
		return "", fmt.Errorf("mint fingerprint: %w", err)
	}
	if err := writeFile(path, []byte(fp)); err != nil {
		return "", fmt.Errorf("save fingerprint: %w", err)
	}
	return fp, nil
}

// LoadSession returns the cached session, or nil when there is none
func (s *LocalStore) LoadSession() (*CachedSession, error) {
	raw, err := os.ReadFile(filepath.Join(s.dir, sessionFile))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read session: %w", err)
	}
	var sess CachedSession
	if err := json.Unmarshal(raw, &sess); err != nil || sess.Token == "" {
		// a corrupt cache is the same as no cache
		_ = s.ClearSession()
		return nil, nil
	}
	return &sess, nil
}

// SaveSession caches sess for the next start
func (s *LocalStore) SaveSession(sess CachedSession) error {
	raw, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	return writeFile(filepath.Join(s.dir, sessionFile), raw)
}

// ClearSession forgets the cached session
func (s *LocalStore) ClearSession() error {
	err := os.Remove(filepath.Join(s.dir, sessionFile))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// writeFile replaces path atomically
func writeFile(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
