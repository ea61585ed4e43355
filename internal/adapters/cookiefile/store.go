// Package cookiefile persists API session cookies on disk so command line
// invocations can share one backend session.
package cookiefile

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// Store reads and writes a cookie file. The file is private to the user.
type Store struct {
	path string
	now  func() time.Time
}

type cookieRecord struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type fileRecord struct {
	BaseURL string         `json:"base_url"`
	SavedAt time.Time      `json:"saved_at"`
	Cookies []cookieRecord `json:"cookies"`
}

// New creates a Store for path.
func New(path string) *Store {
	return &Store{path: path, now: time.Now}
}

// Path returns the file location.
func (s *Store) Path() string { return s.path }

// Load returns the cookies saved for baseURL. A missing file, or one written
// for another API, yields no cookies and no error.
func (s *Store) Load(baseURL string) ([]*http.Cookie, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read cookie file: %w", err)
	}

	var rec fileRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode cookie file %s: %w", s.path, err)
	}
	if rec.BaseURL != baseURL {
		return nil, nil
	}

	out := make([]*http.Cookie, 0, len(rec.Cookies))
	for _, c := range rec.Cookies {
		if c.Name == "" {
			continue
		}
		out = append(out, &http.Cookie{Name: c.Name, Value: c.Value, Path: "/"})
	}
	return out, nil
}

// Save replaces the file with cookies for baseURL. The write goes through a
// temporary file and a rename.
func (s *Store) Save(baseURL string, cookies []*http.Cookie) error {
	rec := fileRecord{BaseURL: baseURL, SavedAt: s.now().UTC(), Cookies: make([]cookieRecord, 0, len(cookies))}
	for _, c := range cookies {
		if c == nil || c.Name == "" {
			continue
		}
		rec.Cookies = append(rec.Cookies, cookieRecord{Name: c.Name, Value: c.Value})
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("encode cookie file: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create cookie dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".cookies-*.json")
	if err != nil {
		return fmt.Errorf("create temp cookie file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write cookie file: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("chmod cookie file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close cookie file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace cookie file: %w", err)
	}
	return nil
}

// Clear removes the file. A missing file is not an error.
func (s *Store) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove cookie file: %w", err)
	}
	return nil
}
