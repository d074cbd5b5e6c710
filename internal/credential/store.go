// Package credential persists the Gemini API key between runs.
package credential

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/Nephrolytics-ai/polyglot-brief/pkg/pipeline"
	"github.com/patrickmn/go-cache"
)

// Key is the fixed identifier the API key is stored under.
const Key = "gemini_api_key"

const (
	appDir      = "polyglot-brief"
	defaultFile = "credentials.json"
)

var (
	ErrEmptyCredential = pipeline.ErrEmptyCredential
	ErrNotFound        = errors.New("credential not found")
)

type Store interface {
	Save(apiKey string) error
	Load() (string, error)
	Clear() error
	Path() string
}

type fileStore struct {
	mu    sync.Mutex
	path  string
	cache *cache.Cache
}

// New returns a store backed by the JSON file at path. An empty path resolves
// to credentials.json under the user config directory.
func New(path string) (Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("resolve config dir: %w", err)
		}
		path = filepath.Join(dir, appDir, defaultFile)
	}

	// Entries never expire; the file is the source of truth and only this
	// store writes it.
	return &fileStore{
		path:  path,
		cache: cache.New(cache.NoExpiration, 10*time.Minute),
	}, nil
}

func (s *fileStore) Path() string {
	return s.path
}

func (s *fileStore) Save(apiKey string) error {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return ErrEmptyCredential
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.readFile()
	if err != nil {
		return err
	}
	entries[Key] = apiKey
	if err := s.writeFile(entries); err != nil {
		return err
	}

	s.cache.Set(Key, apiKey, cache.NoExpiration)
	return nil
}

func (s *fileStore) Load() (string, error) {
	if x, found := s.cache.Get(Key); found {
		return x.(string), nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.readFile()
	if err != nil {
		return "", err
	}
	apiKey := strings.TrimSpace(entries[Key])
	if apiKey == "" {
		return "", ErrNotFound
	}

	s.cache.Set(Key, apiKey, cache.NoExpiration)
	return apiKey, nil
}

func (s *fileStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cache.Delete(Key)
	entries, err := s.readFile()
	if err != nil {
		return err
	}
	if _, ok := entries[Key]; !ok {
		return nil
	}
	delete(entries, Key)
	return s.writeFile(entries)
}

func (s *fileStore) readFile() (map[string]string, error) {
	entries := map[string]string{}

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return entries, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read credentials: %w", err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return entries, nil
	}
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse credentials %s: %w", s.path, err)
	}
	return entries, nil
}

func (s *fileStore) writeFile(entries map[string]string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create credentials dir: %w", err)
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encode credentials: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write credentials: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace credentials: %w", err)
	}
	return nil
}
