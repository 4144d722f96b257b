// sources.go manages recently loaded dataset sources.
//
// Sources are stored in ~/.askdata/sources.json so users can quickly
// reload a dataset without retyping its URL or catalog identifier.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Source is a named, saveable dataset source.
type Source struct {
	Title      string `json:"title"`
	URL        string `json:"url,omitempty"`
	Path       string `json:"path,omitempty"`
	Identifier string `json:"identifier,omitempty"` // catalog identifier, if any
}

// SourceStore manages recent dataset sources on disk.
type SourceStore struct {
	path    string
	Sources []Source `json:"sources"`
}

// NewSourceStore creates a store, loading from ~/.askdata/sources.json.
func NewSourceStore() (*SourceStore, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}

	dir := filepath.Join(homeDir, ".askdata")
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, err
	}

	store := &SourceStore{
		path: filepath.Join(dir, "sources.json"),
	}

	data, err := os.ReadFile(store.path)
	if err != nil {
		if os.IsNotExist(err) {
			return store, nil
		}
		return nil, err
	}

	if err := json.Unmarshal(data, store); err != nil {
		return nil, fmt.Errorf("parse sources: %w", err)
	}

	return store, nil
}

// Save writes all sources to disk.
func (s *SourceStore) Save() error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0600)
}

// Add adds or moves a source to the front, keyed by title.
func (s *SourceStore) Add(src Source) {
	for i, existing := range s.Sources {
		if existing.Title == src.Title {
			s.Sources = append(s.Sources[:i], s.Sources[i+1:]...)
			break
		}
	}
	s.Sources = append([]Source{src}, s.Sources...)

	// Keep the list short; these are convenience shortcuts, not history.
	if len(s.Sources) > 10 {
		s.Sources = s.Sources[:10]
	}
}
