// Package bookmarks keeps named list views in a YAML file.
package bookmarks

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rebeliceyang/lazyadmin/internal/models"
	"gopkg.in/yaml.v3"
)

// Manager manages bookmarks
type Manager struct {
	path      string
	bookmarks []models.Bookmark
}

// NewManager loads bookmarks.yaml from configDir, if present
func NewManager(configDir string) (*Manager, error) {
	m := &Manager{
		path:      filepath.Join(configDir, "bookmarks.yaml"),
		bookmarks: []models.Bookmark{},
	}

	if _, err := os.Stat(m.path); err == nil {
		if err := m.Load(); err != nil {
			return nil, fmt.Errorf("failed to load bookmarks: %w", err)
		}
	}
	return m, nil
}

// Load reads the bookmarks file
func (m *Manager) Load() error {
	data, err := os.ReadFile(m.path)
	if err != nil {
		return fmt.Errorf("failed to read bookmarks file: %w", err)
	}
	if err := yaml.Unmarshal(data, &m.bookmarks); err != nil {
		return fmt.Errorf("failed to parse bookmarks: %w", err)
	}
	return nil
}

// Save writes the bookmarks file
func (m *Manager) Save() error {
	data, err := yaml.Marshal(m.bookmarks)
	if err != nil {
		return fmt.Errorf("failed to marshal bookmarks: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(m.path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(m.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write bookmarks file: %w", err)
	}
	return nil
}

// Add stores a new bookmark. Names are unique, ignoring case.
func (m *Manager) Add(name, entity, location string) (*models.Bookmark, error) {
	name = strings.TrimSpace(name)
	location = strings.TrimSpace(location)

	if name == "" {
		return nil, fmt.Errorf("bookmark name cannot be empty")
	}
	if location == "" {
		return nil, fmt.Errorf("bookmark location cannot be empty")
	}
	if _, ok := m.Find(name); ok {
		return nil, fmt.Errorf("a bookmark named '%s' already exists", name)
	}

	b := models.Bookmark{
		ID:        uuid.NewString(),
		Name:      name,
		Entity:    entity,
		Location:  location,
		CreatedAt: time.Now(),
	}
	m.bookmarks = append(m.bookmarks, b)

	if err := m.Save(); err != nil {
		return nil, fmt.Errorf("failed to save bookmark: %w", err)
	}
	return &b, nil
}

// Delete removes the bookmark named name
func (m *Manager) Delete(name string) error {
	for i, b := range m.bookmarks {
		if strings.EqualFold(b.Name, name) {
			m.bookmarks = slices.Delete(m.bookmarks, i, i+1)
			if err := m.Save(); err != nil {
				return fmt.Errorf("failed to save bookmarks after deletion: %w", err)
			}
			return nil
		}
	}
	return fmt.Errorf("bookmark '%s' was not found", name)
}

// Find returns the bookmark named name, ignoring case
func (m *Manager) Find(name string) (models.Bookmark, bool) {
	for _, b := range m.bookmarks {
		if strings.EqualFold(b.Name, name) {
			return b, true
		}
	}
	return models.Bookmark{}, false
}

// All returns every bookmark, optionally limited to one entity
func (m *Manager) All(entity string) []models.Bookmark {
	var out []models.Bookmark
	for _, b := range m.bookmarks {
		if entity == "" || b.Entity == entity {
			out = append(out, b)
		}
	}
	return out
}

// RecordUsage bumps the usage statistics of the bookmark named name
func (m *Manager) RecordUsage(name string) error {
	for i, b := range m.bookmarks {
		if strings.EqualFold(b.Name, name) {
			m.bookmarks[i].UsageCount++
			m.bookmarks[i].LastUsed = time.Now()
			if err := m.Save(); err != nil {
				return fmt.Errorf("failed to save usage statistics: %w", err)
			}
			return nil
		}
	}
	return fmt.Errorf("bookmark '%s' was not found", name)
}

// Recent returns bookmarks by last use, most recent first
func (m *Manager) Recent(limit int) []models.Bookmark {
	sorted := slices.Clone(m.bookmarks)
	slices.SortStableFunc(sorted, func(a, b models.Bookmark) int {
		return b.LastUsed.Compare(a.LastUsed)
	})
	if limit > 0 && limit < len(sorted) {
		sorted = sorted[:limit]
	}
	return sorted
}
