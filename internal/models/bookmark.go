package models

import "time"

// Bookmark is a named list view. Location is the encoded state location,
// e.g. "/users?filters=...".
type Bookmark struct {
	ID         string    `yaml:"id"`
	Name       string    `yaml:"name"`
	Entity     string    `yaml:"entity"`
	Location   string    `yaml:"location"`
	CreatedAt  time.Time `yaml:"created_at"`
	LastUsed   time.Time `yaml:"last_used,omitempty"`
	UsageCount int       `yaml:"usage_count"`
}
