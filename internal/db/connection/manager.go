package connection

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rebeliceyang/lazyadmin/internal/models"
)

// Manager opens Postgres pools on demand and shares one pool per connection
// between every entity that uses it
type Manager struct {
	passwords   *PasswordStore
	connections map[string]*Connection
	mu          sync.Mutex
}

// Connection wraps a pool with metadata
type Connection struct {
	ID          string
	Config      models.ConnectionConfig
	Pool        *Pool
	ConnectedAt time.Time
}

// NewManager creates a manager. passwords may be nil when no config uses the
// keyring.
func NewManager(passwords *PasswordStore) *Manager {
	return &Manager{
		passwords:   passwords,
		connections: make(map[string]*Connection),
	}
}

// Open returns the pool for config, connecting on first use
func (m *Manager) Open(ctx context.Context, config models.ConnectionConfig) (*Pool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := generateConnectionID(config)
	if conn, ok := m.connections[id]; ok {
		return conn.Pool, nil
	}

	if config.UseKeyring {
		if m.passwords == nil {
			return nil, fmt.Errorf("connection %s uses the keyring but no password store is configured", id)
		}
		resolved, err := m.passwords.Resolve(config)
		if err != nil {
			return nil, fmt.Errorf("connection %s: %w", id, err)
		}
		config = resolved
	}

	pool, err := NewPool(ctx, config)
	if err != nil {
		return nil, err
	}

	m.connections[id] = &Connection{
		ID:          id,
		Config:      config,
		Pool:        pool,
		ConnectedAt: time.Now(),
	}
	return pool, nil
}

// Close closes every open pool
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, conn := range m.connections {
		conn.Pool.Close()
		delete(m.connections, id)
	}
}

// generateConnectionID creates a unique connection ID
func generateConnectionID(config models.ConnectionConfig) string {
	if config.Name != "" {
		return config.Name
	}
	return fmt.Sprintf("%s@%s:%d/%s", config.User, config.Host, config.Port, config.Database)
}
