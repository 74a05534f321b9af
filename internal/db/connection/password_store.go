package connection

import (
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/99designs/keyring"
	"github.com/rebeliceyang/lazyadmin/internal/models"
)

const (
	serviceName  = "lazyadmin"
	passwordSalt = "lazyadmin-keyring-salt-v1"
)

// ErrPasswordNotFound is returned when the keyring has no entry for a connection
var ErrPasswordNotFound = errors.New("password not found in keyring")

// PasswordError wraps a keyring failure
type PasswordError struct {
	Op  string
	Err error
}

func (e *PasswordError) Error() string {
	return fmt.Sprintf("keyring %s: %v", e.Op, e.Err)
}

func (e *PasswordError) Unwrap() error { return e.Err }

// PasswordStore keeps data source passwords in the OS keyring, falling back to
// an encrypted file under the config dir
type PasswordStore struct {
	ring keyring.Keyring
}

// NewPasswordStore opens the keyring with platform-appropriate backends
func NewPasswordStore(configDir string) (*PasswordStore, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName:     serviceName,
		AllowedBackends: backendsForPlatform(),
		FileDir:         filepath.Join(configDir, "keyring"),
		FilePasswordFunc: func(_ string) (string, error) {
			return deriveFilePassword(), nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open keyring: %w", err)
	}
	return &PasswordStore{ring: ring}, nil
}

// newPasswordStoreWithRing is used by tests to plug in an in-memory ring
func newPasswordStoreWithRing(ring keyring.Keyring) *PasswordStore {
	return &PasswordStore{ring: ring}
}

func backendsForPlatform() []keyring.BackendType {
	switch runtime.GOOS {
	case "darwin":
		return []keyring.BackendType{keyring.KeychainBackend, keyring.FileBackend}
	case "windows":
		return []keyring.BackendType{keyring.WinCredBackend, keyring.FileBackend}
	default:
		return []keyring.BackendType{keyring.FileBackend}
	}
}

// Save stores the password for cfg. Empty passwords are not stored.
func (ps *PasswordStore) Save(cfg models.ConnectionConfig, password string) error {
	if password == "" {
		return nil
	}
	err := ps.ring.Set(keyring.Item{
		Key:         makeKey(cfg),
		Data:        []byte(password),
		Label:       fmt.Sprintf("lazyadmin: %s@%s:%d/%s", cfg.User, cfg.Host, cfg.Port, cfg.Database),
		Description: "PostgreSQL data source password for lazyadmin",
	})
	if err != nil {
		return &PasswordError{Op: "save", Err: err}
	}
	return nil
}

// Get returns the stored password for cfg
func (ps *PasswordStore) Get(cfg models.ConnectionConfig) (string, error) {
	item, err := ps.ring.Get(makeKey(cfg))
	if err != nil {
		if errors.Is(err, keyring.ErrKeyNotFound) {
			return "", ErrPasswordNotFound
		}
		return "", &PasswordError{Op: "read", Err: err}
	}
	return string(item.Data), nil
}

// Delete removes the stored password for cfg
func (ps *PasswordStore) Delete(cfg models.ConnectionConfig) error {
	err := ps.ring.Remove(makeKey(cfg))
	if err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return &PasswordError{Op: "delete", Err: err}
	}
	return nil
}

// Resolve fills in the password of a keyring-backed config. Configs with an
// explicit password, or without UseKeyring, come back unchanged.
func (ps *PasswordStore) Resolve(cfg models.ConnectionConfig) (models.ConnectionConfig, error) {
	if !cfg.UseKeyring || cfg.Password != "" {
		return cfg, nil
	}
	password, err := ps.Get(cfg)
	if err != nil {
		return cfg, err
	}
	cfg.Password = password
	return cfg, nil
}

func makeKey(cfg models.ConnectionConfig) string {
	return fmt.Sprintf("%s:%d:%s:%s", cfg.Host, cfg.Port, cfg.Database, cfg.User)
}

// deriveFilePassword builds a stable per-machine, per-user secret for the
// file backend
func deriveFilePassword() string {
	machineID := ""
	for _, path := range []string{"/etc/machine-id", "/var/lib/dbus/machine-id"} {
		if data, err := os.ReadFile(path); err == nil {
			machineID = strings.TrimSpace(string(data))
			break
		}
	}
	if machineID == "" {
		machineID, _ = os.Hostname()
	}

	username := os.Getenv("USER")
	if username == "" {
		username = os.Getenv("USERNAME")
	}
	if username == "" {
		username = fmt.Sprintf("uid-%d", os.Getuid())
	}

	hash := sha256.Sum256([]byte(machineID + username + passwordSalt))
	return base64.StdEncoding.EncodeToString(hash[:])
}
