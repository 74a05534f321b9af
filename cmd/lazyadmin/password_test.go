package main

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rebeliceyang/lazyadmin/internal/db/connection"
	"github.com/rebeliceyang/lazyadmin/internal/models"
)

func TestReadPassword(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "s3cret\n", want: "s3cret"},
		{in: "s3cret\r\nignored\n", want: "s3cret"},
		{in: "no-newline", want: "no-newline"},
		{in: "\n", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var prompt strings.Builder
			got, err := readPassword(strings.NewReader(tt.in), &prompt)
			if (err != nil) != tt.wantErr {
				t.Fatalf("expected error %v, got %v", tt.wantErr, err)
			}
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
			if prompt.Len() != 0 {
				t.Errorf("expected no prompt for piped input, got %q", prompt.String())
			}
		})
	}
}

func TestPasswordSetAndDelete(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "config.yaml")
	yaml := `state:
  dir: ` + dir + `
datasource:
  kind: postgres
  postgres:
    host: db.internal
    port: 5433
    database: admin
    user: ops
    use_keyring: true
`
	if err := os.WriteFile(file, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}
	configFile = file
	t.Cleanup(func() { configFile = "" })

	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	stdin := os.Stdin
	os.Stdin = r
	t.Cleanup(func() { os.Stdin = stdin; r.Close() })
	if _, err := w.WriteString("s3cret\n"); err != nil {
		t.Fatal(err)
	}
	w.Close()

	if err := passwordSetCmd.RunE(passwordSetCmd, nil); err != nil {
		t.Fatalf("password set failed: %v", err)
	}

	cfg := models.ConnectionConfig{Host: "db.internal", Port: 5433, Database: "admin", User: "ops", UseKeyring: true}
	store, err := connection.NewPasswordStore(dir)
	if err != nil {
		t.Fatalf("NewPasswordStore failed: %v", err)
	}
	resolved, err := store.Resolve(cfg)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if resolved.Password != "s3cret" {
		t.Errorf("expected stored password, got %q", resolved.Password)
	}

	if err := passwordDeleteCmd.RunE(passwordDeleteCmd, nil); err != nil {
		t.Fatalf("password delete failed: %v", err)
	}
	if _, err := store.Get(cfg); !errors.Is(err, connection.ErrPasswordNotFound) {
		t.Errorf("expected the password to be gone, got %v", err)
	}
}
