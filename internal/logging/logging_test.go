package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rebeliceyang/lazyadmin/internal/config"
)

func TestNew_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "lazyadmin.log")
	l, closer, err := New(config.LogConfig{Level: "debug", File: path}, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	l.Debug().Str("component", "test").Msg("hello")
	if err := closer.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), `"component":"test"`) {
		t.Errorf("expected JSON line with component, got %q", data)
	}
}

func TestNew_ConsoleLevel(t *testing.T) {
	var buf bytes.Buffer
	l, _, err := New(config.LogConfig{Level: "warn"}, &buf)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	l.Info().Msg("quiet")
	l.Warn().Msg("loud")
	out := buf.String()
	if strings.Contains(out, "quiet") {
		t.Errorf("expected info to be filtered, got %q", out)
	}
	if !strings.Contains(out, "loud") {
		t.Errorf("expected warn line, got %q", out)
	}
}

func TestNew_BadLevel(t *testing.T) {
	if _, _, err := New(config.LogConfig{Level: "chatty"}, nil); err == nil {
		t.Error("expected error for unknown level")
	}
}
