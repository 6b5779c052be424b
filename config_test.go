package automation_test

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/feather-lang/automation"
)

func TestParseConfig(t *testing.T) {
	cfg, err := automation.ParseConfig([]byte(`
codepage: windows-1252
location: UTC
log:
  level: debug
  format: json
`))
	if err != nil {
		t.Fatalf("ParseConfig failed: %v", err)
	}
	if cfg.CodePage != "windows-1252" || cfg.Location != "UTC" {
		t.Errorf("config = %+v", cfg)
	}
	loc, err := cfg.LoadLocation()
	if err != nil || loc != time.UTC {
		t.Errorf("LoadLocation() = %v, %v; want UTC", loc, err)
	}
	lvl, err := cfg.Log.LevelValue()
	if err != nil || lvl != slog.LevelDebug {
		t.Errorf("LevelValue() = %v, %v; want DEBUG", lvl, err)
	}

	var buf bytes.Buffer
	opts, err := cfg.Options(&buf)
	if err != nil {
		t.Fatalf("Options failed: %v", err)
	}
	b, err := automation.New(opts...)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	b.Logger().Debug("hello")
	if !strings.Contains(buf.String(), `"msg":"hello"`) {
		t.Errorf("json handler not used: %s", buf.String())
	}
	if b.Converter().Location() != time.UTC {
		t.Errorf("Location() = %v; want UTC", b.Converter().Location())
	}
}

func TestParseConfigDefaults(t *testing.T) {
	cfg, err := automation.ParseConfig(nil)
	if err != nil {
		t.Fatalf("ParseConfig(nil) failed: %v", err)
	}
	if loc, _ := cfg.LoadLocation(); loc != time.Local {
		t.Errorf("LoadLocation() = %v; want Local", loc)
	}
	if lvl, _ := cfg.Log.LevelValue(); lvl != slog.LevelInfo {
		t.Errorf("LevelValue() = %v; want INFO", lvl)
	}
	if _, err := cfg.Options(&bytes.Buffer{}); err != nil {
		t.Errorf("Options() error = %v", err)
	}
}

func TestConfigErrors(t *testing.T) {
	if _, err := automation.ParseConfig([]byte("codepge: utf-8\n")); err == nil {
		t.Error("expected error for an unknown key")
	}

	tests := []struct {
		name string
		cfg  automation.Config
	}{
		{"Location", automation.Config{Location: "Mars/Olympus"}},
		{"Level", automation.Config{Log: automation.LogConfig{Level: "loud"}}},
		{"Format", automation.Config{Log: automation.LogConfig{Format: "xml"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.cfg.Options(&bytes.Buffer{}); err == nil {
				t.Error("Options() succeeded; want error")
			}
		})
	}

	cfg := automation.Config{CodePage: "klingon"}
	opts, err := cfg.Options(&bytes.Buffer{})
	if err != nil {
		t.Fatalf("Options failed: %v", err)
	}
	if _, err := automation.New(opts...); err == nil {
		t.Error("New() succeeded with an unknown code page")
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "olesh.yaml")
	if err := os.WriteFile(path, []byte("codepage: utf-8\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := automation.LoadConfig(path)
	if err != nil || cfg.CodePage != "utf-8" {
		t.Errorf("LoadConfig() = %+v, %v", cfg, err)
	}
	if _, err := automation.LoadConfig(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for a missing file")
	}
}
