package automation

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the file form of the Bridge options.
//
//	codepage: windows-1252
//	location: Europe/Berlin
//	log:
//	  level: debug
//	  format: json
type Config struct {
	CodePage string    `yaml:"codepage"` // "" = platform default
	Location string    `yaml:"location"` // IANA zone, "Local" or "UTC"
	Log      LogConfig `yaml:"log"`
}

// LogConfig selects the log handler.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
}

// LoadConfig reads a YAML config file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg, err := ParseConfig(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// ParseConfig parses YAML config data. Unknown keys are rejected.
func ParseConfig(data []byte) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && err != io.EOF {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// LoadLocation resolves the configured location.
func (c *Config) LoadLocation() (*time.Location, error) {
	switch c.Location {
	case "", "Local", "local":
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Location)
	if err != nil {
		return nil, fmt.Errorf("unknown location %q: %w", c.Location, err)
	}
	return loc, nil
}

// LevelValue parses the configured log level; empty means info.
func (c LogConfig) LevelValue() (slog.Level, error) {
	var lvl slog.Level
	if c.Level == "" {
		return slog.LevelInfo, nil
	}
	if err := lvl.UnmarshalText([]byte(c.Level)); err != nil {
		return 0, fmt.Errorf("unknown log level %q", c.Level)
	}
	return lvl, nil
}

// NewLogger builds a logger writing to w.
func (c LogConfig) NewLogger(w io.Writer) (*slog.Logger, error) {
	lvl, err := c.LevelValue()
	if err != nil {
		return nil, err
	}
	hopts := &slog.HandlerOptions{Level: lvl}
	switch strings.ToLower(c.Format) {
	case "", "text":
		return slog.New(slog.NewTextHandler(w, hopts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, hopts)), nil
	}
	return nil, fmt.Errorf("unknown log format %q", c.Format)
}

// Options converts the config to Bridge options, logging to w.
func (c *Config) Options(w io.Writer) ([]Option, error) {
	loc, err := c.LoadLocation()
	if err != nil {
		return nil, err
	}
	logger, err := c.Log.NewLogger(w)
	if err != nil {
		return nil, err
	}
	return []Option{
		WithCodePage(c.CodePage),
		WithLocation(loc),
		WithLogger(logger),
	}, nil
}
