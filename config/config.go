// Package config loads the application configuration, writing a default
// config file on first run.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

const appDirName = "todo-app"

// Keymap holds the normal-mode key bindings.
type Keymap struct {
	Quit      string `toml:"quit"`
	Add       string `toml:"add"`
	Toggle    string `toml:"toggle"`
	Edit      string `toml:"edit"`
	Delete    string `toml:"delete"`
	Detail    string `toml:"detail"`
	Filter    string `toml:"filter"`
	Search    string `toml:"search"`
	ClearDone string `toml:"clear_done"`
	Theme     string `toml:"theme"`
	Undo      string `toml:"undo"`
	Up        string `toml:"up"`
	Down      string `toml:"down"`
}

// Config is the persisted application configuration.
type Config struct {
	// DataDir holds the storage key files. Empty means the per-user
	// default location.
	DataDir      string `toml:"data_dir"`
	DefaultTheme string `toml:"default_theme"`
	Debug        bool   `toml:"debug"`
	Keys         Keymap `toml:"keys"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		DefaultTheme: "light",
		Keys: Keymap{
			Quit:      "q",
			Add:       "a",
			Toggle:    "x",
			Edit:      "e",
			Delete:    "d",
			Detail:    "enter",
			Filter:    "f",
			Search:    "/",
			ClearDone: "c",
			Theme:     "t",
			Undo:      "u",
			Up:        "k",
			Down:      "j",
		},
	}
}

// DefaultPath returns the per-user config file location.
func DefaultPath() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve config dir: %w", err)
	}
	return filepath.Join(base, appDirName, "config.toml"), nil
}

// DefaultDataDir returns the per-user storage directory.
func DefaultDataDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve data dir: %w", err)
	}
	return filepath.Join(base, appDirName, "data"), nil
}

// LoadOrCreate reads the config at path, writing the defaults there first
// when the file does not exist. Missing keys fall back to defaults.
func LoadOrCreate(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := writeDefault(path, cfg); err != nil {
			return Config{}, err
		}
		return cfg, nil
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	fillMissingKeys(&cfg.Keys)
	if cfg.DefaultTheme != "light" && cfg.DefaultTheme != "dark" {
		cfg.DefaultTheme = "light"
	}
	return cfg, nil
}

func writeDefault(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode default config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write default config %s: %w", path, err)
	}
	return nil
}

func fillMissingKeys(keys *Keymap) {
	def := Default().Keys
	if keys.Quit == "" {
		keys.Quit = def.Quit
	}
	if keys.Add == "" {
		keys.Add = def.Add
	}
	if keys.Toggle == "" {
		keys.Toggle = def.Toggle
	}
	if keys.Edit == "" {
		keys.Edit = def.Edit
	}
	if keys.Delete == "" {
		keys.Delete = def.Delete
	}
	if keys.Detail == "" {
		keys.Detail = def.Detail
	}
	if keys.Filter == "" {
		keys.Filter = def.Filter
	}
	if keys.Search == "" {
		keys.Search = def.Search
	}
	if keys.ClearDone == "" {
		keys.ClearDone = def.ClearDone
	}
	if keys.Theme == "" {
		keys.Theme = def.Theme
	}
	if keys.Undo == "" {
		keys.Undo = def.Undo
	}
	if keys.Up == "" {
		keys.Up = def.Up
	}
	if keys.Down == "" {
		keys.Down = def.Down
	}
}
