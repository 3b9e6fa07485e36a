package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

const (
	DefaultConfigFileName = "config.toml"
	DefaultDBName         = "tasks.db"
	DefaultPrefsName      = "prefs.toml"
	DefaultWidgetName     = "widget.yaml"
	DefaultLogName        = "zero.log"
	DefaultScanInterval   = "24h"
)

type Keymap struct {
	Quit        string `toml:"quit"`
	Add         string `toml:"add"`
	Up          string `toml:"up"`
	Down        string `toml:"down"`
	Toggle      string `toml:"toggle"`
	Delete      string `toml:"delete"`
	Detail      string `toml:"detail"`
	Confirm     string `toml:"confirm"`
	Cancel      string `toml:"cancel"`
	Edit        string `toml:"edit"`
	Pin         string `toml:"pin"`
	Search      string `toml:"search"`
	Theme       string `toml:"theme"`
	CopyRef     string `toml:"copy_reference"`
	NextField   string `toml:"next_field"`
	PrevField   string `toml:"prev_field"`
	SwitchPanel string `toml:"switch_panel"`
}

type Scanner struct {
	Interval      string `toml:"interval"`
	SkipCompleted bool   `toml:"skip_completed"`
}

type Config struct {
	DBPath     string  `toml:"db_path"`
	PrefsPath  string  `toml:"prefs_path"`
	WidgetPath string  `toml:"widget_path"`
	LogPath    string  `toml:"log_path"`
	Scanner    Scanner `toml:"scanner"`
	Keys       Keymap  `toml:"keys"`
}

// ResolveConfigPath picks $ZERO_CONFIG, then the XDG config directory, then
// ~/.config/zero.
func ResolveConfigPath() string {
	if p := os.Getenv("ZERO_CONFIG"); p != "" {
		return p
	}
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "zero", DefaultConfigFileName)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".config", "zero", DefaultConfigFileName)
	}
	return DefaultConfigFileName
}

// LoadOrCreate reads the config at path, writing the defaults first when the
// file does not exist. Relative data paths are resolved against the config
// directory.
func LoadOrCreate(path string) (Config, error) {
	cfg := defaultConfig()
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := write(path, cfg); err != nil {
			return cfg, err
		}
		return cfg.resolve(filepath.Dir(path)), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing %s: %w", path, err)
	}
	cfg.fillDefaults()
	if _, err := cfg.ScanInterval(); err != nil {
		return cfg, err
	}
	return cfg.resolve(filepath.Dir(path)), nil
}

// ScanInterval parses the scanner interval.
func (c Config) ScanInterval() (time.Duration, error) {
	d, err := time.ParseDuration(c.Scanner.Interval)
	if err != nil {
		return 0, fmt.Errorf("scanner.interval: %w", err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("scanner.interval must be positive, got %s", d)
	}
	return d, nil
}

func (c *Config) fillDefaults() {
	def := defaultConfig()
	if c.DBPath == "" {
		c.DBPath = def.DBPath
	}
	if c.PrefsPath == "" {
		c.PrefsPath = def.PrefsPath
	}
	if c.WidgetPath == "" {
		c.WidgetPath = def.WidgetPath
	}
	if c.LogPath == "" {
		c.LogPath = def.LogPath
	}
	if c.Scanner.Interval == "" {
		c.Scanner.Interval = def.Scanner.Interval
	}
	fill := func(v *string, d string) {
		if *v == "" {
			*v = d
		}
	}
	k, dk := &c.Keys, def.Keys
	fill(&k.Quit, dk.Quit)
	fill(&k.Add, dk.Add)
	fill(&k.Up, dk.Up)
	fill(&k.Down, dk.Down)
	fill(&k.Toggle, dk.Toggle)
	fill(&k.Delete, dk.Delete)
	fill(&k.Detail, dk.Detail)
	fill(&k.Confirm, dk.Confirm)
	fill(&k.Cancel, dk.Cancel)
	fill(&k.Edit, dk.Edit)
	fill(&k.Pin, dk.Pin)
	fill(&k.Search, dk.Search)
	fill(&k.Theme, dk.Theme)
	fill(&k.CopyRef, dk.CopyRef)
	fill(&k.NextField, dk.NextField)
	fill(&k.PrevField, dk.PrevField)
	fill(&k.SwitchPanel, dk.SwitchPanel)
}

func (c Config) resolve(dir string) Config {
	abs := func(p string) string {
		if p == "" || filepath.IsAbs(p) || strings.HasPrefix(p, "file:") {
			return p
		}
		return filepath.Join(dir, p)
	}
	c.DBPath = abs(c.DBPath)
	c.PrefsPath = abs(c.PrefsPath)
	c.WidgetPath = abs(c.WidgetPath)
	c.LogPath = abs(c.LogPath)
	return c
}

func write(path string, cfg Config) error {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil && !errors.Is(err, os.ErrExist) {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func defaultConfig() Config {
	return Config{
		DBPath:     DefaultDBName,
		PrefsPath:  DefaultPrefsName,
		WidgetPath: DefaultWidgetName,
		LogPath:    DefaultLogName,
		Scanner: Scanner{
			Interval: DefaultScanInterval,
		},
		Keys: DefaultKeymap(),
	}
}

func DefaultKeymap() Keymap {
	return Keymap{
		Quit:        "q",
		Add:         "a",
		Up:          "k",
		Down:        "j",
		Toggle:      " ",
		Delete:      "d",
		Detail:      "enter",
		Confirm:     "enter",
		Cancel:      "esc",
		Edit:        "e",
		Pin:         "p",
		Search:      "/",
		Theme:       "t",
		CopyRef:     "y",
		NextField:   "tab",
		PrevField:   "shift+tab",
		SwitchPanel: "c",
	}
}
