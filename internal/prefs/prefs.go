// Package prefs is a small file-backed string key/value store. The file
// format follows the extension: .toml is written with go-toml, .yaml and
// .yml with yaml.v3.
package prefs

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

type format int

const (
	formatTOML format = iota
	formatYAML
)

// ErrMalformed marks a prefs file that exists but cannot be decoded.
var ErrMalformed = errors.New("malformed prefs file")

type Store struct {
	path   string
	format format
	logger *log.Logger
	mu     sync.Mutex
}

func Open(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("prefs path is empty")
	}
	f, err := formatFor(path)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, err
	}
	return &Store{path: path, format: f, logger: log.New(io.Discard, "", 0)}, nil
}

// WithLogger sets where discarded malformed files are reported.
func (s *Store) WithLogger(l *log.Logger) *Store {
	if l != nil {
		s.logger = l
	}
	return s
}

func formatFor(path string) (format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return formatTOML, nil
	case ".yaml", ".yml":
		return formatYAML, nil
	}
	return 0, fmt.Errorf("unsupported prefs file %q (want .toml, .yaml or .yml)", path)
}

func (s *Store) Path() string {
	return s.path
}

// Get returns the value under key and whether it was set.
func (s *Store) Get(key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.load()
	if err != nil {
		return "", false, err
	}
	v, ok := values[key]
	return v, ok, nil
}

// GetOr returns the value under key, or def when it is unset.
func (s *Store) GetOr(key, def string) (string, error) {
	v, ok, err := s.Get(key)
	if err != nil || !ok {
		return def, err
	}
	return v, nil
}

func (s *Store) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// A malformed file is replaced rather than blocking every later write.
	values, err := s.load()
	if errors.Is(err, ErrMalformed) {
		s.logger.Printf("prefs: %v; rewriting", err)
		values, err = map[string]string{}, nil
	}
	if err != nil {
		return err
	}
	values[key] = value
	return s.write(values)
}

func (s *Store) load() (map[string]string, error) {
	values := map[string]string{}
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return values, nil
	}
	if err != nil {
		return nil, err
	}
	switch s.format {
	case formatYAML:
		err = yaml.Unmarshal(data, &values)
	default:
		err = toml.Unmarshal(data, &values)
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w: %w", s.path, ErrMalformed, err)
	}
	if values == nil {
		values = map[string]string{}
	}
	return values, nil
}

// write replaces the file atomically so readers in other processes never
// see a partial document.
func (s *Store) write(values map[string]string) error {
	var data []byte
	var err error
	switch s.format {
	case formatYAML:
		data, err = yaml.Marshal(values)
	default:
		data, err = toml.Marshal(values)
	}
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".prefs-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}
