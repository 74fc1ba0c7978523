// File: internal/output/output.go
//
// Timestamped output files (screenshots, scrape results) under a single
// output directory. File names follow <description>_<epoch_millis>.<ext>;
// the millisecond timestamp is the only collision guard, which is enough
// for a strictly serial tool.
package output

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Kind selects the file extension for a generated path.
type Kind int

const (
	KindScreenshot Kind = iota
	KindJSON
	KindLog
)

// Ext returns the file extension (without dot) for the kind.
func (k Kind) Ext() string {
	switch k {
	case KindScreenshot:
		return "png"
	case KindJSON:
		return "json"
	case KindLog:
		return "log"
	default:
		return "dat"
	}
}

// Store generates paths and writes files under one output directory.
type Store struct {
	dir string
}

// NewStore resolves dir to an absolute path and creates it if missing.
func NewStore(dir string) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("output directory must not be empty")
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve output directory '%s': %w", dir, err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory '%s': %w", abs, err)
	}
	return &Store{dir: abs}, nil
}

// Dir returns the absolute output directory.
func (s *Store) Dir() string {
	return s.dir
}

// BuildPath returns <dir>/<description>_<epoch_millis>.<ext> for the kind.
func (s *Store) BuildPath(kind Kind, description string) string {
	name := fmt.Sprintf("%s_%d.%s", sanitize(description), time.Now().UnixMilli(), kind.Ext())
	return filepath.Join(s.dir, name)
}

// WriteJSON marshals v as 2-space-indented UTF-8 JSON into a timestamped
// file and returns the path written.
func (s *Store) WriteJSON(description string, v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal output for '%s': %w", description, err)
	}
	path := s.BuildPath(KindJSON, description)
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return "", fmt.Errorf("failed to write '%s': %w", path, err)
	}
	return path, nil
}

// WriteScreenshot writes PNG bytes into a timestamped file and returns the
// path written.
func (s *Store) WriteScreenshot(description string, png []byte) (string, error) {
	path := s.BuildPath(KindScreenshot, description)
	if err := os.WriteFile(path, png, 0o644); err != nil {
		return "", fmt.Errorf("failed to write '%s': %w", path, err)
	}
	return path, nil
}

// sanitize keeps descriptions filesystem-safe without mangling the common
// "quotes-browserbase" style names.
func sanitize(description string) string {
	if description == "" {
		return "output"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '-' || r == '_' || r == '.':
			return r
		default:
			return '-'
		}
	}, description)
}
