package script

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/gabriel-vasile/mimetype"
	"github.com/goccy/go-yaml"
	"github.com/pelletier/go-toml/v2"
)

var (
	// ErrNotText is returned for files whose content is not text
	ErrNotText = errors.New("script file is not text")
	// ErrUnsupportedFormat is returned for file extensions with no loader
	ErrUnsupportedFormat = errors.New("unsupported script file format")
	// ErrNoCode is returned for manifests that carry neither code nor code_file
	ErrNoCode = errors.New("manifest has no code")
	// ErrNoMatches is returned when a glob matches nothing
	ErrNoMatches = errors.New("no script files match pattern")
)

// Manifest is the YAML/TOML shape of a script record
type Manifest struct {
	Name     string   `yaml:"name" toml:"name"`
	Code     string   `yaml:"code" toml:"code"`
	CodeFile string   `yaml:"code_file" toml:"code_file"`
	Encoded  bool     `yaml:"encoded" toml:"encoded"`
	RunAt    string   `yaml:"run_at" toml:"run_at"`
	Require  []string `yaml:"require" toml:"require"`
	Grant    []string `yaml:"grant" toml:"grant"`
}

// LoadFile loads a script from a userscript or a YAML/TOML manifest
func LoadFile(path string) (*Script, error) {
	data, err := readText(path)
	if err != nil {
		return nil, err
	}

	var s *Script
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".js":
		s, err = ParseUserScript(string(data))
	case ".yaml", ".yml":
		var m Manifest
		if err := yaml.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("failed to parse YAML manifest %s: %w", path, err)
		}
		s, err = m.toScript(filepath.Dir(path))
	case ".toml":
		var m Manifest
		if err := toml.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("failed to parse TOML manifest %s: %w", path, err)
		}
		s, err = m.toScript(filepath.Dir(path))
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	s.Source = path
	return s, nil
}

// LoadGlob loads every file matching a doublestar pattern, in lexical order
func LoadGlob(pattern string) ([]*Script, error) {
	matches, err := doublestar.FilepathGlob(pattern)
	if err != nil {
		return nil, fmt.Errorf("glob failed: %w", err)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoMatches, pattern)
	}
	sort.Strings(matches)

	scripts := make([]*Script, 0, len(matches))
	for _, match := range matches {
		s, err := LoadFile(match)
		if err != nil {
			return nil, err
		}
		scripts = append(scripts, s)
	}
	return scripts, nil
}

func (m Manifest) toScript(baseDir string) (*Script, error) {
	code := m.Code
	if m.CodeFile != "" {
		path := m.CodeFile
		if !filepath.IsAbs(path) {
			path = filepath.Join(baseDir, path)
		}
		data, err := readText(path)
		if err != nil {
			return nil, err
		}
		code = string(data)
	}
	if code == "" {
		return nil, ErrNoCode
	}

	// Manifests follow the userscript default when run_at is omitted
	runAt := RunAtEnd
	if m.RunAt != "" {
		parsed, err := ParseRunAt(m.RunAt)
		if err != nil {
			return nil, err
		}
		runAt = parsed
	}

	return &Script{
		Code:    code,
		Encoded: m.Encoded,
		RunAt:   runAt,
		Require: m.Require,
		Grant:   m.Grant,
		Meta:    Meta{Name: m.Name},
	}, nil
}

func readText(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if !isText(mimetype.Detect(data)) {
		return nil, fmt.Errorf("%w: %s", ErrNotText, path)
	}
	return data, nil
}

func isText(mtype *mimetype.MIME) bool {
	for m := mtype; m != nil; m = m.Parent() {
		if m.Is("text/plain") {
			return true
		}
	}
	return false
}
