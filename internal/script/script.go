package script

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownRunAt is returned when a run-at value names no lifecycle point
var ErrUnknownRunAt = errors.New("unknown run-at value")

// RunAt is the page-lifecycle point at which a script executes
type RunAt int

const (
	// RunAtStart runs the code as soon as it is injected
	RunAtStart RunAt = iota
	// RunAtEnd runs the code once DOMContentLoaded fires
	RunAtEnd
	// RunAtIdle runs the code once the page and its sub-resources have loaded
	RunAtIdle
)

// String renders the userscript spelling of the lifecycle point
func (r RunAt) String() string {
	switch r {
	case RunAtStart:
		return "document-start"
	case RunAtEnd:
		return "document-end"
	case RunAtIdle:
		return "document-idle"
	default:
		return fmt.Sprintf("RunAt(%d)", int(r))
	}
}

// ParseRunAt accepts both the userscript spelling and the short form
func ParseRunAt(s string) (RunAt, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "document-start", "start":
		return RunAtStart, nil
	case "document-end", "end":
		return RunAtEnd, nil
	case "document-idle", "idle":
		return RunAtIdle, nil
	default:
		return RunAtStart, fmt.Errorf("%w: %q", ErrUnknownRunAt, s)
	}
}

// MarshalText implements encoding.TextMarshaler
func (r RunAt) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler so manifests can spell run_at as text
func (r *RunAt) UnmarshalText(text []byte) error {
	parsed, err := ParseRunAt(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// Meta holds descriptive userscript fields. None of them affect encoding.
type Meta struct {
	Name        string
	Namespace   string
	Version     string
	Description string
	Matches     []string
	Extra       map[string][]string
}

// Script is a user script as supplied by the script store
type Script struct {
	Code    string
	Encoded bool
	RunAt   RunAt
	Require []string
	Grant   []string

	Meta Meta
	// Source is the file the script was loaded from, if any
	Source string
}

// Label names the script for logs
func (s *Script) Label() string {
	switch {
	case s.Meta.Name != "":
		return s.Meta.Name
	case s.Source != "":
		return s.Source
	default:
		return "<inline>"
	}
}

// Requires returns the non-blank require entries in declaration order
func (s *Script) Requires() []string {
	return nonBlank(s.Require)
}

// Grants returns the non-blank grant entries in declaration order
func (s *Script) Grants() []string {
	return nonBlank(s.Grant)
}

func nonBlank(entries []string) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		if e != "" {
			out = append(out, e)
		}
	}
	return out
}
