package script

import (
	"bufio"
	"errors"
	"fmt"
	"strings"
)

const (
	headerOpen  = "==UserScript=="
	headerClose = "==/UserScript=="
)

var (
	// ErrNoHeader is returned when a userscript has no metadata block
	ErrNoHeader = errors.New("userscript metadata block not found")
	// ErrUnterminatedHeader is returned when the metadata block is never closed
	ErrUnterminatedHeader = errors.New("userscript metadata block not terminated")
)

// ParseUserScript reads the // ==UserScript== block of source and returns a Script
// carrying the whole source as its code. @match and @include are kept raw.
func ParseUserScript(source string) (*Script, error) {
	s := &Script{
		Code:  source,
		RunAt: RunAtEnd,
		Meta:  Meta{Extra: map[string][]string{}},
	}

	scanner := bufio.NewScanner(strings.NewReader(source))
	scanner.Buffer(make([]byte, 0, 64*1024), len(source)+1)

	inHeader, closed := false, false
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "//") {
			if inHeader && line != "" {
				return nil, fmt.Errorf("%w: unexpected line %q", ErrUnterminatedHeader, line)
			}
			continue
		}
		body := strings.TrimSpace(strings.TrimPrefix(line, "//"))

		if !inHeader {
			if body == headerOpen {
				inHeader = true
			}
			continue
		}
		if body == headerClose {
			closed = true
			break
		}
		if !strings.HasPrefix(body, "@") {
			continue
		}

		key, value := splitDirective(body[1:])
		if err := s.apply(key, value); err != nil {
			return nil, err
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan userscript: %w", err)
	}

	switch {
	case !inHeader:
		return nil, ErrNoHeader
	case !closed:
		return nil, ErrUnterminatedHeader
	}
	return s, nil
}

func splitDirective(directive string) (string, string) {
	idx := strings.IndexAny(directive, " \t")
	if idx < 0 {
		return directive, ""
	}
	return directive[:idx], strings.TrimSpace(directive[idx+1:])
}

func (s *Script) apply(key, value string) error {
	switch key {
	case "run-at":
		runAt, err := ParseRunAt(value)
		if err != nil {
			return err
		}
		s.RunAt = runAt
	case "require":
		s.Require = append(s.Require, value)
	case "grant":
		// "@grant none" opts out of every capability
		if value != "none" {
			s.Grant = append(s.Grant, value)
		}
	case "name":
		s.Meta.Name = value
	case "namespace":
		s.Meta.Namespace = value
	case "version":
		s.Meta.Version = value
	case "description":
		s.Meta.Description = value
	case "match", "include":
		s.Meta.Matches = append(s.Meta.Matches, value)
	default:
		s.Meta.Extra[key] = append(s.Meta.Extra[key], value)
	}
	return nil
}
