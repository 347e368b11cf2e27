// Package oracle talks to the planning model: model selection plus the
// Anthropic messages client that turns conversation history into plan text.
package oracle

import (
	"fmt"
	"sort"
	"strings"
)

// Selector resolves short model names to concrete identifiers and tracks the
// session's active model. A configured value that is not a known short name
// passes through as a raw identifier, so users can pin models the table does
// not know about yet.
type Selector struct {
	table   map[string]string
	current string
}

// NewSelector builds a selector over the given short-name table with initial
// as the active model (short name or raw identifier).
func NewSelector(table map[string]string, initial string) *Selector {
	s := &Selector{table: make(map[string]string, len(table))}
	for k, v := range table {
		s.table[strings.ToLower(k)] = v
	}
	s.current = s.resolve(initial)
	return s
}

func (s *Selector) resolve(name string) string {
	if id, ok := s.table[strings.ToLower(name)]; ok {
		return id
	}
	return name
}

// Current returns the active model identifier.
func (s *Selector) Current() string {
	return s.current
}

// Names returns the known short names, sorted.
func (s *Selector) Names() []string {
	names := make([]string, 0, len(s.table))
	for name := range s.table {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Describe returns a display label for a short name.
func (s *Selector) Describe(name string) string {
	if id, ok := s.table[strings.ToLower(name)]; ok {
		return fmt.Sprintf("%s (%s)", name, id)
	}
	return name
}

// Set switches the active model by short name. Unlike the constructor it
// rejects unknown names: mid-session switches come from the checkpoint menu
// and must be deliberate.
func (s *Selector) Set(name string) error {
	id, ok := s.table[strings.ToLower(name)]
	if !ok {
		return fmt.Errorf("unknown model %q, available: %s", name, strings.Join(s.Names(), ", "))
	}
	s.current = id
	return nil
}
