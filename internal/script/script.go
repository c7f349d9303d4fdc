// Package script provides loading and rendering of localized story line sets.
package script

import (
	"fmt"

	"github.com/survivalburger/storyteller/internal/models"
)

// Script is one localized line set document.
type Script struct {
	Phase     models.Phase    `yaml:"phase" json:"phase"`
	Language  models.Language `yaml:"language" json:"language"`
	Title     string          `yaml:"title,omitempty" json:"title,omitempty"`
	Labels    models.Labels   `yaml:"labels,omitempty" json:"labels"`
	Lines     []string        `yaml:"lines" json:"lines"`
	Variables []ScriptVar     `yaml:"variables,omitempty" json:"variables,omitempty"`
	Source    string          `yaml:"-" json:"source"` // file path or "builtin"
}

// ScriptVar describes a variable used in script lines.
type ScriptVar struct {
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description" json:"description,omitempty"`
	Default     string `yaml:"default,omitempty" json:"default,omitempty"`
	Required    bool   `yaml:"required" json:"required"`
}

// Key identifies a line set.
type Key struct {
	Phase    models.Phase
	Language models.Language
}

func (k Key) String() string {
	return fmt.Sprintf("%s/%s", k.Phase, k.Language)
}

// Key returns the (phase, language) pair the script provides.
func (s *Script) Key() Key {
	return Key{Phase: s.Phase, Language: s.Language}
}
