package script

import (
	"errors"
	"fmt"

	"github.com/survivalburger/storyteller/internal/models"
)

// ErrScriptNotFound is returned when no script provides a (phase, language) pair.
var ErrScriptNotFound = errors.New("script not found")

// Catalog resolves line sets by phase and language.
type Catalog struct {
	scripts map[Key]*Script
	order   []Key
	vars    map[string]string
}

// NewCatalog builds a catalog. When two scripts share a key the first one wins.
func NewCatalog(scripts []*Script, vars map[string]string) *Catalog {
	c := &Catalog{
		scripts: make(map[Key]*Script, len(scripts)),
		vars:    vars,
	}
	for _, s := range scripts {
		if s == nil {
			continue
		}
		if _, exists := c.scripts[s.Key()]; exists {
			continue
		}
		c.scripts[s.Key()] = s
		c.order = append(c.order, s.Key())
	}
	return c
}

// LoadCatalog loads scripts from the search paths and builds a catalog.
func LoadCatalog(projectDir, overrideDir string, vars map[string]string) (*Catalog, error) {
	scripts, err := LoadScriptsFromSearchPaths(projectDir, overrideDir)
	if err != nil {
		return nil, err
	}
	return NewCatalog(scripts, vars), nil
}

// Scripts returns the catalog's scripts in insertion order.
func (c *Catalog) Scripts() []*Script {
	out := make([]*Script, 0, len(c.order))
	for _, key := range c.order {
		out = append(out, c.scripts[key])
	}
	return out
}

// Script returns the script for a key.
func (c *Catalog) Script(phase models.Phase, lang models.Language) (*Script, bool) {
	s, ok := c.scripts[Key{Phase: phase, Language: lang}]
	return s, ok
}

// LineSet renders the line set for a phase and language.
func (c *Catalog) LineSet(phase models.Phase, lang models.Language) (models.LineSet, error) {
	s, ok := c.Script(phase, lang)
	if !ok {
		return models.LineSet{}, fmt.Errorf("%w: %s", ErrScriptNotFound, Key{Phase: phase, Language: lang})
	}

	lines, err := RenderLines(s, c.vars)
	if err != nil {
		return models.LineSet{}, err
	}

	return models.LineSet{
		Phase:    s.Phase,
		Language: s.Language,
		Lines:    lines,
		Labels:   s.Labels,
	}, nil
}
