package script

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/survivalburger/storyteller/internal/models"
)

// LoadScript reads a single script from disk.
func LoadScript(path string) (*Script, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("script path is required")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read script %s: %w", path, err)
	}

	s, err := parseScript(data)
	if err != nil {
		return nil, fmt.Errorf("parse script %s: %w", path, err)
	}
	s.Source = path
	return s, nil
}

// LoadScriptsFromDir loads all scripts from a directory.
// A missing directory yields no scripts.
func LoadScriptsFromDir(dir string) ([]*Script, error) {
	if strings.TrimSpace(dir) == "" {
		return []*Script{}, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []*Script{}, nil
		}
		return nil, fmt.Errorf("read scripts dir %s: %w", dir, err)
	}

	scripts := make([]*Script, 0)
	seen := make(map[Key]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		ext := strings.ToLower(filepath.Ext(name))
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		path := filepath.Join(dir, name)
		s, err := LoadScript(path)
		if err != nil {
			return nil, err
		}
		if prev, exists := seen[s.Key()]; exists {
			return nil, fmt.Errorf("duplicate script %s in %s and %s", s.Key(), prev, path)
		}
		seen[s.Key()] = path
		scripts = append(scripts, s)
	}

	sortScripts(scripts)
	return scripts, nil
}

func sortScripts(scripts []*Script) {
	sort.Slice(scripts, func(i, j int) bool {
		return scripts[i].Key().String() < scripts[j].Key().String()
	})
}

func parseScript(data []byte) (*Script, error) {
	var raw struct {
		Phase     string        `yaml:"phase"`
		Language  string        `yaml:"language"`
		Title     string        `yaml:"title"`
		Labels    models.Labels `yaml:"labels"`
		Lines     []string      `yaml:"lines"`
		Variables []ScriptVar   `yaml:"variables"`
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	phase, err := models.ParsePhase(raw.Phase)
	if err != nil {
		return nil, err
	}
	lang, err := models.ParseLanguage(raw.Language)
	if err != nil {
		return nil, err
	}

	s := &Script{
		Phase:     phase,
		Language:  lang,
		Title:     strings.TrimSpace(raw.Title),
		Labels:    normalizeLabels(raw.Labels, lang),
		Lines:     make([]string, 0, len(raw.Lines)),
		Variables: raw.Variables,
	}

	for i, line := range raw.Lines {
		line = strings.TrimSpace(line)
		if line == "" {
			return nil, fmt.Errorf("script line %d is empty", i+1)
		}
		s.Lines = append(s.Lines, line)
	}

	seen := make(map[string]struct{})
	for i := range s.Variables {
		name := strings.TrimSpace(s.Variables[i].Name)
		if name == "" {
			return nil, fmt.Errorf("script variable name is required")
		}
		if _, exists := seen[name]; exists {
			return nil, fmt.Errorf("duplicate script variable %q", name)
		}
		seen[name] = struct{}{}
		s.Variables[i].Name = name
	}

	return s, nil
}

func normalizeLabels(labels models.Labels, lang models.Language) models.Labels {
	defaults := models.DefaultLabels(lang)
	labels.Continue = strings.TrimSpace(labels.Continue)
	labels.Skip = strings.TrimSpace(labels.Skip)
	if labels.Continue == "" {
		labels.Continue = defaults.Continue
	}
	if labels.Skip == "" {
		labels.Skip = defaults.Skip
	}
	return labels
}
