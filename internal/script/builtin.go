package script

import (
	"embed"
	"fmt"
	"io/fs"
)

//go:embed builtin/*.yaml
var builtinFS embed.FS

// LoadBuiltinScripts returns the line sets bundled with storyteller.
func LoadBuiltinScripts() ([]*Script, error) {
	entries, err := fs.ReadDir(builtinFS, "builtin")
	if err != nil {
		return nil, fmt.Errorf("read builtin scripts: %w", err)
	}

	scripts := make([]*Script, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := "builtin/" + entry.Name()
		data, err := builtinFS.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read builtin script %s: %w", entry.Name(), err)
		}
		s, err := parseScript(data)
		if err != nil {
			return nil, fmt.Errorf("parse builtin script %s: %w", entry.Name(), err)
		}
		s.Source = "builtin"
		scripts = append(scripts, s)
	}

	sortScripts(scripts)
	return scripts, nil
}
