package script

import (
	"os"
	"path/filepath"
)

// ScriptSearchPaths returns script search directories in precedence order.
// overrideDir, when set, takes precedence over every other location.
func ScriptSearchPaths(projectDir, overrideDir string) []string {
	paths := make([]string, 0, 4)
	if overrideDir != "" {
		paths = append(paths, overrideDir)
	}
	if projectDir != "" {
		paths = append(paths, filepath.Join(projectDir, ".storyteller", "scripts"))
	}

	if home, err := os.UserHomeDir(); err == nil && home != "" {
		paths = append(paths, filepath.Join(home, ".config", "storyteller", "scripts"))
	}

	paths = append(paths, filepath.Join(string(filepath.Separator), "usr", "share", "storyteller", "scripts"))
	return paths
}

// LoadScriptsFromSearchPaths loads scripts from search paths with first-hit precedence.
// Builtin scripts fill any (phase, language) pair left unresolved.
func LoadScriptsFromSearchPaths(projectDir, overrideDir string) ([]*Script, error) {
	paths := ScriptSearchPaths(projectDir, overrideDir)
	seen := make(map[Key]*Script)
	order := make([]Key, 0)

	for _, path := range paths {
		scripts, err := LoadScriptsFromDir(path)
		if err != nil {
			return nil, err
		}
		for _, s := range scripts {
			if _, exists := seen[s.Key()]; exists {
				continue
			}
			seen[s.Key()] = s
			order = append(order, s.Key())
		}
	}

	builtins, err := LoadBuiltinScripts()
	if err != nil {
		return nil, err
	}
	for _, s := range builtins {
		if _, exists := seen[s.Key()]; exists {
			continue
		}
		seen[s.Key()] = s
		order = append(order, s.Key())
	}

	resolved := make([]*Script, 0, len(order))
	for _, key := range order {
		resolved = append(resolved, seen[key])
	}
	sortScripts(resolved)

	return resolved, nil
}
