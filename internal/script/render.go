package script

import (
	"fmt"
	"strings"
	"text/template"
)

// RenderLines renders a script's lines with variables applied.
// Lines without template actions are returned unchanged.
func RenderLines(s *Script, vars map[string]string) ([]string, error) {
	if s == nil {
		return nil, fmt.Errorf("script is required")
	}

	data := make(map[string]string, len(vars))
	for key, value := range vars {
		data[key] = value
	}

	for _, variable := range s.Variables {
		value := strings.TrimSpace(data[variable.Name])
		if value == "" {
			if variable.Default != "" {
				data[variable.Name] = variable.Default
				continue
			}
			if variable.Required {
				return nil, fmt.Errorf("missing required variable %q", variable.Name)
			}
		}
	}

	lines := make([]string, 0, len(s.Lines))
	for i, line := range s.Lines {
		if !strings.Contains(line, "{{") {
			lines = append(lines, line)
			continue
		}
		text, err := renderText(s.Key().String(), line, data)
		if err != nil {
			return nil, fmt.Errorf("render script %s line %d: %w", s.Key(), i+1, err)
		}
		lines = append(lines, text)
	}

	return lines, nil
}

func renderText(name, content string, data map[string]string) (string, error) {
	parsed, err := template.New(name).
		Funcs(template.FuncMap{"default": defaultValue}).
		Option("missingkey=zero").
		Parse(content)
	if err != nil {
		return "", fmt.Errorf("parse template %q: %w", name, err)
	}

	var out strings.Builder
	if err := parsed.Execute(&out, data); err != nil {
		return "", fmt.Errorf("render template %q: %w", name, err)
	}

	return out.String(), nil
}

func defaultValue(def string, value any) string {
	if value == nil {
		return def
	}

	switch v := value.(type) {
	case string:
		if strings.TrimSpace(v) == "" {
			return def
		}
		return v
	default:
		text := strings.TrimSpace(fmt.Sprint(v))
		if text == "" {
			return def
		}
		return text
	}
}
