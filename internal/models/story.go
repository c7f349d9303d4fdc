// Package models defines the core types shared across storyteller packages.
package models

import (
	"fmt"
	"strings"
)

// Phase selects which narrative segment is shown.
type Phase string

const (
	// PhaseStart is the introductory segment shown before the main content.
	PhaseStart Phase = "start"
	// PhaseEnd is the closing segment shown after the main content.
	PhaseEnd Phase = "end"
)

// Phases lists every known phase in presentation order.
var Phases = []Phase{PhaseStart, PhaseEnd}

// ParsePhase parses a phase name, case-insensitively.
func ParsePhase(value string) (Phase, error) {
	switch Phase(strings.ToLower(strings.TrimSpace(value))) {
	case PhaseStart:
		return PhaseStart, nil
	case PhaseEnd:
		return PhaseEnd, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownPhase, value)
	}
}

// Language selects the localized line set and the reveal speed.
type Language string

const (
	LanguageEnglish Language = "en"
	LanguageChinese Language = "zh"
)

// Languages lists every supported language. The first entry is the fallback.
var Languages = []Language{LanguageEnglish, LanguageChinese}

// ParseLanguage parses a short language code such as "en" or "zh".
// Use the i18n package to resolve full locale strings.
func ParseLanguage(value string) (Language, error) {
	switch Language(strings.ToLower(strings.TrimSpace(value))) {
	case LanguageEnglish:
		return LanguageEnglish, nil
	case LanguageChinese:
		return LanguageChinese, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownLanguage, value)
	}
}

// RevealState is the animation state of a dialogue run.
type RevealState int

const (
	RevealIdle RevealState = iota
	RevealRevealing
	RevealAwaitingContinue
	RevealFinished
)

// String returns the state name.
func (s RevealState) String() string {
	switch s {
	case RevealIdle:
		return "idle"
	case RevealRevealing:
		return "revealing"
	case RevealAwaitingContinue:
		return "awaiting_continue"
	case RevealFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// Active reports whether a run is in progress.
func (s RevealState) Active() bool {
	return s == RevealRevealing || s == RevealAwaitingContinue
}

// Labels holds the localized UI affordance labels for a line set.
type Labels struct {
	Continue string `yaml:"continue" json:"continue"`
	Skip     string `yaml:"skip" json:"skip"`
}

// DefaultLabels returns the built-in labels for a language.
func DefaultLabels(lang Language) Labels {
	switch lang {
	case LanguageChinese:
		return Labels{Continue: "继续 》", Skip: "跳过"}
	default:
		return Labels{Continue: "Continue >>", Skip: "Skip"}
	}
}

// LineSet is the ordered, localized text for one (Phase, Language) pair.
type LineSet struct {
	Phase    Phase    `json:"phase"`
	Language Language `json:"language"`
	Lines    []string `json:"lines"`
	Labels   Labels   `json:"labels"`
}
