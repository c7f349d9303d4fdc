// Package dialogue implements the typewriter line sequencer.
//
// A Sequencer reveals the lines of one (phase, language) line set a character
// at a time. It never blocks and owns no goroutines: the host loop advances it
// with Tick and feeds user input through Continue and Skip.
package dialogue

import (
	"time"

	"github.com/survivalburger/storyteller/internal/models"
)

const (
	// DefaultEnglishDelay is the per-character interval for English text.
	DefaultEnglishDelay = 30 * time.Millisecond
	// DefaultChineseDelay is the per-character interval for Chinese text.
	DefaultChineseDelay = 80 * time.Millisecond
)

// Config contains sequencer timing.
type Config struct {
	// Delays maps each language to its per-character interval.
	// Languages without an entry use DefaultEnglishDelay.
	Delays map[models.Language]time.Duration

	// AckDelay is how long the acknowledgment cue plays after Continue
	// before the next line starts. Zero advances immediately.
	AckDelay time.Duration
}

// DefaultConfig returns the stock timing with no acknowledgment delay.
func DefaultConfig() Config {
	return Config{
		Delays: map[models.Language]time.Duration{
			models.LanguageEnglish: DefaultEnglishDelay,
			models.LanguageChinese: DefaultChineseDelay,
		},
	}
}

// Delay returns the per-character interval for lang.
func (c Config) Delay(lang models.Language) time.Duration {
	if d, ok := c.Delays[lang]; ok && d > 0 {
		return d
	}
	return DefaultEnglishDelay
}
