// Package i18n resolves user locale preferences to a supported story language.
package i18n

import (
	"os"
	"strings"

	"golang.org/x/text/language"

	"github.com/survivalburger/storyteller/internal/models"
)

var supportedTags = []language.Tag{
	language.English,
	language.Chinese,
}

var supportedLanguages = []models.Language{
	models.LanguageEnglish,
	models.LanguageChinese,
}

var tagMatcher = language.NewMatcher(supportedTags)

// Default returns the fallback language.
func Default() models.Language {
	return models.LanguageEnglish
}

// Resolve maps a locale string such as "zh-Hans-CN", "en_US.UTF-8" or "zh"
// to a supported language. Unknown or empty values resolve to Default.
func Resolve(value string) models.Language {
	tag, ok := parseTag(value)
	if !ok {
		return Default()
	}
	_, index, confidence := tagMatcher.Match(tag)
	if confidence == language.No || index < 0 || index >= len(supportedLanguages) {
		return Default()
	}
	return supportedLanguages[index]
}

// FromEnv resolves the language from LC_ALL, LC_MESSAGES and LANG, in that order.
func FromEnv() models.Language {
	for _, key := range []string{"LC_ALL", "LC_MESSAGES", "LANG"} {
		if value := strings.TrimSpace(os.Getenv(key)); value != "" {
			if _, ok := parseTag(value); ok {
				return Resolve(value)
			}
		}
	}
	return Default()
}

// Select prefers an explicit value and falls back to the environment.
func Select(explicit string) models.Language {
	if strings.TrimSpace(explicit) != "" {
		return Resolve(explicit)
	}
	return FromEnv()
}

// parseTag accepts BCP 47 tags and POSIX locale names.
func parseTag(value string) (language.Tag, bool) {
	value = strings.TrimSpace(value)
	if i := strings.IndexAny(value, ".@"); i >= 0 {
		value = value[:i]
	}
	value = strings.ReplaceAll(value, "_", "-")
	if value == "" || strings.EqualFold(value, "C") || strings.EqualFold(value, "POSIX") {
		return language.Und, false
	}
	tag, err := language.Parse(value)
	if err != nil {
		return language.Und, false
	}
	return tag, true
}
