package models

import (
	"fmt"
	"strings"
)

// Language identifies one of the two fixed vocabulary tables. The set is
// closed: table and column names are derived from these constants only,
// never from user input.
type Language string

const (
	LanguageEnglish Language = "en"
	LanguageFrench  Language = "fr"
)

// Languages returns all supported languages in stored order.
func Languages() []Language {
	return []Language{LanguageEnglish, LanguageFrench}
}

// ParseLanguage validates a user-supplied language code.
func ParseLanguage(raw string) (Language, error) {
	switch Language(strings.ToLower(strings.TrimSpace(raw))) {
	case LanguageEnglish:
		return LanguageEnglish, nil
	case LanguageFrench:
		return LanguageFrench, nil
	default:
		return "", fmt.Errorf("unsupported language %q (must be en or fr)", raw)
	}
}

// Table returns the vocabulary table name for the language.
func (l Language) Table() string {
	if l == LanguageFrench {
		return "vocab_de_fr"
	}
	return "vocab_de_en"
}

// Column returns the translation column name within the language's table.
func (l Language) Column() string {
	return string(l)
}

// Key is the value stored in the vocab_table column of attempt and reward
// rows, e.g. "de_en".
func (l Language) Key() string {
	return "de_" + string(l)
}

// LanguageFromKey maps a stored vocab_table key back to its language.
func LanguageFromKey(key string) (Language, error) {
	switch key {
	case "de_en":
		return LanguageEnglish, nil
	case "de_fr":
		return LanguageFrench, nil
	default:
		return "", fmt.Errorf("unknown vocab_table key %q", key)
	}
}

// DisplayName is the human-readable language name used in quest prompts.
func (l Language) DisplayName() string {
	if l == LanguageFrench {
		return "French"
	}
	return "English"
}
