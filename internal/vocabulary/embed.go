package vocabulary

import (
	_ "embed"

	"github.com/StuttgartNerd/vocabularyquest/internal/models"
)

//go:embed de_en.csv
var defaultEnglish []byte

//go:embed de_fr.csv
var defaultFrench []byte

// DefaultCSV returns the bundled starter vocabulary for the language, in the
// same CSV format the import pipeline accepts.
func DefaultCSV(lang models.Language) []byte {
	if lang == models.LanguageFrench {
		return defaultFrench
	}
	return defaultEnglish
}
