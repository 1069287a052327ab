package service

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"strings"

	"github.com/StuttgartNerd/vocabularyquest/internal/config"
	"github.com/StuttgartNerd/vocabularyquest/internal/models"
	"github.com/StuttgartNerd/vocabularyquest/internal/repository"
	"github.com/StuttgartNerd/vocabularyquest/internal/utils"
	"github.com/StuttgartNerd/vocabularyquest/internal/vocabulary"
)

// ImportService loads vocabulary from CSV sources: bundled defaults, local
// files and remote URLs. Remote imports merge additively; existing entries
// and their tracking are never touched.
type ImportService struct {
	cfg      *config.Config
	vocab    *repository.VocabularyRepository
	settings *repository.SettingsRepository
	client   *http.Client
}

// NewImportService creates a new import service
func NewImportService(cfg *config.Config, vocab *repository.VocabularyRepository, settings *repository.SettingsRepository) *ImportService {
	dialer := &net.Dialer{Timeout: cfg.HTTPConnectTimeout}
	return &ImportService{
		cfg:      cfg,
		vocab:    vocab,
		settings: settings,
		client: &http.Client{
			Timeout: cfg.HTTPReadTimeout,
			Transport: &http.Transport{
				DialContext: dialer.DialContext,
			},
		},
	}
}

// ParseCSV reads vocabulary pairs from CSV content. Each line splits on the
// first comma into source word and translation. Blank lines, '#' comments
// and an optional header row naming the columns are skipped; malformed rows
// are logged and dropped rather than failing the whole import.
func (s *ImportService) ParseCSV(lang models.Language, r io.Reader) ([]models.VocabPair, error) {
	scanner := bufio.NewScanner(r)

	var entries []models.VocabPair
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		source, translation, found := strings.Cut(line, ",")
		if !found {
			log.Printf("skipping malformed vocabulary row %d: no comma", lineNo)
			continue
		}

		source = utils.SanitizeInput(source)
		translation = utils.SanitizeInput(translation)

		// Header row, e.g. "de,en".
		if lineNo == 1 && strings.EqualFold(source, "de") && strings.EqualFold(translation, lang.Column()) {
			continue
		}

		if err := utils.ValidateTerm("source word", source); err != nil {
			log.Printf("skipping vocabulary row %d: %v", lineNo, err)
			continue
		}
		if err := utils.ValidateTerm("translation", translation); err != nil {
			log.Printf("skipping vocabulary row %d: %v", lineNo, err)
			continue
		}

		entries = append(entries, models.VocabPair{SourceWord: source, Translation: translation})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read vocabulary CSV: %w", err)
	}
	return entries, nil
}

// LoadFile merges a local CSV file into the language's table.
func (s *ImportService) LoadFile(lang models.Language, path string) (models.ImportSummary, error) {
	file, err := os.Open(path)
	if err != nil {
		return models.ImportSummary{}, fmt.Errorf("failed to open vocabulary file: %w", err)
	}
	defer file.Close()

	entries, err := s.ParseCSV(lang, file)
	if err != nil {
		return models.ImportSummary{}, err
	}
	return s.merge(lang, entries)
}

// FetchURL downloads and parses a remote vocabulary CSV. Only 2xx responses
// are accepted.
func (s *ImportService) FetchURL(lang models.Language, url string) ([]models.VocabPair, error) {
	resp, err := s.client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch vocabulary from %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("vocabulary fetch from %s returned status %d", url, resp.StatusCode)
	}
	return s.ParseCSV(lang, resp.Body)
}

// ImportFromURL downloads the language's CSV from url and merges it.
func (s *ImportService) ImportFromURL(lang models.Language, url string) (models.ImportSummary, error) {
	entries, err := s.FetchURL(lang, url)
	if err != nil {
		return models.ImportSummary{}, err
	}
	return s.merge(lang, entries)
}

// merge inserts entries whose source words are new, leaving everything else
// alone.
func (s *ImportService) merge(lang models.Language, entries []models.VocabPair) (models.ImportSummary, error) {
	inserted, err := s.vocab.InsertMissingEntries(lang, entries)
	if err != nil {
		return models.ImportSummary{}, err
	}
	return models.ImportSummary{
		SourceRows:      len(entries),
		Inserted:        inserted,
		SkippedExisting: len(entries) - inserted,
	}, nil
}

// ImportURL returns the persisted import URL for the language, or "".
func (s *ImportService) ImportURL(lang models.Language) (string, error) {
	return s.settings.Get(settingKeyFor(lang))
}

// SetImportURL validates and persists the import URL for the language.
func (s *ImportService) SetImportURL(lang models.Language, url string) error {
	url = strings.TrimSpace(url)
	if err := utils.ValidateHTTPURL(url); err != nil {
		return err
	}
	return s.settings.Set(settingKeyFor(lang), url)
}

// SeedURLsFromConfig copies configured import URLs into settings, but only
// for languages that have no persisted URL yet, so admin changes survive a
// restart with stale environment values.
func (s *ImportService) SeedURLsFromConfig() {
	seed := func(lang models.Language, url string) {
		if url == "" {
			return
		}
		existing, err := s.settings.Get(settingKeyFor(lang))
		if err != nil {
			log.Printf("failed to read import URL for %s: %v", lang, err)
			return
		}
		if existing != "" {
			return
		}
		if err := s.SetImportURL(lang, url); err != nil {
			log.Printf("failed to seed import URL for %s: %v", lang, err)
		}
	}
	seed(models.LanguageEnglish, s.cfg.ImportURLEnglish)
	seed(models.LanguageFrench, s.cfg.ImportURLFrench)
}

// ImportConfiguredOnStartup runs a merge import for every language with a
// persisted URL. Failures are logged and skipped; a dead URL must not keep
// the server from starting.
func (s *ImportService) ImportConfiguredOnStartup() {
	for _, lang := range models.Languages() {
		url, err := s.ImportURL(lang)
		if err != nil {
			log.Printf("failed to read import URL for %s: %v", lang, err)
			continue
		}
		if url == "" {
			continue
		}
		summary, err := s.ImportFromURL(lang, url)
		if err != nil {
			log.Printf("startup vocabulary import for %s failed: %v", lang, err)
			continue
		}
		log.Printf("imported %s vocabulary: %d new, %d already present", lang, summary.Inserted, summary.SkippedExisting)
	}
}

// SeedDefaults loads the bundled starter vocabulary, but only into an empty
// store.
func (s *ImportService) SeedDefaults() error {
	total, err := s.vocab.TotalEntries()
	if err != nil {
		return err
	}
	if total > 0 {
		return nil
	}

	for _, lang := range models.Languages() {
		entries, err := s.ParseCSV(lang, strings.NewReader(string(vocabulary.DefaultCSV(lang))))
		if err != nil {
			return err
		}
		if err := s.vocab.ReplaceAll(lang, entries); err != nil {
			return fmt.Errorf("failed to seed %s vocabulary: %w", lang, err)
		}
		log.Printf("seeded %d default %s vocabulary entries", len(entries), lang)
	}
	return nil
}

func settingKeyFor(lang models.Language) string {
	if lang == models.LanguageFrench {
		return repository.SettingImportURLFrench
	}
	return repository.SettingImportURLEnglish
}
