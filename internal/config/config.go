package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds application configuration
type Config struct {
	DatabaseType string
	DatabasePath string
	DatabaseURL  string

	ImportURLEnglish   string
	ImportURLFrench    string
	HTTPConnectTimeout time.Duration
	HTTPReadTimeout    time.Duration

	QuestTimeout         time.Duration
	QuestDelayMin        time.Duration
	QuestDelayMax        time.Duration
	MinVocabularyEntries int

	PlaytimeEnabled       bool
	DefaultDailyLimitMin  int
	PlaytimeWarningWindow int
	PlaytimeKickMessage   string
}

// DefaultKickMessage supports {used} and {limit} placeholders.
const DefaultKickMessage = "Daily playtime limit reached ({used}/{limit} min). Come back tomorrow."

// Load reads configuration from environment variables with sensible defaults
func Load() *Config {
	return &Config{
		DatabaseType: getEnv("DATABASE_TYPE", "sqlite"),
		DatabasePath: getEnv("DB_PATH", "./vocabularyquest.db"),
		DatabaseURL:  getEnv("DATABASE_URL", ""),

		ImportURLEnglish:   getEnv("IMPORT_URL_EN", ""),
		ImportURLFrench:    getEnv("IMPORT_URL_FR", ""),
		HTTPConnectTimeout: getEnvSeconds("HTTP_CONNECT_TIMEOUT_SECONDS", 10),
		HTTPReadTimeout:    getEnvSeconds("HTTP_READ_TIMEOUT_SECONDS", 20),

		QuestTimeout:         getEnvSeconds("QUEST_TIMEOUT_SECONDS", 2*60),
		QuestDelayMin:        getEnvSeconds("QUEST_DELAY_MIN_SECONDS", 3*60),
		QuestDelayMax:        getEnvSeconds("QUEST_DELAY_MAX_SECONDS", 10*60),
		MinVocabularyEntries: getEnvInt("MIN_VOCAB_ENTRIES", 10),

		PlaytimeEnabled:       getEnvBool("PLAYTIME_ENABLED", true),
		DefaultDailyLimitMin:  getEnvInt("PLAYTIME_DAILY_LIMIT_MINUTES", 120),
		PlaytimeWarningWindow: getEnvInt("PLAYTIME_WARNING_WINDOW_MINUTES", 5),
		PlaytimeKickMessage:   getEnv("PLAYTIME_KICK_MESSAGE", DefaultKickMessage),
	}
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt accepts zero: a zero warning window disables warnings and a zero
// minimum lets every timer quest start. Negative values fall back.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed >= 0 {
			return parsed
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvSeconds(key string, defaultSeconds int) time.Duration {
	return time.Duration(getEnvInt(key, defaultSeconds)) * time.Second
}
