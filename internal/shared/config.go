package shared

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv      string
	HTTPAddr    string
	MetricsAddr string
	HTTPTimeout time.Duration

	APIUsername   string
	APIToken      string
	DataportalURL string
	DataportalRPS int

	TranslateURL   string
	TranslateEmail string
	TranslateRPS   int

	TranslationCache string // memory | redis
	TranslationTTL   time.Duration
	RedisAddr        string
	RedisDB          int
	RedisPass        string

	ModelPath         string
	ModelMetadataPath string
	LabelsPath        string
	SightIDsPath      string
	ORTLibraryPath    string
	UseGPU            bool
}

// LoadDotEnv reads .env (or the given files) into the process environment.
// Variables already set win. A missing file is not an error.
func LoadDotEnv(files ...string) {
	if err := godotenv.Load(files...); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			log.Debug().Msg("no .env file, using the process environment")
			return
		}
		log.Warn().Err(err).Msg("reading .env failed")
	}
}

func Load() Config {
	c := Config{
		AppEnv:      env("APP_ENV", "prod"),
		HTTPAddr:    env("HTTP_ADDR", ":8080"),
		MetricsAddr: env("METRICS_ADDR", ""),
		HTTPTimeout: time.Duration(atoi("HTTP_TIMEOUT_SECONDS", 90)) * time.Second,

		APIUsername:   env("API_USERNAME", ""),
		APIToken:      env("API_TOKEN", ""),
		DataportalURL: env("DATAPORTAL_BASE_URL", "https://www.datenportal-muensterland.de/api/v1"),
		DataportalRPS: atoi("DATAPORTAL_RPS", 5),

		TranslateURL:   env("TRANSLATE_BASE_URL", "https://api.mymemory.translated.net"),
		TranslateEmail: env("TRANSLATE_EMAIL", ""),
		TranslateRPS:   atoi("TRANSLATE_RPS", 2),

		TranslationCache: strings.ToLower(env("TRANSLATION_CACHE", "memory")),
		TranslationTTL:   time.Duration(atoi("TRANSLATION_TTL_SECONDS", 0)) * time.Second,
		RedisAddr:        env("REDIS_ADDR", "localhost:6379"),
		RedisPass:        env("REDIS_PASSWORD", ""),
		RedisDB:          atoi("REDIS_DB", 0),

		ModelPath:         env("MODEL_PATH", "resources/model.onnx"),
		ModelMetadataPath: env("MODEL_METADATA_PATH", "resources/model.json"),
		LabelsPath:        env("LABELS_PATH", "resources/labels.json"),
		SightIDsPath:      env("SIGHT_IDS_PATH", "resources/sight_ids.json"),
		ORTLibraryPath:    env("ORT_LIBRARY_PATH", ""),
		UseGPU:            boolean("USE_GPU", true),
	}
	if c.APIToken == "" {
		log.Warn().Msg("API_TOKEN is empty")
	}
	if c.TranslationCache != "memory" && c.TranslationCache != "redis" {
		log.Warn().Str("value", c.TranslationCache).Msg("unknown TRANSLATION_CACHE, using memory")
		c.TranslationCache = "memory"
	}
	return c
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func atoi(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
		log.Warn().Str("key", k).Str("value", v).Msg("not an integer, using default")
	}
	return def
}

func boolean(k string, def bool) bool {
	if v := os.Getenv(k); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
		log.Warn().Str("key", k).Str("value", v).Msg("not a boolean, using default")
	}
	return def
}
