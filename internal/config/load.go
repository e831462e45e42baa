package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for all environment variable overrides.
const EnvPrefix = "STUDYQUEST"

// Load configuration from environment variables and optionally config files.
// Environment variables take precedence over values from config files.
// Returns a populated Config struct or an error if loading/validation fails.
func Load() (*Config, error) {
	return LoadFrom("")
}

// LoadFrom behaves like Load but reads the given config file instead of
// searching for config.yaml in the working directory. An empty path falls
// back to the search.
func LoadFrom(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// STUDYQUEST_LLM_BASE_URL overrides llm.base_url
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate runs struct-tag validation and the cross-section checks that
// tags cannot express.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	if c.Storage.Backend == "postgres" && c.Database.URL == "" {
		return fmt.Errorf("config validation failed: database.url is required for the postgres backend")
	}
	if _, err := c.Storage.QuotaBytes(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	if _, err := c.Storage.MaxUploadBytes(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	return nil
}

// setDefaults registers every key so that AutomaticEnv can resolve it
// during Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.shutdown_timeout_seconds", 30)

	v.SetDefault("llm.provider", "ollama")
	v.SetDefault("llm.base_url", "http://localhost:11434")
	v.SetDefault("llm.model", "llama3.2")
	v.SetDefault("llm.temperature", 0.3)
	v.SetDefault("llm.num_ctx", 4096)
	v.SetDefault("llm.num_predict", 1024)
	v.SetDefault("llm.timeout_seconds", 120)
	v.SetDefault("llm.max_input_chars", 2000)
	v.SetDefault("llm.prompt_template_path", "")
	v.SetDefault("llm.gemini_api_key", "")

	v.SetDefault("ocr.tesseract_path", "tesseract")
	v.SetDefault("ocr.pdftoppm_path", "pdftoppm")
	v.SetDefault("ocr.language", "eng")
	v.SetDefault("ocr.tessdata_dir", "")
	v.SetDefault("ocr.dpi", 300)

	v.SetDefault("storage.backend", "file")
	v.SetDefault("storage.dir", "data/metadata")
	v.SetDefault("storage.session_id", "default")
	v.SetDefault("storage.quota", "5MB")
	v.SetDefault("storage.max_upload_size", "25MB")

	v.SetDefault("database.url", "")

	v.SetDefault("deck.export_dir", "exports")
	v.SetDefault("deck.format", "json")
}
