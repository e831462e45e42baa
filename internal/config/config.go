package config

import (
	"fmt"
	"time"

	"github.com/docker/go-units"
)

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server" validate:"required"`
	LLM      LLMConfig      `mapstructure:"llm" validate:"required"`
	OCR      OCRConfig      `mapstructure:"ocr" validate:"required"`
	Storage  StorageConfig  `mapstructure:"storage" validate:"required"`
	Database DatabaseConfig `mapstructure:"database"`
	Deck     DeckConfig     `mapstructure:"deck" validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port                   int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel               string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	ShutdownTimeoutSeconds int    `mapstructure:"shutdown_timeout_seconds" validate:"gt=0"`
}

// ShutdownTimeout returns the graceful shutdown budget.
func (c ServerConfig) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutSeconds) * time.Second
}

// LLMConfig contains the settings for the external generation service.
type LLMConfig struct {
	// Provider selects the generation backend.
	Provider string `mapstructure:"provider" validate:"required,oneof=ollama gemini"`
	// BaseURL is the Ollama endpoint, e.g. http://localhost:11434.
	BaseURL string `mapstructure:"base_url" validate:"required,url"`
	// Model is the model name passed to the provider.
	Model          string  `mapstructure:"model" validate:"required"`
	Temperature    float64 `mapstructure:"temperature" validate:"gte=0,lte=2"`
	NumCtx         int     `mapstructure:"num_ctx" validate:"gt=0"`
	NumPredict     int     `mapstructure:"num_predict" validate:"gt=0"`
	TimeoutSeconds int     `mapstructure:"timeout_seconds" validate:"gt=0"`
	// MaxInputChars bounds the text sent in a single request.
	MaxInputChars int `mapstructure:"max_input_chars" validate:"gt=0"`
	// PromptTemplatePath optionally overrides the embedded prompt template.
	PromptTemplatePath string `mapstructure:"prompt_template_path"`
	GeminiAPIKey       string `mapstructure:"gemini_api_key" validate:"required_if=Provider gemini"`
}

// Timeout returns the request timeout for generation calls.
func (c LLMConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// OCRConfig contains the settings for the optical recognition tools.
type OCRConfig struct {
	TesseractPath string `mapstructure:"tesseract_path" validate:"required"`
	PdftoppmPath  string `mapstructure:"pdftoppm_path" validate:"required"`
	Language      string `mapstructure:"language" validate:"required"`
	TessdataDir   string `mapstructure:"tessdata_dir"`
	DPI           int    `mapstructure:"dpi" validate:"gte=72,lte=600"`
}

// StorageConfig contains the settings for durable file metadata.
type StorageConfig struct {
	Backend   string `mapstructure:"backend" validate:"required,oneof=file postgres"`
	Dir       string `mapstructure:"dir" validate:"required_if=Backend file"`
	SessionID string `mapstructure:"session_id" validate:"required"`
	// Quota is the maximum size of one session's metadata snapshot, e.g. "5MB".
	Quota string `mapstructure:"quota" validate:"required"`
	// MaxUploadSize is the largest accepted upload, e.g. "25MB".
	MaxUploadSize string `mapstructure:"max_upload_size" validate:"required"`
}

// QuotaBytes parses Quota as a human-readable size.
func (c StorageConfig) QuotaBytes() (int64, error) {
	return parseSize("storage.quota", c.Quota)
}

// MaxUploadBytes parses MaxUploadSize as a human-readable size.
func (c StorageConfig) MaxUploadBytes() (int64, error) {
	return parseSize("storage.max_upload_size", c.MaxUploadSize)
}

// DatabaseConfig contains all database-related configuration settings.
// It is only required when the postgres storage backend is selected.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"omitempty,url"`
}

// DeckConfig contains the settings for deck export.
type DeckConfig struct {
	ExportDir string `mapstructure:"export_dir" validate:"required"`
	Format    string `mapstructure:"format" validate:"required,oneof=json xlsx"`
}

func parseSize(key, value string) (int64, error) {
	n, err := units.FromHumanSize(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("invalid %s %q: must be positive", key, value)
	}
	return n, nil
}
