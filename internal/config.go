package internal

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Storage drivers
const (
	StorageSQLite = "sqlite"
	StorageFile   = "file"
	StorageMemory = "memory"
)

// DefaultEndpoint is the chat proxy used when none is configured
const DefaultEndpoint = "https://xerodayai.netlify.app/.netlify/functions/proxy"

// DefaultModel is the model assigned to new sessions when none is configured
const DefaultModel = "openai/gpt-oss-20b"

// Config is the operator configuration loaded from config.yaml.
// Environment variables XEROCHAT_ENDPOINT and XEROCHAT_MODEL override the file.
type Config struct {
	Endpoint       string        `yaml:"endpoint"`
	DefaultModel   string        `yaml:"default_model"`
	Models         []string      `yaml:"models"`
	DataDir        string        `yaml:"data_dir"`
	Storage        string        `yaml:"storage"`
	RequestTimeout time.Duration `yaml:"request_timeout"` // 0 = no timeout
	Render         RenderConfig  `yaml:"render"`
}

// RenderConfig selects the rendering capabilities
type RenderConfig struct {
	Markdown       string `yaml:"markdown"`  // goldmark | builtin
	Sanitizer      string `yaml:"sanitizer"` // bluemonday | builtin
	Math           bool   `yaml:"math"`
	Highlight      bool   `yaml:"highlight"`
	HighlightStyle string `yaml:"highlight_style"`
}

// DefaultConfig returns the configuration used when no file exists
func DefaultConfig() *Config {
	return &Config{
		Endpoint:     DefaultEndpoint,
		DefaultModel: DefaultModel,
		Models: []string{
			"openai/gpt-oss-20b",
			"openai/gpt-oss-120b",
			"llama-3.3-70b-versatile",
			"qwen/qwen3-32b",
			"openrouter/deepseek/deepseek-r1:free",
		},
		Storage: StorageSQLite,
		Render: RenderConfig{
			Markdown:       "goldmark",
			Sanitizer:      "bluemonday",
			Math:           true,
			Highlight:      true,
			HighlightStyle: "github",
		},
	}
}

// LoadConfig reads path over the defaults. A missing file is not an error;
// a malformed one is.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
			LogDebug("No config file at %s, using defaults", path)
		case err != nil:
			return nil, &StorageError{Path: path, Op: "read", Err: err}
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, &ParseError{Source: "config", Key: path, Err: err}
			}
		}
	}

	if v := os.Getenv("XEROCHAT_ENDPOINT"); v != "" {
		cfg.Endpoint = v
	}
	if v := os.Getenv("XEROCHAT_MODEL"); v != "" {
		cfg.DefaultModel = v
	}

	if err := cfg.Validate(); err != nil {
		return nil, &ParseError{Source: "config", Key: path, Err: err}
	}
	return cfg, nil
}

// Validate checks enumerated fields and fills blanks with defaults
func (c *Config) Validate() error {
	def := DefaultConfig()
	if strings.TrimSpace(c.Endpoint) == "" {
		c.Endpoint = def.Endpoint
	}
	if strings.TrimSpace(c.DefaultModel) == "" {
		c.DefaultModel = def.DefaultModel
	}
	switch c.Storage {
	case "":
		c.Storage = StorageSQLite
	case StorageSQLite, StorageFile, StorageMemory:
	default:
		return fmt.Errorf("unknown storage %q (want sqlite, file, or memory)", c.Storage)
	}
	switch c.Render.Markdown {
	case "":
		c.Render.Markdown = def.Render.Markdown
	case "goldmark", "builtin":
	default:
		return fmt.Errorf("unknown markdown engine %q (want goldmark or builtin)", c.Render.Markdown)
	}
	switch c.Render.Sanitizer {
	case "":
		c.Render.Sanitizer = def.Render.Sanitizer
	case "bluemonday", "builtin":
	default:
		return fmt.Errorf("unknown sanitizer %q (want bluemonday or builtin)", c.Render.Sanitizer)
	}
	if c.RequestTimeout < 0 {
		return fmt.Errorf("request_timeout must not be negative")
	}
	return nil
}

// OpenKV opens the configured key-value store under dataDir
func (c *Config) OpenKV(paths StoragePaths) (KVStore, error) {
	switch c.Storage {
	case StorageFile:
		return NewFileKV(paths.FileStoreDir()), nil
	case StorageMemory:
		return NewMemoryKV(), nil
	default:
		return OpenSQLiteKV(paths.DatabasePath())
	}
}
