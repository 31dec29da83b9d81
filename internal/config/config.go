package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	ProviderVertex = "vertex"
	ProviderOpenAI = "openai"

	defaultScratchDirName = "codetransform"
)

// DefaultArchivePatterns lists the source and configuration file globs
// flattened out of repository archives.
var DefaultArchivePatterns = []string{
	"*.cs*", "*.go", "*.py", "*.js", "*.jsx", "*.ts", "*.tsx",
	"*.java", "*.kt", "*.rb", "*.rs", "*.c", "*.h", "*.cpp", "*.hpp",
	"*.php", "*.swift", "*.scala", "*.sql", "*.sh",
	"*.json", "*.yaml", "*.yml", "*.toml", "*.xml", "*.config", "*.props",
}

type Config struct {
	ProjectID  string `env:"PROJECT_ID"`
	LocationID string `env:"LOCATION_ID" envDefault:"us-central1"`
	ModelID    string `env:"MODEL_ID"    envDefault:"gemini-1.5-pro-002"`

	ModelProvider string `env:"MODEL_PROVIDER" envDefault:"vertex"`
	OpenAIAPIKey  string `env:"OPENAI_API_KEY"`
	OpenAIModel   string `env:"OPENAI_MODEL"   envDefault:"gpt-5-mini"`

	ArchiveUserAgent      string   `env:"ARCHIVE_USER_AGENT"      envDefault:"codetransform/1.0"`
	ArchivePatterns       []string `env:"ARCHIVE_PATTERNS"        envSeparator:","`
	MaxArchiveBytes       int64    `env:"MAX_ARCHIVE_BYTES"       envDefault:"104857600"`
	MaxConcurrentArchives int64    `env:"MAX_CONCURRENT_ARCHIVES" envDefault:"4"`

	FileFetchTimeout    time.Duration `env:"FILE_FETCH_TIMEOUT"    envDefault:"30s"`
	ArchiveFetchTimeout time.Duration `env:"ARCHIVE_FETCH_TIMEOUT" envDefault:"2m"`
	ModelTimeout        time.Duration `env:"MODEL_TIMEOUT"         envDefault:"5m"`

	HTTPAddr           string   `env:"HTTP_ADDR"            envDefault:":8080"`
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`

	ScratchDir       string        `env:"SCRATCH_DIR"`
	ScratchMaxAge    time.Duration `env:"SCRATCH_MAX_AGE"    envDefault:"1h"`
	ScratchSweepSpec string        `env:"SCRATCH_SWEEP_SPEC" envDefault:"*/15 * * * *"`
}

// Load reads the configuration from the process environment.
func Load() (Config, error) {
	return load(env.Options{})
}

func load(opts env.Options) (Config, error) {
	cfg, err := env.ParseAsWithOptions[Config](opts)
	if err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	cfg.normalize()

	if err = cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c *Config) normalize() {
	c.ProjectID = strings.TrimSpace(c.ProjectID)
	c.ModelProvider = strings.ToLower(strings.TrimSpace(c.ModelProvider))
	c.OpenAIAPIKey = strings.TrimSpace(c.OpenAIAPIKey)

	patterns := make([]string, 0, len(c.ArchivePatterns))
	for _, p := range c.ArchivePatterns {
		if p = strings.TrimSpace(p); p != "" {
			patterns = append(patterns, p)
		}
	}
	if len(patterns) == 0 {
		patterns = append(patterns, DefaultArchivePatterns...)
	}
	c.ArchivePatterns = patterns

	if strings.TrimSpace(c.ScratchDir) == "" {
		c.ScratchDir = filepath.Join(os.TempDir(), defaultScratchDirName)
	}
}

// Validate reports configuration that makes startup impossible.
func (c *Config) Validate() error {
	var errs []error

	switch c.ModelProvider {
	case ProviderVertex:
		if c.ProjectID == "" {
			errs = append(errs, errors.New("missing configuration variable: PROJECT_ID"))
		}
		if strings.TrimSpace(c.ModelID) == "" {
			errs = append(errs, errors.New("missing configuration variable: MODEL_ID"))
		}
	case ProviderOpenAI:
		if c.OpenAIAPIKey == "" {
			errs = append(errs, errors.New("missing configuration variable: OPENAI_API_KEY"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown model provider %q", c.ModelProvider))
	}

	if strings.TrimSpace(c.ArchiveUserAgent) == "" {
		errs = append(errs, errors.New("missing configuration variable: ARCHIVE_USER_AGENT"))
	}
	if c.MaxArchiveBytes <= 0 {
		errs = append(errs, errors.New("MAX_ARCHIVE_BYTES must be positive"))
	}
	if c.MaxConcurrentArchives <= 0 {
		errs = append(errs, errors.New("MAX_CONCURRENT_ARCHIVES must be positive"))
	}

	return errors.Join(errs...)
}

// ModelResourceName is the fully-qualified Vertex AI publisher model name.
func (c *Config) ModelResourceName() string {
	return fmt.Sprintf(
		"projects/%s/locations/%s/publishers/google/models/%s",
		c.ProjectID,
		c.LocationID,
		c.ModelID,
	)
}
