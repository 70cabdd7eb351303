package profile

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// DefaultContextLimit is the maximum number of context characters injected
// into a single prompt. The stored context itself is never truncated; the
// cap applies at prompt-assembly time only.
const DefaultContextLimit = 8000

// Profile is the configuration to start the main server.
type Profile struct {
	// Mode can be "prod" or "dev"
	Mode string
	// Addr is the binding address for the server
	Addr string
	// Port is the binding port for the server
	Port int
	// Data is the data directory
	Data string
	// Driver is the database driver (sqlite or postgres)
	Driver string
	// DSN points to where quill stores its own data
	DSN string
	// Version is the current version of the server
	Version string

	// LLM configuration
	LLMAPIKey  string // QUILL_LLM_API_KEY (required)
	LLMBaseURL string // QUILL_LLM_BASE_URL (default: https://api.openai.com/v1)
	LLMModel   string // QUILL_LLM_MODEL (default: gpt-4o-mini)

	// Streaming toggles chunk-by-chunk delivery of assistant replies.
	Streaming bool
	// ContextLimit caps the context section of an assembled prompt.
	ContextLimit int
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// getEnvOrDefault returns the environment variable value or the default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// FromEnv loads LLM configuration from QUILL_* environment variables.
// Values already set (e.g. from flags) are not overridden. Server and
// assembly settings flow through the viper flag bindings instead.
func (p *Profile) FromEnv() {
	if p.LLMAPIKey == "" {
		p.LLMAPIKey = os.Getenv("QUILL_LLM_API_KEY")
	}
	if p.LLMBaseURL == "" {
		p.LLMBaseURL = getEnvOrDefault("QUILL_LLM_BASE_URL", "https://api.openai.com/v1")
	}
	if p.LLMModel == "" {
		p.LLMModel = getEnvOrDefault("QUILL_LLM_MODEL", "gpt-4o-mini")
	}
}

func checkDataDir(dataDir string) (string, error) {
	// Convert to absolute path if relative path is supplied.
	if !filepath.IsAbs(dataDir) {
		relativeDir := filepath.Join(filepath.Dir(os.Args[0]), dataDir)
		absDir, err := filepath.Abs(relativeDir)
		if err != nil {
			return "", err
		}
		dataDir = absDir
	}

	// Trim trailing \ or / in case user supplies
	dataDir = strings.TrimRight(dataDir, "\\/")
	if _, err := os.Stat(dataDir); err != nil {
		return "", errors.Wrapf(err, "unable to access data folder %s", dataDir)
	}
	return dataDir, nil
}

// Validate normalizes the profile and rejects configurations the server
// cannot start with. A missing LLM API key is fatal: starting without it
// would break every chat turn, so we refuse up front.
func (p *Profile) Validate() error {
	if p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "dev"
	}

	if p.LLMAPIKey == "" {
		return errors.New("LLM API key is not configured; set QUILL_LLM_API_KEY")
	}

	if p.ContextLimit <= 0 {
		p.ContextLimit = DefaultContextLimit
	}

	if p.Driver == "" {
		p.Driver = "sqlite"
	}

	if p.Driver == "sqlite" && p.DSN == "" {
		dataDir, err := checkDataDir(p.Data)
		if err != nil {
			return errors.Wrap(err, "failed to check data directory")
		}
		p.Data = dataDir
		dbFile := fmt.Sprintf("quill_%s.db", p.Mode)
		p.DSN = filepath.Join(dataDir, dbFile)
	}

	return nil
}
