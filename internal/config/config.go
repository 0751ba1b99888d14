package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// Default model identifiers used when the config file leaves them unset.
const (
	DefaultGenerationModel = "ibm/granite-3-8b-instruct"
	DefaultEmbeddingModel  = "ibm/slate-125m-english-rtrvr"
	DefaultBaseURL         = "https://us-south.ml.cloud.ibm.com"
	DefaultIAMURL          = "https://iam.cloud.ibm.com/identity/token"
)

// Config holds the watsonx connection settings and local index paths.
type Config struct {
	APIKey          string `json:"api_key,omitempty"` // Supports ${ENV_VAR} expansion
	ProjectID       string `json:"project_id,omitempty"`
	BaseURL         string `json:"base_url,omitempty"`
	IAMURL          string `json:"iam_url,omitempty"`
	GenerationModel string `json:"generation_model,omitempty"`
	EmbeddingModel  string `json:"embedding_model,omitempty"`
	IndexPath       string `json:"index_path,omitempty"`
	DocsDir         string `json:"docs_dir,omitempty"`
}

// Default returns a default configuration. API credentials come from the
// environment unless a config file overrides them.
func Default() *Config {
	return &Config{
		APIKey:          "${WATSONX_API_KEY}",
		ProjectID:       "${WATSONX_PROJECT_ID}",
		BaseURL:         DefaultBaseURL,
		IAMURL:          DefaultIAMURL,
		GenerationModel: DefaultGenerationModel,
		EmbeddingModel:  DefaultEmbeddingModel,
		IndexPath:       "rag_index.json",
		DocsDir:         "docs",
	}
}

// Load reads configuration from a JSON file, falling back to defaults for
// any unset field. A missing file is not an error: the defaults (driven by
// environment variables) apply.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.expandEnvVars()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	cfg.applyDefaults()
	cfg.expandEnvVars()
	return cfg, nil
}

// Validate checks that required credentials are present. Called before any
// remote request is attempted.
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("watsonx API key is required (set WATSONX_API_KEY or api_key in config)")
	}
	if c.ProjectID == "" {
		return fmt.Errorf("watsonx project ID is required (set WATSONX_PROJECT_ID or project_id in config)")
	}
	return nil
}

func (c *Config) applyDefaults() {
	d := Default()
	if c.APIKey == "" {
		c.APIKey = d.APIKey
	}
	if c.ProjectID == "" {
		c.ProjectID = d.ProjectID
	}
	if c.BaseURL == "" {
		c.BaseURL = d.BaseURL
	}
	if c.IAMURL == "" {
		c.IAMURL = d.IAMURL
	}
	if c.GenerationModel == "" {
		c.GenerationModel = d.GenerationModel
	}
	if c.EmbeddingModel == "" {
		c.EmbeddingModel = d.EmbeddingModel
	}
	if c.IndexPath == "" {
		c.IndexPath = d.IndexPath
	}
	if c.DocsDir == "" {
		c.DocsDir = d.DocsDir
	}
}

// expandEnvVars expands ${ENV_VAR} placeholders in configuration values.
// Unset variables expand to the empty string, which Validate then catches.
func (c *Config) expandEnvVars() {
	c.APIKey = os.ExpandEnv(c.APIKey)
	c.ProjectID = os.ExpandEnv(c.ProjectID)
	c.BaseURL = os.ExpandEnv(c.BaseURL)
	c.IAMURL = os.ExpandEnv(c.IAMURL)
	c.IndexPath = os.ExpandEnv(c.IndexPath)
	c.DocsDir = os.ExpandEnv(c.DocsDir)
}
