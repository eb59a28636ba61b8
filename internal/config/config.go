package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"geolabel/internal/domain"
)

// ColumnsConfig names the coordinate and token columns of the input.
type ColumnsConfig struct {
	X     string `yaml:"x"`
	Y     string `yaml:"y"`
	Token string `yaml:"token"`
}

// InputConfig selects and configures the point source.
type InputConfig struct {
	Type    string        `yaml:"type"`
	Path    string        `yaml:"path"`
	Table   string        `yaml:"table,omitempty"`
	Columns ColumnsConfig `yaml:"columns"`
}

// ClusteringConfig holds the adaptive eps search parameters.
type ClusteringConfig struct {
	TargetClusters int     `yaml:"target_clusters"`
	MinSamples     int     `yaml:"min_samples"`
	EpsMin         float64 `yaml:"eps_min"`
	EpsMax         float64 `yaml:"eps_max"`
}

// OpenAILabelerConfig holds connection details for an OpenAI-compatible chat endpoint.
type OpenAILabelerConfig struct {
	BaseURL   string `yaml:"base_url"`
	APIKeyEnv string `yaml:"api_key_env"`
	Model     string `yaml:"model"`
}

// LabelerConfig selects the text generator and tunes the labeling pool.
type LabelerConfig struct {
	Type              string   `yaml:"type"`
	TokenSample       int      `yaml:"token_sample"`
	MaxOutputTokens   int      `yaml:"max_output_tokens"`
	Temperature       *float64 `yaml:"temperature,omitempty"`
	Workers           int      `yaml:"workers"`
	RequestsPerSecond float64  `yaml:"requests_per_second"`
	TimeoutSecs       int      `yaml:"timeout_secs"`
	MaxRetries        int      `yaml:"max_retries"`

	OpenAI *OpenAILabelerConfig `yaml:"openai,omitempty"`
}

// S3Config locates the output object. Credentials are read from the named env vars.
type S3Config struct {
	Bucket       string `yaml:"bucket"`
	Key          string `yaml:"key"`
	Region       string `yaml:"region"`
	Endpoint     string `yaml:"endpoint,omitempty"`
	AccessKeyEnv string `yaml:"access_key_env"`
	SecretKeyEnv string `yaml:"secret_key_env"`
}

// OutputConfig selects and configures the GeoJSON sink.
type OutputConfig struct {
	Type string    `yaml:"type"`
	Path string    `yaml:"path"`
	S3   *S3Config `yaml:"s3,omitempty"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Input      InputConfig      `yaml:"input"`
	Clustering ClusteringConfig `yaml:"clustering"`
	Labeler    LabelerConfig    `yaml:"labeler"`
	Output     OutputConfig     `yaml:"output"`
}

// Load reads a config from a specified path. A missing file is a config error:
// only LoadDefault falls back to defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: config file %s does not exist", domain.ErrConfig, path)
		}
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", domain.ErrConfig, path, err)
	}
	applyConfigDefaults(&cfg)
	return &cfg, nil
}

// LoadDefault tries ./geolabel.yaml first, then ~/.config/geolabel/config.yaml.
// If neither exists, it writes defaults to ~/.config/geolabel/config.yaml and returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "geolabel.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := defaultConfig()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	return cfg, userPath, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Validate reports every invalid setting in a single config error.
func (c *AppConfig) Validate() error {
	var problems []string
	check := func(ok bool, format string, args ...any) {
		if !ok {
			problems = append(problems, fmt.Sprintf(format, args...))
		}
	}

	switch c.Input.Type {
	case "csv", "parquet", "sqlite":
	default:
		check(false, "input.type %q is not one of csv, parquet, sqlite", c.Input.Type)
	}
	check(c.Input.Type != "sqlite" || c.Input.Table != "", "input.table is required for sqlite")
	check(c.Input.Columns.X != "" && c.Input.Columns.Y != "", "input.columns.x and input.columns.y are required")

	cl := c.Clustering
	check(cl.TargetClusters >= 1, "clustering.target_clusters must be at least 1")
	check(cl.MinSamples >= 1, "clustering.min_samples must be at least 1")
	check(cl.EpsMin > 0 && cl.EpsMin < cl.EpsMax, "clustering eps range must satisfy 0 < eps_min < eps_max")

	lb := c.Labeler
	switch lb.Type {
	case "openai":
		check(lb.OpenAI != nil && lb.OpenAI.Model != "", "labeler.openai.model is required")
	case "frequency":
	default:
		check(false, "labeler.type %q is not one of openai, frequency", lb.Type)
	}
	check(lb.TokenSample >= 1, "labeler.token_sample must be at least 1")
	check(lb.MaxOutputTokens >= 1, "labeler.max_output_tokens must be at least 1")
	check(lb.Temperature != nil && *lb.Temperature >= 0 && *lb.Temperature <= 2, "labeler.temperature must be within [0, 2]")
	check(lb.Workers >= 1, "labeler.workers must be at least 1")
	check(lb.RequestsPerSecond >= 0, "labeler.requests_per_second must not be negative")
	check(lb.TimeoutSecs >= 1, "labeler.timeout_secs must be at least 1")
	check(lb.MaxRetries >= 0, "labeler.max_retries must not be negative")

	switch c.Output.Type {
	case "file":
		check(c.Output.Path != "", "output.path is required")
	case "s3":
		check(c.Output.S3 != nil && c.Output.S3.Bucket != "" && c.Output.S3.Key != "", "output.s3.bucket and output.s3.key are required")
	default:
		check(false, "output.type %q is not one of file, s3", c.Output.Type)
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", domain.ErrConfig, strings.Join(problems, "; "))
	}
	return nil
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "geolabel", "config.yaml"), nil
}

func defaultConfig() *AppConfig {
	cfg := &AppConfig{
		Input: InputConfig{Type: "csv", Path: "points.csv"},
		Labeler: LabelerConfig{
			Type:   "openai",
			OpenAI: &OpenAILabelerConfig{},
		},
		Output: OutputConfig{Type: "file", Path: "label.geojson"},
	}
	applyConfigDefaults(cfg)
	return cfg
}

func applyConfigDefaults(cfg *AppConfig) {
	if cfg.Input.Type == "" {
		cfg.Input.Type = "csv"
	}
	if cfg.Input.Columns.X == "" {
		cfg.Input.Columns.X = "x"
	}
	if cfg.Input.Columns.Y == "" {
		cfg.Input.Columns.Y = "y"
	}
	if cfg.Input.Columns.Token == "" {
		cfg.Input.Columns.Token = "token"
	}

	if cfg.Clustering.TargetClusters == 0 {
		cfg.Clustering.TargetClusters = 40
	}
	if cfg.Clustering.MinSamples == 0 {
		cfg.Clustering.MinSamples = 5
	}
	if cfg.Clustering.EpsMin == 0 {
		cfg.Clustering.EpsMin = 0.01
	}
	if cfg.Clustering.EpsMax == 0 {
		cfg.Clustering.EpsMax = 2.0
	}

	lb := &cfg.Labeler
	if lb.Type == "" {
		lb.Type = "openai"
	}
	if lb.TokenSample == 0 {
		lb.TokenSample = 50
	}
	if lb.MaxOutputTokens == 0 {
		lb.MaxOutputTokens = 20
	}
	if lb.Temperature == nil {
		t := 0.3
		lb.Temperature = &t
	}
	if lb.Workers == 0 {
		lb.Workers = 4
	}
	if lb.TimeoutSecs == 0 {
		lb.TimeoutSecs = 30
	}
	if lb.Type == "openai" {
		if lb.OpenAI == nil {
			lb.OpenAI = &OpenAILabelerConfig{}
		}
		if lb.OpenAI.BaseURL == "" {
			lb.OpenAI.BaseURL = "https://api.openai.com/v1"
		}
		if lb.OpenAI.APIKeyEnv == "" {
			lb.OpenAI.APIKeyEnv = "OPENAI_API_KEY"
		}
		if lb.OpenAI.Model == "" {
			lb.OpenAI.Model = "gpt-4o-mini"
		}
	}

	if cfg.Output.Type == "" {
		cfg.Output.Type = "file"
	}
	if cfg.Output.Type == "file" && cfg.Output.Path == "" {
		cfg.Output.Path = "label.geojson"
	}
	if cfg.Output.Type == "s3" && cfg.Output.S3 != nil {
		if cfg.Output.S3.Region == "" {
			cfg.Output.S3.Region = "us-east-1"
		}
		if cfg.Output.S3.AccessKeyEnv == "" {
			cfg.Output.S3.AccessKeyEnv = "AWS_ACCESS_KEY_ID"
		}
		if cfg.Output.S3.SecretKeyEnv == "" {
			cfg.Output.S3.SecretKeyEnv = "AWS_SECRET_ACCESS_KEY"
		}
	}
}
