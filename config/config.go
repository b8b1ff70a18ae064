// Package config loads and validates the jobwatch configuration.
//
// Configuration comes from two places: a JSON config file (filtering rules,
// webhook routing, per-source settings) and the environment (webhook URLs,
// DRY_RUN, LOG_LEVEL, paths). A .env file is loaded into the environment
// first when present. Configuration errors are fatal at startup.
package config

import (
	"os"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/ncurl/jobwatch/errors"
)

// LevelGateConfig optionally requires at least one seniority term to match.
type LevelGateConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	Terms   []string `mapstructure:"terms"`
}

// LocationConfig optionally allows or denies postings by location text.
type LocationConfig struct {
	Enabled  bool     `mapstructure:"enabled"`
	Allowed  []string `mapstructure:"allowed"`
	Excluded []string `mapstructure:"excluded"`
}

// FilterConfig is the declarative relevance rule set. Pure data; evaluation
// lives in the filter package.
type FilterConfig struct {
	IncludeKeywords []string `mapstructure:"include_keywords"`
	ExcludeKeywords []string `mapstructure:"exclude_keywords"`
	// MaxExperienceYears is an inclusive ceiling; 0 disables the check.
	MaxExperienceYears int             `mapstructure:"max_experience_years"`
	Location           LocationConfig  `mapstructure:"location"`
	LevelGate          LevelGateConfig `mapstructure:"level_keywords"`
}

// SourceConfig carries per-source settings. Which fields are required
// depends on the source type; fetcher constructors validate their own.
type SourceConfig struct {
	Name                string   `mapstructure:"name"`
	PollIntervalSeconds int      `mapstructure:"poll_interval_seconds"`
	Company             string   `mapstructure:"company"`
	SourceGroup         string   `mapstructure:"source_group"`
	BoardToken          string   `mapstructure:"board_token"`
	Slug                string   `mapstructure:"slug"`
	ClientName          string   `mapstructure:"clientname"`
	Subdomain           string   `mapstructure:"subdomain"`
	CompanyID           string   `mapstructure:"company_id"`
	BaseURL             string   `mapstructure:"base_url"`
	Owner               string   `mapstructure:"owner"`
	Repo                string   `mapstructure:"repo"`
	Branch              string   `mapstructure:"branch"`
	JSONPath            string   `mapstructure:"json_path"`
	Files               []string `mapstructure:"files"`
	FeedURL             string   `mapstructure:"feed_url"`
	URL                 string   `mapstructure:"url"`
	TimeoutSeconds      int      `mapstructure:"timeout_seconds"`
	MaxJobs             int      `mapstructure:"max_jobs"`
	FilterKeywords      []string `mapstructure:"filter_keywords"`
}

// AppConfig is the root configuration.
type AppConfig struct {
	PollIntervalSeconds  int               `mapstructure:"poll_interval_seconds"`
	FetchTimeoutSeconds  int               `mapstructure:"fetch_timeout_seconds"`
	MaxConcurrentFetches int               `mapstructure:"max_concurrent_fetches"`
	Filtering            FilterConfig      `mapstructure:"filtering"`
	Routing              map[string]string `mapstructure:"routing"`
	Sources              map[string][]SourceConfig
}

// Defaults applied when the config file omits a value.
const (
	DefaultPollIntervalSeconds  = 600
	DefaultFetchTimeoutSeconds  = 60
	DefaultMaxConcurrentFetches = 50
)

// Load reads the .env file (if present) and the JSON config file, returning
// a validated AppConfig. Missing config file is a fatal error; missing
// webhook env vars are warned about but tolerated so that other groups keep
// working.
func Load(configPath, envPath string, log *zap.SugaredLogger) (*AppConfig, error) {
	if envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			if err := godotenv.Load(envPath); err != nil {
				return nil, errors.Wrapf(err, "load env file %s", envPath)
			}
		}
	}

	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("json")

	v.SetDefault("poll_interval_seconds", DefaultPollIntervalSeconds)
	v.SetDefault("fetch_timeout_seconds", DefaultFetchTimeoutSeconds)
	v.SetDefault("max_concurrent_fetches", DefaultMaxConcurrentFetches)

	if err := v.ReadInConfig(); err != nil {
		return nil, errors.WithHint(
			errors.Wrapf(err, "read config file %s", configPath),
			"set CONFIG_PATH or create config.json")
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.NewInvalidConfigError("unmarshal %s: %v", configPath, err)
	}

	sources, err := normalizeSources(v.Get("sources"))
	if err != nil {
		return nil, err
	}
	cfg.Sources = sources

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	if log != nil {
		for group, envVar := range cfg.Routing {
			if os.Getenv(envVar) == "" {
				log.Warnw("Webhook env var is not set",
					"env_var", envVar,
					"source_group", group)
			}
		}
	}

	return &cfg, nil
}

// normalizeSources accepts both shapes the config file allows for a source
// type: a single object or a list of objects.
func normalizeSources(raw interface{}) (map[string][]SourceConfig, error) {
	sources := make(map[string][]SourceConfig)
	if raw == nil {
		return sources, nil
	}

	rawMap, ok := raw.(map[string]interface{})
	if !ok {
		return nil, errors.NewInvalidConfigError("sources must be an object, got %T", raw)
	}

	for sourceType, value := range rawMap {
		var entries []interface{}
		switch v := value.(type) {
		case []interface{}:
			entries = v
		case map[string]interface{}:
			entries = []interface{}{v}
		default:
			return nil, errors.NewInvalidConfigError("source %q must be an object or list, got %T", sourceType, value)
		}

		for _, entry := range entries {
			var sc SourceConfig
			if err := mapstructure.Decode(entry, &sc); err != nil {
				return nil, errors.NewInvalidConfigError("source %q: %v", sourceType, err)
			}
			sources[sourceType] = append(sources[sourceType], sc)
		}
	}

	return sources, nil
}

func (c *AppConfig) validate() error {
	if c.PollIntervalSeconds <= 0 {
		return errors.NewInvalidConfigError("poll_interval_seconds must be positive, got %d", c.PollIntervalSeconds)
	}
	if c.FetchTimeoutSeconds <= 0 {
		return errors.NewInvalidConfigError("fetch_timeout_seconds must be positive, got %d", c.FetchTimeoutSeconds)
	}
	if c.MaxConcurrentFetches <= 0 {
		return errors.NewInvalidConfigError("max_concurrent_fetches must be positive, got %d", c.MaxConcurrentFetches)
	}
	for sourceType, entries := range c.Sources {
		for i, sc := range entries {
			if sc.PollIntervalSeconds < 0 {
				return errors.NewInvalidConfigError("source %s[%d]: poll_interval_seconds must not be negative", sourceType, i)
			}
		}
	}
	return nil
}

// WebhookURL resolves the webhook URL for a source group via the routing
// table. Returns ErrNotFound when the group has no routing entry or the
// env var is unset.
func (c *AppConfig) WebhookURL(sourceGroup string) (string, error) {
	envVar, ok := c.Routing[sourceGroup]
	if !ok {
		return "", errors.Wrapf(errors.ErrNotFound, "no routing entry for source group %q", sourceGroup)
	}
	url := os.Getenv(envVar)
	if url == "" {
		return "", errors.Wrapf(errors.ErrNotFound, "webhook env var %s is not set", envVar)
	}
	return url, nil
}

// IsDryRun reports whether DRY_RUN is enabled in the environment.
func IsDryRun() bool {
	switch strings.ToLower(os.Getenv("DRY_RUN")) {
	case "true", "1", "yes":
		return true
	}
	return false
}
