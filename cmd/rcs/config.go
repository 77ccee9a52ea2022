package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/franz/retro-scraper/internal/batch"
	"github.com/franz/retro-scraper/internal/media"
	"github.com/franz/retro-scraper/internal/screenscraper"
	"github.com/franz/retro-scraper/internal/store"
	"github.com/franz/retro-scraper/internal/util"
	"github.com/spf13/viper"
)

// Settings is the full configuration surface
type Settings struct {
	DB        string `mapstructure:"db"`
	Artifacts string `mapstructure:"artifacts"`
	Verbose   bool   `mapstructure:"verbose"`
	Quiet     bool   `mapstructure:"quiet"`
	LogLevel  string `mapstructure:"log_level"`
	NoColor   bool   `mapstructure:"no_color"`

	// DBNetworkOptimized forces the network pragmas; network mounts are detected anyway
	DBNetworkOptimized bool `mapstructure:"db_network_optimized"`

	// MetricsFile receives Prometheus metrics at the end of a batch run
	MetricsFile string `mapstructure:"metrics_file"`

	Screenscraper ScreenscraperSettings `mapstructure:"screenscraper"`
	Import        ImportSettings        `mapstructure:"import"`
	Media         MediaSettings         `mapstructure:"media"`
	Deploy        DeploySettings        `mapstructure:"deploy"`
}

// ScreenscraperSettings configures the upstream client
type ScreenscraperSettings struct {
	BaseURL         string        `mapstructure:"base_url"`
	DevID           string        `mapstructure:"devid"`
	DevPassword     string        `mapstructure:"devpassword"`
	UserID          string        `mapstructure:"ssid"`
	UserPassword    string        `mapstructure:"sspassword"`
	SoftName        string        `mapstructure:"softname"`
	Timeout         time.Duration `mapstructure:"timeout"`
	MinInterval     time.Duration `mapstructure:"min_interval"`
	GameListURL     string        `mapstructure:"gamelist_url"`
	BreakerFailures uint32        `mapstructure:"breaker_failures"`
}

// ImportSettings configures batches and regional preferences
type ImportSettings struct {
	BatchSize       int                 `mapstructure:"batch_size"`
	BatchPause      time.Duration       `mapstructure:"batch_pause"`
	MaxRetries      int                 `mapstructure:"max_retries"`
	RetryDelay      time.Duration       `mapstructure:"retry_delay"`
	UpdateExisting  bool                `mapstructure:"update_existing"`
	Strict          bool                `mapstructure:"strict"`
	PreferredRegion string              `mapstructure:"preferred_region"`
	RegionPriority  map[string][]string `mapstructure:"region_priority"`
}

// MediaSettings configures the media policy. Unset lists keep the defaults.
type MediaSettings struct {
	ExcludeTypes   []string `mapstructure:"exclude_types"`
	ExcludeRegions []string `mapstructure:"exclude_regions"`
	MaxSize        string   `mapstructure:"max_size"`
}

// DeploySettings is the prioritized deployment list
type DeploySettings struct {
	Systems []DeploySystem `mapstructure:"systems"`
}

// DeploySystem is one console of the deployment list
type DeploySystem struct {
	ID       int64   `mapstructure:"id"`
	Priority int     `mapstructure:"priority"`
	Critical bool    `mapstructure:"critical"`
	Games    []int64 `mapstructure:"games"`     // explicit game ids; empty means the full game list
	MaxGames int     `mapstructure:"max_games"` // 0 means no limit
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("db", "rcs.db")
	v.SetDefault("db_network_optimized", false)
	v.SetDefault("artifacts", "artifacts")
	v.SetDefault("log_level", "info")

	v.SetDefault("screenscraper.base_url", screenscraper.BaseURL)
	v.SetDefault("screenscraper.devid", "")
	v.SetDefault("screenscraper.devpassword", "")
	v.SetDefault("screenscraper.ssid", "")
	v.SetDefault("screenscraper.sspassword", "")
	v.SetDefault("screenscraper.softname", screenscraper.DefaultSoftName)
	v.SetDefault("screenscraper.timeout", screenscraper.DefaultTimeout)
	v.SetDefault("screenscraper.min_interval", screenscraper.DefaultMinInterval)
	v.SetDefault("screenscraper.gamelist_url", screenscraper.DefaultGameListURL)
	v.SetDefault("screenscraper.breaker_failures", 10)

	v.SetDefault("import.batch_size", batch.DefaultBatchSize)
	v.SetDefault("import.batch_pause", batch.DefaultBatchPause)
	v.SetDefault("import.max_retries", batch.DefaultMaxRetries)
	v.SetDefault("import.retry_delay", batch.DefaultRetryDelay)
	v.SetDefault("import.update_existing", false)
	v.SetDefault("import.strict", false)
	v.SetDefault("import.preferred_region", "wor")

	v.SetDefault("media.max_size", media.DefaultMaxSize)
}

// loadSettings decodes and validates the configuration
func loadSettings(v *viper.Viper, requireCredentials bool) (*Settings, error) {
	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("%w: %v", util.ErrInvalidConfig, err)
	}
	if err := s.Validate(requireCredentials); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate fails fast on configuration the pipeline cannot run with
func (s *Settings) Validate(requireCredentials bool) error {
	if requireCredentials && (s.Screenscraper.DevID == "" || s.Screenscraper.DevPassword == "") {
		return fmt.Errorf("%w: set screenscraper.devid and screenscraper.devpassword (or RCS_SCREENSCRAPER_DEVID / RCS_SCREENSCRAPER_DEVPASSWORD)",
			util.ErrMissingCredentials)
	}
	if (s.Screenscraper.UserID == "") != (s.Screenscraper.UserPassword == "") {
		return fmt.Errorf("%w: screenscraper.ssid and screenscraper.sspassword must be set together", util.ErrInvalidConfig)
	}

	if _, err := util.ParseLogLevel(s.LogLevel); err != nil {
		return err
	}
	if s.DB == "" {
		return fmt.Errorf("%w: database path is empty", util.ErrInvalidConfig)
	}
	if s.Screenscraper.MinInterval < 0 || s.Screenscraper.Timeout < 0 {
		return fmt.Errorf("%w: screenscraper durations must not be negative", util.ErrInvalidConfig)
	}
	if s.Import.BatchSize <= 0 {
		return fmt.Errorf("%w: import.batch_size must be positive, got %d", util.ErrInvalidConfig, s.Import.BatchSize)
	}
	if s.Import.MaxRetries < 0 {
		return fmt.Errorf("%w: import.max_retries must not be negative, got %d", util.ErrInvalidConfig, s.Import.MaxRetries)
	}
	if s.Import.BatchPause < 0 || s.Import.RetryDelay < 0 {
		return fmt.Errorf("%w: import durations must not be negative", util.ErrInvalidConfig)
	}
	if s.Media.MaxSize != "" {
		if _, err := util.ParseBytes(s.Media.MaxSize); err != nil {
			return fmt.Errorf("%w: media.max_size: %v", util.ErrInvalidConfig, err)
		}
	}

	seen := make(map[int64]bool)
	for _, sys := range s.Deploy.Systems {
		if sys.ID <= 0 {
			return fmt.Errorf("%w: deploy system id must be positive, got %d", util.ErrInvalidConfig, sys.ID)
		}
		if seen[sys.ID] {
			return fmt.Errorf("%w: deploy system %d listed twice", util.ErrInvalidConfig, sys.ID)
		}
		seen[sys.ID] = true
		if sys.MaxGames < 0 {
			return fmt.Errorf("%w: deploy system %d: max_games must not be negative", util.ErrInvalidConfig, sys.ID)
		}
	}

	s.Import.PreferredRegion = strings.ToLower(strings.TrimSpace(s.Import.PreferredRegion))
	return nil
}

// storeOptions enables the network pragmas when forced or when the database sits on a network mount
func (s *Settings) storeOptions() *store.OpenOptions {
	if s.DBNetworkOptimized {
		return &store.OpenOptions{NetworkOptimized: true}
	}
	if info, err := util.DetectMount(s.DB); err == nil && info != nil && info.IsNetwork() {
		util.InfoLog("Database on network storage (%s) - applying optimizations", info.FSType)
		return &store.OpenOptions{NetworkOptimized: true}
	}
	return &store.OpenOptions{}
}

func (s *Settings) clientConfig() *screenscraper.Config {
	return &screenscraper.Config{
		BaseURL:         s.Screenscraper.BaseURL,
		DevID:           s.Screenscraper.DevID,
		DevPassword:     s.Screenscraper.DevPassword,
		UserID:          s.Screenscraper.UserID,
		UserPassword:    s.Screenscraper.UserPassword,
		SoftName:        s.Screenscraper.SoftName,
		Timeout:         s.Screenscraper.Timeout,
		MinInterval:     s.Screenscraper.MinInterval,
		GameListURL:     s.Screenscraper.GameListURL,
		BreakerFailures: s.Screenscraper.BreakerFailures,
	}
}

func (s *Settings) batchConfig() *batch.Config {
	return &batch.Config{
		BatchSize:    s.Import.BatchSize,
		BatchPause:   s.Import.BatchPause,
		MaxRetries:   s.Import.MaxRetries,
		RetryDelay:   s.Import.RetryDelay,
		StrictFail:   s.Import.Strict,
		ShowProgress: !s.Quiet,
	}
}

// fetchRetryConfig applies the item retry policy to bulk list downloads
func (s *Settings) fetchRetryConfig() *util.RetryConfig {
	return util.FixedRetryConfig(s.Import.MaxRetries, s.Import.RetryDelay)
}

func (s *Settings) mediaPolicy() (media.Policy, error) {
	return media.NewPolicy(s.Media.ExcludeTypes, s.Media.ExcludeRegions, s.Media.MaxSize)
}
