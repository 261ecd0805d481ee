// Package config loads service configuration from a JSON file and WHATDATPLANE_*
// environment variables, and installs the global logger.
package config

import (
	"os"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/unklstewy/whatdatplane/pkg/photos"
)

// EnvPrefix prefixes every environment override, e.g. WHATDATPLANE_AIRLABS_API_KEY.
const EnvPrefix = "WHATDATPLANE"

// Live provider names accepted by live.provider.
const (
	ProviderOpenSky       = "opensky"
	ProviderAirLabs       = "airlabs"
	ProviderAviationstack = "aviationstack"
)

// Config represents the complete application configuration.
type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	CORS          CORSConfig          `mapstructure:"cors"`
	Log           LogConfig           `mapstructure:"log"`
	Live          LiveConfig          `mapstructure:"live"`
	OpenSky       OpenSkyConfig       `mapstructure:"opensky"`
	AirLabs       KeyedProviderConfig `mapstructure:"airlabs"`
	Aviationstack AviationstackConfig `mapstructure:"aviationstack"`
	Nominatim     NominatimConfig     `mapstructure:"nominatim"`
	Planespotters EndpointConfig      `mapstructure:"planespotters"`
	Photos        PhotosConfig        `mapstructure:"photos"`
	Cache         CacheConfig         `mapstructure:"cache"`
	RateLimit     RateLimitConfig     `mapstructure:"ratelimit"`
	Upstream      UpstreamConfig      `mapstructure:"upstream"`
	Breaker       BreakerConfig       `mapstructure:"breaker"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	// Host is the server bind address (default: "0.0.0.0")
	Host string `mapstructure:"host"`

	// Port is the HTTP server port (default: 8080)
	Port int `mapstructure:"port"`

	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// CORSConfig lists the origins allowed to call the API.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	// Level is a zap level name: debug, info, warn, error
	Level string `mapstructure:"level"`

	// Format is "json" for production output or "console" for development
	Format string `mapstructure:"format"`
}

// LiveConfig selects the live flight source.
type LiveConfig struct {
	// Provider is one of opensky, airlabs, aviationstack
	Provider string `mapstructure:"provider"`

	// PrefilterRadiiKm are the bounding-box search radii tried before a global
	// query. Empty disables the pre-filter.
	PrefilterRadiiKm []float64 `mapstructure:"prefilter_radii_km"`
}

// EndpointConfig is a provider base URL and its outbound request budget.
type EndpointConfig struct {
	BaseURL           string  `mapstructure:"base_url"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
}

// OpenSkyConfig contains OpenSky Network settings. Credentials are optional.
type OpenSkyConfig struct {
	EndpointConfig `mapstructure:",squash"`

	Username string `mapstructure:"username"`

	// Password should be loaded from WHATDATPLANE_OPENSKY_PASSWORD
	Password string `mapstructure:"password"`
}

// KeyedProviderConfig is a provider that requires an API key.
type KeyedProviderConfig struct {
	EndpointConfig `mapstructure:",squash"`

	// APIKey should be loaded from the environment, never committed
	APIKey string `mapstructure:"api_key"`
}

// AviationstackConfig adds paging to the keyed provider settings. The feed has no
// geographic filter, so MaxPages caps how many 100-flight pages one search reads.
type AviationstackConfig struct {
	KeyedProviderConfig `mapstructure:",squash"`

	MaxPages int `mapstructure:"max_pages"`
}

// NominatimConfig contains geocoder settings. The Nominatim usage policy requires an
// identifying User-Agent and at most one request per second.
type NominatimConfig struct {
	EndpointConfig `mapstructure:",squash"`

	UserAgent string `mapstructure:"user_agent"`
}

// PhotosConfig holds the static type-generic photo catalog.
type PhotosConfig struct {
	// TypeCatalog maps an ICAO type designator to a representative photo
	TypeCatalog map[string]photos.CatalogEntry `mapstructure:"type_catalog"`
}

// CacheConfig contains cache lifetimes and the sweep cadence.
type CacheConfig struct {
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
	TTL           TTLConfig     `mapstructure:"ttl"`
}

// TTLConfig is the lifetime of each cached data kind.
type TTLConfig struct {
	Nearest       time.Duration `mapstructure:"nearest"`
	Geocode       time.Duration `mapstructure:"geocode"`
	Photo         time.Duration `mapstructure:"photo"`
	PhotoNegative time.Duration `mapstructure:"photo_negative"`
	Track         time.Duration `mapstructure:"track"`
	Registration  time.Duration `mapstructure:"registration"`
}

// RateLimitConfig contains the per-client request budgets per endpoint group.
type RateLimitConfig struct {
	Window  time.Duration `mapstructure:"window"`
	Flight  int           `mapstructure:"flight"`
	Geocode int           `mapstructure:"geocode"`
	Track   int           `mapstructure:"track"`
	Photo   int           `mapstructure:"photo"`
}

// UpstreamConfig applies to every outbound provider call.
type UpstreamConfig struct {
	// Timeout bounds each call; zero leaves only the transport defaults
	Timeout time.Duration `mapstructure:"timeout"`
}

// BreakerConfig configures the per-provider circuit breakers.
type BreakerConfig struct {
	MinRequests  uint32        `mapstructure:"min_requests"`
	FailureRatio float64       `mapstructure:"failure_ratio"`
	OpenTimeout  time.Duration `mapstructure:"open_timeout"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)
	v.SetDefault("server.shutdown_timeout", 30*time.Second)
	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("live.provider", ProviderOpenSky)
	v.SetDefault("live.prefilter_radii_km", []float64{150, 600, 2400})
	v.SetDefault("opensky.base_url", "https://opensky-network.org/api")
	v.SetDefault("opensky.username", "")
	v.SetDefault("opensky.password", "")
	v.SetDefault("opensky.requests_per_second", 1)
	v.SetDefault("airlabs.base_url", "https://airlabs.co/api/v9")
	v.SetDefault("airlabs.api_key", "")
	v.SetDefault("airlabs.requests_per_second", 1)
	v.SetDefault("aviationstack.base_url", "http://api.aviationstack.com/v1")
	v.SetDefault("aviationstack.api_key", "")
	v.SetDefault("aviationstack.requests_per_second", 1)
	v.SetDefault("aviationstack.max_pages", 5)
	v.SetDefault("nominatim.base_url", "https://nominatim.openstreetmap.org")
	v.SetDefault("nominatim.user_agent", "WhatDatPlane/1.0")
	v.SetDefault("nominatim.requests_per_second", 1)
	v.SetDefault("planespotters.base_url", "https://api.planespotters.net/pub")
	v.SetDefault("planespotters.requests_per_second", 2)
	v.SetDefault("photos.type_catalog", map[string]any{})
	v.SetDefault("cache.sweep_interval", 5*time.Minute)
	v.SetDefault("cache.ttl.nearest", 30*time.Second)
	v.SetDefault("cache.ttl.geocode", 24*time.Hour)
	v.SetDefault("cache.ttl.photo", 7*24*time.Hour)
	v.SetDefault("cache.ttl.photo_negative", time.Hour)
	v.SetDefault("cache.ttl.track", 2*time.Minute)
	v.SetDefault("cache.ttl.registration", 24*time.Hour)
	v.SetDefault("ratelimit.window", time.Minute)
	v.SetDefault("ratelimit.flight", 20)
	v.SetDefault("ratelimit.geocode", 30)
	v.SetDefault("ratelimit.track", 10)
	v.SetDefault("ratelimit.photo", 30)
	v.SetDefault("upstream.timeout", 10*time.Second)
	v.SetDefault("breaker.min_requests", 10)
	v.SetDefault("breaker.failure_ratio", 0.6)
	v.SetDefault("breaker.open_timeout", time.Minute)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

// DefaultConfig returns the configuration used when no file or environment
// overrides are present.
func DefaultConfig() *Config {
	v := viper.New()
	setDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// defaults are static; a failure here is a programming error
		panic(eris.Wrap(err, "config: unmarshal defaults"))
	}
	return &cfg
}

// Load reads configuration from a JSON file and the environment.
// If path is empty or the file doesn't exist, defaults and environment apply.
func Load(path string) (*Config, error) {
	v := newViper()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			v.SetConfigType("json")
			if err := v.ReadInConfig(); err != nil {
				return nil, eris.Wrap(err, "config: read file")
			}
		} else if !os.IsNotExist(err) {
			return nil, eris.Wrapf(err, "config: stat %s", path)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects configurations the service cannot run with.
func (c *Config) Validate() error {
	switch c.Live.Provider {
	case ProviderOpenSky:
	case ProviderAirLabs:
		if c.AirLabs.APIKey == "" {
			return eris.New("config: airlabs.api_key is required when live.provider is airlabs")
		}
	case ProviderAviationstack:
		if c.Aviationstack.APIKey == "" {
			return eris.New("config: aviationstack.api_key is required when live.provider is aviationstack")
		}
		if c.Aviationstack.MaxPages < 1 {
			return eris.Errorf("config: aviationstack.max_pages must be at least 1, got %d", c.Aviationstack.MaxPages)
		}
	default:
		return eris.Errorf("config: unknown live.provider %q", c.Live.Provider)
	}

	for i, r := range c.Live.PrefilterRadiiKm {
		if r <= 0 {
			return eris.Errorf("config: live.prefilter_radii_km must be positive, got %v", r)
		}
		if i > 0 && r <= c.Live.PrefilterRadiiKm[i-1] {
			return eris.Errorf("config: live.prefilter_radii_km must be strictly ascending, got %v", c.Live.PrefilterRadiiKm)
		}
	}

	rl := c.RateLimit
	if rl.Window <= 0 || rl.Flight <= 0 || rl.Geocode <= 0 || rl.Track <= 0 || rl.Photo <= 0 {
		return eris.New("config: ratelimit window and maxima must be positive")
	}

	ttl := c.Cache.TTL
	if ttl.Nearest <= 0 || ttl.Geocode <= 0 || ttl.Photo <= 0 || ttl.PhotoNegative <= 0 ||
		ttl.Track <= 0 || ttl.Registration <= 0 {
		return eris.New("config: cache ttls must be positive")
	}
	if ttl.Nearest >= ttl.Geocode || ttl.Nearest >= ttl.Photo {
		return eris.New("config: cache.ttl.nearest must be shorter than the geocode and photo ttls")
	}
	if c.Cache.SweepInterval <= 0 {
		return eris.New("config: cache.sweep_interval must be positive")
	}

	if c.Breaker.FailureRatio <= 0 || c.Breaker.FailureRatio > 1 {
		return eris.Errorf("config: breaker.failure_ratio must be in (0, 1], got %v", c.Breaker.FailureRatio)
	}
	if c.Upstream.Timeout < 0 {
		return eris.New("config: upstream.timeout must not be negative")
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
