package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix namespaces every environment override, e.g. CARE_MONITOR_API_URL.
const EnvPrefix = "CARE_MONITOR"

// Mode selects the gateway strategy at startup.
type Mode string

const (
	ModeDevelopment Mode = "development"
	ModeProduction  Mode = "production"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr           string        `mapstructure:"addr"`
	Mode           Mode          `mapstructure:"mode"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	CookieSecure   bool          `mapstructure:"cookie_secure"`
	LogLevel       string        `mapstructure:"log_level"`
	// TrustedProxies lists CIDRs allowed to set X-Forwarded-For.
	TrustedProxies []string `mapstructure:"trusted_proxies"`

	APIURL        string        `mapstructure:"api_url"`
	APIKey        string        `mapstructure:"api_key"`
	APITimeout    time.Duration `mapstructure:"api_timeout"`
	FallbackDelay time.Duration `mapstructure:"fallback_delay"`

	BreakerFailureThreshold int `mapstructure:"breaker_failure_threshold"`
	BreakerSuccessThreshold int `mapstructure:"breaker_success_threshold"`

	RedisURL        string `mapstructure:"redis_url"`
	TokenSigningKey string `mapstructure:"token_signing_key"`
}

// Default returns the configuration used when nothing is overridden.
func Default() Server {
	return Server{
		Addr:                    ":8080",
		Mode:                    ModeDevelopment,
		RequestTimeout:          30 * time.Second,
		CookieSecure:            true,
		LogLevel:                "info",
		APIURL:                  "https://reqres.in/api",
		APITimeout:              10 * time.Second,
		FallbackDelay:           800 * time.Millisecond,
		BreakerFailureThreshold: 5,
		BreakerSuccessThreshold: 1,
		// Development default; production deployments override it.
		TokenSigningKey: "dev-secret-key-change-in-production",
	}
}

// SetDefaults registers default values with viper
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("addr", d.Addr)
	v.SetDefault("mode", string(d.Mode))
	v.SetDefault("request_timeout", d.RequestTimeout)
	v.SetDefault("cookie_secure", d.CookieSecure)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("trusted_proxies", d.TrustedProxies)
	v.SetDefault("api_url", d.APIURL)
	v.SetDefault("api_key", d.APIKey)
	v.SetDefault("api_timeout", d.APITimeout)
	v.SetDefault("fallback_delay", d.FallbackDelay)
	v.SetDefault("breaker_failure_threshold", d.BreakerFailureThreshold)
	v.SetDefault("breaker_success_threshold", d.BreakerSuccessThreshold)
	v.SetDefault("redis_url", d.RedisURL)
	v.SetDefault("token_signing_key", d.TokenSigningKey)
}

// New returns a viper instance with defaults and environment binding applied.
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

// Load decodes and validates the server configuration held by v.
func Load(v *viper.Viper) (Server, error) {
	var cfg Server
	if err := v.Unmarshal(&cfg); err != nil {
		return Server{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.Mode = Mode(strings.ToLower(string(cfg.Mode)))
	if err := cfg.Validate(); err != nil {
		return Server{}, err
	}
	return cfg, nil
}

// Validate rejects configurations the server cannot start with.
func (c Server) Validate() error {
	switch c.Mode {
	case ModeDevelopment, ModeProduction:
	default:
		return fmt.Errorf("invalid mode %q: want %q or %q", c.Mode, ModeDevelopment, ModeProduction)
	}
	if c.Addr == "" {
		return fmt.Errorf("addr must not be empty")
	}
	if c.Mode == ModeProduction && c.APIURL == "" {
		return fmt.Errorf("api_url is required in production mode")
	}
	if c.FallbackDelay < 0 {
		return fmt.Errorf("fallback_delay must not be negative")
	}
	if c.BreakerFailureThreshold < 1 || c.BreakerSuccessThreshold < 1 {
		return fmt.Errorf("breaker thresholds must be at least 1")
	}
	return nil
}

// IsProduction reports whether the remote gateway should be used.
func (c Server) IsProduction() bool {
	return c.Mode == ModeProduction
}

// FlagKey maps a CLI flag name such as "api-url" to its config key "api_url".
func FlagKey(flag string) string {
	return strings.ReplaceAll(flag, "-", "_")
}
