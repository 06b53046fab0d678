package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"caremonitor/internal/platform/config"
)

func newRootCmd() *cobra.Command {
	v := config.New()

	root := &cobra.Command{
		Use:   "care-monitor",
		Short: "Care Monitor web front end",
		Long: `Care Monitor serves the patient dashboard: login, session handling
and the patient list, backed by the records API or by built-in fixtures.`,
		SilenceUsage: true,
	}
	root.AddCommand(newServeCmd(v), newTokenCmd(v))
	return root
}

func newServeCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(v)
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}

	d := config.Default()
	flags := cmd.Flags()
	flags.String("addr", d.Addr, "listen address")
	flags.String("mode", string(d.Mode), "gateway mode: development or production")
	flags.String("api-url", d.APIURL, "records API base URL")
	flags.String("api-key", d.APIKey, "records API key sent as x-api-key")
	flags.Duration("api-timeout", d.APITimeout, "records API request timeout")
	flags.Duration("fallback-delay", d.FallbackDelay, "delay before serving fallback data")
	flags.Duration("request-timeout", d.RequestTimeout, "per-request handler timeout")
	flags.Bool("cookie-secure", d.CookieSecure, "mark session cookies Secure")
	flags.String("log-level", d.LogLevel, "debug, info, warn or error")
	flags.String("redis-url", d.RedisURL, "Redis URL for the shared list snapshot")
	flags.StringSlice("trusted-proxies", d.TrustedProxies, "CIDRs allowed to set X-Forwarded-For")

	for _, name := range []string{
		"addr", "mode", "api-url", "api-key", "api-timeout", "fallback-delay",
		"request-timeout", "cookie-secure", "log-level", "redis-url", "trusted-proxies",
	} {
		_ = v.BindPFlag(config.FlagKey(name), flags.Lookup(name))
	}
	return cmd
}
