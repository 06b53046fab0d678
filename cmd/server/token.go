package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"caremonitor/internal/gateway"
	jwttoken "caremonitor/internal/jwt_token"
	"caremonitor/internal/platform/config"
	"caremonitor/internal/session"
)

type tokenOutput struct {
	Token     string                  `json:"token"`
	ExpiresIn string                  `json:"expires_in"`
	Claims    *jwttoken.SessionClaims `json:"claims,omitempty"`
	Cookies   map[string]string       `json:"cookies"`
}

// newTokenCmd mints a development session token, the same kind the fixture
// gateway hands out on login. Tokens are signed with token_signing_key.
func newTokenCmd(v *viper.Viper) *cobra.Command {
	var (
		email string
		name  string
		ttl   time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a development session token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(v)
			if err != nil {
				return err
			}
			svc := jwttoken.NewService(cfg.TokenSigningKey, ttl)
			token, err := svc.Issue(cmd.Context(), email, name)
			if err != nil {
				return err
			}
			claims, err := svc.Validate(token)
			if err != nil {
				return fmt.Errorf("validate issued token: %w", err)
			}

			out := tokenOutput{
				Token:     token,
				ExpiresIn: ttl.String(),
				Claims:    claims,
				Cookies: map[string]string{
					session.TokenCookie: token,
					session.EmailCookie: email,
				},
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&email, "email", gateway.TestEmail, "email claim")
	flags.StringVar(&name, "name", gateway.TestUserName, "name claim")
	flags.DurationVar(&ttl, "ttl", fixtureTokenTTL, "token time-to-live")
	flags.String("token-signing-key", config.Default().TokenSigningKey, "HMAC signing key")
	_ = v.BindPFlag("token_signing_key", flags.Lookup("token-signing-key"))
	return cmd
}
