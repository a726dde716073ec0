// Command token-generator prints a signed access token for a learner, for
// local development against the review API.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/phrazzld/kioku-api/internal/config"
	"github.com/phrazzld/kioku-api/internal/service/auth"
	"github.com/spf13/pflag"
)

func main() {
	flags := pflag.NewFlagSet("token-generator", pflag.ExitOnError)
	learner := flags.String("learner", "", "learner UUID (a new one is generated when empty)")
	secret := flags.String("secret", "", "JWT secret (defaults to auth.jwt_secret from config)")
	configPath := flags.String("config", "", "path to a YAML config file")
	lifetime := flags.Int("lifetime", 0, "token lifetime in minutes (defaults to config)")
	_ = flags.Parse(os.Args[1:])

	token, learnerID, err := generate(*configPath, *secret, *learner, *lifetime)
	if err != nil {
		fmt.Fprintf(os.Stderr, "token-generator: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Learner: %s\nToken: %s\n", learnerID, token)
}

func generate(configPath, secret, learner string, lifetime int) (string, uuid.UUID, error) {
	authCfg := config.AuthConfig{JWTSecret: secret, TokenLifetimeMinutes: 60}
	if secret == "" {
		cfg, err := config.Load(configPath)
		if err != nil {
			return "", uuid.Nil, fmt.Errorf("failed to load configuration: %w", err)
		}
		authCfg = cfg.Auth
	}
	if lifetime > 0 {
		authCfg.TokenLifetimeMinutes = lifetime
	}

	learnerID := uuid.New()
	if learner != "" {
		id, err := uuid.Parse(learner)
		if err != nil {
			return "", uuid.Nil, fmt.Errorf("invalid learner id %q: %w", learner, err)
		}
		learnerID = id
	}

	jwtService, err := auth.NewJWTService(authCfg)
	if err != nil {
		return "", uuid.Nil, err
	}
	token, err := jwtService.GenerateToken(context.Background(), learnerID)
	if err != nil {
		return "", uuid.Nil, fmt.Errorf("failed to generate token: %w", err)
	}
	return token, learnerID, nil
}
