package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/sguter90/sensorcharts/pkg/api"
	"github.com/sguter90/sensorcharts/pkg/auth"
	"github.com/sguter90/sensorcharts/pkg/config"
	"github.com/sguter90/sensorcharts/pkg/kinds"
	"github.com/sirupsen/logrus"
	"golang.org/x/term"
)

// newKindRegistry returns the built-in kinds plus any overrides from the kinds file
func newKindRegistry(cfg *config.Config) *kinds.Registry {
	registry := kinds.DefaultRegistry()
	if cfg.KindsFile == "" {
		return registry
	}

	loaded, err := config.LoadKinds(cfg.KindsFile, registry)
	if err != nil {
		logrus.WithError(err).Warn("⚠ Ignoring kinds file, using built-in kinds")
		return registry
	}
	logrus.Infof("✓ Loaded %d measurement kinds from %s", len(loaded), cfg.KindsFile)
	return registry
}

// selectKinds resolves the requested kind names; none means every registered kind
func selectKinds(registry *kinds.Registry, names []string) []kinds.Config {
	if len(names) == 0 {
		return registry.All()
	}

	seen := make(map[string]bool, len(names))
	configs := make([]kinds.Config, 0, len(names))
	for _, name := range names {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		configs = append(configs, registry.Resolve(name))
	}
	return configs
}

// newTokenStore loads the access token from the environment, or prompts for
// it when stdin is a terminal
func newTokenStore(cfg *config.Config) (*auth.TokenStore, error) {
	token := cfg.AccessToken
	if token == "" && term.IsTerminal(int(syscall.Stdin)) {
		var err error
		if token, err = promptSecret("Enter access token: "); err != nil {
			return nil, err
		}
	}

	store := auth.NewTokenStore()
	if token == "" {
		logrus.Warn("⚠ No access token configured (MONITOR_ACCESS_TOKEN)")
		return store, nil
	}

	if err := store.SaveJWT(token); err != nil {
		if errors.Is(err, auth.ErrTokenExpired) {
			return nil, err
		}
		// opaque tokens carry no expiry
		store.Save(token, 0)
		return store, nil
	}

	if expiry := store.Expiry(); !expiry.IsZero() {
		logrus.Infof("✓ Access token valid until %s", expiry.Format("2006-01-02 15:04:05"))
	}
	return store, nil
}

// newPlatformClient builds the platform API client used to resolve stream URLs
func newPlatformClient(cfg *config.Config) (*api.Client, error) {
	tokens, err := newTokenStore(cfg)
	if err != nil {
		return nil, err
	}
	return api.NewClient(cfg.APIURL, api.WithTokenSource(tokens), api.WithTimeout(cfg.Connection.ConnectTimeout)), nil
}

func promptSecret(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	secret, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr) // New line after secret input
	if err != nil {
		return "", fmt.Errorf("failed to read secret: %w", err)
	}
	return strings.TrimSpace(string(secret)), nil
}
