package config

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"
)

// ErrMissing is returned when a provider has no value for a key.
var ErrMissing = errors.New("config value not found")

// Provider resolves a single configuration value.
type Provider interface {
	Get(key string) (string, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(key string) (string, error)

func (f ProviderFunc) Get(key string) (string, error) { return f(key) }

// EnvProvider reads the process environment. A variable that is set, even to
// the empty string, counts as present.
type EnvProvider struct{}

func (EnvProvider) Get(key string) (string, error) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return "", fmt.Errorf("%s: %w", key, ErrMissing)
	}
	return v, nil
}

// CommandProvider asks the secrets CLI for a value, e.g.
// `vlt secrets get --plaintext MONGO_HOST`.
type CommandProvider struct {
	Name    string
	Args    []string
	Timeout time.Duration
}

// NewVaultProvider returns the HCP Vault Secrets CLI provider.
func NewVaultProvider() *CommandProvider {
	return &CommandProvider{
		Name:    "vlt",
		Args:    []string{"secrets", "get", "--plaintext"},
		Timeout: 10 * time.Second,
	}
}

func (p *CommandProvider) Get(key string) (string, error) {
	ctx := context.Background()
	if p.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}

	args := append(append([]string{}, p.Args...), key)
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, p.Name, args...)
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("%s %s: %w: %s", p.Name, key, err, strings.TrimSpace(stderr.String()))
	}

	value := strings.TrimSpace(string(out))
	if value == "" {
		return "", fmt.Errorf("%s: %w", key, ErrMissing)
	}
	return value, nil
}

// Chain tries each provider in order and returns the first value found.
type Chain []Provider

func (c Chain) Get(key string) (string, error) {
	var errs []error
	for _, p := range c {
		v, err := p.Get(key)
		if err == nil {
			return v, nil
		}
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return "", fmt.Errorf("%s: %w", key, ErrMissing)
	}
	return "", errors.Join(errs...)
}
