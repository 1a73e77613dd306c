package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/florianilch/modelcatalog/internal/app"
)

// authCommand returns the 'auth' subcommand for managing provider API keys.
func authCommand() *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage provider API keys in the OS keyring",
		Commands: []*cli.Command{
			authSetCommand(),
			authClearCommand(),
		},
	}
}

// authSetCommand returns the 'auth set' subcommand.
func authSetCommand() *cli.Command {
	return &cli.Command{
		Name:      "set",
		Usage:     "Prompt for a provider API key and store it",
		ArgsUsage: "<provider>",
		Action:    authSetAction,
	}
}

// authClearCommand returns the 'auth clear' subcommand.
func authClearCommand() *cli.Command {
	return &cli.Command{
		Name:      "clear",
		Usage:     "Remove a stored provider API key",
		ArgsUsage: "<provider>",
		Action:    authClearAction,
	}
}

func authSetAction(ctx context.Context, cmd *cli.Command) error {
	name, store, err := authTarget(cmd)
	if err != nil {
		return err
	}

	key, err := readSecureInput(ctx, fmt.Sprintf("API key for %s: ", name))
	if err != nil {
		return err
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return errors.New("api key cannot be empty")
	}

	if err := store.Set(name, key); err != nil {
		return fmt.Errorf("failed to store api key: %w", err)
	}

	fmt.Fprintf(cmd.Root().Writer, "API key for %s saved to the OS keyring\n", name)
	return nil
}

func authClearAction(_ context.Context, cmd *cli.Command) error {
	name, store, err := authTarget(cmd)
	if err != nil {
		return err
	}

	if err := store.Delete(name); err != nil {
		return fmt.Errorf("failed to clear api key: %w", err)
	}

	fmt.Fprintf(cmd.Root().Writer, "API key for %s removed from the OS keyring\n", name)
	return nil
}

// authTarget resolves the provider argument and the writable credential store.
func authTarget(cmd *cli.Command) (string, app.KeyringStore, error) {
	name := cmd.Args().First()
	if name == "" {
		return "", app.KeyringStore{}, errors.New("provider name is required")
	}

	cfg, err := loadConfig(cmd.String("config"), cmd, os.Environ)
	if err != nil {
		return "", app.KeyringStore{}, fmt.Errorf("failed to load config: %w", err)
	}

	p, ok := cfg.Providers[name]
	if !ok {
		return "", app.KeyringStore{}, fmt.Errorf("provider %q is not configured", name)
	}
	if p.Type == app.ProviderTypeStatic {
		return "", app.KeyringStore{}, fmt.Errorf("provider %q is static and needs no api key", name)
	}

	store, err := cfg.Auth.NewCredentialStore()
	if err != nil {
		return "", app.KeyringStore{}, fmt.Errorf("cannot manage api keys: %w", err)
	}
	return name, store, nil
}

// readSecureInput reads user input with hidden display and context cancellation support.
// Goroutine+select pattern required because term.ReadPassword has no native context support.
func readSecureInput(ctx context.Context, prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	defer fmt.Fprintln(os.Stderr)

	type result struct {
		value string
		err   error
	}
	resultCh := make(chan result, 1)

	go func() {
		inputBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
		resultCh <- result{value: string(inputBytes), err: err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-resultCh:
		if res.err != nil {
			return "", fmt.Errorf("failed to read input: %w", res.err)
		}
		return res.value, nil
	}
}
