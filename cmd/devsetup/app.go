package main

import (
	"bufio"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/99designs/keyring"
	"golang.org/x/term"

	"github.com/sourceplane/devsetup/internal/advisor"
	"github.com/sourceplane/devsetup/internal/credentials"
	"github.com/sourceplane/devsetup/internal/loader"
	"github.com/sourceplane/devsetup/internal/logging"
	"github.com/sourceplane/devsetup/internal/model"
	"github.com/sourceplane/devsetup/internal/planner"
	"github.com/sourceplane/devsetup/internal/shell"
)

func loadCatalog() (*loader.LoadedCatalog, error) {
	loaded, err := loader.LoadOrDefault(cfg.Catalog.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	return loaded, nil
}

func targetArchitecture() (model.Architecture, error) {
	if cfg.Catalog.Architecture == "" {
		return model.CurrentArchitecture(), nil
	}
	arch, ok := model.ParseArchitecture(cfg.Catalog.Architecture)
	if !ok {
		return "", fmt.Errorf("unknown architecture %q (use arm64 or x86_64)", cfg.Catalog.Architecture)
	}
	return arch, nil
}

// buildSelection starts from the catalog defaults and applies --select/--deselect
func buildSelection(p *planner.Planner, arch model.Architecture, selectIDs, deselectIDs []string) (*planner.Selection, error) {
	sel := planner.NewSelection(p, arch)
	for _, id := range selectIDs {
		if err := sel.Set(id, true); err != nil {
			return nil, err
		}
	}
	for _, id := range deselectIDs {
		if err := sel.Set(id, false); err != nil {
			return nil, err
		}
	}
	return sel, nil
}

// newExecutor writes the askpass helper into the state dir unless one is configured
func newExecutor() (*shell.LocalExecutor, error) {
	askpass := cfg.Shell.AskpassPath
	if askpass == "" {
		exe, err := os.Executable()
		if err != nil {
			return nil, fmt.Errorf("failed to locate devsetup binary: %w", err)
		}
		askpass, err = shell.WriteAskpassHelper(filepath.Join(cfg.State.Dir, "bin"), exe)
		if err != nil {
			return nil, err
		}
	}
	return shell.NewLocalExecutor(shell.Options{
		ShellPath:   cfg.Shell.Path,
		AskpassPath: askpass,
		GracePeriod: cfg.Shell.GracePeriod,
	}), nil
}

func newSessionLogger() (*logging.SessionLogger, error) {
	opts := logging.SessionOptions{
		Dir:   cfg.State.LogDir(),
		Level: logging.ParseLevel(cfg.Log.Level),
	}
	if cfg.Log.Verbose {
		opts.Tee = os.Stderr
	}
	return logging.NewSessionLogger(opts)
}

func newAdvisor(logger logging.Logger) (*advisor.Service, error) {
	if cfg.Advisor.Disabled {
		return advisor.New(nil, logger), nil
	}
	client, err := newAdvisorClient()
	if err != nil {
		return nil, err
	}
	return advisor.New(client, logger), nil
}

func newAdvisorClient() (*advisor.Client, error) {
	base, err := cfg.Advisor.ResolvedBaseURL()
	if err != nil {
		return nil, err
	}
	httpClient := &http.Client{Timeout: cfg.Advisor.Timeout}
	return advisor.NewClient(base, cfg.Advisor.ResolvedModel(), httpClient, advisor.NewCircuitBreaker()), nil
}

func openCredentialStore() (*credentials.KeyringStore, error) {
	return credentials.NewKeyringStore(credentials.KeyringOptions{
		FileDir:      filepath.Join(cfg.State.Dir, "keyring"),
		FilePassword: keyring.TerminalPrompt,
	})
}

// resolveCredential never fails the command: an unreadable keyring just
// means no stored key.
func resolveCredential(flagValue string) (string, credentials.Source) {
	var store credentials.Store
	if ks, err := openCredentialStore(); err == nil {
		store = ks
	}
	key, src, err := credentials.Resolve(flagValue, cfg.Advisor.ResolvedAPIKeyEnv(), store)
	if err != nil {
		return "", credentials.SourceNone
	}
	return key, src
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// confirm asks a yes/no question on stdin; anything but y/yes is no
func confirm(in *bufio.Reader, out io.Writer, question string) bool {
	fmt.Fprintf(out, "%s [y/N] ", question)
	line, err := in.ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}
