package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sourceplane/devsetup/internal/logging"
	"github.com/sourceplane/devsetup/internal/model"
	"github.com/sourceplane/devsetup/internal/planner"
	"github.com/sourceplane/devsetup/internal/render"
	"github.com/sourceplane/devsetup/internal/runner"
	"github.com/sourceplane/devsetup/internal/store/sqlite"
)

// Messages shown after a user-approved remediation command
const (
	remediationBlocked   = "Blocked an unsafe command. Please review manually."
	remediationSucceeded = "Remediation command succeeded. You can retry installation now."
	remediationFailed    = "Remediation command failed. Check logs before retrying."
)

var (
	runSelectIDs   []string
	runDeselectIDs []string
	runAPIKey      string
	runYes         bool
	runNoHistory   bool
)

var errRunFailed = errors.New("installation failed")

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Install the selected components",
	Long:  "Resolve the install plan and run it component by component, skipping anything already installed. The first failure stops the run and produces remediation advice.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runInstall(ctx, cmd.InOrStdin(), cmd.OutOrStdout())
	},
}

func registerRunCommand(root *cobra.Command) {
	root.AddCommand(runCmd)

	runCmd.Flags().StringSliceVarP(&runSelectIDs, "select", "s", nil, "Component ids to add to the default selection")
	runCmd.Flags().StringSliceVarP(&runDeselectIDs, "deselect", "d", nil, "Component ids to remove from the selection")
	runCmd.Flags().StringVar(&runAPIKey, "api-key", "", "Advisor API key (default: environment variable, then keychain)")
	runCmd.Flags().BoolVarP(&runYes, "yes", "y", false, "Do not ask for confirmation before installing")
	runCmd.Flags().BoolVar(&runNoHistory, "no-history", false, "Do not record the run in the history database")
}

func runInstall(ctx context.Context, stdin io.Reader, out io.Writer) error {
	in := bufio.NewReader(stdin)
	catalog, err := loadCatalog()
	if err != nil {
		return err
	}
	arch, err := targetArchitecture()
	if err != nil {
		return err
	}
	sel, err := buildSelection(catalog.Planner, arch, runSelectIDs, runDeselectIDs)
	if err != nil {
		return err
	}

	credential, source := resolveCredential(runAPIKey)
	plan, err := catalog.Planner.ResolvePlan(sel.IDs(), credential, arch)
	if errors.Is(err, planner.ErrMissingCredential) {
		return fmt.Errorf("%w; pass --api-key, export %s, or run `devsetup key set`", err, cfg.Advisor.ResolvedAPIKeyEnv())
	}
	if err != nil {
		return err
	}

	r := render.NewRenderer()
	fmt.Fprint(out, r.Plan(plan))
	fmt.Fprintf(out, "□ Advisor key from %s\n", source)
	if !runYes && !confirm(in, out, "Proceed with installation?") {
		fmt.Fprintln(out, "Aborted")
		return nil
	}

	logger, err := newSessionLogger()
	if err != nil {
		return err
	}
	defer logger.Close()

	executor, err := newExecutor()
	if err != nil {
		return err
	}
	adv, err := newAdvisor(logger)
	if err != nil {
		return err
	}

	observers := runner.Observers{newPrinter(out, cfg.Log.Verbose)}
	var recorder *sqlite.Recorder
	if !runNoHistory {
		store, err := sqlite.Open(cfg.State.Dir)
		if err != nil {
			logger.Log(logging.LevelWarning, "Run history unavailable", map[string]string{"error": err.Error()})
		} else {
			defer store.Close()
			recorder, err = store.StartRun(arch, catalog.Source)
			if err != nil {
				logger.Log(logging.LevelWarning, "Run history unavailable", map[string]string{"error": err.Error()})
			} else {
				observers = append(observers, recorder)
			}
		}
	}

	run := runner.New(executor, adv, logger, observers)
	result := run.Run(ctx, plan, credential)

	if recorder != nil {
		if err := recorder.Finish(result.State, result.Failure, result.Advice); err != nil {
			logger.Log(logging.LevelWarning, "Failed to record run history", map[string]string{"error": err.Error()})
		}
	}

	fmt.Fprintf(out, "□ Session log: %s\n", logger.Path())
	if result.State == model.RunCompleted {
		fmt.Fprintln(out, "✓ Installation complete")
		return nil
	}

	fmt.Fprint(out, r.Failure(result.Failure, result.Advice, result.Notice))
	if result.Advice != nil && !runYes {
		offerRemediation(ctx, run, result.Advice.Commands, in, out)
	}
	return errRunFailed
}

// offerRemediation asks before each suggested command and stops after the first one that runs.
func offerRemediation(ctx context.Context, run *runner.Runner, commands []string, in *bufio.Reader, out io.Writer) {
	for _, command := range commands {
		if !confirm(in, out, fmt.Sprintf("Run remediation command `%s`?", command)) {
			continue
		}
		res, err := run.RunRemediation(ctx, command)
		switch {
		case errors.Is(err, runner.ErrBlockedCommand):
			fmt.Fprintln(out, remediationBlocked)
		case err != nil:
			fmt.Fprintln(out, err)
		case res.Succeeded():
			fmt.Fprintln(out, remediationSucceeded)
		default:
			fmt.Fprintln(out, remediationFailed)
		}
		return
	}
}
