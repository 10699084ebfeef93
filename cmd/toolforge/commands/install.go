package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/toolforge/toolforge/pkg/catalog"
	"github.com/toolforge/toolforge/pkg/engine"
	"github.com/toolforge/toolforge/pkg/facts"
	"github.com/toolforge/toolforge/pkg/methods"
	"github.com/toolforge/toolforge/pkg/pathenv"
	"github.com/toolforge/toolforge/pkg/report"
	"github.com/toolforge/toolforge/pkg/stores"
	"github.com/toolforge/toolforge/pkg/telemetry"
)

// quitChoice is the interactive picker entry that aborts without running.
const quitChoice = "Quit"

func newInstallCommand() *cobra.Command {
	var (
		profileFlag    string
		catalogPath    string
		reportPath     string
		forceReinstall bool
		assumeYes      bool
	)

	cmd := &cobra.Command{
		Use:   "install",
		Short: "Install the catalog for a profile",
		Long: `Run a full installation pass over the component catalog.

This command:
  - Selects a profile (interactively unless --profile is given)
  - Walks the catalog once, in catalog order
  - Skips components not relevant to the profile
  - Tries each component's methods in order until one verifies
  - Verifies every attempt with an independent probe
  - Records every component outcome and writes the run report`,
		Example: `  # Pick a profile interactively
  toolforge install

  # Non-interactive full install
  toolforge install --profile Full --yes

  # Reinstall even already-present components
  toolforge install --profile Minimal --force-reinstall --yes

  # Use a catalog overlay file
  toolforge install --profile Data_Science_Core --catalog extra.yaml --yes`,
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := newCommandLogger()
			if err != nil {
				return err
			}

			cat, err := loadCatalog(catalogPath)
			if err != nil {
				return err
			}

			profile, err := selectProfile(cat, profileFlag)
			if err != nil {
				if errors.Is(err, engine.ErrUserAbort) {
					return &ExitError{Code: 1, Message: "aborted by user"}
				}
				return err
			}

			if !assumeYes {
				ok, err := confirmRun(cat, profile)
				if err != nil {
					return err
				}
				if !ok {
					return &ExitError{Code: 1, Message: "aborted by user"}
				}
			}

			return runInstall(cmd.Context(), log, cat, profile, forceReinstall, reportPath)
		},
	}

	cmd.Flags().StringVarP(&profileFlag, "profile", "p", "", "profile to install (skips the interactive picker)")
	cmd.Flags().StringVar(&catalogPath, "catalog", "", "catalog overlay file (YAML or CUE)")
	cmd.Flags().StringVar(&reportPath, "report", report.DefaultPath, "report output path")
	cmd.Flags().BoolVar(&forceReinstall, "force-reinstall", false, "attempt installation even for already-present components")
	cmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "skip the confirmation prompt")

	return cmd
}

// loadCatalog builds the built-in catalog and applies the overlay file, if
// any.
func loadCatalog(path string) (*catalog.Catalog, error) {
	cat := catalog.Builtin()
	if path == "" {
		return cat, nil
	}

	overlay, err := catalog.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog overlay: %w", err)
	}
	merged, err := cat.Merge(overlay)
	if err != nil {
		return nil, fmt.Errorf("invalid catalog overlay: %w", err)
	}
	return merged, nil
}

// selectProfile resolves the profile flag, or runs the interactive picker.
// Choosing Quit (or cancelling the prompt) maps to engine.ErrUserAbort.
func selectProfile(cat *catalog.Catalog, flag string) (catalog.ProfileID, error) {
	if flag != "" {
		profile := catalog.ProfileID(flag)
		if _, err := cat.Profiles().Resolve(profile); err != nil {
			return "", err
		}
		return profile, nil
	}

	ids := cat.Profiles().IDs()
	options := make([]huh.Option[string], 0, len(ids)+1)
	for _, id := range ids {
		p, _ := cat.Profiles().Resolve(id)
		label := string(id)
		if p.Description != "" {
			label = fmt.Sprintf("%s - %s", id, p.Description)
		}
		options = append(options, huh.NewOption(label, string(id)))
	}
	options = append(options, huh.NewOption(quitChoice, quitChoice))

	var choice string
	form := huh.NewForm(huh.NewGroup(
		huh.NewSelect[string]().
			Title("Select an installation profile").
			Options(options...).
			Value(&choice),
	))
	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return "", engine.ErrUserAbort
		}
		return "", err
	}
	if choice == quitChoice {
		return "", engine.ErrUserAbort
	}
	return catalog.ProfileID(choice), nil
}

// confirmRun shows what the run would do and asks for approval.
func confirmRun(cat *catalog.Catalog, profile catalog.ProfileID) (bool, error) {
	entries, err := engine.Plan(cat, profile)
	if err != nil {
		return false, err
	}
	installs := 0
	for _, e := range entries {
		if e.Action == engine.PlanActionInstall {
			installs++
		}
	}

	var ok bool
	form := huh.NewForm(huh.NewGroup(
		huh.NewConfirm().
			Title(fmt.Sprintf("Install profile %s (%d of %d components)?", profile, installs, len(entries))).
			Value(&ok),
	))
	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return false, nil
		}
		return false, err
	}
	return ok, nil
}

// runInstall wires the run: facts, methods, history store, event sinks,
// orchestrator, and finally the report.
func runInstall(ctx context.Context, log *telemetry.Logger, cat *catalog.Catalog, profile catalog.ProfileID, forceReinstall bool, reportPath string) error {
	paths := pathenv.NewResolver()
	machine := facts.Collect(paths)
	runner := methods.NewRunner()
	components := methods.Build(cat.Components(), machine, runner, paths)

	metrics := telemetry.NewMetrics(telemetry.MetricsConfig{Enabled: true, Namespace: "toolforge"})

	// Run history is best effort: a broken state database degrades to an
	// unpersisted run instead of blocking installation.
	store := openStore(ctx, log)
	if store != nil {
		defer store.Close()
	}

	sinks := []engine.EventSink{telemetry.NewLoggerSink(log)}
	if store != nil {
		sinks = append(sinks, stores.NewEventSink(store, log))
	}
	events := telemetry.NewEventLog(sinks...)

	state := engine.NewRunState(profile)
	if store != nil {
		err := store.CreateRun(ctx, &stores.RunRecord{
			ID:        state.RunID,
			Profile:   string(profile),
			Status:    string(engine.RunStatusRunning),
			Hostname:  machine.Hostname,
			StartedAt: state.StartedAt,
		})
		if err != nil {
			log.WithError(err).Warn("failed to record run start, disabling run history")
			store.Close()
			store = nil
		}
	}

	installer := engine.NewInstaller(events, engine.InstallerOptions{
		ForceReinstall: forceReinstall,
		Logger:         log.Zerolog(),
	})
	orch := engine.NewOrchestrator(cat, components, installer, events, log.Zerolog())

	if err := orch.Run(ctx, state); err != nil {
		return err
	}
	status := orch.Status(state)

	for _, result := range state.Results() {
		metrics.ObserveResult(result)
		if store != nil {
			if err := store.SaveComponentResult(ctx, state.RunID, result); err != nil {
				log.WithError(err).Warn("failed to persist component result")
			}
		}
	}
	metrics.ObserveRun(status, state.CompletedAt.Sub(state.StartedAt).Seconds())
	if store != nil {
		if err := store.FinishRun(ctx, state.RunID, string(status), state.CompletedAt); err != nil {
			log.WithError(err).Warn("failed to record run completion")
		}
	}

	rep := report.Build(state, status, events.Events(), metrics)
	if err := rep.Persist(reportPath); err != nil {
		log.WithError(err).Error("failed to persist report")
	} else {
		log.Infof("report written to %s", reportPath)
	}

	if code := orch.ExitCode(state); code != 0 {
		return &ExitError{Code: code, Message: "run halted on a critical component failure"}
	}
	return nil
}

// openStore opens and migrates the run-history database. Returns nil when the
// store cannot be used.
func openStore(ctx context.Context, log *telemetry.Logger) stores.Store {
	if err := os.MkdirAll(stateDir, 0o755); err != nil {
		log.WithError(err).Warn("failed to create state directory, disabling run history")
		return nil
	}

	store, err := stores.NewSQLiteStore(filepath.Join(stateDir, "state.db"))
	if err != nil {
		log.WithError(err).Warn("failed to configure run history store")
		return nil
	}

	initCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := store.Init(initCtx); err != nil {
		log.WithError(err).Warn("failed to open run history store, disabling run history")
		return nil
	}
	if err := store.Migrate(initCtx); err != nil {
		log.WithError(err).Warn("failed to migrate run history store, disabling run history")
		store.Close()
		return nil
	}
	return store
}
