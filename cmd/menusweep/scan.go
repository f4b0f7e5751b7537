package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/v0xg/menusweep/internal/config"
	"github.com/v0xg/menusweep/internal/crawler"
	"github.com/v0xg/menusweep/internal/evidence"
	"github.com/v0xg/menusweep/internal/executor"
	"github.com/v0xg/menusweep/internal/logging"
	"github.com/v0xg/menusweep/internal/metrics"
	"github.com/v0xg/menusweep/internal/report"
	"github.com/v0xg/menusweep/internal/sweep"
)

func newScanCmd(loader *config.Loader) *cobra.Command {
	flags := &scanFlags{}
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Log in and sweep every menu of the application",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loader.Load(flags.toOverrides(cmd))
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runScan(ctx, cmd, cfg)
		},
	}
	bindScanFlags(cmd, flags)
	return cmd
}

func runScan(ctx context.Context, cmd *cobra.Command, cfg config.RuntimeConfig) error {
	log := logging.New(cmd.ErrOrStderr(), cfg.LogFormat, cfg.Verbose)
	console := logging.NewConsole(cmd.OutOrStdout(), false)

	reg, err := cfg.Registry()
	if err != nil {
		return fmt.Errorf("load patterns: %w", err)
	}
	log.Debug("patterns loaded", "names", reg.Names())

	var rec *metrics.Recorder
	if cfg.MetricsFile != "" {
		if rec, err = metrics.New(); err != nil {
			return err
		}
	}

	var collector *evidence.Collector
	if cfg.Evidence.Enabled {
		collector, err = evidence.NewCollector(evidence.Options{
			Dir:        cfg.Evidence.Dir,
			MaxWidth:   cfg.Evidence.MaxWidth,
			GIF:        cfg.Evidence.GIF,
			FrameDelay: cfg.Evidence.FrameDelay,
		})
		if err != nil {
			return err
		}
	}

	// Step 1: Launch the browser
	console.Step("Launching browser")
	browser, err := crawler.Launch(crawler.Options{
		Width:         cfg.Width,
		Height:        cfg.Height,
		Headless:      cfg.Headless,
		ProfileDir:    cfg.ProfileDir,
		BlockHTTPS:    cfg.BlockHTTPS,
		ActionTimeout: cfg.Timing.Action,
		ClickRate:     cfg.Timing.ClickRate,
		Logger:        log,
	})
	if err != nil {
		console.Fail("")
		return err
	}
	defer browser.Close()
	console.Done("")

	started := time.Now()

	// Step 2: Open the application and log in
	console.Step("Opening %s", cfg.URL)
	info, err := browser.Open(ctx, cfg.URL, cfg.Timing.Idle)
	if err != nil {
		console.Fail("")
		return fmt.Errorf("open failed: %w", err)
	}
	console.Done("%s", info.Title)

	if cfg.Username != "" {
		console.Step("Logging in as %s", cfg.Username)
		sel := cfg.Selectors
		err := browser.Login(ctx, crawler.LoginForm{
			UserInput:      sel.UserInput,
			PasswordInput:  sel.PasswordInput,
			ButtonSelector: sel.LoginButton,
			ButtonLabel:    sel.LoginLabel,
		}, crawler.Credentials{Username: cfg.Username, Password: cfg.Password}, cfg.Timing.Idle)
		if err != nil {
			console.Fail("")
			return fmt.Errorf("login failed: %w", err)
		}
		console.Done("")
	}

	// Step 3: Sweep every menu
	sweeper := &sweep.Sweeper{
		Acc: browser,
		Runner: &executor.Runner{
			Acc:      browser,
			Registry: reg,
			Opts: executor.Options{
				SearchSelector:    cfg.Selectors.SearchButton,
				SearchLabel:       cfg.Selectors.SearchLabel,
				CloseTabsSelector: cfg.Selectors.CloseTabs,
				SearchVisible:     cfg.Timing.SearchVisible,
				SearchSettle:      cfg.Timing.SearchSettle,
				TabSettle:         cfg.Timing.TabSettle,
			},
			Evidence: collector,
			Logger:   log,
		},
		Opts:    sweep.OptionsFromConfig(cfg),
		Logger:  log,
		Console: console,
		Metrics: rec,
	}
	agg, runErr := sweeper.Run(ctx)
	rec.Finish(time.Since(started), runErr != nil)
	if runErr != nil {
		console.Warn("Sweep stopped early: %v", runErr)
	}

	// Step 4: Write the report, partial or not
	doc := agg.Document(cfg.URL, started, runErr)
	console.Step("Writing report")
	if err := report.WriteFile(cfg.Output, doc); err != nil {
		console.Fail("")
		return err
	}
	console.Done("%d findings, %d diagnostics", len(doc.Findings), len(doc.Diagnostics))

	if rec != nil {
		if err := rec.WriteTextfile(cfg.MetricsFile); err != nil {
			log.Warn("metrics not written", "error", err)
		}
	}

	if collector != nil && cfg.Evidence.GIF != "" && collector.Count() > 0 {
		console.Step("Generating evidence GIF (%d frames)", collector.Count())
		path, size, err := collector.Finish()
		if err != nil {
			console.Fail("")
			log.Warn("evidence reel failed", "error", err)
		} else {
			console.Done("%s, %.1f MB", path, float64(size)/(1024*1024))
		}
	}

	for _, d := range doc.Diagnostics {
		console.Warn("%s %s", d.Kind, describe(d))
	}
	if runErr != nil {
		return fmt.Errorf("sweep aborted: %w", runErr)
	}
	console.Success("Saved to %s (run %s)", cfg.Output, doc.RunID)
	return nil
}

func describe(d report.Diagnostic) string {
	var where []string
	for _, s := range []string{d.Side, d.Top, d.Label} {
		if s != "" {
			where = append(where, s)
		}
	}
	if len(where) == 0 {
		return d.Detail
	}
	return strings.Join(where, " / ") + ": " + d.Detail
}
