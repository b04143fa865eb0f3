package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tejashwikalptaru/tunedeck/internal/app"
	"github.com/tejashwikalptaru/tunedeck/internal/config"
)

type rootParams struct {
	ConfigPath string
}

func newRootCmd() *cobra.Command {
	params := &rootParams{}

	cmd := &cobra.Command{
		Use:           "tunedeck",
		Short:         "tunedeck is a terminal music player.",
		Version:       app.GetVersionInfo().Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&params.ConfigPath, "config", "", "configuration file (default: XDG config dir, then ./config.toml)")

	cmd.AddCommand(
		newPlayCmd(params),
		newPlaylistCmd(params),
		newVersionCmd(),
	)
	return cmd
}

// loadConfig reads the file named by --config, or the default locations.
func (p *rootParams) loadConfig() (*config.Config, error) {
	if p.ConfigPath != "" {
		return config.LoadFiles(p.ConfigPath)
	}
	return config.Load()
}

// withApp runs fn against a freshly wired application and shuts it down afterwards.
func (p *rootParams) withApp(ctx context.Context, fn func(ctx context.Context, a *app.Application) error) error {
	cfg, err := p.loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	application, err := app.NewApplication(ctx, cfg)
	if err != nil {
		return err
	}

	// Ensure a graceful shutdown
	runErr := fn(ctx, application)
	if err := application.Shutdown(); err != nil && runErr == nil {
		runErr = fmt.Errorf("shutdown: %w", err)
	}
	return runErr
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), app.GetVersionInfo().FullString())
		},
	}
}
