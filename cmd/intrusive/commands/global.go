// Package commands implements CLI command handlers for intrusive.
package commands

import (
	"context"
	"log/slog"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/Sumatoshi-tech/intrusive/internal/config"
	"github.com/Sumatoshi-tech/intrusive/pkg/observability"
	"github.com/Sumatoshi-tech/intrusive/pkg/version"
)

// GlobalOptions holds the root persistent flags shared by every command.
type GlobalOptions struct {
	ConfigPath string
	Verbose    bool
	Quiet      bool
	NoColor    bool
}

// Bind registers the persistent flags on the root command.
func (g *GlobalOptions) Bind(flags *pflag.FlagSet) {
	flags.StringVar(&g.ConfigPath, "config", "", "config file (default .intrusive.yaml in CWD or $HOME)")
	flags.BoolVarP(&g.Verbose, "verbose", "v", false, "verbose output")
	flags.BoolVarP(&g.Quiet, "quiet", "q", false, "suppress output")
	flags.BoolVar(&g.NoColor, "no-color", false, "disable colored output")
}

// session is the loaded configuration plus initialized observability for one command run.
type session struct {
	cfg       *config.Config
	providers observability.Providers
}

func (s *session) close(ctx context.Context) {
	shutdownErr := s.providers.Shutdown(ctx)
	if shutdownErr != nil {
		s.providers.Logger.Warn("observability shutdown failed", "error", shutdownErr)
	}
}

// startSession loads config, lets override adjust it from flags, and initializes observability.
func (g *GlobalOptions) startSession(cmd *cobra.Command, override func(cfg *config.Config)) (*session, error) {
	if g.NoColor {
		color.NoColor = true //nolint:reassign // intentional override of library global
	}

	cfg, err := config.LoadConfig(g.ConfigPath)
	if err != nil {
		return nil, err
	}

	if override != nil {
		override(cfg)

		err = cfg.Validate()
		if err != nil {
			return nil, err
		}
	}

	obsCfg := observability.DefaultConfig()
	obsCfg.ServiceVersion = version.Version
	obsCfg.Environment = cfg.Observability.Environment
	obsCfg.Command = cmd.Name()
	obsCfg.OTLPEndpoint = cfg.Observability.OTLPEndpoint
	obsCfg.OTLPHeaders = cfg.Observability.OTLPHeaders
	obsCfg.OTLPInsecure = cfg.Observability.OTLPInsecure
	obsCfg.SampleRatio = cfg.Observability.SampleRatio
	obsCfg.LogJSON = cfg.Observability.LogJSON
	obsCfg.LogLevel = cfg.SlogLevel()
	obsCfg.LogOutput = cmd.ErrOrStderr()

	switch {
	case g.Quiet:
		obsCfg.LogLevel = slog.LevelError
	case g.Verbose:
		obsCfg.LogLevel = slog.LevelDebug
		obsCfg.DebugTrace = true
	}

	providers, err := observability.Init(obsCfg)
	if err != nil {
		return nil, err
	}

	return &session{cfg: cfg, providers: providers}, nil
}

func statusLabel(ok bool, otherwise string) string {
	if ok {
		return color.New(color.FgGreen, color.Bold).Sprint("PASS")
	}

	if otherwise == statusStopped {
		return color.New(color.FgYellow, color.Bold).Sprint(otherwise)
	}

	return color.New(color.FgRed, color.Bold).Sprint(otherwise)
}

const (
	statusFail    = "FAIL"
	statusStopped = "STOPPED"
)
