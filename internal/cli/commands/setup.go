package commands

import (
	"log/slog"

	"github.com/leapstack-labs/leapcheck/internal/catalog"
	"github.com/leapstack-labs/leapcheck/internal/cli/config"
	"github.com/leapstack-labs/leapcheck/internal/cli/output"
	"github.com/spf13/cobra"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Renderer *output.Renderer
}

// NewCommandContext collects the config, logger and renderer prepared by the
// root command. A command run on its own (as in tests) loads the config from
// its flags.
func NewCommandContext(cmd *cobra.Command) (*CommandContext, error) {
	ctx := cmd.Context()
	cfg := config.FromContext(ctx)
	if cfg == nil {
		var err error
		cfg, err = config.Load("", cmd.Flags())
		if err != nil {
			return nil, err
		}
	}

	mode, err := output.ParseMode(cfg.Output)
	if err != nil {
		return nil, err
	}

	return &CommandContext{
		Cfg:      cfg,
		Logger:   config.GetLogger(ctx),
		Renderer: output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode),
	}, nil
}

// LoadRegistry loads the configured catalogs, or the built-in tutorials when
// none are configured.
func (c *CommandContext) LoadRegistry() (*catalog.Registry, error) {
	return catalog.Load(catalog.Options{Paths: c.Cfg.Catalogs, Logger: c.Logger})
}
