package cli

import (
	"fmt"
	"slices"

	"go-workforce/internal/config"
	"go-workforce/internal/shared/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var ValidFormats = []string{"text", "json"}

// RootOptions holds global flags and the state loaded before every command.
type RootOptions struct {
	ConfigPath string
	Format     string

	cfg    *config.Config
	logger *zap.Logger
}

func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "leavectl",
		Short: "Operator tooling for the workforce service",
		Long:  "Schema migrations and dead-letter queue inspection for the leave adjudication pipeline.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}

			cfg, err := config.Load(opts.ConfigPath)
			if err != nil {
				return err
			}
			log, err := logger.New(cfg.Log)
			if err != nil {
				return err
			}
			opts.cfg = cfg
			opts.logger = log
			return nil
		},
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "path to config file")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewDLQCommand(opts))

	return cmd
}
