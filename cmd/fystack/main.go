// Command fystack shows a multi-page TIFF stack one frame at a time.
package main

import (
	"fmt"
	"os"

	"fystack/internal/config"
	"fystack/internal/logging"
	"fystack/internal/service"
	"fystack/internal/ui"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newRootCmd() *cobra.Command {
	flags := config.NewFlags()
	v := viper.New()

	rootCmd := &cobra.Command{
		Use:   "fystack [file]",
		Short: "Multi-page TIFF stack viewer",
		Long: `fystack opens a multi-page TIFF file and shows it one frame at a time,
with a slider and previous/next buttons to move through the stack.

Examples:
  fystack                  # Pick a file in the open dialog
  fystack cells.tif        # Open cells.tif directly
  fystack --load-all=false cells.tif`,
		Args:          cobra.MaximumNArgs(1),
		Version:       config.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := config.InitConfig(v, flags.CfgFile); err != nil {
				return err
			}
			settings, err := config.Load(v)
			if err != nil {
				return err
			}

			logger, err := logging.New(settings.LogLevel)
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck
			if settings.CfgFile != "" {
				logger.Sugar().Infof("Using config file: %s", settings.CfgFile)
			}

			svc, err := service.Setup(settings, logging.Func(logger, "service"))
			if err != nil {
				return err
			}

			var path string
			if len(args) > 0 {
				path = args[0]
			}
			ui.CreateApplication(settings, svc, logging.Func(logger, "ui"), path, cmd.OutOrStdout())
			return nil
		},
	}

	flags.Register(rootCmd.Flags())
	cobra.CheckErr(config.Bind(v, rootCmd.Flags()))
	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
