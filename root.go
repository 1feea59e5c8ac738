package main

import (
	"animvid/config"
	"animvid/logger"

	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var logLevel string
	var settingsPath string

	rootCmd := &cobra.Command{
		Use:           "animvid",
		Short:         "Convert animated WebP, GIF and APNG files to video or GIF",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if logLevel == "" {
				return nil
			}
			level, err := logger.ParseLevel(logLevel)
			if err != nil {
				return err
			}
			logger.SetLevel(level)
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&settingsPath, "settings", config.GetSettingsPath(), "Settings file path")

	rootCmd.AddCommand(newConvertCommand(&settingsPath))
	rootCmd.AddCommand(newInspectCommand(&settingsPath))
	rootCmd.AddCommand(newServeCommand(&settingsPath))
	rootCmd.AddCommand(newHistoryCommand())
	rootCmd.AddCommand(newTokenCommand())

	return rootCmd
}
