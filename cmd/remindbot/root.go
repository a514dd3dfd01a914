package main

import (
	"github.com/DenisKhanov/RemindBOT/internal/app/tbot"
	"github.com/DenisKhanov/RemindBOT/internal/tg_bot/config"
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	var envFile string
	rootCmd := &cobra.Command{
		Use:           "remindbot",
		Short:         "Telegram bot for reminders and todos",
		Long:          "remindbot talks to Telegram users, stores their reminders and todos and delivers reminders when they are due.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := tbot.NewApp(cmd.Context(), envFile)
			if err != nil {
				return err
			}
			return app.Run(cmd.Context())
		},
	}
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", config.DefaultEnvFile, "env file with the bot configuration")

	rootCmd.AddCommand(newMigrateCmd(&envFile))
	return rootCmd
}

func newMigrateCmd(envFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the database schema and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := tbot.NewApp(cmd.Context(), *envFile)
			if err != nil {
				return err
			}
			return app.Migrate(cmd.Context())
		},
	}
}
