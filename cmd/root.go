package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path"
	"syscall"

	"github.com/pyama86/fishstick/domain/repository"
	"github.com/pyama86/fishstick/handler"
	"github.com/spf13/cobra"
)

var (
	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "fishstick",
	Short: "fishstick is a SlackBot for incident management",
	Run: func(cmd *cobra.Command, args []string) {
		if err := run(); err != nil {
			slog.Error("Failed to run command", slog.Any("error", err))
			os.Exit(1)
		}
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	home, err := os.UserHomeDir()
	if err != nil {
		slog.Error("Failed to get user home directory", slog.Any("error", err))
		os.Exit(1)
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", path.Join(home, "fishstick.toml"), "config file path")
}

// requireEnv fails on the first unset variable. The bot needs both Slack
// tokens; the inspection commands only read with the bot token.
func requireEnv(names ...string) error {
	for _, name := range names {
		if os.Getenv(name) == "" {
			return fmt.Errorf("environment variable %s is required but not set", name)
		}
	}
	return nil
}

func loadConfig() (*repository.Config, error) {
	return repository.NewConfigRepository(configPath)
}

func run() error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	if err := requireEnv("SLACK_BOT_TOKEN", "SLACK_APP_TOKEN"); err != nil {
		return err
	}

	config, err := loadConfig()
	if err != nil {
		return err
	}

	slog.Info("Server started",
		slog.String("config", configPath),
		slog.String("channel_prefix", config.Incident.ChannelPrefix),
		slog.Bool("team_updates", config.Incident.TeamUpdateChannelID != ""),
		slog.Bool("confluence_export", config.Confluence.Enabled()),
		slog.Duration("reminder_interval", config.Incident.ReminderInterval),
	)
	return handler.Handle(ctx, config)
}
