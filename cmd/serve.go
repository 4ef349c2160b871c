package cmd

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ObiAU/equitynews/internal/app"
	"github.com/ObiAU/equitynews/internal/logger"
)

var flagPort string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the web UI (and the Telegram bot when TELEGRAM_BOT_TOKEN is set)",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&flagPort, "port", "", "HTTP port (overrides SERVER_PORT)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if flagPort != "" {
		cfg.ServerPort = flagPort
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a := app.New(cfg)
	defer a.Close()

	logger.Info("starting equity research news tool")
	if err := a.Run(ctx); err != nil {
		return err
	}
	logger.Info("equity research news tool stopped gracefully")
	return nil
}
