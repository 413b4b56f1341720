package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/evcraddock/sharebnb/internal/auth"
	"github.com/evcraddock/sharebnb/internal/logging"
	"github.com/evcraddock/sharebnb/internal/metrics"
	"github.com/evcraddock/sharebnb/internal/storage"
	"github.com/evcraddock/sharebnb/internal/web"
)

func newServeCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long:  "Start the HTTP/JSON API server. Settings come from the config file, .env and SB_* environment variables.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, port)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "port to listen on (default: from config, 8080)")

	return cmd
}

func runServe(cmd *cobra.Command, port int) error {
	cfg, err := loadServerConfig()
	if err != nil {
		return err
	}
	if port != 0 {
		cfg.Port = port
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logging.Setup(cfg.DevMode)

	database, err := openDB(cfg.DBPath)
	if err != nil {
		return err
	}
	defer closeDB(database)

	photos, err := storage.New(cfg.Storage)
	if err != nil {
		return err
	}

	srv := web.NewServer(database, web.Options{
		Tokens:         auth.NewTokens(cfg.Secret(), cfg.TokenTTL),
		Uploader:       photos,
		Metrics:        metrics.New(),
		BcryptCost:     cfg.BcryptCost,
		MaxUploadBytes: cfg.MaxUploadBytes,
		DevMode:        cfg.DevMode,
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(cmd.OutOrStdout(), "Starting API on http://localhost:%d\n", cfg.Port)
	return srv.ListenAndServe(ctx, cfg.Port)
}
