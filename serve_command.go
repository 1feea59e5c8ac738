package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"animvid/config"
	"animvid/credentials"
	"animvid/decoder"
	"animvid/encoder"
	"animvid/history"
	"animvid/job"
	"animvid/logger"
	"animvid/publish"
	"animvid/routes"

	"github.com/spf13/cobra"
)

const (
	cleanupInterval = 24 * time.Hour
	historyMaxAge   = 30 * 24 * time.Hour
	shutdownTimeout = 10 * time.Second
)

func newServeCommand(settingsPath *string) *cobra.Command {
	var addr string
	var logFile string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP conversion server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if logFile != "" {
				if err := logger.Init(logFile, true); err != nil {
					return err
				}
				defer logger.Close()
			}
			if len(config.GetJWTSecret()) == 0 {
				logger.Warn("ANIMVID_JWT_SECRET is not set, every convert request will be rejected")
			}

			settings, err := config.LoadSettings(*settingsPath)
			if err != nil {
				return err
			}
			defaults, err := settings.JobSettings()
			if err != nil {
				return err
			}

			if err := os.MkdirAll(config.GetDataDir(), 0755); err != nil {
				return err
			}
			logger.Debug("Initializing history database")
			hist, err := history.Open(config.GetHistoryDBPath())
			if err != nil {
				return err
			}
			defer hist.Close()

			logger.Debug("Initializing credentials database")
			creds, err := credentials.Open(config.GetCredentialsDBPath())
			if err != nil {
				return err
			}
			defer creds.Close()

			encoder.Default.RegisterDefaults(config.GetFFmpegBinary())
			runner := job.NewRunner(decoder.Imaging{}, encoder.Default)
			runner.Recorder = hist
			runner.Publisher = publish.New(creds, config.GetDirectServeBaseDir())

			srv := &routes.Server{
				Runner:      runner,
				History:     hist,
				Credentials: creds,
				Defaults:    defaults,
				JWTSecret:   config.GetJWTSecret(),
				ServeDir:    config.GetDirectServeBaseDir(),
				Formats:     encoder.Default.Formats,
			}
			mux := http.NewServeMux()
			srv.Register(mux)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			go cleanupRoutine(ctx, hist)

			return listen(ctx, &http.Server{Addr: addr, Handler: mux})
		},
	}
	cmd.Flags().StringVar(&addr, "addr", config.GetListenAddr(), "HTTP listen address")
	cmd.Flags().StringVar(&logFile, "log-file", "", "Also write logs to this file")
	return cmd
}

// listen serves until ctx is done, then drains open requests.
func listen(ctx context.Context, hs *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Infof("animvid server listening on %s", hs.Addr)
		errCh <- hs.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := hs.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// cleanupRoutine drops history records older than historyMaxAge once a day.
func cleanupRoutine(ctx context.Context, hist *history.Store) {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Debug("Cleanup routine stopped")
			return
		case <-ticker.C:
			pruneHistory(hist, historyMaxAge)
		}
	}
}

func pruneHistory(hist *history.Store, maxAge time.Duration) {
	n, err := hist.CleanupOldRecords(maxAge)
	if err != nil {
		logger.Errorf("Failed to clean up old history records: %v", err)
		return
	}
	logger.Infof("Removed %d history record(s) older than %v", n, maxAge)
}
