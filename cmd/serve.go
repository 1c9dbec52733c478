package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/kozaktomas/photo-booth/internal/apperr"
	"github.com/kozaktomas/photo-booth/internal/config"
	"github.com/kozaktomas/photo-booth/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the kiosk web server",
	Long: `Start the Photo Booth kiosk web server.
The server drives the booth session (template selection, capture, swap
preview) and serves the kiosk front end. The gallery is refreshed in the
background on GALLERY_REFRESH_SCHEDULE. Swaps are recorded in PostgreSQL
when DATABASE_URL is set.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", 8080, "Port to listen on")
	serveCmd.Flags().String("host", "0.0.0.0", "Host to bind to")
	serveCmd.Flags().Bool("no-history", false, "Do not record swaps even when DATABASE_URL is set")
}

// resolveServeHostPort resolves port and host from flags and environment variables.
func resolveServeHostPort(cmd *cobra.Command) (int, string) {
	port := mustGetInt(cmd, "port")
	host := mustGetString(cmd, "host")

	if envPort := os.Getenv("WEB_PORT"); envPort != "" {
		fmt.Sscanf(envPort, "%d", &port)
	}
	if envHost := os.Getenv("WEB_HOST"); envHost != "" {
		host = envHost
	}
	return port, host
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	port, host := resolveServeHostPort(cmd)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	k, err := openKiosk(ctx, cfg, mustGetBool(cmd, "no-history"))
	if err != nil {
		return err
	}
	defer k.Close()

	if err := k.Authenticate(ctx); err != nil {
		if !apperr.Is(err, apperr.KindAuth) {
			return fmt.Errorf("failed to authenticate: %w", err)
		}
		log.WithError(err).Warn("No usable credentials, swaps will fail until 'photo-booth login' is run")
	}

	if err := k.StartGalleryRefresh(ctx); err != nil {
		return err
	}

	server := web.NewServer(cfg, port, host, k)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Println("\nShutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(ctx, 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Error("Error during shutdown")
		}
	}()

	fmt.Printf("Starting Photo Booth kiosk on http://%s:%d\n", host, port)
	fmt.Println("Press Ctrl+C to stop")

	if err := server.Start(); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}
	return nil
}
