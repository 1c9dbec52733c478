package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/kozaktomas/photo-booth/internal/config"
	"github.com/kozaktomas/photo-booth/internal/kiosk"
)

var captureDir string

var rootCmd = &cobra.Command{
	Use:   "photo-booth",
	Short: "A face swap photo booth kiosk",
	Long: `Photo Booth runs a face swap kiosk: guests pick a template, take a photo
and get the swapped picture with a QR code to share it.

The booth talks to the face swap API configured by BOOTH_API_URL. The serve
command runs the kiosk web UI; the other commands drive the same API from
the terminal.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&captureDir, "capture", "", "Directory to save API responses for testing")
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
	setupLogging(config.Load().Log)
}

// setupLogging configures the global logrus logger.
func setupLogging(cfg config.LogConfig) {
	level, err := log.ParseLevel(cfg.Level)
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)

	if strings.EqualFold(cfg.Format, "json") {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
}

// openKiosk assembles the kiosk with the --capture directory applied.
func openKiosk(ctx context.Context, cfg *config.Config, skipHistory bool) (*kiosk.Kiosk, error) {
	k, err := kiosk.New(ctx, cfg, kiosk.Options{
		CaptureDir:  captureDir,
		SkipHistory: skipHistory,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to set up booth: %w", err)
	}
	return k, nil
}

// openAuthenticatedKiosk assembles the kiosk and makes sure it holds an API token.
func openAuthenticatedKiosk(ctx context.Context, cfg *config.Config, skipHistory bool) (*kiosk.Kiosk, error) {
	k, err := openKiosk(ctx, cfg, skipHistory)
	if err != nil {
		return nil, err
	}
	if err := k.Authenticate(ctx); err != nil {
		k.Close()
		return nil, fmt.Errorf("%w (run 'photo-booth login' or set BOOTH_DEVICE_KEY)", err)
	}
	return k, nil
}
