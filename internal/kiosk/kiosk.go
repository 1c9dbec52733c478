// Package kiosk wires the booth together: API client, gallery, camera,
// session controller, credentials and optional swap history.
package kiosk

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"github.com/kozaktomas/photo-booth/internal/boothapi"
	"github.com/kozaktomas/photo-booth/internal/capture"
	"github.com/kozaktomas/photo-booth/internal/config"
	"github.com/kozaktomas/photo-booth/internal/credentials"
	"github.com/kozaktomas/photo-booth/internal/database/postgres"
	"github.com/kozaktomas/photo-booth/internal/gallery"
	"github.com/kozaktomas/photo-booth/internal/workflow"
)

// Options tune how the kiosk is assembled.
type Options struct {
	// CaptureDir saves raw API responses for building test fixtures.
	CaptureDir string
	// Device replaces the spool-directory camera.
	Device capture.Device
	// SkipHistory disables the swap history even when a database is configured.
	SkipHistory bool
}

// Kiosk is the assembled booth.
type Kiosk struct {
	Config     *config.Config
	Client     *boothapi.Client
	Gallery    *gallery.Gallery
	Controller *workflow.Controller
	Resolver   *credentials.Resolver
	Swaps      *postgres.SwapRepository

	pool *postgres.Pool
	cron *cron.Cron
}

// New assembles the kiosk from configuration. The database is only opened
// when DATABASE_URL is set.
func New(ctx context.Context, cfg *config.Config, opts Options) (*Kiosk, error) {
	clientOpts := []boothapi.Option{
		boothapi.WithTimeout(cfg.API.Timeout),
		boothapi.WithToken(cfg.API.Token),
	}
	if opts.CaptureDir != "" {
		clientOpts = append(clientOpts, boothapi.WithCaptureDir(opts.CaptureDir))
	}
	client, err := boothapi.New(cfg.API.URL, clientOpts...)
	if err != nil {
		return nil, err
	}

	k := &Kiosk{
		Config:  cfg,
		Client:  client,
		Gallery: gallery.New(client),
		Resolver: credentials.NewResolver(
			client,
			credentials.NewStore(cfg.Credentials.Dir),
			credentials.NewLoginLog(cfg.Credentials.Dir),
			cfg.API.DeviceKey,
			credentials.LoginDuration(cfg.Credentials.LoginDurationMonths),
		),
	}

	var controllerOpts []workflow.Option
	if cfg.Database.URL != "" && !opts.SkipHistory {
		pool, err := postgres.NewPool(&cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := pool.Migrate(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to migrate database: %w", err)
		}
		k.pool = pool
		k.Swaps = postgres.NewSwapRepository(pool)
		controllerOpts = append(controllerOpts, workflow.WithRecorder(k.Swaps))
		log.Info("Swap history enabled (PostgreSQL)")
	}

	device := opts.Device
	if device == nil {
		device = capture.NewSpoolDevice(cfg.Capture.SpoolDir, cfg.Capture.MaxFrameSize)
	}
	k.Controller = workflow.NewController(device, NewAPISwapper(client), controllerOpts...)
	return k, nil
}

// Authenticate makes sure the client carries a token. A configured static
// token wins; otherwise auto-login and stored credentials are tried.
func (k *Kiosk) Authenticate(ctx context.Context) error {
	if k.Client.Token() != "" {
		return nil
	}
	creds, err := k.Resolver.Resolve(ctx)
	if err != nil {
		return err
	}
	k.Client.SetToken(creds.Token)
	return nil
}

// Login authenticates with email and password and updates the client token.
func (k *Kiosk) Login(ctx context.Context, email, password string) (*credentials.Credentials, error) {
	creds, err := k.Resolver.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	k.Client.SetToken(creds.Token)
	return creds, nil
}

// Logout forgets the stored session and drops the client token.
func (k *Kiosk) Logout() error {
	if err := k.Resolver.Logout(); err != nil {
		return err
	}
	k.Client.SetToken("")
	return nil
}

// StartGalleryRefresh refreshes the gallery now and then on the configured
// cron schedule. An empty schedule only performs the initial refresh.
func (k *Kiosk) StartGalleryRefresh(ctx context.Context) error {
	refresh := func() {
		refreshCtx, cancel := context.WithTimeout(ctx, k.Config.API.Timeout)
		defer cancel()
		if err := k.Gallery.Refresh(refreshCtx); err != nil {
			log.WithError(err).Warn("Gallery refresh failed")
		}
	}
	refresh()

	schedule := k.Config.Gallery.RefreshSchedule
	if schedule == "" {
		return nil
	}

	c := cron.New()
	if _, err := c.AddFunc(schedule, refresh); err != nil {
		return fmt.Errorf("invalid gallery refresh schedule %q: %w", schedule, err)
	}
	c.Start()
	k.cron = c
	log.WithField("schedule", schedule).Info("Gallery refresh scheduled")
	return nil
}

// Close stops background work, releases the camera and closes the database.
func (k *Kiosk) Close() error {
	if k.cron != nil {
		stopCtx := k.cron.Stop()
		select {
		case <-stopCtx.Done():
		case <-time.After(5 * time.Second):
		}
	}
	k.Controller.Close()

	var errs []error
	if k.pool != nil {
		errs = append(errs, k.pool.Close())
	}
	return errors.Join(errs...)
}
