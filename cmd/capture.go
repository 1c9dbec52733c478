package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/kozaktomas/photo-booth/internal/config"
	"github.com/kozaktomas/photo-booth/internal/constants"
	"github.com/kozaktomas/photo-booth/internal/workflow"
)

var captureCmd = &cobra.Command{
	Use:   "capture <template-id>",
	Short: "Run a booth session from the terminal",
	Long: `Runs one booth session without the web UI: selects the template, opens the
camera spool (CAPTURE_SPOOL_DIR), takes a photo after the countdown and
optionally swaps it.

Example:
  photo-booth capture men-classic-0 -o photo.jpg
  photo-booth capture women-fantasy-1 --no-countdown --swap --model headswap`,
	Args: cobra.ExactArgs(1),
	RunE: runCapture,
}

func init() {
	rootCmd.AddCommand(captureCmd)

	captureCmd.Flags().StringP("output", "o", "capture.jpg", "File to save the captured photo to")
	captureCmd.Flags().Bool("no-countdown", false, "Take the photo immediately")
	captureCmd.Flags().Bool("swap", false, "Swap the photo into the template and save the result")
	captureCmd.Flags().String("mode", constants.DefaultMode, "Swap output orientation")
	captureCmd.Flags().String("model", constants.DefaultModel, "Swap model")
}

// session drives a workflow controller and reports its notices as errors.
type session struct {
	ctrl   *workflow.Controller
	events chan workflow.Event
}

// notice returns the first queued notice as an error, if any.
func (s *session) notice() error {
	for {
		select {
		case event, ok := <-s.events:
			if !ok {
				return nil
			}
			if event.Type == workflow.EventNotice && event.Notice != nil {
				return errors.New(event.Notice.Message)
			}
		default:
			return nil
		}
	}
}

func (s *session) dispatch(cmd workflow.Command) (workflow.View, error) {
	view, err := s.ctrl.Dispatch(cmd)
	if err != nil {
		return view, fmt.Errorf("%s: %w", cmd.Type, err)
	}
	return view, nil
}

// settle waits for outstanding camera, capture and swap calls and returns
// the failure they reported.
func (s *session) settle() (workflow.View, error) {
	s.ctrl.Wait()
	return s.ctrl.View(), s.notice()
}

// countdown starts the countdown and shows it as a progress bar until the
// photo is taken.
func (s *session) countdown(ctx context.Context) error {
	if _, err := s.dispatch(workflow.Command{Type: workflow.CmdStartCountdown}); err != nil {
		return err
	}

	bar := progressbar.NewOptions(constants.CountdownTicks,
		progressbar.OptionSetDescription("Smile!"),
		progressbar.OptionShowCount(),
		progressbar.OptionFullWidth(),
	)
	defer fmt.Println()

	timeout := time.After(constants.CountdownTicks*constants.CountdownInterval + 30*time.Second)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timeout:
			return errors.New("timed out waiting for the photo")
		case event, ok := <-s.events:
			if !ok {
				return errors.New("session closed")
			}
			if event.Type == workflow.EventNotice && event.Notice != nil {
				return errors.New(event.Notice.Message)
			}
			if event.State == nil {
				continue
			}
			if event.State.HasPhoto {
				bar.Finish()
				return nil
			}
			if event.State.Countdown > 0 {
				bar.Set(constants.CountdownTicks - event.State.Countdown)
			}
		}
	}
}

func runCapture(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	output := mustGetString(cmd, "output")
	noCountdown := mustGetBool(cmd, "no-countdown")
	doSwap := mustGetBool(cmd, "swap")
	mode := mustGetString(cmd, "mode")
	model := mustGetString(cmd, "model")

	if cfg.Capture.SpoolDir == "" {
		return errors.New("CAPTURE_SPOOL_DIR environment variable is required")
	}

	ctx := context.Background()
	k, err := openKiosk(ctx, cfg, false)
	if err != nil {
		return err
	}
	defer k.Close()

	if doSwap {
		if err := k.Authenticate(ctx); err != nil {
			return err
		}
	}
	if err := k.Gallery.Refresh(ctx); err != nil {
		return fmt.Errorf("failed to get gallery: %w", err)
	}
	tmpl, ok := k.Gallery.Lookup(args[0])
	if !ok {
		return fmt.Errorf("template %q not found in gallery", args[0])
	}

	s := &session{ctrl: k.Controller, events: k.Controller.Events().AddListener()}
	defer k.Controller.Events().RemoveListener(s.events)

	if _, err := s.dispatch(workflow.Command{
		Type:          workflow.CmdSelectTemplate,
		TemplateID:    tmpl.ID,
		TemplateImage: tmpl.Image,
	}); err != nil {
		return err
	}
	if _, err := s.dispatch(workflow.Command{Type: workflow.CmdConfirmTemplate}); err != nil {
		return err
	}
	view, err := s.settle()
	if err != nil {
		return err
	}
	if !view.CameraActive {
		return errors.New("camera is not available")
	}
	fmt.Printf("Camera ready, template %s\n", tmpl.ID)

	if noCountdown {
		if _, err := s.dispatch(workflow.Command{Type: workflow.CmdTakeShot}); err != nil {
			return err
		}
		if _, err := s.settle(); err != nil {
			return err
		}
	} else if err := s.countdown(ctx); err != nil {
		return err
	}

	photo := k.Controller.State().CapturedPhoto
	if photo == nil {
		return errors.New("no photo was captured")
	}
	if err := os.WriteFile(output, photo.Data, 0o644); err != nil { //nolint:gosec // output file chosen by the user
		return fmt.Errorf("failed to save photo: %w", err)
	}
	fmt.Printf("Saved photo to %s\n", output)

	if !doSwap {
		return nil
	}

	if _, err := s.dispatch(workflow.Command{Type: workflow.CmdConfirmShot}); err != nil {
		return err
	}
	if _, err := s.dispatch(workflow.Command{Type: workflow.CmdTriggerSwap, Mode: mode, Model: model}); err != nil {
		return err
	}
	fmt.Printf("Swapping with %s...\n", model)

	view, err = s.settle()
	if err != nil {
		return fmt.Errorf("swap failed: %w", err)
	}
	if view.SwapResult == nil {
		return errors.New("swap produced no result")
	}
	fmt.Printf("Result: %s\n", view.SwapResult.ResultImageURL)

	data, _, err := k.Client.DownloadResult(ctx, view.SwapResult.ResultImageURL)
	if err != nil {
		return fmt.Errorf("failed to download result: %w", err)
	}
	if err := os.WriteFile(constants.ResultFilename, data, 0o644); err != nil { //nolint:gosec // fixed output name
		return fmt.Errorf("failed to save result: %w", err)
	}
	fmt.Printf("Saved result to %s\n", constants.ResultFilename)
	return nil
}
