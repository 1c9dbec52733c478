package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/photo-booth/internal/boothapi"
	"github.com/kozaktomas/photo-booth/internal/capture"
	"github.com/kozaktomas/photo-booth/internal/config"
	"github.com/kozaktomas/photo-booth/internal/constants"
	"github.com/kozaktomas/photo-booth/internal/kiosk"
	"github.com/kozaktomas/photo-booth/internal/workflow"
)

var swapCmd = &cobra.Command{
	Use:   "swap <template-id|template-url> <photo-file>",
	Short: "Swap a face from a photo into a template",
	Long: `Sends a photo and a template to the booth API and saves the swapped result.

The template is either a gallery id (see 'photo-booth gallery') or an image URL.

Example:
  photo-booth swap men-classic-0 me.jpg
  photo-booth swap women-fantasy-2 me.jpg --model headswap --mode landscape
  photo-booth swap https://cdn.example.com/t.jpg me.jpg -o result.jpg --qr share.png`,
	Args: cobra.ExactArgs(2),
	RunE: runSwap,
}

func init() {
	rootCmd.AddCommand(swapCmd)

	swapCmd.Flags().String("mode", constants.DefaultMode, "Output orientation (portrait, landscape)")
	swapCmd.Flags().String("model", constants.DefaultModel, "Swap model (inswapper, headswap)")
	swapCmd.Flags().StringP("output", "o", constants.ResultFilename, "File to save the swapped image to")
	swapCmd.Flags().String("qr", "", "File to save the share QR code to")
}

// resolveTemplate turns a gallery id or URL into a template id and image URL.
func resolveTemplate(ctx context.Context, k *kiosk.Kiosk, ref string) (string, string, error) {
	if strings.Contains(ref, "://") {
		return "", ref, nil
	}
	if err := k.Gallery.Refresh(ctx); err != nil {
		return "", "", fmt.Errorf("failed to get gallery: %w", err)
	}
	tmpl, ok := k.Gallery.Lookup(ref)
	if !ok {
		return "", "", fmt.Errorf("template %q not found in gallery", ref)
	}
	return tmpl.ID, tmpl.Image, nil
}

// saveShareCode decodes the QR data URL and writes it to path.
func saveShareCode(shareCode, path string) error {
	data, _, err := capture.DecodeDataURL(shareCode)
	if err != nil {
		return fmt.Errorf("failed to decode QR code: %w", err)
	}
	return os.WriteFile(path, data, 0o644) //nolint:gosec // output file chosen by the user
}

func runSwap(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	mode := mustGetString(cmd, "mode")
	model := mustGetString(cmd, "model")
	output := mustGetString(cmd, "output")
	qrPath := mustGetString(cmd, "qr")

	if !cfg.Catalog.HasMode(mode) {
		return fmt.Errorf("unknown mode %q (valid: %v)", mode, cfg.Catalog.Modes)
	}
	if !cfg.Catalog.HasModel(model) {
		return fmt.Errorf("unknown model %q (valid: %v)", model, cfg.Catalog.Models)
	}

	raw, err := os.ReadFile(args[1])
	if err != nil {
		return fmt.Errorf("cannot read photo: %w", err)
	}
	photo, err := capture.DecodePhoto(raw, cfg.Capture.MaxFrameSize, constants.JPEGQuality, time.Now())
	if err != nil {
		return err
	}

	ctx := context.Background()
	k, err := openAuthenticatedKiosk(ctx, cfg, false)
	if err != nil {
		return err
	}
	defer k.Close()

	templateID, templateURL, err := resolveTemplate(ctx, k, args[0])
	if err != nil {
		return err
	}

	fmt.Printf("Swapping with %s (%s, %s)...\n", model, mode, templateURL)
	start := time.Now()
	resp, err := k.Client.Swap(ctx, boothapi.SwapRequest{
		TemplateURL: templateURL,
		Photo:       photo.Data,
		PhotoType:   photo.ContentType,
		Mode:        mode,
		Model:       model,
	})
	if err != nil {
		return fmt.Errorf("swap failed: %w", err)
	}
	elapsed := time.Since(start)

	fmt.Printf("Result: %s (%s)\n", resp.SwappedImageURL, elapsed.Round(time.Millisecond))

	if k.Swaps != nil {
		id, err := k.Swaps.Save(ctx, workflow.SwapRecord{
			TemplateID:     templateID,
			TemplateImage:  templateURL,
			Mode:           mode,
			Model:          resp.ModelUsed,
			ResultImageURL: resp.SwappedImageURL,
			Duration:       elapsed,
			CreatedAt:      time.Now(),
		})
		if err != nil {
			fmt.Printf("Warning: failed to record swap: %v\n", err)
		} else {
			fmt.Printf("Recorded as %s\n", id)
		}
	}

	if output != "" {
		data, _, err := k.Client.DownloadResult(ctx, resp.SwappedImageURL)
		if err != nil {
			return fmt.Errorf("failed to download result: %w", err)
		}
		if err := os.WriteFile(output, data, 0o644); err != nil { //nolint:gosec // output file chosen by the user
			return fmt.Errorf("failed to save result: %w", err)
		}
		fmt.Printf("Saved result to %s\n", output)
	}

	if qrPath != "" {
		if err := saveShareCode(resp.QRCode, qrPath); err != nil {
			return err
		}
		fmt.Printf("Saved QR code to %s\n", qrPath)
	}

	return nil
}
