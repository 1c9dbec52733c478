package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/kozaktomas/photo-booth/internal/boothapi"
	"github.com/kozaktomas/photo-booth/internal/config"
	"github.com/kozaktomas/photo-booth/internal/constants"
)

var uploadCmd = &cobra.Command{
	Use:   "upload <file> [file...]",
	Short: "Upload user templates",
	Long: `Upload one or more template images into a gender and category folder.
The booth holds at most 30 user templates; uploads stop when the quota is used up.
Supported formats: jpg, jpeg, png, webp

Example:
  photo-booth upload hero.jpg
  photo-booth upload --gender women --category superhero a.jpg b.png`,
	Args: cobra.MinimumNArgs(1),
	RunE: runUpload,
}

func init() {
	rootCmd.AddCommand(uploadCmd)
	uploadCmd.Flags().String("gender", constants.DefaultGender, "Template gender folder")
	uploadCmd.Flags().String("category", constants.DefaultCategory, "Template category folder")
}

// isImageFile checks if a file has a supported image extension
func isImageFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg", ".png", ".webp":
		return true
	}
	return false
}

// uploadFile uploads a single template file.
func uploadFile(ctx context.Context, client *boothapi.Client, path, gender, category string) (*boothapi.UploadResponse, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open %s: %w", path, err)
	}
	defer f.Close()
	return client.UploadTemplate(ctx, filepath.Base(path), f, gender, category)
}

func runUpload(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	gender := mustGetString(cmd, "gender")
	category := mustGetString(cmd, "category")

	if !cfg.Catalog.HasGender(gender) {
		return fmt.Errorf("unknown gender %q (valid: %v)", gender, cfg.Catalog.Genders)
	}
	if !cfg.Catalog.HasCategory(category) {
		return fmt.Errorf("unknown category %q (valid: %v)", category, cfg.Catalog.Categories)
	}

	for _, path := range args {
		if !isImageFile(path) {
			return fmt.Errorf("%s is not a supported image file", path)
		}
	}

	ctx := context.Background()
	k, err := openAuthenticatedKiosk(ctx, cfg, true)
	if err != nil {
		return err
	}
	defer k.Close()

	if err := k.Gallery.Refresh(ctx); err != nil {
		fmt.Printf("Warning: could not read upload quota: %v\n", err)
	}
	remaining := k.Gallery.RemainingUploads()
	if remaining == 0 {
		return fmt.Errorf("upload limit of %d templates reached", constants.UploadQuota)
	}

	files := args
	if len(files) > remaining {
		fmt.Printf("Only %d uploads remaining, skipping %d files\n", remaining, len(files)-remaining)
		files = files[:remaining]
	}

	fmt.Printf("Uploading %d templates to %s\n", len(files), boothapi.TemplateFolder(gender, category))

	bar := progressbar.NewOptions(len(files),
		progressbar.OptionSetDescription("Uploading"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetItsString("files"),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionFullWidth(),
	)

	var uploaded []string
	var failed []string
	for _, path := range files {
		resp, err := uploadFile(ctx, k.Client, path, gender, category)
		if err != nil {
			failed = append(failed, fmt.Sprintf("%s: %v", path, err))
		} else {
			uploaded = append(uploaded, resp.SecureURL)
		}
		bar.Add(1)
	}
	bar.Finish()
	fmt.Println()

	for _, u := range uploaded {
		fmt.Printf("  %s\n", u)
	}
	for _, f := range failed {
		fmt.Printf("  FAILED %s\n", f)
	}

	if err := k.Gallery.Refresh(ctx); err == nil {
		fmt.Printf("\nUploaded: %d, failed: %d, remaining uploads: %d\n", len(uploaded), len(failed), k.Gallery.RemainingUploads())
	} else {
		fmt.Printf("\nUploaded: %d, failed: %d\n", len(uploaded), len(failed))
	}

	if len(failed) > 0 {
		return fmt.Errorf("%d uploads failed", len(failed))
	}
	return nil
}
