package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/photo-booth/internal/boothapi"
	"github.com/kozaktomas/photo-booth/internal/config"
)

var deleteCmd = &cobra.Command{
	Use:   "delete <image-url> [image-url...]",
	Short: "Delete user templates",
	Long: `Delete user templates by their image URL. The public id is taken from the
part of the URL after /upload/, without the version segment and extension.

Example:
  photo-booth delete https://res.cloudinary.com/demo/image/upload/v123/user_tempelets/men/classic/x.jpg
  photo-booth delete --dry-run <image-url>`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDelete,
}

func init() {
	rootCmd.AddCommand(deleteCmd)
	deleteCmd.Flags().Bool("dry-run", false, "Only print the public ids that would be deleted")
}

func runDelete(cmd *cobra.Command, args []string) error {
	dryRun := mustGetBool(cmd, "dry-run")

	for _, imageURL := range args {
		publicID, err := boothapi.PublicID(imageURL)
		if err != nil {
			return fmt.Errorf("%s: %w", imageURL, err)
		}
		fmt.Printf("%s -> %s\n", imageURL, publicID)
	}
	if dryRun {
		return nil
	}

	cfg := config.Load()
	ctx := context.Background()
	k, err := openAuthenticatedKiosk(ctx, cfg, true)
	if err != nil {
		return err
	}
	defer k.Close()

	for _, imageURL := range args {
		resp, err := k.Client.DeleteTemplate(ctx, imageURL)
		if err != nil {
			return fmt.Errorf("failed to delete %s: %w", imageURL, err)
		}
		message := resp.Message
		if message == "" {
			message = "deleted"
		}
		fmt.Printf("Deleted %s: %s\n", imageURL, message)
	}
	return nil
}
