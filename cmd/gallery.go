package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/kozaktomas/photo-booth/internal/config"
)

var galleryCmd = &cobra.Command{
	Use:   "gallery",
	Short: "List the template gallery",
	Long: `Fetches the template gallery from the booth API and lists the templates
of one gender and category, or of all of them with --all.

Example:
  photo-booth gallery
  photo-booth gallery --gender women --category fantasy
  photo-booth gallery --all`,
	RunE: runGallery,
}

func init() {
	rootCmd.AddCommand(galleryCmd)

	galleryCmd.Flags().String("gender", "men", "Gender to list")
	galleryCmd.Flags().String("category", "classic", "Category to list")
	galleryCmd.Flags().Bool("all", false, "List every gender and category")
}

// categoryLabel renders a category the way the kiosk shows it ("superhero" -> "Superhero").
func categoryLabel(s string) string {
	return cases.Title(language.English).String(s)
}

func runGallery(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	gender := mustGetString(cmd, "gender")
	category := mustGetString(cmd, "category")
	all := mustGetBool(cmd, "all")

	if !all {
		if !cfg.Catalog.HasGender(gender) {
			return fmt.Errorf("unknown gender %q (valid: %v)", gender, cfg.Catalog.Genders)
		}
		if !cfg.Catalog.HasCategory(category) {
			return fmt.Errorf("unknown category %q (valid: %v)", category, cfg.Catalog.Categories)
		}
	}

	ctx := context.Background()
	k, err := openKiosk(ctx, cfg, true)
	if err != nil {
		return err
	}
	defer k.Close()

	if err := k.Gallery.Refresh(ctx); err != nil {
		return fmt.Errorf("failed to get gallery: %w", err)
	}

	type group struct{ gender, category string }
	groups := []group{{gender, category}}
	if all {
		groups = groups[:0]
		for _, g := range cfg.Catalog.Genders {
			for _, c := range cfg.Catalog.Categories {
				groups = append(groups, group{g, c})
			}
		}
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tGENDER\tCATEGORY\tIMAGE")
	fmt.Fprintln(w, "--\t------\t--------\t-----")

	total := 0
	for _, g := range groups {
		for _, t := range k.Gallery.TemplatesFor(g.gender, g.category) {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", t.ID, categoryLabel(t.Gender), categoryLabel(t.Category), t.Image)
			total++
		}
	}

	w.Flush()

	fmt.Printf("\nTotal: %d templates\n", total)
	fmt.Printf("User templates: %d, remaining uploads: %d\n", k.Gallery.UserTemplatesCount(), k.Gallery.RemainingUploads())

	return nil
}
