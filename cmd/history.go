package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/photo-booth/internal/config"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded swaps",
	Long: `Lists the most recent swaps stored in PostgreSQL (requires DATABASE_URL).

Example:
  photo-booth history
  photo-booth history --model headswap --limit 10`,
	RunE: runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().String("model", "", "Only list swaps made with this model")
	historyCmd.Flags().Int("limit", 50, "Maximum number of swaps to list")
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	model := mustGetString(cmd, "model")
	limit := mustGetInt(cmd, "limit")

	if cfg.Database.URL == "" {
		return errors.New("DATABASE_URL environment variable is required")
	}

	ctx := context.Background()
	k, err := openKiosk(ctx, cfg, false)
	if err != nil {
		return err
	}
	defer k.Close()

	entries, err := k.Swaps.List(ctx, model, limit)
	if err != nil {
		return fmt.Errorf("failed to list swaps: %w", err)
	}
	counts, err := k.Swaps.CountByModel(ctx)
	if err != nil {
		return fmt.Errorf("failed to count swaps: %w", err)
	}

	if len(entries) == 0 {
		fmt.Println("No swaps recorded.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "CREATED\tMODEL\tMODE\tTEMPLATE\tDURATION\tRESULT")
	fmt.Fprintln(w, "-------\t-----\t----\t--------\t--------\t------")

	for _, e := range entries {
		template := e.TemplateID
		if template == "" {
			template = e.TemplateURL
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			e.CreatedAt.Local().Format(time.DateTime), e.Model, e.Mode, template,
			e.Duration.Round(time.Millisecond), e.ImageURL)
	}

	w.Flush()

	models := make([]string, 0, len(counts))
	for m := range counts {
		models = append(models, m)
	}
	sort.Strings(models)

	fmt.Printf("\nShown: %d swaps\n", len(entries))
	for _, m := range models {
		fmt.Printf("  %s: %d total\n", m, counts[m])
	}

	return nil
}
