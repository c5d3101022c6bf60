package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Show import run history",
}

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent import runs",
	RunE:  runRunsList,
}

var runsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show the item results of one run",
	Args:  cobra.ExactArgs(1),
	RunE:  runRunsShow,
}

func init() {
	runsListCmd.Flags().IntP("limit", "n", 20, "Maximum number of runs (0 = all)")
	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsShowCmd)
	rootCmd.AddCommand(runsCmd)
}

func runRunsList(cmd *cobra.Command, _ []string) error {
	if runService == nil {
		return errors.New("run service not configured")
	}
	limit, _ := cmd.Flags().GetInt("limit")

	runs, err := runService.List(cmd.Context(), limit)
	if err != nil {
		return fmt.Errorf("list runs: %w", err)
	}
	if len(runs) == 0 {
		cmd.Println("No import runs recorded.")
		return nil
	}

	for _, r := range runs {
		s := r.Summary
		cmd.Printf("%s  %s  %d items (%d created, %d updated, %d skipped, %d failed)\n",
			r.ID, r.StartedAt.Local().Format(time.DateTime),
			s.Total, s.Created, s.Updated, s.Skipped, s.Failed)
	}
	return nil
}

func runRunsShow(cmd *cobra.Command, args []string) error {
	if runService == nil {
		return errors.New("run service not configured")
	}

	run, items, err := runService.Get(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("show run: %w", err)
	}

	cmd.Println(ui.Title.Render("Import run " + run.ID))
	cmd.Printf("%s %s\n", ui.Label.Render("Started:"), run.StartedAt.Local().Format(time.DateTime))
	cmd.Printf("%s %s\n", ui.Label.Render("Took:"), run.EndedAt.Sub(run.StartedAt).Round(time.Millisecond))
	cmd.Printf("%s %t\n", ui.Label.Render("Overwrite:"), run.Overwrite)
	for _, it := range items {
		line := fmt.Sprintf("  %3d %s %s", it.Position, ui.Action(it.Action), it.Name)
		if it.ObjectID != "" {
			line += " " + ui.Muted.Render(it.ObjectID)
		}
		if it.WarningCount > 0 {
			line += " " + ui.Warning.Render(fmt.Sprintf("(%d warnings)", it.WarningCount))
		}
		cmd.Println(line)
		if it.Error != "" {
			cmd.Println("        " + ui.Error.Render(fmt.Sprintf("[%s] %s", it.Stage, it.Error)))
		}
	}
	cmd.Println(ui.Summary(run.Summary))
	return nil
}
