package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/cmisimport/internal/core/domain"
	"github.com/custodia-labs/cmisimport/internal/core/ports/driving"
)

var importCmd = &cobra.Command{
	Use:   "import <manifest>",
	Short: "Import the items listed in a manifest",
	Long: `Import every item in a TOML, YAML or JSON manifest, in order.

An item is created when nothing with its name exists in the destination.
When an object of that name exists it is skipped, or updated with
--overwrite. Failed items are reported and the run continues.

Items may refer to earlier items by key: a destination or association
target of "@report" is replaced with the id imported for key "report".`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	importCmd.Flags().Bool("overwrite", false, "Update existing objects instead of skipping them")
	importCmd.Flags().Bool("watch", false, "Re-import whenever the manifest changes")
	importCmd.Flags().Bool("json", false, "Print results as JSON")
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	if sessionService == nil {
		return errors.New("session service not configured")
	}
	ctx := cmd.Context()
	path := args[0]

	var opts driving.SessionOptions
	if cmd.Flags().Changed("overwrite") {
		overwrite, _ := cmd.Flags().GetBool("overwrite")
		opts.Overwrite = &overwrite
	}
	asJSON, _ := cmd.Flags().GetBool("json")
	watch, _ := cmd.Flags().GetBool("watch")

	session, err := sessionService.Open(ctx, opts)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}

	if err := importManifest(ctx, cmd, session, path, asJSON); err != nil {
		return err
	}
	if !watch {
		return nil
	}

	cmd.PrintErrf("Watching %s for changes... (Press Ctrl+C to exit)\n", path)
	return sessionService.WatchManifest(ctx, path, func() {
		if err := importManifest(ctx, cmd, session, path, asJSON); err != nil {
			cmd.PrintErrf("Error: %v\n", err)
		}
	})
}

// importManifest reads and imports one manifest with an open session.
func importManifest(ctx context.Context, cmd *cobra.Command, session *driving.Session, path string, asJSON bool) error {
	items, err := sessionService.ReadManifest(ctx, path)
	if err != nil {
		return err
	}

	batch, err := session.Import.ImportAll(ctx, items)
	if batch != nil {
		if asJSON {
			if jsonErr := outputBatchJSON(cmd, batch); jsonErr != nil {
				return jsonErr
			}
		} else {
			outputBatch(cmd, batch)
		}
	}
	if err != nil {
		return fmt.Errorf("import run stopped: %w", err)
	}
	return nil
}

func outputBatch(cmd *cobra.Command, batch *domain.BatchResult) {
	cmd.Println(ui.Title.Render("Import run " + batch.RunID))
	for i := range batch.Results {
		r := &batch.Results[i]
		line := fmt.Sprintf("  %s %s", ui.Action(r.Action), r.Name)
		if r.ObjectID != "" {
			line += " " + ui.Muted.Render(r.ObjectID)
		}
		cmd.Println(line)
		if r.Err != nil {
			cmd.Println("      " + ui.Error.Render(r.Err.Error()))
		}
		for _, w := range r.Warnings {
			cmd.Println("      " + ui.Warning.Render(w.Message))
		}
	}
	cmd.Println(ui.Summary(batch.Summary))
}

// batchJSON is the --json output shape.
type batchJSON struct {
	RunID   string       `json:"run_id"`
	Summary summaryJSON  `json:"summary"`
	Results []resultJSON `json:"results"`
}

type summaryJSON struct {
	Total   int `json:"total"`
	Created int `json:"created"`
	Updated int `json:"updated"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

type resultJSON struct {
	Position int      `json:"position"`
	Name     string   `json:"name"`
	ObjectID string   `json:"object_id,omitempty"`
	Action   string   `json:"action"`
	Stage    string   `json:"stage,omitempty"`
	Error    string   `json:"error,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

func newBatchJSON(batch *domain.BatchResult) batchJSON {
	sum := batch.Summary
	out := batchJSON{
		RunID:   batch.RunID,
		Summary: summaryJSON{sum.Total, sum.Created, sum.Updated, sum.Skipped, sum.Failed},
		Results: make([]resultJSON, 0, len(batch.Results)),
	}
	for i := range batch.Results {
		r := &batch.Results[i]
		rj := resultJSON{
			Position: r.Position,
			Name:     r.Name,
			ObjectID: r.ObjectID,
			Action:   string(r.Action),
		}
		if r.Err != nil {
			rj.Error = r.Err.Error()
			rj.Stage = string(domain.StageOf(r.Err))
		}
		for _, w := range r.Warnings {
			rj.Warnings = append(rj.Warnings, w.Message)
		}
		out.Results = append(out.Results, rj)
	}
	return out
}

func outputBatchJSON(cmd *cobra.Command, batch *domain.BatchResult) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(newBatchJSON(batch))
}
