package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/cmisimport/internal/core/ports/driving"
)

var datalistsCmd = &cobra.Command{
	Use:   "datalists <site> [item-type]",
	Short: "Find or create a site's data lists",
	Long: `Without an item type, show the site's data list container.
With an item type such as dl:task, list the site's data lists holding
items of that type.

--create makes the container, or a list, when none exists.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runDataLists,
}

func init() {
	datalistsCmd.Flags().Bool("create", false, "Create the container or list when missing")
	rootCmd.AddCommand(datalistsCmd)
}

func runDataLists(cmd *cobra.Command, args []string) error {
	if sessionService == nil {
		return errors.New("session service not configured")
	}
	ctx := cmd.Context()
	create, _ := cmd.Flags().GetBool("create")

	session, err := sessionService.Open(ctx, driving.SessionOptions{})
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}

	site := args[0]
	if len(args) == 1 {
		container, err := session.DataLists.Container(ctx, site, create)
		if err != nil {
			return fmt.Errorf("data list container for %s: %w", site, err)
		}
		cmd.Printf("%s %s\n", container.Name, ui.Muted.Render(container.ID))
		return nil
	}

	lists, err := session.DataLists.Lists(ctx, site, args[1], create)
	if err != nil {
		return fmt.Errorf("data lists for %s: %w", site, err)
	}
	if len(lists) == 0 {
		cmd.Printf("No %s data lists in site %s.\n", args[1], site)
		return nil
	}
	for _, l := range lists {
		cmd.Printf("%s %s\n", l.Name, ui.Muted.Render(l.ID))
	}
	return nil
}
