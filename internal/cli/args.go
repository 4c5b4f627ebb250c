package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// RequireGranules validates that at least one granule path or pattern is provided.
// Returns a helpful error message with usage and examples if missing.
func RequireGranules(cmd *cobra.Command, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf(`missing required argument: <granules>

Usage: %s

Example:
  %s --host localhost --db gis --layer granules '/data/**/*.tif'`, cmd.UseLine(), cmd.CommandPath())
	}
	return nil
}
