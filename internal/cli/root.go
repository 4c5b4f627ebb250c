package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "imagemosaic-load [flags] <granules>...",
	Short: "Register raster granules in a PostGIS image mosaic index",
	Long: `imagemosaic-load computes the footprint of each raster granule and inserts
one feature per granule into an existing PostGIS index table.

Granules are given as paths or glob patterns ("**" matches any number of
directories). Patterns are expanded in command-line order; a pattern that
matches nothing is logged and skipped.

Granules are opened by a pool of --threads workers; features are written by a
single writer. By default the first failed insert aborts the run; with
--lenient the failure is logged and loading continues.

Connection settings are resolved as flag > environment ($PG*,
$IMAGEMOSAIC_CONNECTION_STRING, $DATABASE_URL) > imagemosaic.yaml > default.

Examples:
  # Load every GeoTIFF under /data/ortho into public.granules
  imagemosaic-load --host localhost --db gis --layer granules '/data/ortho/**/*.tif'

  # Connection string, eight workers, keep going on failed inserts
  imagemosaic-load --connection postgresql://geoserver@db/gis \
    --layer mosaic.ortho --threads 8 --lenient /data/a/*.tif /data/b/*.tif

Exit Codes:
  0  - Success
  1  - General error
  2  - CLI usage error (invalid arguments or flags)
  3  - Panic or unexpected system error
  10 - Invalid configuration
  11 - Database connection failed
  12 - Layer not found
  13 - Feature creation failed
  14 - Granule pattern could not be expanded`,
	Args:         RequireGranules,
	RunE:         runLoad,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	if len(os.Args) > 1 && os.Args[1] == "--version" {
		printVersionInfo()
		return nil
	}
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().Bool("help", false, "Help for imagemosaic-load")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging (same as --log-level debug)")
}

// getVerboseFlag safely retrieves the verbose flag value
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Failed to get verbose flag: %v\n", err)
		return false
	}
	return verbose
}
