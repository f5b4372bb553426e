package cmd

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/gnewcash/gnewcash-go/pkg/config"
	"github.com/gnewcash/gnewcash-go/pkg/fileformat"
)

// cleanupCmd represents the cleanup command.
var cleanupCmd = &cobra.Command{
	Use:   "cleanup [dir]",
	Short: "Delete GnuCash log and backup files",
	Long: `Delete the .log files and timestamped backup copies GnuCash leaves
next to a book.

The directory argument falls back to GNEWCASH_CLEANUP_DIR, then to the
directory of GNEWCASH_FILE.

Example:
  gnewcash cleanup ~/books`,
	Args: cobra.MaximumNArgs(1),
	Run:  runCleanup,
}

func runCleanup(cmd *cobra.Command, args []string) {
	cfg, err := config.Load(getConfigFile())
	exitOnError(err, "failed to load configuration")

	dir := cfg.Cleanup.Dir
	if dir == "" && cfg.File.Path != "" {
		dir = filepath.Dir(cfg.File.Path)
	}
	if len(args) > 0 {
		dir = args[0]
	}
	if dir == "" {
		exitOnError(fmt.Errorf("no directory given and GNEWCASH_CLEANUP_DIR not set"), "missing directory argument")
	}

	removed, err := fileformat.DeleteLogFiles(dir)
	exitOnError(err, "failed to clean up log files")

	for _, path := range removed {
		slog.Debug("removed", "path", path)
	}
	fmt.Printf("Removed %d log/backup file(s) from %s\n", len(removed), dir)
}
