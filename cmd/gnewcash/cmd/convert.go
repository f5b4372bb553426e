package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/gnewcash/gnewcash-go/pkg/config"
	"github.com/gnewcash/gnewcash-go/pkg/fileformat"
)

var (
	convertFormat string
	convertPretty bool
)

// convertCmd represents the convert command.
var convertCmd = &cobra.Command{
	Use:   "convert <input> <output>",
	Short: "Re-encode a GnuCash file",
	Long: `Re-encode a GnuCash file into another encoding.

The input encoding is detected from the file content. The output encoding
comes from --format, falling back to GNEWCASH_FORMAT and then to the
encoding of an existing output file.

Example:
  gnewcash convert accounts.gnucash accounts.sqlite --format sqlite
  gnewcash convert accounts.sqlite accounts.gnucash --format xml --pretty`,
	Args: cobra.ExactArgs(2),
	Run:  runConvert,
}

func init() {
	convertCmd.Flags().StringVar(&convertFormat, "format", "", "output format: xml, gzip-xml or sqlite")
	convertCmd.Flags().BoolVar(&convertPretty, "pretty", false, "indent XML output")
}

func runConvert(cmd *cobra.Command, args []string) {
	cfg, err := config.Load(getConfigFile())
	exitOnError(err, "failed to load configuration")

	formatName := convertFormat
	if formatName == "" {
		formatName = cfg.File.Format
	}
	format := fileformat.FormatUnknown
	if formatName != "" {
		format, err = fileformat.ParseFormat(formatName)
		exitOnError(err, "invalid output format")
	}
	pretty := convertPretty || cfg.File.Pretty

	input, output := args[0], args[1]
	slog.Info("converting", "input", input, "output", output, "format", format)

	doc, err := fileformat.Load(input, fileformat.LoadOptions{})
	exitOnError(err, "failed to load input file")

	err = fileformat.Save(doc, output, fileformat.SaveOptions{Format: format, Pretty: pretty})
	exitOnError(err, "failed to write output file")

	slog.Info("conversion complete", "output", output)
}
