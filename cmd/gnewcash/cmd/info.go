package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/gnewcash/gnewcash-go/pkg/config"
	"github.com/gnewcash/gnewcash-go/pkg/fileformat"
	"github.com/gnewcash/gnewcash-go/pkg/gnc"
	"github.com/gnewcash/gnewcash-go/pkg/query"
)

// infoCmd represents the info command.
var infoCmd = &cobra.Command{
	Use:   "info [file]",
	Short: "Display statistics about a GnuCash file",
	Long: `Display statistics about a GnuCash file.

Shows:
- Detected encoding
- Number of books, commodities, accounts and transactions
- Accounts grouped by type
- Posted date range of the transactions

The file argument falls back to GNEWCASH_FILE from the environment.

Example:
  gnewcash info accounts.gnucash`,
	Args: cobra.MaximumNArgs(1),
	Run:  runInfo,
}

func runInfo(cmd *cobra.Command, args []string) {
	cfg, err := config.Load(getConfigFile())
	exitOnError(err, "failed to load configuration")

	path := cfg.File.Path
	if len(args) > 0 {
		path = args[0]
	}
	if path == "" {
		exitOnError(fmt.Errorf("no file given and GNEWCASH_FILE not set"), "missing file argument")
	}

	format, err := fileformat.Detect(path)
	exitOnError(err, "failed to detect file format")

	slog.Debug("loading file", "path", path, "format", format)
	doc, err := fileformat.Load(path, fileformat.LoadOptions{})
	exitOnError(err, "failed to load file")

	fmt.Printf("\n=== %s (%s) ===\n", doc.FileName, format)
	fmt.Printf("Books: %d\n", len(doc.Books))

	for _, book := range doc.Books {
		var accounts []*gnc.Account
		if book.RootAccount != nil {
			book.RootAccount.Walk(func(a *gnc.Account) { accounts = append(accounts, a) })
		}

		fmt.Printf("\nBook %s\n", book.Guid)
		fmt.Printf("  Commodities:            %d\n", len(book.Commodities))
		fmt.Printf("  Accounts:               %d\n", len(accounts))
		fmt.Printf("  Transactions:           %d\n", book.Transactions.Len())
		fmt.Printf("  Scheduled transactions: %d\n", len(book.ScheduledTransactions))
		fmt.Printf("  Budgets:                %d\n", len(book.Budgets))

		byType := query.GroupBy(
			query.FromSlice(accounts),
			func(a *gnc.Account) string { return a.Type },
		)
		for group := range byType.Seq() {
			fmt.Printf("    %-12s %d\n", group.Key, len(group.Elements))
		}

		transactions := query.FromSlice(book.Transactions.Transactions)
		if first, ok := transactions.First(); ok {
			last, _ := transactions.Last()
			fmt.Printf("  Posted range:           %s to %s\n",
				first.DatePosted.Format("2006-01-02"), last.DatePosted.Format("2006-01-02"))
		}
	}
	fmt.Println()
}
