package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/queryforge/queryforge/internal/cliui"
	"github.com/queryforge/queryforge/internal/compiler"
)

var batchCmd = &cobra.Command{
	Use:   "batch <batch.json>",
	Short: "Fuse many named query descriptions into one CTE-based statement",
	Long: `batch reads a JSON array of {"key": ..., "query": ...} entries and
fuses them into a single PostgreSQL statement via the CTE combinator.
SQLite does not support batching; running this command with --dialect
sqlite fails with an Unsupported error unless the batch file is empty.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, err := loadCatalog(schemaPath)
		if err != nil {
			return err
		}
		dia, err := resolveDialect(dialectFlag)
		if err != nil {
			return err
		}
		entries, err := loadBatch(args[0])
		if err != nil {
			return err
		}

		items := make([]compiler.BatchItem, len(entries))
		for i, e := range entries {
			q := e.Query
			items[i] = compiler.BatchItem{Key: e.Key, Query: &q}
		}

		compiled, err := compiler.CompileBatch(cat, dia, items, compiler.Options{MaxDepth: maxDepth})
		if err != nil {
			cliui.PrintError("batch compile failed: %v", err)
			return err
		}
		if compiled.SQL == "" {
			cliui.PrintInfo("empty batch, nothing to compile")
			return nil
		}

		cliui.PrintSQL(compiled.SQL, compiled.Args)

		plans := make(map[string]json.RawMessage, len(compiled.Plans))
		for key, p := range compiled.Plans {
			b, err := json.MarshalIndent(p, "", "  ")
			if err != nil {
				return fmt.Errorf("marshal plan for %q: %w", key, err)
			}
			plans[key] = b
		}
		plansJSON, err := json.MarshalIndent(plans, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal plans: %w", err)
		}
		cliui.PrintSection("Per-item result plans")
		fmt.Println(string(plansJSON))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(batchCmd)
}
