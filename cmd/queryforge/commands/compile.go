package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/queryforge/queryforge/internal/cliui"
	"github.com/queryforge/queryforge/internal/compiler"
)

var compilePlanFlag bool

var compileCmd = &cobra.Command{
	Use:   "compile <query.json>",
	Short: "Compile a query description against the schema into SQL",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, err := loadCatalog(schemaPath)
		if err != nil {
			return err
		}
		dia, err := resolveDialect(dialectFlag)
		if err != nil {
			return err
		}
		q, err := loadQuery(args[0])
		if err != nil {
			return err
		}

		compiled, err := compiler.Compile(cat, dia, q, compiler.Options{MaxDepth: maxDepth})
		if err != nil {
			cliui.PrintError("compile failed: %v", err)
			return err
		}

		cliui.PrintSQL(compiled.SQL, compiled.Args)
		if compilePlanFlag {
			planJSON, err := json.MarshalIndent(compiled.Plan, "", "  ")
			if err != nil {
				return fmt.Errorf("marshal plan: %w", err)
			}
			cliui.PrintSection("Result plan")
			fmt.Println(string(planJSON))
		}
		return nil
	},
}

func init() {
	compileCmd.Flags().BoolVar(&compilePlanFlag, "plan", false, "also print the result-shaping plan as JSON")
	rootCmd.AddCommand(compileCmd)
}
