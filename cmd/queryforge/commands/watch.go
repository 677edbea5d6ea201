package commands

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/queryforge/queryforge/internal/cliui"
	"github.com/queryforge/queryforge/internal/compiler"
	"github.com/queryforge/queryforge/internal/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch <query.json>",
	Short: "Recompile a query description every time the schema file changes",
	Long: `watch loads the query description once and the schema catalog on
every save, reusing the same query against the new catalog. This is
meant for iterating on a schema while keeping an eye on the SQL a
particular query compiles to.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dia, err := resolveDialect(dialectFlag)
		if err != nil {
			return err
		}
		q, err := loadQuery(args[0])
		if err != nil {
			return err
		}

		recompile := func() error {
			cat, err := loadCatalog(schemaPath)
			if err != nil {
				cliui.PrintError("schema reload failed: %v", err)
				return nil
			}
			compiled, err := compiler.Compile(cat, dia, q, compiler.Options{MaxDepth: maxDepth})
			if err != nil {
				cliui.PrintError("compile failed: %v", err)
				return nil
			}
			cliui.PrintSection("recompiled")
			cliui.PrintSQL(compiled.SQL, compiled.Args)
			return nil
		}

		w, err := watch.New(schemaPath, recompile)
		if err != nil {
			return err
		}
		if err := w.Start(); err != nil {
			return err
		}
		defer w.Stop()

		cliui.PrintInfo("watching %s, press Ctrl+C to stop", schemaPath)
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
		return nil
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
