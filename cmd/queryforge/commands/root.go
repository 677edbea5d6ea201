package commands

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/queryforge/queryforge/internal/cliconfig"
	"github.com/queryforge/queryforge/internal/cliui"
	"github.com/queryforge/queryforge/internal/compiler"
	"github.com/queryforge/queryforge/internal/debug"
)

var (
	verbose     bool
	logFormat   string
	schemaPath  string
	dialectFlag string
	maxDepth    = compiler.DefaultMaxDepth
)

var rootCmd = &cobra.Command{
	Use:   "queryforge",
	Short: "queryforge - dialect-aware query compiler and result shaper",
	Long: `queryforge compiles a structured query description against a schema
catalog into PostgreSQL or SQLite SQL, then reshapes flat rows back into
nested results.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		debug.Init(verbose, debug.Format(logFormat))

		cfg, err := cliconfig.Load()
		if err != nil {
			cliui.PrintWarning("config load failed, using flag defaults: %v", err)
			return
		}
		if !cmd.Flags().Changed("schema") {
			schemaPath = cfg.SchemaPath
		}
		if !cmd.Flags().Changed("dialect") {
			dialectFlag = cfg.Dialect
		}
		if !cmd.Flags().Changed("max-depth") && cfg.MaxDepth > 0 {
			maxDepth = cfg.MaxDepth
		}
	},
	Run: func(cmd *cobra.Command, args []string) {
		if err := cmd.Help(); err != nil {
			cliui.PrintError("failed to show help: %v", err)
			os.Exit(1)
		}
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "debug log format: text or json")
	rootCmd.PersistentFlags().StringVar(&schemaPath, "schema", "schema.json", "path to the catalog schema file")
	rootCmd.PersistentFlags().StringVar(&dialectFlag, "dialect", "postgres", "target dialect: postgres or sqlite")
	rootCmd.PersistentFlags().IntVar(&maxDepth, "max-depth", compiler.DefaultMaxDepth, "maximum relation-nesting depth")
}
