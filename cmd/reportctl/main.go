// cmd/reportctl/main.go
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"report-workers/internal/common/logger"
)

var (
	templatesRoot string
	logLevel      string
)

var rootCmd = &cobra.Command{
	Use:   "reportctl",
	Short: "Operate the inspection report pipeline from the command line",
	Long: `reportctl runs the report pipeline locally without a Zeebe broker.

Available commands:
  assemble       - Fill a template from a record file and write the .docx
  resolve        - Show which template a trade/tenant pair resolves to
  upload-template - Validate and store a template in the template tree
  trade-config   - Read and write per-trade prompt configuration
  registry       - Validate, edit and scaffold from the activity registry`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&templatesRoot, "templates-root", "templates", "Root of the template tree")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(assembleCmd, resolveCmd, uploadTemplateCmd, tradeConfigCmd, registryCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newLogger() logger.Logger {
	return logger.NewZapAdapter(logger.New(logLevel, "console", "stderr"))
}
