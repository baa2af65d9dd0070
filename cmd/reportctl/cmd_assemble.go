package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"report-workers/internal/report/assembler"
	"report-workers/internal/report/record"
	"report-workers/internal/report/template"
)

var (
	assembleRecord string
	assembleTrade  string
	assembleTenant string
	assembleOut    string
	assembleWidth  int64
)

// assembleCmd fills a template from a record file
var assembleCmd = &cobra.Command{
	Use:   "assemble",
	Short: "Fill a template from a record file and write the .docx",
	Long: `Assemble reads an inspection record (JSON), resolves the template for its
tenant and trade, and writes the finished document.

When --out is a directory, or omitted, the file name is derived from the
project name and trade.`,
	RunE: runAssemble,
}

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Show which template a trade/tenant pair resolves to",
	RunE:  runResolve,
}

func init() {
	assembleCmd.Flags().StringVar(&assembleRecord, "record", "", "Path to the record JSON (- for stdin)")
	assembleCmd.Flags().StringVar(&assembleTrade, "trade", "", "Trade override")
	assembleCmd.Flags().StringVar(&assembleTenant, "tenant", "", "Tenant name")
	assembleCmd.Flags().StringVarP(&assembleOut, "out", "o", "", "Output file or directory")
	assembleCmd.Flags().Int64Var(&assembleWidth, "image-width-emu", 0, "Width of embedded attachment images in EMU")
	_ = assembleCmd.MarkFlagRequired("record")

	resolveCmd.Flags().StringVar(&assembleTrade, "trade", "", "Trade")
	resolveCmd.Flags().StringVar(&assembleTenant, "tenant", "", "Tenant name")
}

func runAssemble(cmd *cobra.Command, args []string) error {
	data, err := readInput(assembleRecord)
	if err != nil {
		return err
	}
	log := newLogger()

	a := assembler.New(
		template.NewResolver(template.Layout{Root: templatesRoot}, log),
		assembler.Options{ImageWidthEMU: assembleWidth},
		log,
	)
	res, err := a.Assemble(cmd.Context(), assembler.Request{
		Trade:  assembleTrade,
		Tenant: assembleTenant,
		Record: record.Parse(data),
	})
	if err != nil {
		return err
	}

	out := outputPath(assembleOut, res.Filename)
	if err := os.WriteFile(out, res.Document, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d bytes)\n", out, len(res.Document))
	fmt.Fprintf(cmd.OutOrStdout(), "  template:       %s (%s)\n", res.Template.Path, res.Template.Source)
	fmt.Fprintf(cmd.OutOrStdout(), "  findings rows:  %d\n", res.FindingsRows)
	fmt.Fprintf(cmd.OutOrStdout(), "  images:         %d embedded, %d skipped\n", res.ImagesEmbedded, res.ImagesSkipped)
	fmt.Fprintf(cmd.OutOrStdout(), "  deficiencies:   %d\n", res.Deficiencies)
	return nil
}

func runResolve(cmd *cobra.Command, args []string) error {
	r := template.NewResolver(template.Layout{Root: templatesRoot}, newLogger())
	desc, err := r.Resolve(assembler.EffectiveTrade(assembleTrade, nil), assembleTenant)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(desc)
}

func outputPath(out, filename string) string {
	if out == "" {
		return filename
	}
	if info, err := os.Stat(out); err == nil && info.IsDir() {
		return filepath.Join(out, filename)
	}
	return out
}

func readInput(path string) ([]byte, error) {
	if path == "-" {
		return readAllStdin()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}
