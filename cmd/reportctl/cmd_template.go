package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"report-workers/internal/report/docfill"
	"report-workers/internal/report/template"
)

var (
	uploadDestination string
	uploadTenant      string
	uploadTrade       string
	uploadFile        string
)

// uploadTemplateCmd stores a template in the tree after checking it opens as a document
var uploadTemplateCmd = &cobra.Command{
	Use:   "upload-template",
	Short: "Validate and store a template in the template tree",
	Long: `Upload-template checks that the file is a readable Word document and writes it
to the slot named by --destination:

  default - the fallback template
  trade   - the template for --trade
  tenant  - the template for --tenant`,
	RunE: runUploadTemplate,
}

func init() {
	uploadTemplateCmd.Flags().StringVar(&uploadDestination, "destination", "", "default, trade or tenant")
	uploadTemplateCmd.Flags().StringVar(&uploadTenant, "tenant", "", "Tenant name (tenant destination)")
	uploadTemplateCmd.Flags().StringVar(&uploadTrade, "trade", "", "Trade (trade destination)")
	uploadTemplateCmd.Flags().StringVarP(&uploadFile, "file", "f", "", "Path to the .docx (- for stdin)")
	_ = uploadTemplateCmd.MarkFlagRequired("destination")
	_ = uploadTemplateCmd.MarkFlagRequired("file")
}

func runUploadTemplate(cmd *cobra.Command, args []string) error {
	dest, err := template.ParseDestination(strings.ToLower(strings.TrimSpace(uploadDestination)))
	if err != nil {
		return err
	}
	data, err := readInput(uploadFile)
	if err != nil {
		return err
	}

	store := template.NewStore(template.Layout{Root: templatesRoot}, docfill.Validate, newLogger())
	path, err := store.Save(cmd.Context(), dest, uploadTenant, uploadTrade, data)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "stored %s (%d bytes)\n", path, len(data))
	return nil
}

func readAllStdin() ([]byte, error) {
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return nil, fmt.Errorf("read stdin: %w", err)
	}
	return data, nil
}
