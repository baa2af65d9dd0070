package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"report-workers/internal/common/validation"
	"report-workers/pkg/registry"
)

var (
	registryPath   string
	scaffoldModule string
	scaffoldOut    string
)

var registryCmd = &cobra.Command{
	Use:   "registry",
	Short: "Validate and edit the activity registry",
}

var registryValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the registry and compile every input schema",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := registry.LoadRegistry(registryPath)
		if err != nil {
			return err
		}
		if err := reg.Validate(); err != nil {
			return err
		}
		if _, err := validation.NewValidator(reg); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "registry OK: %d activities\n", len(reg.Activities))
		return nil
	},
}

var registryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered activities",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := registry.LoadRegistry(registryPath)
		if err != nil {
			return err
		}
		for _, a := range reg.Activities {
			fmt.Fprintf(cmd.OutOrStdout(), "%-28s %-26s %-10s %s\n", a.ID, a.TaskType, a.ImplementationStatus, a.Timeout)
		}
		return nil
	},
}

var registryUpdateCmd = &cobra.Command{
	Use:   "update <id> <field> <value>",
	Short: "Set one field of an activity",
	Long: `Update sets a single field of a registered activity and saves the file.

Fields: status, version, displayName, description, category, taskType, timeout, retries`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := registry.LoadRegistry(registryPath)
		if err != nil {
			return err
		}
		if err := reg.Update(args[0], args[1], args[2]); err != nil {
			return err
		}
		if err := reg.Validate(); err != nil {
			return err
		}
		if err := reg.Save(registryPath); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "updated %s.%s\n", args[0], args[1])
		return nil
	},
}

var registryScaffoldCmd = &cobra.Command{
	Use:   "scaffold <id>",
	Short: "Generate a worker skeleton from an activity's schemas",
	Long: `Scaffold writes config.go, models.go and handler.go for a registered activity.
Input and Output structs are generated from the activity's JSON schemas. Files that
already exist are left alone.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := registry.LoadRegistry(registryPath)
		if err != nil {
			return err
		}
		activity, err := reg.Get(args[0])
		if err != nil {
			return err
		}
		written, err := registry.Scaffold(*activity, scaffoldModule, scaffoldOut)
		if err != nil {
			return err
		}
		for _, path := range written {
			fmt.Fprintln(cmd.OutOrStdout(), path)
		}
		return nil
	},
}

func init() {
	registryCmd.PersistentFlags().StringVar(&registryPath, "path", "configs/activity-registry.json", "Path to registry file")

	registryScaffoldCmd.Flags().StringVar(&scaffoldModule, "module", "report-workers", "Go module path used in generated imports")
	registryScaffoldCmd.Flags().StringVar(&scaffoldOut, "out", "internal/workers/reporting", "Directory the worker package is created in")

	registryCmd.AddCommand(registryValidateCmd, registryListCmd, registryUpdateCmd, registryScaffoldCmd)
}
