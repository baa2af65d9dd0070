package main

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"report-workers/internal/report/tradeconfig"
)

var (
	tradeConfigPath   string
	tradeSystemPrompt string
	tradeChecklist    string
)

var tradeConfigCmd = &cobra.Command{
	Use:   "trade-config",
	Short: "Read and write per-trade prompt configuration",
	Long: `Manage the trade configuration file used when drafting report text.

Available subcommands:
  list - Show every configured trade
  get  - Print one trade's configuration
  set  - Create or replace a trade's configuration`,
}

var tradeConfigListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show every configured trade",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		all, err := tradeStore().List(cmd.Context())
		if err != nil {
			return err
		}
		trades := make([]string, 0, len(all))
		for trade := range all {
			trades = append(trades, trade)
		}
		sort.Strings(trades)
		for _, trade := range trades {
			fmt.Fprintln(cmd.OutOrStdout(), trade)
		}
		return nil
	},
}

var tradeConfigGetCmd = &cobra.Command{
	Use:   "get <trade>",
	Short: "Print one trade's configuration",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := tradeStore().Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(cfg)
	},
}

var tradeConfigSetCmd = &cobra.Command{
	Use:   "set <trade>",
	Short: "Create or replace a trade's configuration",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		checklist := tradeChecklist
		if cmd.Flags().Changed("checklist-file") {
			data, err := readInput(tradeChecklist)
			if err != nil {
				return err
			}
			checklist = string(data)
		}
		err := tradeStore().Save(cmd.Context(), args[0], tradeconfig.TradeConfig{
			SystemPrompt:      tradeSystemPrompt,
			ChecklistTemplate: checklist,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "saved %s\n", tradeconfig.Key(args[0]))
		return nil
	},
}

func init() {
	tradeConfigCmd.PersistentFlags().StringVar(&tradeConfigPath, "path", "trade_configs.json", "Trade configuration file")

	tradeConfigSetCmd.Flags().StringVar(&tradeSystemPrompt, "system-prompt", "", "System prompt for the trade")
	tradeConfigSetCmd.Flags().StringVar(&tradeChecklist, "checklist-file", "", "File holding the checklist template")
	_ = tradeConfigSetCmd.MarkFlagRequired("system-prompt")

	tradeConfigCmd.AddCommand(tradeConfigListCmd, tradeConfigGetCmd, tradeConfigSetCmd)
}

func tradeStore() tradeconfig.Store {
	return tradeconfig.NewFileStore(tradeConfigPath, newLogger())
}
