// Package tradeconfig holds the per-trade prompt and checklist used when drafting report text.
package tradeconfig

import (
	"context"
	"errors"
	"strings"
)

var (
	ErrTradeNotFound = errors.New("TRADE_NOT_FOUND")
	ErrInvalidTrade  = errors.New("trade is required")
)

const FallbackTrade = "welding"

// TradeConfig is the guidance for one trade.
type TradeConfig struct {
	SystemPrompt      string `json:"system_prompt"`
	ChecklistTemplate string `json:"checklist_template"`
}

// Store reads and writes trade configurations. Stored entries override the built-in defaults.
type Store interface {
	Get(ctx context.Context, trade string) (TradeConfig, error)
	Save(ctx context.Context, trade string, cfg TradeConfig) error
	List(ctx context.Context) (map[string]TradeConfig, error)
}

// Defaults returns a fresh copy of the built-in configurations.
func Defaults() map[string]TradeConfig {
	return map[string]TradeConfig{
		"welding": {
			SystemPrompt: "You are a NYC special inspector for WELDING. " +
				"Write concise, professional inspection reports that reference AWS D1.1, " +
				"NYC DOB special inspection style, and project drawings by gridline and detail. " +
				"Focus on what was inspected, acceptance/rejection, and any deficiencies.",
			ChecklistTemplate: "- Verify weld sizes and locations match the referenced detail.\n" +
				"- Confirm welds are continuous where required and free of visible defects " +
				"(cracks, porosity, undercut, slag inclusions).\n" +
				"- Confirm base metal and electrodes match project specifications.\n" +
				"- Note any deficiencies and required corrective actions.",
		},
		"bolting": {
			SystemPrompt: "You are a NYC special inspector for STRUCTURAL STEEL BOLTING (HSB). " +
				"Write professional reports referencing RCSC and NYC DOB style. " +
				"Focus on bolt type, size, installation method (snug-tight / pretensioned), " +
				"and connection locations by gridline and detail.",
			ChecklistTemplate: "- Verify bolt type, diameter, and grade match the referenced detail.\n" +
				"- Confirm installation method (snug-tight / pretensioned) and inspection procedure.\n" +
				"- Check that all required bolts are installed and properly tensioned.\n" +
				"- Note any missing bolts, improper installation, or corrective actions.",
		},
		"detail": {
			SystemPrompt: "You are a NYC special inspector reviewing steel DETAILING / LAYOUT " +
				"against structural drawings. Verify member sizes, locations by grid, " +
				"support conditions, and connection details.",
			ChecklistTemplate: "- Verify member sizes (W-, L-, PL- sections) match drawings.\n" +
				"- Confirm locations by gridline, level, and orientation.\n" +
				"- Check that clip angles, plates, and support details match referenced details.\n" +
				"- Note any deviations or required corrections.",
		},
	}
}

// Key normalizes a trade name for lookups.
func Key(trade string) string {
	return strings.ToLower(strings.TrimSpace(trade))
}

// Lookup returns the configuration for trade, falling back to the welding configuration when the
// trade is unknown or the store fails.
func Lookup(ctx context.Context, s Store, trade string) TradeConfig {
	if cfg, err := s.Get(ctx, trade); err == nil {
		return cfg
	}
	if cfg, err := s.Get(ctx, FallbackTrade); err == nil {
		return cfg
	}
	return Defaults()[FallbackTrade]
}

func normalize(cfg TradeConfig) TradeConfig {
	return TradeConfig{
		SystemPrompt:      strings.TrimSpace(cfg.SystemPrompt),
		ChecklistTemplate: strings.TrimSpace(cfg.ChecklistTemplate),
	}
}
