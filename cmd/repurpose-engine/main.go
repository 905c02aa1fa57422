// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the repurpose-engine CLI.
// Implements: prd010-scheduler, prd011-enrichment, prd012-scoring,
//             prd015-run-store (CLI surface).
// See docs/ARCHITECTURE § Pipeline Interface, § Project Structure.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/repurpose-engine/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// secretDefault returns the secret value for key if it exists, or fallback otherwise.
func secretDefault(key, fallback string) string {
	if fallback != "" {
		return fallback
	}
	if v, ok := loadedSecrets[key]; ok {
		return v
	}
	return ""
}

// rootCmd is the base command for the repurpose-engine CLI.
var rootCmd = &cobra.Command{
	Use:   "repurpose-engine",
	Short: "Evidence-driven drug repurposing research pipeline",
	Long: `repurpose-engine runs drug repurposing research: a query naming a drug or a
disease is enriched from biomedical data sources (ChEMBL, BindingDB, Open
Targets, Europe PMC, ClinicalTrials.gov, PatentsView), interpreted and
synthesized by narrative research agents, scored with fixed feasibility
rubrics, and stored for later retrieval.

Each stage is a subcommand: research runs the full phased pipeline, enrich
runs only the deterministic enrichment, score evaluates a stored enrichment
record, and runs lists, shows, and searches stored research runs.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./repurpose-engine.yaml or ~/.config/repurpose-engine/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("repurpose-engine")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "repurpose-engine"))
		}
	}

	viper.SetEnvPrefix("REPURPOSE_ENGINE")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
