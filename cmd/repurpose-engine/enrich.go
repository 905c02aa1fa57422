// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/repurpose-engine/internal/enrich"
)

var enrichCmd = &cobra.Command{
	Use:   "enrich [query]",
	Short: "Run deterministic enrichment only and print the record",
	Long: `Enrich classifies the query, runs the drug or disease enrichment branch
against the biomedical data sources, and prints the resulting record without
dispatching any narrative agents. Useful for inspecting raw evidence or for
piping a record into the score command.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runEnrich,
}

func init() {
	enrichCmd.Flags().Bool("yaml", false, "emit YAML instead of JSON")
	enrichCmd.Flags().Bool("verbose", false, "development logging")

	rootCmd.AddCommand(enrichCmd)
}

func runEnrich(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")

	log, err := buildLogger(cmd)
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}
	defer log.Sync()

	cfg := enrichmentConfig()
	pipeline := buildPipeline(buildBackends(cfg), cfg, log)

	inputType, cleaned := enrich.DetectInputType(query)
	fmt.Fprintf(os.Stderr, "Classified %q as %s %q.\n", query, inputType, cleaned)

	rec, err := pipeline.Run(context.Background(), query)
	if err != nil {
		return fmt.Errorf("enrichment: %w", err)
	}

	if asYAML, _ := cmd.Flags().GetBool("yaml"); asYAML {
		data, err := yaml.Marshal(rec)
		if err != nil {
			return fmt.Errorf("marshaling record: %w", err)
		}
		fmt.Print(string(data))
		return nil
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(rec)
}
