// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/repurpose-engine/internal/runstore"
	"github.com/pdiddy/repurpose-engine/pkg/types"
)

var researchCmd = &cobra.Command{
	Use:   "research [query]",
	Short: "Run the full phased research pipeline for a drug or disease query",
	Long: `Research classifies the query as a drug or a disease, enriches it from
the biomedical data sources, dispatches the narrative research agents in
phases, and synthesizes an executive report ending with a deterministic
feasibility score line.

The finished run is saved to the run store and the YAML export is refreshed.
Without an Anthropic API key only the deterministic enrichment phase runs.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runResearch,
}

func init() {
	researchCmd.Flags().String("model", "", "agent model override")
	researchCmd.Flags().Int("max-turns", 0, "maximum agent conversation turns per task")
	researchCmd.Flags().Duration("task-timeout", 0, "per-task timeout (default 5m)")
	researchCmd.Flags().Bool("verbose", false, "development logging")
	researchCmd.Flags().Bool("no-save", false, "skip saving the run to the run store")

	rootCmd.AddCommand(researchCmd)
}

func runResearch(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")

	log, err := buildLogger(cmd)
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}
	defer log.Sync()

	o := buildOrchestrator(cmd, log)
	if o.Runner == nil {
		fmt.Fprintln(os.Stderr, "No anthropic-api-key configured; running enrichment only.")
	}

	started := time.Now()
	rc, report, err := o.Run(context.Background(), query)
	if err != nil {
		return fmt.Errorf("research run: %w", err)
	}

	fmt.Println(report)
	fmt.Fprintf(os.Stderr, "Run %s finished in %s with %d contained failure(s).\n",
		rc.RunID, time.Since(started).Round(time.Second), len(rc.Errors()))

	if noSave, _ := cmd.Flags().GetBool("no-save"); noSave {
		return nil
	}

	store, err := runstore.NewStore(runStoreConfig())
	if err != nil {
		return fmt.Errorf("opening run store: %w", err)
	}
	defer store.Close()

	if err := store.Save(context.Background(), rc, report); err != nil {
		return fmt.Errorf("saving run: %w", err)
	}
	if err := store.ExportYAML(context.Background()); err != nil {
		return fmt.Errorf("exporting runs: %w", err)
	}
	fmt.Fprintf(os.Stderr, "Saved run %s.\n", rc.RunID)
	return nil
}

func runStoreConfig() types.RunStoreConfig {
	runsDir := viper.GetString("run_store.runs_dir")
	if runsDir == "" {
		runsDir = "runs"
	}
	return types.RunStoreConfig{
		RunsDir:    runsDir,
		MaxResults: viper.GetInt("run_store.max_results"),
	}
}
