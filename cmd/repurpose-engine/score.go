// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/repurpose-engine/internal/orchestrator"
	"github.com/pdiddy/repurpose-engine/internal/scoring"
	"github.com/pdiddy/repurpose-engine/pkg/types"
)

var scoreCmd = &cobra.Command{
	Use:   "score [record.json]",
	Short: "Score a stored enrichment record with the fixed feasibility rubric",
	Long: `Score reads an enrichment record (as emitted by the enrich command) from
a file or from stdin when the argument is "-", and prints the feasibility
breakdown. Disease records additionally list the ranked candidate pool.

The weights are fixed so the same record always produces the same score.`,
	Args: cobra.ExactArgs(1),
	RunE: runScore,
}

func init() {
	rootCmd.AddCommand(scoreCmd)
}

func runScore(cmd *cobra.Command, args []string) error {
	var data []byte
	var err error
	if args[0] == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(args[0])
	}
	if err != nil {
		return fmt.Errorf("reading record: %w", err)
	}

	var rec types.EnrichmentRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return fmt.Errorf("parsing record: %w", err)
	}

	fmt.Printf("Entity:     %s (%s)\n", rec.Name, rec.InputType)
	fmt.Printf("Query:      %s\n", rec.Query)

	if rec.InputType == types.InputDisease {
		printCandidateTable(rec.Candidates)
	} else {
		fmt.Printf("Affinities: %d measured\n", len(rec.Affinities))
		fmt.Printf("Potency:    %.3f\n", scoring.PotencyConfidence(rec.Affinities))
		fmt.Printf("Safety:     %.3f (%d warning(s))\n",
			scoring.SafetyScore(rec.Warnings), len(rec.Warnings))
	}

	fmt.Printf("\nOverall feasibility score: %.3f\n", orchestrator.OverallFeasibility(&rec))
	return nil
}

func printCandidateTable(pool []types.DrugCandidate) {
	if len(pool) == 0 {
		fmt.Println("Candidates: none")
		return
	}

	fmt.Printf("Candidates: %d\n\n", len(pool))
	fmt.Printf("%-4s  %-28s  %-8s  %-8s  %-10s  %s\n",
		"Rank", "Candidate", "Targets", "Papers", "Warnings", "Score")
	fmt.Println(strings.Repeat("-", 74))

	for i, c := range pool {
		name := c.Name
		if len(name) > 28 {
			name = name[:25] + "..."
		}
		fmt.Printf("%-4d  %-28s  %-8d  %-8d  %-10d  %.2f\n",
			i+1, name, len(c.TargetsHit), c.LiteratureCount, len(c.Warnings), c.RankScore)
	}
}
