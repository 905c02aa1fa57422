// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/repurpose-engine/internal/runstore"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List, inspect, search, and export stored research runs",
	Long: `Runs manages the local SQLite run store. Finished research runs are
stored with their section outputs and error traces; reports are indexed
for full-text search.`,
}

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored runs, newest first",
	RunE:  runRunsList,
}

var runsShowCmd = &cobra.Command{
	Use:   "show [run-id]",
	Short: "Show one stored run with its report and section outputs",
	Args:  cobra.ExactArgs(1),
	RunE:  runRunsShow,
}

var runsSearchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Full-text search over stored report text",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runRunsSearch,
}

var runsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write all stored runs to the YAML export file",
	RunE:  runRunsExport,
}

func init() {
	runsShowCmd.Flags().Bool("traces", false, "include error traces")

	runsCmd.AddCommand(runsListCmd, runsShowCmd, runsSearchCmd, runsExportCmd)
	rootCmd.AddCommand(runsCmd)
}

func openStore() (*runstore.Store, error) {
	store, err := runstore.NewStore(runStoreConfig())
	if err != nil {
		return nil, fmt.Errorf("opening run store: %w", err)
	}
	return store, nil
}

func runRunsList(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	summaries, err := store.List(context.Background())
	if err != nil {
		return err
	}
	printRunTable(summaries)
	return nil
}

func runRunsShow(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	detail, err := store.Get(context.Background(), args[0])
	if err != nil {
		return err
	}

	fmt.Printf("Run:     %s\n", detail.ID)
	fmt.Printf("Query:   %s (%s)\n", detail.Query, detail.InputType)
	fmt.Printf("Started: %s\n", detail.Started.Format(time.RFC3339))
	fmt.Printf("Errors:  %d\n\n", detail.Errors)

	fmt.Println("=== Report ===")
	fmt.Println(detail.Report)

	for slot, content := range detail.Slots {
		fmt.Printf("\n=== Section: %s ===\n", slot)
		fmt.Println(content)
	}

	if withTraces, _ := cmd.Flags().GetBool("traces"); withTraces && len(detail.Traces) > 0 {
		fmt.Println("\n=== Error traces ===")
		for i, trace := range detail.Traces {
			fmt.Printf("%d. %s\n", i+1, trace)
		}
	}
	return nil
}

func runRunsSearch(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	hits, err := store.SearchReports(context.Background(), strings.Join(args, " "))
	if err != nil {
		return err
	}
	if len(hits) == 0 {
		fmt.Println("No matching runs.")
		return nil
	}
	printRunTable(hits)
	return nil
}

func runRunsExport(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.ExportYAML(context.Background()); err != nil {
		return err
	}
	fmt.Println("Exported to", filepath.Join(runStoreConfig().RunsDir, "index", "export.yaml"))
	return nil
}

func printRunTable(summaries []runstore.RunSummary) {
	if len(summaries) == 0 {
		fmt.Println("No stored runs.")
		return
	}

	fmt.Printf("%-36s  %-30s  %-8s  %-20s  %s\n",
		"ID", "Query", "Type", "Started", "Errors")
	fmt.Println(strings.Repeat("-", 104))

	for _, rs := range summaries {
		query := rs.Query
		if len(query) > 30 {
			query = query[:27] + "..."
		}
		fmt.Printf("%-36s  %-30s  %-8s  %-20s  %d\n",
			rs.ID, query, rs.InputType, rs.Started.Format("2006-01-02 15:04:05"), rs.Errors)
	}
}
