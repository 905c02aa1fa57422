// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package runstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.yaml.in/yaml/v3"
)

const exportFile = "export.yaml"

// runExport is the top-level document written to export.yaml.
type runExport struct {
	Exported time.Time   `yaml:"exported"`
	Count    int         `yaml:"count"`
	Runs     []RunDetail `yaml:"runs"`
}

// ExportYAML writes every stored run, with slots and traces, to
// runsDir/index/export.yaml as a human-diffable snapshot (R1.4).
func (s *Store) ExportYAML(ctx context.Context) error {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM runs ORDER BY started DESC`)
	if err != nil {
		return fmt.Errorf("listing runs for export: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return fmt.Errorf("scanning run id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating run ids: %w", err)
	}

	export := runExport{Exported: time.Now().UTC(), Count: len(ids)}
	for _, id := range ids {
		detail, err := s.Get(ctx, id)
		if err != nil {
			return fmt.Errorf("loading run %s for export: %w", id, err)
		}
		export.Runs = append(export.Runs, *detail)
	}

	data, err := yaml.Marshal(&export)
	if err != nil {
		return fmt.Errorf("marshaling export: %w", err)
	}

	path := filepath.Join(s.runsDir, indexDir, exportFile)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
