// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package secrets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
}

func TestLoad_MissingDirectory(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "does-not-exist"))
	require.NoError(t, err)
	assert.Empty(t, s)
}

func TestLoad_ReadsKeys(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "anthropic-api-key", "ak_123\n")
	writeFile(t, dir, "serper-api-key", "  sk_456  ")
	writeFile(t, dir, "patentsview-api-key", "pv_789")

	s, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"anthropic-api-key":   "ak_123",
		"serper-api-key":      "sk_456",
		"patentsview-api-key": "pv_789",
	}, s)
}

func TestLoad_SkipsHiddenAndEmpty(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".gitignore", "*")
	writeFile(t, dir, "empty-key", "   \n")
	writeFile(t, dir, "anthropic-api-key", "valid-key")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "subdir"), 0o755))

	s, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"anthropic-api-key": "valid-key",
	}, s)
}
