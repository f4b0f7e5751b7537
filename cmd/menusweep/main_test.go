package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/v0xg/menusweep/internal/config"
)

func TestScanFlagsOnlyOverrideWhenChanged(t *testing.T) {
	cmd := newScanCmd(&config.Loader{})
	require.NoError(t, cmd.Flags().Parse([]string{
		"--url", "http://app.local/",
		"--leaf-mode", "all",
		"--skip-sides", "보고서, Admin",
		"--headless=false",
	}))

	var f scanFlags
	f.url, _ = cmd.Flags().GetString("url")
	f.leafMode, _ = cmd.Flags().GetString("leaf-mode")
	f.skipSides, _ = cmd.Flags().GetString("skip-sides")
	f.headless, _ = cmd.Flags().GetBool("headless")

	ov := f.toOverrides(cmd)
	assert.Equal(t, "http://app.local/", ov.URL)
	assert.Equal(t, config.LeafModeAll, ov.LeafMode)
	assert.Equal(t, []string{"보고서", "Admin"}, ov.SkipSides)
	require.NotNil(t, ov.Headless)
	assert.False(t, *ov.Headless)
	assert.Nil(t, ov.BlockHTTPS, "unchanged flags keep the config value")
	assert.Empty(t, ov.Output)
}

func TestPatternsCommand(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "patterns.yml")
	require.NoError(t, os.WriteFile(path, []byte(`
patterns:
  - name: card
    pattern: '\d{4}-\d{4}-\d{4}-\d{4}'
    validator: luhn
    description: Card number
`), 0o600))

	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"--config", filepath.Join(dir, "none.yml"), "patterns", "--patterns", path})
	require.NoError(t, root.Execute())

	assert.Contains(t, out.String(), "card")
	assert.Contains(t, out.String(), "luhn")
	assert.NotContains(t, out.String(), "corpReg")
}

func TestPatternsCommandDefaults(t *testing.T) {
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"--config", filepath.Join(t.TempDir(), "none.yml"), "patterns"})
	require.NoError(t, root.Execute())

	for _, name := range []string{"corpReg", "bizReg", "personal"} {
		assert.Contains(t, out.String(), name)
	}
}

func TestScanRejectsMissingURL(t *testing.T) {
	t.Setenv("MENUSWEEP_URL", "")
	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetArgs([]string{"--config", filepath.Join(t.TempDir(), "none.yml"), "scan"})
	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no target URL")
}

func TestVersionCommand(t *testing.T) {
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"version"})
	require.NoError(t, root.Execute())
	assert.Equal(t, "menusweep version dev\n", out.String())
}
