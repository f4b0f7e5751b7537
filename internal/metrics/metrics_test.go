package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorderTextfile(t *testing.T) {
	r, err := New()
	require.NoError(t, err)

	r.NodeActivated("A", "T1")
	r.NodeActivated("A", "T1")
	r.LeafScanned("A", "T1", map[string][]string{"bizReg": {"123-45-67890", "220-81-62517"}}, 300*time.Millisecond)
	r.Diagnostic("branch-error")
	r.Finish(2*time.Second, true)

	path := filepath.Join(t.TempDir(), "menusweep.prom")
	require.NoError(t, r.WriteTextfile(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)

	assert.Contains(t, out, `menusweep_nodes_activated_total{side="A",top="T1"} 2`)
	assert.Contains(t, out, `menusweep_leaves_scanned_total{side="A",top="T1"} 1`)
	assert.Contains(t, out, `menusweep_matches_total{pattern="bizReg",side="A"} 2`)
	assert.Contains(t, out, `menusweep_diagnostics_total{kind="branch-error"} 1`)
	assert.Contains(t, out, "menusweep_run_aborted 1")
	assert.Contains(t, out, "menusweep_leaf_duration_seconds_count 1")
}

func TestNilRecorderIsNoop(t *testing.T) {
	var r *Recorder
	assert.NotPanics(t, func() {
		r.NodeActivated("A", "T1")
		r.LeafScanned("A", "T1", nil, time.Second)
		r.Diagnostic("x")
		r.Finish(time.Second, false)
	})
}
