package report

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/v0xg/menusweep/internal/scanner"
)

func TestAggregatorRecordsInOrderWithoutDedup(t *testing.T) {
	a := NewAggregator()
	a.RecordTopMenus("A", []string{"T1", "T2"})
	m := scanner.Match{"corpReg": {"123456-1234567"}}
	a.Record("A", "T1", m)
	a.Record("A", "T1", nil)
	a.Record("A", "T1", m)

	tree := a.Export()
	require.Len(t, tree, 1)
	assert.Equal(t, []string{"T1", "T2"}, tree[0].TopMenus)

	got := tree.Matches("A", "T1")
	require.Len(t, got, 3)
	assert.Equal(t, m, got[0])
	assert.Empty(t, got[1])
	assert.Equal(t, m, got[2])
	assert.Nil(t, tree.Matches("A", "T2"))
	assert.Nil(t, tree.Matches("B", "T1"))
}

func TestExportIsACopy(t *testing.T) {
	a := NewAggregator()
	a.Record("A", "T1", scanner.Match{"bizReg": {"123-45-67890"}})

	tree := a.Export()
	tree[0].Name = "changed"
	tree.Matches("changed", "T1")[0]["bizReg"][0] = "x"

	again := a.Export()
	assert.Equal(t, "A", again[0].Name)
	assert.Equal(t, "123-45-67890", again.Matches("A", "T1")[0]["bizReg"][0])
}

func TestTreeJSONShapeAndOrder(t *testing.T) {
	a := NewAggregator()
	a.RecordTopMenus("Zeta", []string{"T9", "T1"})
	a.OpenTop("Zeta", "T9")
	a.Record("Zeta", "T1", scanner.Match{"bizReg": {"123-45-67890"}})
	a.RecordTopMenus("Alpha", nil)

	data, err := json.Marshal(a.Export())
	require.NoError(t, err)
	assert.Equal(t,
		`{"Zeta":{"topMenus":["T9","T1"],"T9":[],"T1":[{"bizReg":["123-45-67890"]}]},"Alpha":{"topMenus":[]}}`,
		string(data))
}

func TestDocumentAndWriteFile(t *testing.T) {
	a := NewAggregator()
	a.RecordTopMenus("A", []string{"T1"})
	a.Record("A", "T1", scanner.Match{})
	a.AddDiagnostic(Diagnostic{Kind: DiagAnomaly, Side: "A", Top: "T1", Path: []int{0, 1}, Detail: "no label"})

	doc := a.Document("http://app.test/", time.Now().Add(-time.Minute), errors.New("browser gone"))
	assert.True(t, doc.Aborted)
	assert.Equal(t, "browser gone", doc.AbortReason)
	assert.NotEmpty(t, doc.RunID)
	assert.NotNil(t, doc.Findings)

	path := filepath.Join(t.TempDir(), "out", "scanResult.json")
	require.NoError(t, WriteFile(path, doc))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var decoded map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.JSONEq(t, `{"A":{"topMenus":["T1"],"T1":[{}]}}`, string(decoded["results"]))
	assert.Contains(t, string(decoded["diagnostics"]), DiagAnomaly)
}
