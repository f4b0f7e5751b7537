package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "json", false)
	log.Debug("hidden")
	log.Info("visible", "side", "A")

	var rec map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "visible", rec["msg"])
	assert.Equal(t, "A", rec["side"])
}

func TestNewTextVerbose(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, "text", true).Debug("walking", "path", "0.1")
	assert.Contains(t, buf.String(), "level=DEBUG")
	assert.Contains(t, buf.String(), "path=0.1")
}

func TestConsoleSteps(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf, true)

	c.Step("Opening %s", "http://app/")
	c.Done("%d side menus", 2)
	c.Step("Logging in")
	c.Fail("")
	c.Step("Sweeping")
	c.Hit("A / T1 / L1: bizReg=1")
	c.Success("Saved to %s", "scanResult.json")

	assert.Equal(t,
		"→ Opening http://app/... done (2 side menus)\n"+
			"→ Logging in... failed\n"+
			"→ Sweeping... \n"+
			"  ! A / T1 / L1: bizReg=1\n"+
			"✓ Saved to scanResult.json\n",
		buf.String())
}
