package scanner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanDefaultRegistry(t *testing.T) {
	r := MustDefault()

	got := r.Scan("123456-1234567 and 123-45-67890")
	assert.Equal(t, Match{
		"corpReg":  {"123456-1234567"},
		"personal": {"123456-1234567"},
		"bizReg":   {"123-45-67890"},
	}, got)
}

func TestScanNoMatchesIsEmpty(t *testing.T) {
	got := MustDefault().Scan("no sensitive data here")
	assert.Empty(t, got)
	_, ok := got["corpReg"]
	assert.False(t, ok, "absent patterns must not appear as keys")
}

func TestScanCollectsAllMatchesInOrder(t *testing.T) {
	text := "a 111111-2222222 b 333333-4444444 c 111111-2222222"
	got := MustDefault().Scan(text)

	assert.Equal(t, []string{"111111-2222222", "333333-4444444", "111111-2222222"}, got["corpReg"])
	assert.NotContains(t, got, "bizReg")
	assert.Equal(t, 6, got.Total())
	assert.Equal(t, []string{"corpReg", "personal"}, got.Keys())
}

func TestScanIsIdempotent(t *testing.T) {
	r := MustDefault()
	text := "call 123-45-67890 or 800101-1000008\n900101-1234568"
	first := r.Scan(text)
	second := r.Scan(text)
	assert.Equal(t, first, second)
}

func TestNewRegistryRejectsBadSpecs(t *testing.T) {
	tests := []struct {
		name  string
		specs []PatternSpec
	}{
		{"missing name", []PatternSpec{{Expr: `\d`}}},
		{"duplicate name", []PatternSpec{{Name: "a", Expr: `\d`}, {Name: "a", Expr: `\w`}}},
		{"bad regex", []PatternSpec{{Name: "a", Expr: `(`}}},
		{"unknown validator", []PatternSpec{{Name: "a", Expr: `\d`, Validator: "nope"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRegistry(tt.specs)
			assert.Error(t, err)
		})
	}
}

func TestValidatorsFilterHits(t *testing.T) {
	r, err := NewRegistry([]PatternSpec{
		{Name: "rrn", Expr: `\d{6}-\d{7}`, Validator: "rrn"},
		{Name: "biz", Expr: `\d{3}-\d{2}-\d{5}`, Validator: "bizreg"},
		{Name: "card", Expr: `\d{16}`, Validator: "luhn"},
	})
	require.NoError(t, err)

	got := r.Scan("123456-1234567 900101-1234568 123-45-67890 220-81-62517 4111111111111111 4111111111111112")
	assert.Equal(t, Match{
		"rrn":  {"900101-1234568"},
		"biz":  {"220-81-62517"},
		"card": {"4111111111111111"},
	}, got)
}

func TestRegistryIsData(t *testing.T) {
	r, err := NewRegistry([]PatternSpec{{Name: "email", Expr: `[a-z]+@[a-z]+\.com`}})
	require.NoError(t, err)

	assert.Equal(t, Match{"email": {"kim@corp.com"}}, r.Scan("mail kim@corp.com 123456-1234567"))
	assert.Equal(t, "email", r.Specs()[0].Name)
}

func TestLoadSpecs(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "patterns.yml")
	body := "patterns:\n  - name: phone\n    pattern: '01[016789]-\\d{3,4}-\\d{4}'\n    description: Mobile number\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	specs, err := LoadSpecs(path)
	require.NoError(t, err)
	require.Len(t, specs, 1)
	assert.Equal(t, "phone", specs[0].Name)

	r, err := NewRegistry(specs)
	require.NoError(t, err)
	assert.Equal(t, Match{"phone": {"010-1234-5678"}}, r.Scan("tel 010-1234-5678"))
}

func TestLoadSpecsEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.yml")
	require.NoError(t, os.WriteFile(path, []byte("patterns: []\n"), 0o600))

	_, err := LoadSpecs(path)
	assert.Error(t, err)
}
