package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateOutputFormat(t *testing.T) {
	assert.NoError(t, validateOutputFormat(""))
	assert.NoError(t, validateOutputFormat("table"))
	assert.NoError(t, validateOutputFormat("json"))
	assert.Error(t, validateOutputFormat("yaml"))
	assert.Error(t, validateOutputFormat("TABLE"))
}

func TestPrintJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printJSON(&buf, map[string]int{"count": 3}))
	assert.JSONEq(t, `{"count": 3}`, buf.String())
	assert.Contains(t, buf.String(), "\n  ")
}

func TestPrintTable(t *testing.T) {
	var buf bytes.Buffer
	err := printTable(&buf, []string{"name", "status"}, [][]string{
		{"mvtec_bottle", "SUCCESS"},
		{"dagm_class1", "FAILED"},
	})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "NAME"))
	assert.Contains(t, lines[0], "STATUS")
	assert.Contains(t, lines[1], "mvtec_bottle")
	assert.Contains(t, lines[2], "FAILED")

	// Columns stay aligned.
	assert.Equal(t, strings.Index(lines[1], "SUCCESS"), strings.Index(lines[2], "FAILED"))
}

func TestPrintTable_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printTable(&buf, []string{"name"}, nil))
	assert.Equal(t, "NAME\n", buf.String())
}
