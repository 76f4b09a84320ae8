package export

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVExporterRender(t *testing.T) {
	table := Table{
		Title:   "Quiz Results",
		Headers: []string{"Username", "Score"},
		Rows: [][]string{
			{"jdoe", "87"},
			{"asmith"},
		},
	}

	data, err := NewCSVExporter().Render(table)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Username,Score", lines[0])
	assert.Equal(t, "jdoe,87", lines[1])
	// Short rows are padded to the header width.
	assert.Equal(t, "asmith,", lines[2])
}

func TestCSVExporterRequiresHeaders(t *testing.T) {
	_, err := NewCSVExporter().Render(Table{})
	require.Error(t, err)
}

func TestPDFExporterRender(t *testing.T) {
	table := Table{
		Title:   "Quiz Results",
		Headers: []string{"Username", "Score"},
		Rows:    [][]string{{"jdoe", "87"}},
	}

	data, err := NewPDFExporter().Render(table)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "%PDF"))
}

func TestPDFExporterRequiresHeaders(t *testing.T) {
	_, err := NewPDFExporter().Render(Table{})
	require.Error(t, err)
}
