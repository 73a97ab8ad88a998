package export

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVExporterRendersGridInHeaderOrder(t *testing.T) {
	data := Dataset{
		Headers: []string{"Period", "MONDAY", "TUESDAY"},
		Rows: []map[string]string{
			{
				"TUESDAY": "CS202 / Bilal Memon @ Room B",
				"Period":  "1 (08:30-09:10)",
				"MONDAY":  "CS201 / Ayesha Khan @ Room A",
			},
			{"Period": "2 (09:10-09:50)"},
		},
	}

	out, err := NewCSVExporter().Render(data)
	require.NoError(t, err)

	text := string(out)
	require.True(t, strings.HasPrefix(text, "\uFEFF"), "spreadsheet imports need the BOM")
	lines := strings.Split(strings.TrimSuffix(strings.TrimPrefix(text, "\uFEFF"), "\r\n"), "\r\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Period,MONDAY,TUESDAY", lines[0])
	assert.Equal(t, "1 (08:30-09:10),CS201 / Ayesha Khan @ Room A,CS202 / Bilal Memon @ Room B", lines[1])
	assert.Equal(t, "2 (09:10-09:50),,", lines[2], "free periods stay as blank cells")
}

func TestCSVExporterRejectsHeaderlessDataset(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{})
	require.Error(t, err)
}
