package export

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDataset() Dataset {
	return Dataset{
		Headers: []string{"Period", "Monday"},
		Rows: []map[string]string{
			{"Period": "0", "Monday": "Math"},
			{"Period": "1", "Monday": "Physics"},
		},
	}
}

func TestCSVExporter_RendersHeaderAndRows(t *testing.T) {
	out, err := NewCSVExporter().Render(sampleDataset())
	require.NoError(t, err)
	assert.Contains(t, string(out), "Period,Monday")
	assert.Contains(t, string(out), "0,Math")
}

func TestCSVExporter_RejectsEmptyHeaders(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{})
	assert.Error(t, err)
}

func TestPDFExporter_RendersDocumentWithTitle(t *testing.T) {
	out, err := NewPDFExporter().Render(sampleDataset(), "SEM101")
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(out[:4]))
}

func TestPDFExporter_RejectsEmptyHeaders(t *testing.T) {
	_, err := NewPDFExporter().Render(Dataset{}, "x")
	assert.Error(t, err)
}
