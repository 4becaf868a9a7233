package excel

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	err := Write(&buf, Sheet{
		Name:    "History",
		Headers: []string{"ID", "Cultivar", "Confidence"},
		Rows: [][]interface{}{
			{int64(3), "Sheriff", 0.91},
			{int64(1), "Kvium", nil},
		},
		Widths: map[int]float64{1: 18},
	})
	require.NoError(t, err)

	rows, err := Read(&buf)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"ID", "Cultivar", "Confidence"}, rows[0])
	assert.Equal(t, []string{"3", "Sheriff", "0.91"}, rows[1])
	assert.Equal(t, []string{"1", "Kvium"}, rows[2])
}

func TestWriteEmptySheet(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, Sheet{}))

	rows, err := Read(&buf)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestReadRejectsGarbage(t *testing.T) {
	_, err := Read(bytes.NewReader([]byte("nope")))
	assert.Error(t, err)
}
