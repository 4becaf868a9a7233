package upstream

import (
	"encoding/json"
	"testing"

	"hyperleaf/domain/result"

	"github.com/stretchr/testify/require"
)

func mustJSON(t *testing.T, v interface{}) result.RawResult {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return result.RawResult(data)
}

func indexOf(label string) int {
	for i, l := range result.CultivarLabels {
		if l == label {
			return i
		}
	}
	return -1
}
