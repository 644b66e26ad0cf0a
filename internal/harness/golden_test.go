package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalTrace_KeepsAddressReadable(t *testing.T) {
	data, err := MarshalTrace("x", []TraceEvent{{
		Action: "start",
		State:  Snapshot{Address: "/team-directory?page=2&search=a<b", Visible: []string{}},
	}})
	require.NoError(t, err)

	out := string(data)
	assert.Contains(t, out, `"address": "/team-directory?page=2&search=a<b"`)
	assert.Contains(t, out, `"visible": []`)
	assert.NotContains(t, out, `\u0026`)
	assert.NotContains(t, out, `"detail"`)
	assert.True(t, out[len(out)-1] == '\n')
}

func TestMarshalTrace_Deterministic(t *testing.T) {
	trace := []TraceEvent{{Step: 1, Action: "set_page", Detail: "2", Loads: []string{"page=2 limit=10"}}}
	a, err := MarshalTrace("same", trace)
	require.NoError(t, err)
	b, err := MarshalTrace("same", trace)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}
