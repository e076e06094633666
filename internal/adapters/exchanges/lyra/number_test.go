package lyra

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNumber_Unmarshal(t *testing.T) {
	tests := []struct {
		raw   string
		valid bool
		want  float64
	}{
		{`"95000"`, true, 95000},
		{`95000`, true, 95000},
		{`"0.0003"`, true, 0.0003},
		{`-1.5`, true, -1.5},
		{`" 12 "`, true, 12},
		{`null`, false, 0},
		{`""`, false, 0},
		{`"n/a"`, false, 0},
		{`true`, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			var n Number
			require.NoError(t, json.Unmarshal([]byte(tt.raw), &n))
			assert.Equal(t, tt.valid, n.Valid)
			assert.Equal(t, tt.want, n.Float())
		})
	}
}

func TestNumber_InStruct(t *testing.T) {
	var v struct {
		A Number `json:"a"`
		B Number `json:"b"`
		C Number `json:"c"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":"1700000000","b":null}`), &v))

	assert.Equal(t, int64(1700000000), v.A.Int())
	assert.False(t, v.B.Valid)
	assert.False(t, v.C.Valid)
	assert.Zero(t, v.C.Int())
}

func TestJSONKind(t *testing.T) {
	assert.Equal(t, "missing", jsonKind(nil))
	assert.Equal(t, "object", jsonKind([]byte(` {"a":1}`)))
	assert.Equal(t, "array", jsonKind([]byte(`[]`)))
	assert.Equal(t, "string", jsonKind([]byte(`"x"`)))
	assert.Equal(t, "bool", jsonKind([]byte(`false`)))
	assert.Equal(t, "null", jsonKind([]byte(`null`)))
	assert.Equal(t, "number", jsonKind([]byte(`-3`)))

	assert.True(t, isAbsent([]byte(`null`)))
	assert.True(t, isAbsent(nil))
	assert.False(t, isAbsent([]byte(`0`)))
}
