package ir

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseJSON(t *testing.T) {
	v, err := ParseJSON([]byte(`{"runtime":"automatic","corejs":3,"loose":false,"list":["a",null]}`))
	require.NoError(t, err)

	obj, ok := v.(Object)
	require.True(t, ok)
	assert.Equal(t, String("automatic"), obj["runtime"])
	assert.Equal(t, Int(3), obj["corejs"])
	assert.Equal(t, Bool(false), obj["loose"])
	assert.Equal(t, Array{String("a"), Null{}}, obj["list"])
}

func TestParseJSONRejectsFloat(t *testing.T) {
	_, err := ParseJSON([]byte(`{"version":16.13}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "floats")
}

func TestObjectJSONRoundTrip(t *testing.T) {
	obj := Object{"b": Int(1), "a": Array{Bool(true)}}

	data, err := json.Marshal(obj)
	require.NoError(t, err)
	assert.Equal(t, `{"a":[true],"b":1}`, string(data))

	var back Object
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, obj, back)
}

func TestObjectCloneIsDeep(t *testing.T) {
	orig := Object{"targets": Object{"node": String("16.13")}}
	cp := orig.Clone()

	cp["targets"].(Object)["node"] = String("20")

	assert.Equal(t, String("16.13"), orig["targets"].(Object)["node"])
}

func TestToGo(t *testing.T) {
	got := ToGo(Object{"a": Array{Int(1), Null{}}, "b": Bool(true)})
	assert.Equal(t, map[string]any{"a": []any{int64(1), nil}, "b": true}, got)
}
