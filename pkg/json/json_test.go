package json

import (
	"bytes"
	stdjson "encoding/json"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type result struct {
	Operation string            `json:"operation"`
	Rows      int               `json:"rows"`
	Params    map[string]string `json:"params,omitempty"`
}

func TestMarshalMatchesStdlib(t *testing.T) {
	v := result{Operation: "remove_outliers", Rows: 4, Params: map[string]string{"columns": "age"}}

	got, err := Marshal(v)
	require.NoError(t, err)
	want, err := stdjson.Marshal(v)
	require.NoError(t, err)
	assert.JSONEq(t, string(want), string(got))

	var back result
	require.NoError(t, Unmarshal(got, &back))
	assert.Equal(t, v, back)
}

func TestMarshalToWriter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, MarshalToWriter(&buf, map[string]string{"a": "<b>"}, "  "))
	assert.Equal(t, "{\n  \"a\": \"<b>\"\n}\n", buf.String())

	buf.Reset()
	err := MarshalToWriter(&buf, map[string]float64{"f": math.Inf(1)}, "")
	assert.Error(t, err)
	assert.Zero(t, buf.Len())
}

func TestStreamingEncoderArray(t *testing.T) {
	var buf bytes.Buffer
	se := NewStreamingEncoder(&buf, true)
	require.NoError(t, se.Encode(result{Operation: "drop_duplicates", Rows: 3}))
	require.NoError(t, se.Encode(result{Operation: "drop_column", Rows: 3}))
	require.NoError(t, se.Close())

	var back []result
	require.NoError(t, stdjson.Unmarshal(buf.Bytes(), &back))
	require.Len(t, back, 2)
	assert.Equal(t, "drop_column", back[1].Operation)
}

func TestStreamingEncoderLines(t *testing.T) {
	var buf bytes.Buffer
	se := NewStreamingEncoder(&buf, false)
	for i := 0; i < 3; i++ {
		require.NoError(t, se.Encode(result{Rows: i}))
	}
	require.NoError(t, se.Close())

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 3)
	assert.JSONEq(t, `{"operation":"","rows":2}`, lines[2])
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestStreamingEncoderWriteError(t *testing.T) {
	se := NewStreamingEncoder(failingWriter{}, true)
	assert.Error(t, se.Encode(result{}))
	assert.EqualError(t, se.Close(), "disk full")
}

func TestBufferPool(t *testing.T) {
	buf := GetBuffer()
	buf.WriteString("stale")
	PutBuffer(buf)
	assert.Zero(t, GetBuffer().Len())
}
