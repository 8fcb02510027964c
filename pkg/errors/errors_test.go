package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCapturesStack(t *testing.T) {
	err := New(ErrorTypeTypeMismatch, "not numeric")

	assert.Equal(t, "type_mismatch: not numeric", err.Error())
	assert.NotEmpty(t, err.Stack)
	assert.Nil(t, err.Unwrap())
}

func TestWrapPreservesCauseAndStack(t *testing.T) {
	inner := New(ErrorTypeParse, "bad header")
	outer := Wrap(inner, ErrorTypeFile, "load failed")

	require.NotNil(t, outer)
	assert.Equal(t, inner.Stack, outer.Stack)
	assert.True(t, stderrors.Is(outer, inner))
	assert.Equal(t, ErrorTypeFile, TypeOf(outer))
	assert.Equal(t, "file: load failed: parse: bad header", outer.Error())
}

func TestWrapNil(t *testing.T) {
	assert.Nil(t, Wrap(nil, ErrorTypeFile, "noop"))
}

func TestIsType(t *testing.T) {
	err := Newf(ErrorTypeUnknownColumn, "column %q not found", "x").WithDetail("column", "x")

	assert.True(t, IsType(err, ErrorTypeUnknownColumn))
	assert.False(t, IsType(err, ErrorTypeParse))
	assert.False(t, IsType(stderrors.New("plain"), ErrorTypeUnknownColumn))
	assert.Equal(t, "x", err.Details["column"])
}

func TestWrapfAndDetailsOf(t *testing.T) {
	inner := New(ErrorTypeUnknownColumn, "column \"x\" not found").
		WithDetail("column", "x").
		WithDetail("step", 9)
	outer := Wrapf(inner, ErrorTypeConfig, "invalid recipe step %d", 2).WithDetail("step", 2)

	assert.Equal(t, "config: invalid recipe step 2: unknown_column: column \"x\" not found", outer.Error())
	assert.Equal(t, inner.Stack, outer.Stack)
	assert.Equal(t, map[string]interface{}{"column": "x", "step": 2}, DetailsOf(outer))

	plain := Wrapf(stderrors.New("disk full"), ErrorTypeFile, "write %s", "out.csv")
	assert.NotEmpty(t, plain.Stack)
	assert.Nil(t, DetailsOf(plain))
	assert.Nil(t, Wrapf(nil, ErrorTypeFile, "noop"))
}

func TestFormatVerbose(t *testing.T) {
	err := New(ErrorTypeParse, "bad header").WithDetail("line", 1)

	assert.Equal(t, "parse: bad header", fmt.Sprintf("%v", err))
	verbose := fmt.Sprintf("%+v", err)
	assert.Contains(t, verbose, "parse: bad header\n  line=1")
	assert.Contains(t, verbose, "TestFormatVerbose")
}
