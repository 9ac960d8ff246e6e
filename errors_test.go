package pdfgui

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorKinds(Te *testing.T) {
	err := NewError(KeyError, "fit %q not found", "A")
	assert.True(Te, errors.Is(err, KeyError))
	assert.False(Te, errors.Is(err, ConfigError))
	assert.Equal(Te, `key error: fit "A" not found`, err.Error())

	wrapped := fmt.Errorf("loading: %w", err)
	assert.True(Te, IsKind(wrapped, KeyError))

	ErrDecorate(wrapped, "Load")
	var e *Error
	require.True(Te, errors.As(wrapped, &e))
	assert.Equal(Te, []string{"Load"}, e.Decorate(""))
}

func TestWrapError(Te *testing.T) {
	cause := errors.New("short read")
	err := WrapError(FileError, cause, "bad archive").WithFile("x.ddp")
	assert.True(Te, errors.Is(err, FileError))
	assert.True(Te, errors.Is(err, cause))
	assert.Contains(Te, err.Error(), "x.ddp")
}

func TestSymbols(Te *testing.T) {
	cases := map[string]string{"NI": "Ni", "ni": "Ni", "Mn2+": "Mn", "O1": "O", "NA": "Na", "Fe": "Fe"}
	for in, want := range cases {
		assert.Equal(Te, want, NormalizeSymbol(in), in)
	}
	assert.True(Te, IsElement("Sr"))
	assert.False(Te, IsElement("Xx"))
	assert.False(Te, IsElement(""))
	z, ok := AtomicNumber("La")
	assert.True(Te, ok)
	assert.Equal(Te, 57, z)
	w, err := ScatteringWeight("Ni", "N")
	require.NoError(Te, err)
	assert.InDelta(Te, 10.3, w, 1e-12)
	_, err = ScatteringWeight("Ni", "Q")
	assert.True(Te, errors.Is(err, ConfigError))
}
