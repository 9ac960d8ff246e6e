package param

import (
	"errors"
	"math"
	"testing"

	pdfgui "github.com/rmera/gopdfgui"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormulaEvaluate(Te *testing.T) {
	vals := map[int]float64{1: 2, 2: 3, 10: 0.5}
	cases := map[string]float64{
		"@1":                 2,
		"@1+@2*2":            8,
		"(@1+@2)*2":          10,
		"-@1^2":              -4,
		"2**3**2":            512,
		"@2/@1 - 1":          0.5,
		"sqrt(@1*@1)":        2,
		"atan2(1, 1)*4":      math.Pi,
		"sin(pi/2) + @10":    1.5,
		"1.5e1 + +@1":        17,
		"exp(log(@2))":       3,
		"pow(@1, 3) - abs(-1)": 7,
	}
	for f, want := range cases {
		c, err := NewConstraint(f)
		require.NoError(Te, err, f)
		got, err := c.Evaluate(vals)
		require.NoError(Te, err, f)
		assert.InDelta(Te, want, got, 1e-12, f)
	}
}

func TestFormulaErrors(Te *testing.T) {
	for _, f := range []string{"", "@", "@1+", "foo(@1)", "bar", "(@1", "@1 $ 2", "sqrt(1,2)"} {
		_, err := NewConstraint(f)
		assert.True(Te, errors.Is(err, pdfgui.ConfigError), "%q: %v", f, err)
	}
	c, err := NewConstraint("@1 + @7")
	require.NoError(Te, err)
	_, err = c.Evaluate(map[int]float64{1: 1})
	assert.True(Te, errors.Is(err, pdfgui.KeyError))
}

func TestIndices(Te *testing.T) {
	c, err := NewConstraint("@3*@1 + sin(@3) - @12")
	require.NoError(Te, err)
	assert.Equal(Te, []int{1, 3, 12}, c.Indices())
	c, err = NewConstraint("0.25")
	require.NoError(Te, err)
	assert.Empty(Te, c.Indices())
}

func TestRenumber(Te *testing.T) {
	f, err := RenumberFormula("@1 + 2*@12 -  @1/@2", map[int]int{1: 21, 12: 1})
	require.NoError(Te, err)
	assert.Equal(Te, "@21 + 2*@1 -  @21/@2", f)

	c, err := NewConstraint("1.5*@4")
	require.NoError(Te, err)
	c2, err := c.Renumber(map[int]int{4: 40})
	require.NoError(Te, err)
	assert.Equal(Te, "1.5*@40", c2.Formula())
	assert.Equal(Te, "1.5*@4", c.Formula())
}

func TestGuess(Te *testing.T) {
	c, _ := NewConstraint("2*@5 + 1")
	assert.InDelta(Te, 3.0, c.Guess(7)[5], 1e-12)
	c, _ = NewConstraint("@5")
	assert.Equal(Te, map[int]float64{5: 0.3}, c.Guess(0.3))
	c, _ = NewConstraint("@5^2")
	assert.Empty(Te, c.Guess(4))
	c, _ = NewConstraint("@1*@2")
	assert.Empty(Te, c.Guess(4))
}
