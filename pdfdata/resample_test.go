package pdfdata

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func arange(start, stop, step float64) []float64 {
	var ret []float64
	for i := 0; ; i++ {
		v := start + float64(i)*step
		if v >= stop-step*1e-9 {
			break
		}
		ret = append(ret, v)
	}
	return ret
}

func sines(x []float64) []float64 {
	ret := make([]float64, len(x))
	for i, v := range x {
		ret[i] = math.Sin(v)
	}
	return ret
}

func TestGridInterpolation(Te *testing.T) {
	x0 := arange(-5, 5, 0.25)
	y0 := sines(x0)
	y := GridInterpolation(x0, y0, []float64{-5, -0.2, 4.75, -5.1, 5.1}, -7, 7)
	assert.Equal(Te, y0[0], y[0])
	assert.InDelta(Te, -0.197923167403618, y[1], 1e-7)
	assert.Equal(Te, y0[len(y0)-1], y[2])
	assert.Equal(Te, -7.0, y[3])
	assert.Equal(Te, 7.0, y[4])

	//every grid point is returned exactly
	assert.Equal(Te, y0, GridInterpolation(x0, y0, x0, 0, 0))
	assert.Equal(Te, []float64{3, 3}, GridInterpolation(nil, nil, []float64{1, 2}, 3, 4))
}

func TestSincInterpolation(Te *testing.T) {
	x0 := arange(0, 20, 0.1)
	y0 := make([]float64, len(x0))
	for i, x := range x0 {
		y0[i] = math.Sin(2 * x)
	}
	assert.Equal(Te, y0, SincInterpolation(x0, y0, x0, SincWindow, 0, 0))
	//well inside the grid a band-limited signal is reproduced closely
	y := SincInterpolation(x0, y0, []float64{10.05, 9.333}, SincWindow, 0, 0)
	assert.InDelta(Te, math.Sin(20.1), y[0], 2e-2)
	assert.InDelta(Te, math.Sin(18.666), y[1], 2e-2)
	y = SincInterpolation(x0, y0, []float64{-1, 25}, SincWindow, -2, 2)
	assert.Equal(Te, []float64{-2, 2}, y)
	assert.Equal(Te, []float64{-2}, SincInterpolation(nil, nil, []float64{1}, SincWindow, -2, 2))
	assert.Equal(Te, []float64{5, -2, 2}, SincInterpolation([]float64{1}, []float64{5}, []float64{1, 0, 2}, SincWindow, -2, 2))
}

func TestEvenlySpaced(Te *testing.T) {
	assert.True(Te, evenlySpaced(arange(0, 5, 0.01)))
	assert.False(Te, evenlySpaced([]float64{0, 1, 3}))
	assert.False(Te, evenlySpaced([]float64{1}))
}
