package pdfdata

import (
	"bytes"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	pdfgui "github.com/rmera/gopdfgui"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const niData = `History written: Mon Jan 01
title=Ni at 300K
stype=N qmax=26.0 qdamp=0.0486
temperature=300.0
doping=0.0
##### start data
### start data
#L r G dr dG
1.00 0.10 0.0 0.01
1.01 0.20 0.0 0.01
1.02 0.30 0.0 0.01
1.03 0.40 0.0 0.01
1.04 0.50 0.0 0.01
1.05 0.60 0.0 0.01
### end data
999 999 999 999
`

func TestRead(Te *testing.T) {
	D, err := Read(strings.NewReader(niData), "ni.gr")
	require.NoError(Te, err)
	assert.Equal(Te, "ni.gr", D.Name())
	assert.Equal(Te, "N", D.Stype)
	assert.Equal(Te, 26.0, D.Qmax)
	assert.Equal(Te, 0.0486, D.Qdamp)
	assert.Equal(Te, 300.0, D.Metadata["temperature"])
	assert.Equal(Te, 0.0, D.Metadata["doping"])
	require.Equal(Te, 6, D.Len())
	assert.Equal(Te, 0.01, D.DGobs[3])
	rmin, rmax, rstep := D.FitRange()
	assert.Equal(Te, 1.0, rmin)
	assert.Equal(Te, 1.05, rmax)
	assert.InDelta(Te, 0.01, rstep, 1e-12)
	assert.Equal(Te, D.Robs, D.Rcalc)
	assert.Equal(Te, D.Gobs, D.Gtrunc)
}

func TestReadColumns(Te *testing.T) {
	D, err := Read(strings.NewReader("# x-ray data stype=X\n0.5 1\n1.0 2\n1.5 3\n"), "two")
	require.NoError(Te, err)
	assert.Equal(Te, "X", D.Stype)
	assert.Equal(Te, []float64{0, 0, 0}, D.DGobs)

	D, err = Read(strings.NewReader("0.5 1 0.1\n1.0 2 0.2\n"), "three")
	require.NoError(Te, err)
	assert.Equal(Te, []float64{0.1, 0.2}, D.DGobs)
	assert.Equal(Te, []float64{0, 0}, D.DRobs)

	D, err = Read(strings.NewReader("# nothing here\n"), "empty")
	require.NoError(Te, err)
	assert.Equal(Te, 0, D.Len())
}

func TestReadErrors(Te *testing.T) {
	bad := []string{
		"stype=Q\n1 2\n2 3\n",
		"qmax=abc\n1 2\n2 3\n",
		"### start data\n1 2\n2 x\n",
		"### start data\n1\n",
		"### start data\n2 1\n1 2\n",
	}
	for _, b := range bad {
		_, err := Read(strings.NewReader(b), "bad")
		assert.True(Te, errors.Is(err, pdfgui.FileError) || errors.Is(err, pdfgui.ConfigError), "%q: %v", b, err)
	}
	_, err := ReadFile(filepath.Join(Te.TempDir(), "missing.gr"))
	assert.True(Te, errors.Is(err, pdfgui.FileError))
}

func TestReadUnsorted(Te *testing.T) {
	path := filepath.Join(Te.TempDir(), "unsorted.gr")
	require.NoError(Te, os.WriteFile(path, []byte("qmax=25\n### start data\n1.0 2\n1.2 3\n1.1 1\n"), 0o644))
	_, err := ReadFile(path)
	require.Error(Te, err)
	var e *pdfgui.Error
	require.True(Te, errors.As(err, &e))
	assert.True(Te, pdfgui.IsKind(err, pdfgui.FileError))
	assert.Equal(Te, path, e.FileName())
	assert.Contains(Te, err.Error(), "unsorted.gr")
}

func TestWriteRead(Te *testing.T) {
	D, err := Read(strings.NewReader(niData), "ni.gr")
	require.NoError(Te, err)
	D.Dscale = 0.9
	var buf bytes.Buffer
	require.NoError(Te, D.Write(&buf))
	path := filepath.Join(Te.TempDir(), "ni.gr")
	require.NoError(Te, os.WriteFile(path, buf.Bytes(), 0o644))
	E, err := ReadFile(path)
	require.NoError(Te, err)
	assert.Equal(Te, path, E.Filename)
	assert.Equal(Te, D.Robs, E.Robs)
	assert.Equal(Te, D.Gobs, E.Gobs)
	assert.Equal(Te, D.DGobs, E.DGobs)
	assert.Equal(Te, 0.9, E.Dscale)
	assert.Equal(Te, D.Metadata, E.Metadata)
	assert.Equal(Te, D.Qdamp, E.Qdamp)
}

func evenData(n int, step float64) *DataSet {
	r := make([]float64, n)
	g := make([]float64, n)
	for i := range r {
		r[i] = 1 + float64(i)*step
		g[i] = math.Sin(r[i])
	}
	D := NewDataSet("even")
	if err := D.SetObserved(r, g, nil, nil); err != nil {
		panic(err)
	}
	return D
}

func TestFitRange(Te *testing.T) {
	D := evenData(1001, 0.01) //1..11
	require.NoError(Te, D.SetFitRange(0, 20))
	rmin, rmax, _ := D.FitRange()
	assert.Equal(Te, 1.0, rmin)
	assert.InDelta(Te, 11.0, rmax, 1e-9)

	require.NoError(Te, D.SetFitRange(2, 5))
	rmin, rmax, rstep := D.FitRange()
	assert.Equal(Te, 2.0, rmin)
	assert.Equal(Te, 5.0, rmax)
	assert.InDelta(Te, 0.01, rstep, 1e-12)
	assert.Len(Te, D.Rcalc, 301)
	assert.Len(Te, D.Gtrunc, 301)

	err := D.SetFitRange(5, 2)
	assert.True(Te, errors.Is(err, pdfgui.ConfigError))
	err = NewDataSet("x").SetFitRange(0, 1)
	assert.True(Te, errors.Is(err, pdfgui.ConfigError))
}

func TestSampling(Te *testing.T) {
	D := evenData(1001, 0.01)
	err := D.SetFitSamplingType(SamplingNyquist)
	assert.True(Te, errors.Is(err, pdfgui.ConfigError), "qmax is 0")

	D.Qmax = 10 * math.Pi
	require.NoError(Te, D.SetFitSamplingType(SamplingNyquist))
	_, _, step := D.FitRange()
	assert.InDelta(Te, 0.1, step, 1e-12)
	assert.Len(Te, D.Rcalc, 101)
	for i, r := range D.Rcalc {
		assert.InDelta(Te, math.Sin(r), D.Gtrunc[i], 1e-2)
	}

	err = D.SetFitSamplingType(SamplingCustom, -1)
	assert.True(Te, errors.Is(err, pdfgui.ConfigError))
	require.NoError(Te, D.SetFitSamplingType(SamplingCustom, 0.5))
	assert.Len(Te, D.Rcalc, 21)
	assert.Equal(Te, SamplingCustom, D.Sampling())

	require.NoError(Te, D.SetFitSamplingType(SamplingData))
	assert.Len(Te, D.Rcalc, 1001)
}

func TestResiduals(Te *testing.T) {
	D := evenData(101, 0.01)
	D.Gcalc = append([]float64(nil), D.Gtrunc...)
	assert.InDelta(Te, 0.0, D.Rw(), 1e-12)
	for i := range D.Gcalc {
		D.Gcalc[i] = 0
	}
	assert.InDelta(Te, 1.0, D.Rw(), 1e-12)
	crw := D.Crw()
	assert.Len(Te, crw, 101)
	for i := 1; i < len(crw); i++ {
		assert.GreaterOrEqual(Te, crw[i], crw[i-1])
	}
	D.Gcalc = nil
	assert.True(Te, math.IsNaN(D.Rw()))
}

func TestDataSetConstraints(Te *testing.T) {
	D := evenData(11, 0.1)
	require.NoError(Te, D.SetConstraint("dscale", "@1*2"))
	require.NoError(Te, D.SetConstraint("qdamp", "@2"))
	err := D.SetConstraint("qmax", "@3")
	assert.True(Te, errors.Is(err, pdfgui.ConfigError))
	require.NoError(Te, D.ApplyParameters(map[int]float64{1: 0.5, 2: 0.03}))
	assert.Equal(Te, 1.0, D.Dscale)
	assert.Equal(Te, 0.03, D.Qdamp)
	assert.Equal(Te, map[int]float64{1: 0.5, 2: 0.03}, D.FindParameters())
	require.NoError(Te, D.RenumberParameters(map[int]int{1: 11}))
	c, _ := D.Constraint("dscale")
	assert.Equal(Te, "@11*2", c.Formula())

	E := D.Copy()
	E.Robs[0] = -1
	E.Metadata["temperature"] = 10
	assert.Equal(Te, 1.0, D.Robs[0])
	assert.NotContains(Te, D.Metadata, "temperature")
}

func TestCalculation(Te *testing.T) {
	C := NewCalculation("calc")
	require.NoError(Te, C.SetRGrid(1, 0.3, 2.0))
	rmin, rstep, rmax := C.RGrid()
	assert.Equal(Te, 1.0, rmin)
	assert.Equal(Te, 0.3, rstep)
	assert.InDelta(Te, 1.9, rmax, 1e-12)
	assert.Equal(Te, 4, C.Rlen())
	assert.True(Te, errors.Is(C.SetRGrid(1, 0, 2), pdfgui.ConfigError))
	assert.True(Te, errors.Is(C.SetRGrid(2, 0.1, 1), pdfgui.ConfigError))
	assert.True(Te, errors.Is(C.SetConstraint("dscale", "@1"), pdfgui.StatusError))
}
