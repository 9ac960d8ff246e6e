package plotmodel

import (
	"bytes"
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	pdfgui "github.com/rmera/gopdfgui"
	"github.com/rmera/gopdfgui/fitting"
	"github.com/rmera/gopdfgui/pdfdata"
	"github.com/rmera/gopdfgui/structure"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dataset(Te *testing.T, name string, temp float64) *pdfdata.DataSet {
	D := pdfdata.NewDataSet(name)
	r := []float64{1, 1.5, 2, 2.5}
	g := []float64{0.5, 1, -1, 0}
	require.NoError(Te, D.SetObserved(r, g, nil, nil))
	D.Metadata["temperature"] = temp
	return D
}

func TestCurveValidation(Te *testing.T) {
	D := dataset(Te, "d", 300)
	F := fitting.New("fit")
	bad := []struct {
		x   string
		y   []string
		ids []any
	}{
		{"r", []string{"rw"}, []any{D}},
		{"r", []string{"Gobs"}, []any{D, D}},
		{"r", []string{"Gobs"}, []any{F}},
		{"step", []string{"rw"}, []any{D}},
		{"step", []string{"Gcalc"}, []any{F}},
		{"index", []string{"Gobs"}, []any{D}},
		{"index", []string{"rw"}, nil},
		{"index", nil, []any{D}},
		{"index", []string{"rw"}, []any{42}},
	}
	for _, b := range bad {
		_, err := NewCurve(b.x, b.y, b.ids, nil, 0, "")
		assert.True(Te, errors.Is(err, pdfgui.ConfigError) || errors.Is(err, pdfgui.TypeError), "%v", b)
	}
	_, err := NewCurve("r", []string{"Gobs"}, []any{D}, []int{0, 1}, 0, "")
	assert.True(Te, errors.Is(err, pdfgui.ConfigError))
	C, err := NewCurve("robs", []string{"Gobs"}, []any{D}, nil, 0, "-")
	require.NoError(Te, err)
	assert.Equal(Te, RCurve, C.Kind())
}

func TestRCurve(Te *testing.T) {
	D := dataset(Te, "d", 300)
	C, err := NewCurve("r", []string{"Gtrunc", "Gcalc"}, []any{D}, nil, 2, "")
	require.NoError(Te, err)
	P := New("plot")
	require.NoError(Te, P.AddCurve(C))
	require.Len(Te, C.Data, 2)
	assert.Len(Te, C.Data[0], 4)
	assert.Equal(Te, 2.5, C.Data[0][0].Y)
	assert.Empty(Te, C.Data[1])

	var changed []*Curve
	P.OnChange = func(c *Curve) { changed = append(changed, c) }
	D.Gcalc = []float64{0, 0, 0, 0}
	F := fitting.New("fit")
	require.NoError(Te, F.Insert(D, -1))
	assert.Len(Te, P.Notify(F), 1, "notifying the owning fit updates the curve")
	assert.Len(Te, changed, 1)
	assert.Len(Te, C.Data[1], 4)
	assert.Equal(Te, 2.0, C.Data[1][3].Y)
	assert.Empty(Te, P.Notify(fitting.New("other")))

	P.Close()
	assert.Nil(Te, P.Notify(D))
	assert.Empty(Te, P.Curves())
	assert.True(Te, errors.Is(P.AddCurve(C), pdfgui.StatusError))
}

func TestScalarCurve(Te *testing.T) {
	ds := []any{dataset(Te, "a", 300), dataset(Te, "b", 400), pdfdata.NewDataSet("c")}
	C, err := NewCurve("index", []string{"temperature"}, ds, nil, 0, "")
	require.NoError(Te, err)
	require.NoError(Te, C.Update())
	assert.Equal(Te, 400.0, C.Data[0][1].Y)
	assert.Equal(Te, 1.0, C.Data[0][1].X)
	assert.True(Te, math.IsNaN(C.Data[0][2].Y))

	S := structure.NewStructure()
	S.Lattice = structure.CubicLattice(3.52)
	ph := structure.NewFitStructure("Ni", S)
	C, err = NewCurve("index", []string{"lat(1)", "pscale"}, []any{ph}, nil, 0, "")
	require.NoError(Te, err)
	require.NoError(Te, C.Update())
	assert.Equal(Te, 3.52, C.Data[0][0].Y)
	assert.Equal(Te, 1.0, C.Data[1][0].Y)
}

type stepEngine struct{}

func (stepEngine) Refine(_ context.Context, P *fitting.Problem, progress func(fitting.Progress)) (*fitting.Result, error) {
	for s := 1; s <= 3; s++ {
		progress(fitting.Progress{Step: s, Rw: 1 / float64(s), Values: map[int]float64{1: float64(s)}})
	}
	return &fitting.Result{Values: map[int]float64{1: 3}, Rw: 1.0 / 3}, nil
}

func (stepEngine) Calculate(context.Context, []*structure.FitStructure, *pdfdata.Calculation) ([]float64, error) {
	return nil, nil
}

func TestStepCurve(Te *testing.T) {
	F := fitting.New("fit", fitting.WithEngine(stepEngine{}))
	require.NoError(Te, F.Insert(dataset(Te, "d", 300), -1))
	_, err := F.SetParameter(1, 0.0)
	require.NoError(Te, err)
	C, err := NewCurve("step", []string{"rw", "@1"}, []any{F}, nil, 0, "")
	require.NoError(Te, err)
	P := New("steps")
	require.NoError(Te, P.AddCurve(C))
	assert.Empty(Te, C.Data[0])

	require.NoError(Te, F.Refine(context.Background()))
	P.Notify(F)
	require.Len(Te, C.Data[1], 3)
	assert.Equal(Te, 2.0, C.Data[1][1].Y)
	assert.Equal(Te, 2.0, C.Data[1][2].X)

	v, err := Scalar(F, "@1", -1)
	require.NoError(Te, err)
	assert.Equal(Te, 3.0, v)
}

func TestExport(Te *testing.T) {
	D := dataset(Te, "ni data", 300)
	D.Gcalc = []float64{1, 1, 1, 1}
	P := New("plot")
	c1, err := NewCurve("r", []string{"Gtrunc"}, []any{D}, nil, 0, "")
	require.NoError(Te, err)
	c2, err := NewCurve("r", []string{"Gcalc"}, []any{D}, nil, 0, "")
	require.NoError(Te, err)
	c3, err := NewCurve("index", []string{"temperature"}, []any{D}, nil, 0, "")
	require.NoError(Te, err)
	for _, c := range []*Curve{c1, c2, c3} {
		require.NoError(Te, P.AddCurve(c))
	}
	var buf bytes.Buffer
	require.NoError(Te, P.Export(&buf))
	out := buf.String()
	assert.True(Te, strings.HasPrefix(out, "#S 1\n#L r ni_data.Gtrunc ni_data.Gcalc\n1\t0.5\t1\n"), out)
	assert.Contains(Te, out, "\n#S 2\n#L index ni_data.temperature\n0\t300\n")
	assert.Equal(Te, 2, strings.Count(out, "#S"))
}
