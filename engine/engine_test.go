package engine

import (
	"context"
	"errors"
	"math"
	"testing"

	pdfgui "github.com/rmera/gopdfgui"
	"github.com/rmera/gopdfgui/fitting"
	"github.com/rmera/gopdfgui/pdfdata"
	"github.com/rmera/gopdfgui/structure"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nickel(a float64) *structure.Structure {
	S := structure.NewStructure()
	S.Title = "Ni"
	S.SpaceGroup = "Fm-3m"
	S.Lattice = structure.CubicLattice(a)
	for _, p := range [][3]float64{{0, 0, 0}, {0, 0.5, 0.5}, {0.5, 0, 0.5}, {0.5, 0.5, 0}} {
		S.Atoms = append(S.Atoms, structure.NewAtom("Ni", p, 0.005, 1))
	}
	return S
}

func grid(rmin, rmax, step float64) []float64 {
	n := int(math.Round((rmax-rmin)/step)) + 1
	r := make([]float64, n)
	for i := range r {
		r[i] = rmin + float64(i)*step
	}
	return r
}

func TestPhasePDF(Te *testing.T) {
	S := nickel(3.52)
	r := grid(0.5, 3.0, 0.005)
	g, err := PhasePDF(S, nil, r, Instrument{Stype: "N", Dscale: 1})
	require.NoError(Te, err)
	rho0 := 4 / math.Pow(3.52, 3)
	//below the first neighbor shell only the baseline remains
	k := 200 //r = 1.5
	assert.InDelta(Te, -4*math.Pi*rho0*1.5, g[k], 1e-9)

	//the first shell holds 12 neighbors at a/sqrt(2)
	var area float64
	for i, x := range r {
		if x >= 2 && x <= 3 {
			area += (g[i] + 4*math.Pi*rho0*x) * 0.005
		}
	}
	assert.InEpsilon(Te, 12/(3.52/math.Sqrt2), area, 0.02)

	//x-rays give the same PDF for a single element
	gx, err := PhasePDF(S, nil, r, Instrument{Stype: "X", Dscale: 1})
	require.NoError(Te, err)
	assert.InDeltaSlice(Te, g, gx, 1e-9)

	//no pairs selected leaves only the baseline
	none := make([][]bool, 4)
	for i := range none {
		none[i] = make([]bool, 4)
	}
	g0, err := PhasePDF(S, none, r, Instrument{Stype: "N", Dscale: 1})
	require.NoError(Te, err)
	assert.InDelta(Te, -4*math.Pi*rho0*2.5, g0[400], 1e-9)

	S.Spdiameter = 2
	gs, err := PhasePDF(S, nil, r, Instrument{Stype: "N", Dscale: 1})
	require.NoError(Te, err)
	assert.Equal(Te, 0.0, gs[len(gs)-1])
}

func TestPhasePDFErrors(Te *testing.T) {
	r := grid(1, 2, 0.1)
	_, err := PhasePDF(structure.NewStructure(), nil, r, Instrument{Stype: "N"})
	assert.True(Te, errors.Is(err, pdfgui.ConfigError))
	_, err = PhasePDF(nickel(3.52), nil, r, Instrument{Stype: "Q"})
	assert.True(Te, errors.Is(err, pdfgui.ConfigError))
	S := nickel(3.52)
	S.Atoms[0].Element = "Xx"
	_, err = PhasePDF(S, nil, r, Instrument{Stype: "N"})
	assert.True(Te, errors.Is(err, pdfgui.KeyError))
}

func synthetic(Te *testing.T) *pdfdata.DataSet {
	r := grid(1, 8, 0.02)
	g, err := PhasePDF(nickel(3.52), nil, r, Instrument{Stype: "N", Dscale: 1})
	require.NoError(Te, err)
	D := pdfdata.NewDataSet("ni")
	require.NoError(Te, D.SetObserved(r, g, nil, nil))
	return D
}

func TestRefine(Te *testing.T) {
	P := structure.NewFitStructure("Ni", nickel(3.50))
	for _, k := range []string{"lat(1)", "lat(2)", "lat(3)"} {
		require.NoError(Te, P.SetConstraint(k, "@1"))
	}
	D := synthetic(Te)
	require.NoError(Te, D.SetConstraint("dscale", "@2"))
	prob := &fitting.Problem{
		Phases:   []*structure.FitStructure{P},
		DataSets: []*pdfdata.DataSet{D},
		Params:   []fitting.ParamSpec{{Index: 1, Value: 3.50}, {Index: 2, Value: 0.9}},
	}
	var steps []fitting.Progress
	E := New(nil)
	res, err := E.Refine(context.Background(), prob, func(p fitting.Progress) { steps = append(steps, p) })
	require.NoError(Te, err)
	assert.InDelta(Te, 3.52, res.Values[1], 1e-3)
	assert.InDelta(Te, 1.0, res.Values[2], 1e-2)
	assert.Less(Te, res.Rw, 0.05)
	require.NotEmpty(Te, steps)
	assert.LessOrEqual(Te, steps[len(steps)-1].Rw, steps[0].Rw)
	require.Len(Te, res.Phases, 1)
	assert.InDelta(Te, 3.52, res.Phases[0].Lattice.C, 1e-3)
	assert.Len(Te, res.DataSets[0].Gcalc, D.Len())
}

func TestRefineFixed(Te *testing.T) {
	P := structure.NewFitStructure("Ni", nickel(3.52))
	prob := &fitting.Problem{
		Phases:   []*structure.FitStructure{P},
		DataSets: []*pdfdata.DataSet{synthetic(Te)},
	}
	n := 0
	res, err := New(nil).Refine(context.Background(), prob, func(fitting.Progress) { n++ })
	require.NoError(Te, err)
	assert.InDelta(Te, 0, res.Rw, 1e-9)
	assert.Equal(Te, 1, n)
}

func TestRefineCancelled(Te *testing.T) {
	P := structure.NewFitStructure("Ni", nickel(3.50))
	require.NoError(Te, P.SetConstraint("lat(1)", "@1"))
	prob := &fitting.Problem{
		Phases:   []*structure.FitStructure{P},
		DataSets: []*pdfdata.DataSet{synthetic(Te)},
		Params:   []fitting.ParamSpec{{Index: 1, Value: 3.50}},
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(nil).Refine(ctx, prob, nil)
	assert.True(Te, errors.Is(err, context.Canceled))
}

func TestCalculate(Te *testing.T) {
	C := pdfdata.NewCalculation("calc")
	require.NoError(Te, C.SetRGrid(1, 0.01, 5))
	P := structure.NewFitStructure("Ni", nickel(3.52))
	g, err := New(nil).Calculate(context.Background(), []*structure.FitStructure{P, P.Copy()}, C)
	require.NoError(Te, err)
	single, err := PhasePDF(P.Initial, nil, C.Rcalc, Instrument{Stype: "N", Dscale: 1})
	require.NoError(Te, err)
	require.Len(Te, g, C.Rlen())
	for i := range g {
		assert.InDelta(Te, 2*single[i], g[i], 1e-9)
	}
}
