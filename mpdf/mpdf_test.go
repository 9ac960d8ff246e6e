package mpdf

import (
	"math"
	"testing"

	pdfgui "github.com/rmera/gopdfgui"
	"github.com/rmera/gopdfgui/structure"
	v3 "github.com/rmera/gopdfgui/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func simpleCubic() *structure.Structure {
	S := structure.NewStructure()
	S.Lattice = structure.CubicLattice(1)
	S.Atoms = []*structure.Atom{structure.NewAtom("Mn", [3]float64{}, 0, 1)}
	return S
}

func TestConvolveSame(Te *testing.T) {
	a := []float64{1, 2, 3, 4, 5, 6, 7}
	k := []float64{0.25, 0.5, 0.25}
	got := convolveSame(a, k)
	want := []float64{1, 2, 3, 4, 5, 6, 5}
	want[0] = 0.5*1 + 0.25*2
	want[6] = 0.25*6 + 0.5*7
	require.Len(Te, got, len(a))
	for i := range want {
		assert.InDelta(Te, want[i], got[i], 1e-12, "index %d", i)
	}
	assert.Panics(Te, func() { convolveSame(a, []float64{1, 1}) })
}

func TestKernels(Te *testing.T) {
	g := gaussianKernel(0.1, 0.01)
	assert.Len(Te, g, 61)
	var s float64
	for _, v := range g {
		s += v
	}
	assert.InDelta(Te, 1.0, s, 3e-3)
	th := terminationKernel(0, 20, 0.01, 10)
	assert.InDelta(Te, 20/math.Pi, th[10], 1e-12)
	assert.InDelta(Te, th[9], th[11], 1e-12)
}

func TestGenerateAtoms(Te *testing.T) {
	S := simpleCubic()
	atoms, err := GenerateAtomsXYZ(S, 5, []int{0}, false)
	require.NoError(Te, err)
	assert.Equal(Te, 1309, atoms.NVecs())
	assert.Equal(Te, [3]float64{}, atoms.Vec(0))
	limit := 5 + math.Sqrt(3)
	for _, n := range atoms.Norms() {
		assert.LessOrEqual(Te, n, limit)
	}

	sq, err := GenerateAtomsXYZ(S, 2, []int{0}, true)
	require.NoError(Te, err)
	assert.Equal(Te, 125, sq.NVecs())
	assert.Equal(Te, [3]float64{}, sq.Vec(0))

	_, err = GenerateAtomsXYZ(S, 5, []int{3}, false)
	assert.True(Te, pdfgui.IsKind(err, pdfgui.KeyError))
	_, err = GenerateAtomsXYZ(S, 5, nil, false)
	assert.True(Te, pdfgui.IsKind(err, pdfgui.ConfigError))
}

func TestGenerateSpins(Te *testing.T) {
	L := structure.CubicLattice(1)
	atoms := v3.FromVecs([][3]float64{{0, 0, 0}, {1, 0, 0}, {2, 0, 0}, {0, 1, 0}})
	spins, imag, err := GenerateSpinsXYZ(L, atoms, [][3]float64{{0.5, 0, 0}}, [][3]complex128{{0, 0, 1}}, [3]float64{})
	require.NoError(Te, err)
	assert.Less(Te, imag, ImagTolerance)
	want := []float64{1, -1, 1, 1}
	for i, w := range want {
		assert.InDelta(Te, w, spins.Vec(i)[2], 1e-12)
		assert.InDelta(Te, 0, spins.Vec(i)[0], 1e-12)
	}
	_, imag, err = GenerateSpinsXYZ(L, atoms, [][3]float64{{0.25, 0, 0}}, [][3]complex128{{0, 0, 1}}, [3]float64{})
	require.NoError(Te, err)
	assert.InDelta(Te, 1.0, imag, 1e-12)
	_, _, err = GenerateSpinsXYZ(L, atoms, [][3]float64{{0, 0, 0}}, nil, [3]float64{})
	assert.True(Te, pdfgui.IsKind(err, pdfgui.ConfigError))
}

//A ferromagnet on a simple cubic lattice: the mPDF is positive at the
//neighbor distances and falls off as 1/r.
func TestFerromagnetMPDF(Te *testing.T) {
	S := simpleCubic()
	atoms, err := GenerateAtomsXYZ(S, 5, []int{0}, false)
	require.NoError(Te, err)
	spins, _, err := GenerateSpinsXYZ(S.Lattice, atoms, [][3]float64{{0, 0, 0}}, [][3]complex128{{0, 0, 1}}, atoms.Vec(0))
	require.NoError(Te, err)
	o := DefaultOptions()
	o.Rmax = 5
	r, fr, err := CalculateMPDF(atoms, spins, nil, o)
	require.NoError(Te, err)
	require.Len(Te, r, 501)
	require.Len(Te, fr, 501)
	assert.InDelta(Te, 5.0, r[500], 1e-12)
	for d := 1; d <= 5; d++ {
		assert.Greater(Te, fr[d*100], 0.0, "r=%d", d)
	}
	assert.InEpsilon(Te, 0.319, fr[100], 0.03)
	//the second shell also picks up the tail of the √5 shell
	ratio := 2 * fr[200] / fr[100]
	assert.Greater(Te, ratio, 0.95)
	assert.Less(Te, ratio, 1.35)

	//qmax <= qmin disables termination
	o2 := o
	o2.Qmin, o2.Qmax = 0, 0
	_, fr2, err := CalculateMPDF(atoms, spins, nil, o2)
	require.NoError(Te, err)
	assert.Equal(Te, fr, fr2)

	//g factors of the wrong length fall back to 2
	_, fr3, err := CalculateMPDF(atoms, spins, []float64{1}, o)
	require.NoError(Te, err)
	assert.Equal(Te, fr, fr3)

	o.Qmax = 20
	_, frt, err := CalculateMPDF(atoms, spins, nil, o)
	require.NoError(Te, err)
	assert.Len(Te, frt, 501)
	assert.NotEqual(Te, fr, frt)
}

func TestTerminatePreservesL1(Te *testing.T) {
	o := DefaultOptions()
	o.Qmax = 15
	f := make([]float64, 400)
	for i := range f {
		x := float64(i) * o.Rstep
		f[i] = math.Exp(-(x-2)*(x-2)/0.02) - 0.5*math.Exp(-(x-3)*(x-3)/0.02)
	}
	t := terminate(f, o)
	assert.InDelta(Te, l1(f), l1(t), 1e-9)
}

func TestMPDFErrors(Te *testing.T) {
	atoms := v3.FromVecs([][3]float64{{0, 0, 0}, {1, 0, 0}})
	spins := v3.FromVecs([][3]float64{{0, 0, 1}})
	_, _, err := CalculateMPDF(atoms, spins, nil, DefaultOptions())
	assert.True(Te, pdfgui.IsKind(err, pdfgui.ConfigError))
	o := DefaultOptions()
	o.Rstep = 0
	_, _, err = CalculateMPDF(atoms, atoms, nil, o)
	assert.True(Te, pdfgui.IsKind(err, pdfgui.ConfigError))
	o = DefaultOptions()
	o.CalcList = []int{5}
	_, _, err = CalculateMPDF(atoms, atoms, nil, o)
	assert.True(Te, pdfgui.IsKind(err, pdfgui.KeyError))
}

func TestFormFactor(Te *testing.T) {
	ff, err := FormFactor("Fe3", []float64{0, 10})
	require.NoError(Te, err)
	assert.InDelta(Te, 0.9997, ff[0], 1e-9)
	assert.Less(Te, ff[1], ff[0])
	one, err := FormFactor("", []float64{0, 5})
	require.NoError(Te, err)
	assert.Equal(Te, []float64{1, 1}, one)
	_, err = FormFactor("Xx9", []float64{0})
	assert.True(Te, pdfgui.IsKind(err, pdfgui.KeyError))
	assert.Contains(Te, FormFactorKeys(), "Mn2")
	q := QGrid(1, 0.25)
	assert.Equal(Te, []float64{0, 0.25, 0.5, 0.75, 1}, q)
}

func TestMagSpecies(Te *testing.T) {
	sp := NewMagSpecies("mn")
	assert.InDelta(Te, 2.0, sp.G(), 1e-12)
	assert.InDelta(Te, SpinOnlyK1(2, 0.5), sp.K1(), 1e-12)
	sp.S, sp.L, sp.J = 1.5, 3, 1.5
	//J = L - S for a less than half filled shell
	assert.InDelta(Te, 0.4, sp.G(), 1e-12)
	sp.J = 0
	assert.Equal(Te, 2.0, sp.G())
}

func TestMagStructure(Te *testing.T) {
	M := NewMagStructure(simpleCubic(), zap.NewNop())
	M.Rmax = 4
	_, _, err := NewCalculator(M).Calc(true)
	assert.True(Te, pdfgui.IsKind(err, pdfgui.StatusError))
	assert.Error(Te, M.MakeAll())

	sp := NewMagSpecies("mn")
	sp.MagIdxs = []int{0}
	sp.Kvecs = [][3]float64{{0.5, 0.5, 0.5}}
	sp.Basisvecs = [][3]complex128{{0, 0, 1}}
	sp.FFKey = "Mn2"
	require.NoError(Te, M.AddSpecies(sp))
	assert.True(Te, pdfgui.IsKind(M.AddSpecies(NewMagSpecies("mn")), pdfgui.ConfigError))
	require.NoError(Te, M.MakeAll())
	assert.Equal(Te, M.Atoms.NVecs(), M.Spins.NVecs())
	assert.Len(Te, M.Gfactors, M.Atoms.NVecs())
	assert.Equal(Te, []int{0}, M.CalcList())
	assert.Len(Te, M.FF, len(M.Q))
	//G-type antiferromagnet: nearest neighbors are antiparallel
	for i := 0; i < M.Atoms.NVecs(); i++ {
		p := M.Atoms.Vec(i)
		parity := int(math.Round(p[0]+p[1]+p[2])) % 2
		want := 1.0
		if parity != 0 {
			want = -1
		}
		assert.InDelta(Te, want, M.Spins.Vec(i)[2], 1e-9)
	}

	C := NewCalculator(M)
	C.Rmax = 4
	r, f, err := C.Calc(true)
	require.NoError(Te, err)
	require.Len(Te, f, 401)
	assert.Less(Te, f[100], 0.0)
	assert.InDelta(Te, 4.0, r[400], 1e-12)

	C.MaxExtension = 2
	r, d, err := C.Calc(false)
	require.NoError(Te, err)
	assert.Len(Te, d, len(r))
	for _, v := range d {
		assert.False(Te, math.IsNaN(v))
	}
	M.RemoveSpecies("mn")
	assert.Empty(Te, M.Species)
}
