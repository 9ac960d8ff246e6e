package structure

import (
	"bytes"
	"errors"
	"math"
	"strings"
	"testing"

	pdfgui "github.com/rmera/gopdfgui"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

//fccNi returns the conventional cell of nickel.
func fccNi() *Structure {
	S := NewStructure()
	S.Title = "Ni fcc"
	S.SpaceGroup = "Fm-3m"
	S.Lattice = CubicLattice(3.52)
	for _, x := range [][3]float64{{0, 0, 0}, {0, 0.5, 0.5}, {0.5, 0, 0.5}, {0.5, 0.5, 0}} {
		S.Atoms = append(S.Atoms, NewAtom("Ni", x, 0.005, 1))
	}
	return S
}

func TestLattice(Te *testing.T) {
	L := CubicLattice(2)
	assert.InDelta(Te, 8.0, L.Volume(), 1e-12)
	H := Lattice{3, 3, 5, 90, 90, 120}
	b := H.Base()
	assert.InDelta(Te, -1.5, b[1][0], 1e-12)
	assert.InDelta(Te, 3*math.Sqrt(3)/2, b[1][1], 1e-12)
	assert.InDelta(Te, 5.0, b[2][2], 1e-12)
	x := [3]float64{0.1, 0.7, 0.3}
	f, err := H.Fractional(H.Cartesian(x))
	require.NoError(Te, err)
	for i := range x {
		assert.InDelta(Te, x[i], f[i], 1e-12)
	}
	r, err := H.Reciprocal()
	require.NoError(Te, err)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			d := r[i][0]*b[j][0] + r[i][1]*b[j][1] + r[i][2]*b[j][2]
			if i == j {
				assert.InDelta(Te, 1.0, d, 1e-12)
			} else {
				assert.InDelta(Te, 0.0, d, 1e-12)
			}
		}
	}
	_, err = Lattice{1, 1, 1, 0, 0, 0}.Reciprocal()
	assert.True(Te, pdfgui.IsKind(err, pdfgui.ConfigError))
}

func TestSTRURoundTrip(Te *testing.T) {
	S := fccNi()
	S.Delta2 = 2.5
	S.Spdiameter = 40
	S.Atoms[1].Occupancy = 0.5
	require.NoError(Te, S.SetVar("u12(2)", 0.001))
	var b bytes.Buffer
	require.NoError(Te, WriteSTRU(S, &b))
	assert.Contains(Te, b.String(), "spcgr  Fm-3m")
	R, err := ReadSTRU(&b)
	require.NoError(Te, err)
	assert.Equal(Te, "Ni fcc", R.Title)
	assert.Equal(Te, "Fm-3m", R.SpaceGroup)
	assert.Equal(Te, S.Lattice, R.Lattice)
	assert.Equal(Te, 2.5, R.Delta2)
	assert.Equal(Te, 1.0, R.Sratio)
	assert.Equal(Te, 40.0, R.Spdiameter)
	require.Len(Te, R.Atoms, 4)
	for i, a := range R.Atoms {
		assert.Equal(Te, "Ni", a.Element)
		assert.Equal(Te, S.Atoms[i].XYZ, a.XYZ)
		assert.Equal(Te, S.Atoms[i].U, a.U)
	}
	assert.Equal(Te, 0.5, R.Atoms[1].Occupancy)
	assert.True(Te, R.Atoms[1].Anisotropic)
	assert.False(Te, R.Atoms[0].Anisotropic)
}

func TestReadSTRUErrors(Te *testing.T) {
	_, err := ReadSTRU(strings.NewReader("title x\ncell 1, 2\natoms\n"))
	assert.True(Te, pdfgui.IsKind(err, pdfgui.FileError))
	_, err = ReadSTRU(strings.NewReader("bogus 1\n"))
	assert.True(Te, pdfgui.IsKind(err, pdfgui.FileError))
	_, err = Read(strings.NewReader(""), Format("cif"))
	assert.True(Te, pdfgui.IsKind(err, pdfgui.ConfigError))
}

func TestXYZ(Te *testing.T) {
	S, err := ReadXYZ(strings.NewReader("2\nNiO pair\nNI 0 0 0\nO 1.5 0.5 0\n"))
	require.NoError(Te, err)
	assert.Equal(Te, "NiO pair", S.Title)
	require.Len(Te, S.Atoms, 2)
	assert.Equal(Te, "Ni", S.Atoms[0].Element)
	assert.Equal(Te, [3]float64{1.5, 0.5, 0}, S.Atoms[1].XYZ)
	var b bytes.Buffer
	require.NoError(Te, WriteXYZ(S, &b))
	assert.Equal(Te, "2   \nNiO pair\nNi     0.000   0.000   0.000 \nO      1.500   0.500   0.000 \n", b.String())
	_, err = ReadXYZ(strings.NewReader("3\n\nNi 0 0 0\n"))
	assert.True(Te, pdfgui.IsKind(err, pdfgui.FileError))
	assert.Equal(Te, XYZ, FormatOf("a/b.XYZ"))
	assert.Equal(Te, STRU, FormatOf("a/b.stru"))
}

func TestVars(Te *testing.T) {
	S := fccNi()
	v, err := S.GetVar("lat(3)")
	require.NoError(Te, err)
	assert.Equal(Te, 3.52, v)
	require.NoError(Te, S.SetVar("y(4)", 0.25))
	assert.Equal(Te, 0.25, S.Atoms[3].XYZ[1])
	require.NoError(Te, S.SetVar("u23(1)", 0.002))
	assert.True(Te, S.Atoms[0].Anisotropic)
	assert.Equal(Te, 0.002, S.Atoms[0].U[2][1])
	_, err = S.GetVar("lat(7)")
	assert.True(Te, pdfgui.IsKind(err, pdfgui.KeyError))
	_, err = S.GetVar("x(5)")
	assert.True(Te, pdfgui.IsKind(err, pdfgui.KeyError))
	_, err = S.GetVar("bogus")
	assert.True(Te, pdfgui.IsKind(err, pdfgui.ConfigError))
	vars := S.ListVars()
	assert.Contains(Te, vars, "u13(4)")
	assert.Contains(Te, vars, "pscale")
	assert.Len(Te, vars, 6+10*4+7)
}

func TestFitStructureConstraints(Te *testing.T) {
	F := NewFitStructure("ni", fccNi())
	err := F.SetConstraint("x(5)", "@1")
	assert.True(Te, errors.Is(err, pdfgui.KeyError))
	err = F.SetConstraint("foo", "@1")
	assert.True(Te, errors.Is(err, pdfgui.ConfigError))
	require.NoError(Te, F.SetConstraint("lat(1)", "@1"))
	require.NoError(Te, F.SetConstraint("x(2)", "@2*2"))
	require.NoError(Te, F.SetConstraint("u12(3)", "@3"))
	assert.True(Te, F.Initial.Atoms[2].Anisotropic)
	assert.Equal(Te, []string{"lat(1)", "u12(3)", "x(2)"}, F.ConstraintKeys())

	guess := F.FindParameters()
	assert.InDelta(Te, 3.52, guess[1], 1e-12)
	assert.InDelta(Te, 0.0, guess[2], 1e-12)

	require.NoError(Te, F.ApplyParameters(map[int]float64{1: 3.6, 2: 0.1, 3: 0.01}))
	assert.Equal(Te, 3.6, F.Initial.Lattice.A)
	assert.InDelta(Te, 0.2, F.Initial.Atoms[1].XYZ[0], 1e-12)
	assert.Equal(Te, 0.01, F.Initial.Atoms[2].U[1][0])

	require.NoError(Te, F.RenumberParameters(map[int]int{1: 11}))
	c, ok := F.Constraint("lat(1)")
	require.True(Te, ok)
	assert.Equal(Te, []int{11}, c.Indices())

	C := F.Copy()
	C.RemoveConstraint("lat(1)")
	C.Initial.Atoms[0].Element = "Fe"
	_, ok = F.Constraint("lat(1)")
	assert.True(Te, ok)
	assert.Equal(Te, "Ni", F.Initial.Atoms[0].Element)
}

func TestDeleteInsertAtoms(Te *testing.T) {
	F := NewFitStructure("ni", fccNi())
	require.NoError(Te, F.SetConstraint("x(3)", "@1"))
	require.NoError(Te, F.SetConstraint("occ(2)", "@2"))
	require.NoError(Te, F.DeleteAtoms(1))
	assert.Len(Te, F.Initial.Atoms, 3)
	assert.Equal(Te, []string{"x(2)"}, F.ConstraintKeys())
	require.NoError(Te, F.InsertAtoms(0, NewAtom("O", [3]float64{}, 0, 1)))
	assert.Equal(Te, "O", F.Initial.Atoms[0].Element)
	assert.Equal(Te, []string{"x(3)"}, F.ConstraintKeys())
	assert.Error(Te, F.DeleteAtoms(7))
}

func TestExpandSuperCell(Te *testing.T) {
	S := NewStructure()
	S.Lattice = CubicLattice(2)
	S.Atoms = []*Atom{NewAtom("Ni", [3]float64{0.5, 0, 0}, 0.01, 1)}
	F := NewFitStructure("ni", S)
	require.NoError(Te, F.SetConstraint("x(1)", "@1"))
	require.NoError(Te, F.SetConstraint("y(1)", "@4"))
	require.NoError(Te, F.SetConstraint("occ(1)", "@2"))
	require.NoError(Te, F.SetConstraint("lat(1)", "@3"))
	require.NoError(Te, F.ExpandSuperCell(2, 1, 1))

	require.Len(Te, F.Initial.Atoms, 2)
	assert.Equal(Te, 4.0, F.Initial.Lattice.A)
	assert.Equal(Te, 2.0, F.Initial.Lattice.B)
	assert.Equal(Te, [3]float64{0.25, 0, 0}, F.Initial.Atoms[0].XYZ)
	assert.Equal(Te, [3]float64{0.75, 0, 0}, F.Initial.Atoms[1].XYZ)

	vals := map[int]float64{1: 0.5, 2: 0.9, 3: 2, 4: 0.3}
	eval := func(key string) float64 {
		c, ok := F.Constraint(key)
		require.True(Te, ok, key)
		v, err := c.Evaluate(vals)
		require.NoError(Te, err)
		return v
	}
	assert.InDelta(Te, 0.25, eval("x(1)"), 1e-12)
	assert.InDelta(Te, 0.75, eval("x(2)"), 1e-12)
	assert.InDelta(Te, 0.3, eval("y(2)"), 1e-12)
	assert.InDelta(Te, 0.9, eval("occ(2)"), 1e-12)
	assert.InDelta(Te, 4.0, eval("lat(1)"), 1e-12)

	assert.True(Te, pdfgui.IsKind(F.ExpandSuperCell(0, 1, 1), pdfgui.ConfigError))
}

func TestSpaceGroups(Te *testing.T) {
	orders := map[string]int{
		"P1": 1, "P-1": 2, "P2_1/c": 4, "C2/c": 8, "Pmmm": 8, "Pnma": 8,
		"P4/mmm": 16, "I4/mmm": 32, "R-3m": 36, "P6/mmm": 24, "P6_3/mmc": 24,
		"Pm-3m": 48, "Fm-3m": 192, "Im-3m": 96,
	}
	for _, name := range SpaceGroupNames() {
		G, err := LookupSpaceGroup(name)
		require.NoError(Te, err)
		assert.Len(Te, G.Ops, orders[name], name)
		pos, _ := G.Orbit([3]float64{0.123, 0.371, 0.289})
		assert.Len(Te, pos, orders[name], name)
	}
	G, err := LookupSpaceGroup("p 21/c")
	require.NoError(Te, err)
	assert.Equal(Te, "P2_1/c", G.Name)
	_, err = LookupSpaceGroup("P42/nnm")
	assert.True(Te, pdfgui.IsKind(err, pdfgui.KeyError))

	op, err := ParseSymOp("x-y, x, z+1/2")
	require.NoError(Te, err)
	assert.Equal(Te, [3]float64{-0.1, 0.1, 0.8}, roundVec(op.Apply([3]float64{0.1, 0.2, 0.3})))
	_, err = ParseSymOp("x,y")
	assert.Error(Te, err)
	_, err = ParseSymOp("x,y,q")
	assert.Error(Te, err)
}

func roundVec(v [3]float64) [3]float64 {
	for i := range v {
		v[i] = math.Round(v[i]*1e9) / 1e9
	}
	return v
}

func TestExpandAsymmetricUnit(Te *testing.T) {
	S := NewStructure()
	S.Lattice = Lattice{3.5, 3.6, 3.7, 90, 90, 90}
	S.Atoms = []*Atom{NewAtom("Ni", [3]float64{0, 0, 0}, 0.005, 1)}
	F := NewFitStructure("ni", S)
	require.NoError(Te, F.SetConstraint("lat(1)", "@1"))
	G, err := LookupSpaceGroup("Fm-3m")
	require.NoError(Te, err)
	require.NoError(Te, F.ExpandAsymmetricUnit(G, []int{0}, [3]float64{}))
	require.Len(Te, F.Initial.Atoms, 4)
	assert.Equal(Te, 3.5, F.Initial.Lattice.C)
	assert.Equal(Te, "Fm-3m", F.Initial.SpaceGroup)
	c, ok := F.Constraint("lat(3)")
	require.True(Te, ok)
	assert.Equal(Te, "@1", c.Formula())

	P := NewStructure()
	P.Atoms = []*Atom{
		NewAtom("O", [3]float64{0.1, 0.2, 0.3}, 0.01, 1),
		NewAtom("Mn", [3]float64{0.4, 0.1, 0.2}, 0.01, 1),
	}
	F = NewFitStructure("p", P)
	require.NoError(Te, F.SetConstraint("x(1)", "@1"))
	require.NoError(Te, F.SetConstraint("u11(1)", "@2"))
	require.NoError(Te, F.SetConstraint("occ(2)", "@3"))
	G, err = LookupSpaceGroup("P-1")
	require.NoError(Te, err)
	require.NoError(Te, F.ExpandAsymmetricUnit(G, []int{0, 1}, [3]float64{}))
	require.Len(Te, F.Initial.Atoms, 4)
	assert.Equal(Te, "O", F.Initial.Atoms[1].Element)
	assert.Equal(Te, "Mn", F.Initial.Atoms[2].Element)
	assert.Equal(Te, [3]float64{0.9, 0.8, 0.7}, roundVec(F.Initial.Atoms[1].XYZ))

	vals := map[int]float64{1: 0.15, 2: 0.02, 3: 0.5}
	x2, ok := F.Constraint("x(2)")
	require.True(Te, ok)
	v, err := x2.Evaluate(vals)
	require.NoError(Te, err)
	assert.InDelta(Te, 0.85, v, 1e-9)
	u2, ok := F.Constraint("u11(2)")
	require.True(Te, ok)
	v, err = u2.Evaluate(vals)
	require.NoError(Te, err)
	assert.InDelta(Te, 0.02, v, 1e-12)
	_, ok = F.Constraint("y(2)")
	assert.False(Te, ok)
	_, ok = F.Constraint("occ(3)")
	assert.True(Te, ok)
	_, ok = F.Constraint("occ(4)")
	assert.True(Te, ok)

	assert.Error(Te, F.ExpandAsymmetricUnit(G, []int{9}, [3]float64{}))
}

func TestSelectedPairs(Te *testing.T) {
	S := NewStructure()
	S.Atoms = []*Atom{
		NewAtom("Ni", [3]float64{}, 0, 1),
		NewAtom("O", [3]float64{0.5, 0.5, 0.5}, 0, 1),
	}
	F := NewFitStructure("nio", S)
	assert.Equal(Te, AllPairs, F.SelectedPairs())
	require.NoError(Te, F.SetSelectedPairs("all-all, !o-O"))
	flags, err := F.PairFlags()
	require.NoError(Te, err)
	assert.Equal(Te, [][]bool{{true, true}, {true, false}}, flags)

	require.NoError(Te, F.SetSelectedPairs("1-2"))
	flags, err = F.PairFlags()
	require.NoError(Te, err)
	assert.Equal(Te, [][]bool{{false, true}, {true, false}}, flags)

	assert.True(Te, pdfgui.IsKind(F.SetSelectedPairs("Xx-O"), pdfgui.ConfigError))
	assert.True(Te, pdfgui.IsKind(F.SetSelectedPairs("NiO"), pdfgui.ConfigError))
	require.NoError(Te, F.SetSelectedPairs("1-3"))
	_, err = F.PairFlags()
	assert.True(Te, pdfgui.IsKind(err, pdfgui.KeyError))
	require.NoError(Te, F.SetSelectedPairs(""))
	assert.Equal(Te, AllPairs, F.SelectedPairs())
}
