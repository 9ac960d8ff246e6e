package pdfapi

import (
	"errors"
	"path/filepath"
	"testing"

	pdfgui "github.com/rmera/gopdfgui"
	"github.com/rmera/gopdfgui/pdfdata"
	"github.com/rmera/gopdfgui/project"
	"github.com/rmera/gopdfgui/structure"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func saved(Te *testing.T) string {
	P := project.New("api")
	defer P.Exit()
	for _, name := range []string{"low", "high"} {
		f := P.NewFit(name)
		S := structure.NewStructure()
		S.Lattice = structure.CubicLattice(3.52)
		S.Atoms = append(S.Atoms, structure.NewAtom("Ni", [3]float64{}, 0.005, 1))
		require.NoError(Te, f.Insert(structure.NewFitStructure(name+"-phase", S), -1))
		D := pdfdata.NewDataSet(name + "-data")
		require.NoError(Te, D.SetObserved([]float64{1, 2, 3}, []float64{0, 1, 0}, nil, nil))
		if name == "low" {
			D.Metadata["temperature"] = 10
		} else {
			D.Metadata["doping"] = 0.2
		}
		require.NoError(Te, f.Insert(D, -1))
		C := pdfdata.NewCalculation(name + "-calc")
		require.NoError(Te, f.Insert(C, -1))
	}
	path := filepath.Join(Te.TempDir(), "api.ddp")
	require.NoError(Te, P.Save(path))
	return path
}

func TestLoadProject(Te *testing.T) {
	P, err := LoadProject(saved(Te))
	require.NoError(Te, err)
	defer P.Exit()
	fits := P.Fits()
	require.Len(Te, fits, 2)
	assert.Equal(Te, "low", fits[0].Name())

	ds := P.DataSets()
	require.Len(Te, ds, 2)
	assert.Equal(Te, "high-data", ds[1].Name())
	assert.Len(Te, P.DataSets(fits[1]), 1)
	assert.Equal(Te, "low-phase", P.Phases()[0].Name())
	assert.Len(Te, P.Phases(fits[0]), 1)
	assert.Equal(Te, "high-calc", P.Calculations(fits[1])[0].Name())

	temps := P.Temperatures()
	require.Len(Te, temps, 2)
	require.NotNil(Te, temps[0])
	assert.Equal(Te, 10.0, *temps[0])
	assert.Nil(Te, temps[1])
	dop := P.Dopings(ds[1], ds[0])
	require.NotNil(Te, dop[0])
	assert.Equal(Te, 0.2, *dop[0])
	assert.Nil(Te, dop[1])
	assert.False(Te, P.Queue().Started())
}

func TestLoadProjectWithoutExit(Te *testing.T) {
	for i := 0; i < 3; i++ {
		P, err := LoadProject(saved(Te))
		require.NoError(Te, err)
		assert.Len(Te, P.Fits(), 2)
		assert.False(Te, P.Queue().Started())
	}
}

func TestLoadProjectMissing(Te *testing.T) {
	_, err := LoadProject(filepath.Join(Te.TempDir(), "none.ddp"))
	assert.True(Te, errors.Is(err, pdfgui.FileError))
}
