package main

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/rmera/gopdfgui/engine"
	"github.com/rmera/gopdfgui/fitting"
	"github.com/rmera/gopdfgui/pdfdata"
	"github.com/rmera/gopdfgui/project"
	"github.com/rmera/gopdfgui/structure"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nickel(a float64) *structure.Structure {
	S := structure.NewStructure()
	S.Lattice = structure.CubicLattice(a)
	for _, p := range [][3]float64{{0, 0, 0}, {0, 0.5, 0.5}, {0.5, 0, 0.5}, {0.5, 0.5, 0}} {
		S.Atoms = append(S.Atoms, structure.NewAtom("Ni", p, 0.005, 1))
	}
	return S
}

//archive saves a project with one nickel fit, started away from the
//lattice constant of its synthetic data.
func archive(Te *testing.T) string {
	r := make([]float64, 301)
	for i := range r {
		r[i] = 1 + 0.02*float64(i)
	}
	g, err := engine.PhasePDF(nickel(3.52), nil, r, engine.Instrument{Stype: "N", Dscale: 1})
	require.NoError(Te, err)
	P := project.New("nickel")
	defer P.Exit()
	f := P.NewFit("ni")
	ph := structure.NewFitStructure("Ni", nickel(3.50))
	for _, k := range []string{"lat(1)", "lat(2)", "lat(3)"} {
		require.NoError(Te, ph.SetConstraint(k, "@1"))
	}
	require.NoError(Te, f.Insert(ph, -1))
	D := pdfdata.NewDataSet("ni.gr")
	require.NoError(Te, D.SetObserved(r, g, nil, nil))
	require.NoError(Te, f.Insert(D, -1))
	_, err = f.SetParameter(1, 3.50)
	require.NoError(Te, err)
	path := filepath.Join(Te.TempDir(), "nickel.ddp")
	require.NoError(Te, P.Save(path))
	return path
}

func execute(Te *testing.T, args ...string) (string, error) {
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestSummary(Te *testing.T) {
	out, err := execute(Te, archive(Te), "--log-level", "error")
	require.NoError(Te, err)
	assert.Contains(Te, out, "project nickel: 1 fits\n")
	assert.Contains(Te, out, "fit ni [PENDING]\n")
	assert.Contains(Te, out, "  phase Ni: 4 atoms\n")
	assert.Contains(Te, out, "  dataset ni.gr: 301 points, fit range 1-")
	assert.NotContains(Te, out, "@1")
}

func TestRunAndSave(Te *testing.T) {
	conf := filepath.Join(Te.TempDir(), "pdfgui.yaml")
	require.NoError(Te, os.WriteFile(conf, []byte("log:\n  level: error\narchive:\n  compression: zstd\n"), 0o644))
	saved := filepath.Join(Te.TempDir(), "refined.ddp")
	out, err := execute(Te, archive(Te), "--config", conf, "--run", "--output", saved)
	require.NoError(Te, err)
	assert.Contains(Te, out, "fit ni [COMPLETED] Rw=")
	assert.Contains(Te, out, "  @1 = 3.5")

	P := project.New("")
	defer P.Exit()
	require.NoError(Te, P.Load(saved))
	f, ok := P.Fit("ni")
	require.True(Te, ok)
	assert.Equal(Te, fitting.Completed, f.Status())
	p, ok := f.Parameter(1)
	require.True(Te, ok)
	v, ok := p.Refined()
	require.True(Te, ok)
	assert.InDelta(Te, 3.52, v, 1e-3)
	assert.False(Te, math.IsNaN(f.Rw()))
}

func TestErrors(Te *testing.T) {
	_, err := execute(Te, filepath.Join(Te.TempDir(), "none.ddp"), "--log-level", "error")
	assert.Error(Te, err)
	_, err = execute(Te, "a", "b")
	assert.Error(Te, err)
	_, err = execute(Te, "--log-level", "chatty")
	assert.Error(Te, err)

	//an empty project is fine
	out, err := execute(Te, "--log-level", "error")
	require.NoError(Te, err)
	assert.Contains(Te, out, ": 0 fits\n")
}
