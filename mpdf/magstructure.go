/*
 * magstructure.go, part of gopdfgui.
 * 
 * Copyright 2026 Raul Mera <rmera{at}chemDOThelsinkiDOTfi>
 * 
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as 
 * published by the Free Software Foundation; either version 2.1 of the 
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General 
 * Public License along with this program.  If not, see 
 * <http://www.gnu.org/licenses/>.
 * 
 */
/***Dedicated to the long life of the Ven. Khenpo Phuntzok Tenzin Rinpoche***/

package mpdf

import (
	"sort"

	pdfgui "github.com/rmera/gopdfgui"
	"github.com/rmera/gopdfgui/structure"
	v3 "github.com/rmera/gopdfgui/v3"
	"go.uber.org/zap"
)

//MagSpecies is a set of magnetic atoms sharing a magnetic propagation, ion
//and form factor.
type MagSpecies struct {
	Label string
	//indices of the magnetic atoms in the parent structure
	MagIdxs   []int
	Kvecs     [][3]float64
	Basisvecs [][3]complex128
	S, L, J   float64
	GS, GL    float64
	FFKey     string

	Atoms *v3.Matrix
	Spins *v3.Matrix
	FF    []float64
}

//NewMagSpecies returns a spin-only S=1/2 species with no propagation set.
func NewMagSpecies(label string) *MagSpecies {
	return &MagSpecies{Label: label, S: 0.5, J: 0.5, GS: 2, GL: 1}
}

//G returns the Landé g factor.
func (M *MagSpecies) G() float64 {
	jj := M.J * (M.J + 1)
	if jj == 0 {
		return M.GS
	}
	ss, ll := M.S*(M.S+1), M.L*(M.L+1)
	return M.GS*(jj+ss-ll)/(2*jj) + M.GL*(jj-ss+ll)/(2*jj)
}

//K1 returns the normalization constant of the species.
func (M *MagSpecies) K1() float64 {
	return SpinOnlyK1(M.G(), M.J)
}

func (M *MagSpecies) check() error {
	if len(M.Kvecs) != len(M.Basisvecs) {
		return pdfgui.NewError(pdfgui.ConfigError, "species %s has %d propagation vectors but %d basis vectors", M.Label, len(M.Kvecs), len(M.Basisvecs))
	}
	if len(M.Kvecs) == 0 {
		return pdfgui.NewError(pdfgui.ConfigError, "species %s has no basis vectors", M.Label)
	}
	return nil
}

//MagStructure is a magnetic model built on a crystal structure.
type MagStructure struct {
	Struc   *structure.Structure
	Species map[string]*MagSpecies
	Rmax    float64
	Square  bool
	//q grid of the form factors
	Q []float64

	Atoms    *v3.Matrix
	Spins    *v3.Matrix
	Gfactors []float64
	FF       []float64

	logger *zap.Logger
}

//NewMagStructure returns a magnetic structure for S with an mPDF range of
//20 Å and form factors up to q = 25 Å⁻¹.
func NewMagStructure(S *structure.Structure, logger *zap.Logger) *MagStructure {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MagStructure{
		Struc:   S,
		Species: make(map[string]*MagSpecies),
		Rmax:    20,
		Q:       QGrid(25, 0.01),
		logger:  logger,
	}
}

//AddSpecies adds a species, whose label must be new.
func (M *MagStructure) AddSpecies(sp *MagSpecies) error {
	if _, ok := M.Species[sp.Label]; ok {
		return pdfgui.NewError(pdfgui.ConfigError, "duplicate magnetic species %q", sp.Label)
	}
	M.Species[sp.Label] = sp
	return nil
}

func (M *MagStructure) RemoveSpecies(label string) {
	delete(M.Species, label)
}

//labels returns the species labels, sorted, which fixes the order of the
//species in the combined arrays.
func (M *MagStructure) labels() []string {
	ret := make([]string, 0, len(M.Species))
	for k := range M.Species {
		ret = append(ret, k)
	}
	sort.Strings(ret)
	return ret
}

//GenerateAtoms builds the atom positions of every species and the combined
//position matrix.
func (M *MagStructure) GenerateAtoms() error {
	if len(M.Species) == 0 {
		return pdfgui.NewError(pdfgui.ConfigError, "magnetic structure has no species")
	}
	all := v3.Zeros(0)
	M.Gfactors = M.Gfactors[:0]
	for _, l := range M.labels() {
		sp := M.Species[l]
		atoms, err := GenerateAtomsXYZ(M.Struc, M.Rmax, sp.MagIdxs, M.Square)
		if err != nil {
			return pdfgui.ErrDecorate(err, "MagStructure.GenerateAtoms "+l)
		}
		sp.Atoms = atoms
		all = all.Stack(atoms)
		for i := 0; i < atoms.NVecs(); i++ {
			M.Gfactors = append(M.Gfactors, sp.G())
		}
	}
	M.Atoms = all
	return nil
}

//GenerateSpins computes the spins of every species from its basis vectors,
//with the seed atom of the species as the phase origin. Atoms must have
//been generated.
func (M *MagStructure) GenerateSpins() error {
	all := v3.Zeros(0)
	for _, l := range M.labels() {
		sp := M.Species[l]
		if err := sp.check(); err != nil {
			return err
		}
		if sp.Atoms == nil || sp.Atoms.NVecs() == 0 {
			return pdfgui.NewError(pdfgui.StatusError, "atoms of species %s not generated", l)
		}
		spins, imag, err := GenerateSpinsXYZ(M.Struc.Lattice, sp.Atoms, sp.Kvecs, sp.Basisvecs, sp.Atoms.Vec(0))
		if err != nil {
			return pdfgui.ErrDecorate(err, "MagStructure.GenerateSpins "+l)
		}
		if imag > ImagTolerance {
			M.logger.Warn("discarding imaginary spin components", zap.String("species", l), zap.Float64("max", imag))
		}
		sp.Spins = spins
		all = all.Stack(spins)
	}
	M.Spins = all
	return nil
}

//MakeFF evaluates the form factor of every species on the q grid. The
//combined form factor is their average weighted by the number of atoms.
func (M *MagStructure) MakeFF() error {
	M.FF = make([]float64, len(M.Q))
	var total float64
	for _, l := range M.labels() {
		sp := M.Species[l]
		ff, err := FormFactor(sp.FFKey, M.Q)
		if err != nil {
			return err
		}
		sp.FF = ff
		w := 1.0
		if sp.Atoms != nil {
			w = float64(sp.Atoms.NVecs())
		}
		total += w
		for i, v := range ff {
			M.FF[i] += w * v
		}
	}
	if total > 0 {
		for i := range M.FF {
			M.FF[i] /= total
		}
	}
	return nil
}

//MakeAll generates atoms, spins and form factors.
func (M *MagStructure) MakeAll() error {
	if err := M.GenerateAtoms(); err != nil {
		return err
	}
	if err := M.GenerateSpins(); err != nil {
		return err
	}
	return M.MakeFF()
}

//K1 returns the normalization constant, the species values averaged by
//number of atoms.
func (M *MagStructure) K1() float64 {
	var k, n float64
	for _, sp := range M.Species {
		w := 1.0
		if sp.Atoms != nil {
			w = float64(sp.Atoms.NVecs())
		}
		k += w * sp.K1()
		n += w
	}
	if n == 0 {
		return SpinOnlyK1(2, 0.5)
	}
	return k / n
}

//CalcList returns the row of the seed atom of every species in the
//combined arrays.
func (M *MagStructure) CalcList() []int {
	var ret []int
	off := 0
	for _, l := range M.labels() {
		sp := M.Species[l]
		if sp.Atoms == nil {
			continue
		}
		ret = append(ret, off)
		off += sp.Atoms.NVecs()
	}
	return ret
}

//Calculator computes the mPDF of a magnetic structure.
type Calculator struct {
	Mag *MagStructure
	Options
}

//NewCalculator returns a calculator for M with the default options, K1 and
//K2 from M and one seed per species. M's atoms should be generated first.
func NewCalculator(M *MagStructure) *Calculator {
	o := DefaultOptions()
	o.K1 = M.K1()
	o.K2 = o.K1
	if cl := M.CalcList(); len(cl) > 0 {
		o.CalcList = cl
	}
	return &Calculator{Mag: M, Options: o}
}

//Calc returns the normalized mPDF f(r), or the unnormalized D(r) when
//normalized is false.
func (C *Calculator) Calc(normalized bool) (r, f []float64, err error) {
	M := C.Mag
	if M.Atoms == nil || M.Spins == nil {
		return nil, nil, pdfgui.NewError(pdfgui.StatusError, "magnetic structure not generated")
	}
	if len(M.Gfactors) != M.Atoms.NVecs() {
		M.logger.Warn("g factor count does not match atoms, using g=2", zap.Int("gfactors", len(M.Gfactors)), zap.Int("atoms", M.Atoms.NVecs()))
	}
	if normalized {
		return CalculateMPDF(M.Atoms, M.Spins, M.Gfactors, C.Options)
	}
	if len(M.FF) != len(M.Q) {
		if err := M.MakeFF(); err != nil {
			return nil, nil, err
		}
	}
	return CalculateDr(M.Atoms, M.Spins, M.Gfactors, M.Q, M.FF, C.Options)
}
