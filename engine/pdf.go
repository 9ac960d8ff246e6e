/*
 * pdf.go, part of gopdfgui.
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

package engine

import (
	"math"

	pdfgui "github.com/rmera/gopdfgui"
	"github.com/rmera/gopdfgui/structure"
	v3 "github.com/rmera/gopdfgui/v3"
	"gonum.org/v1/gonum/floats"
)

//peakExtent is the distance from a peak center, in standard deviations,
//beyond which the peak is neglected.
const peakExtent = 5.0

//minSigma is the smallest peak width used, in Å.
const minSigma = 1e-4

//Instrument holds the experimental parameters that enter the calculated PDF.
type Instrument struct {
	Stype  string
	Qdamp  float64
	Qbroad float64
	Dscale float64
}

//site is an atom of the structure in cartesian coordinates.
type site struct {
	xyz    [3]float64
	u      [3][3]float64 //cartesian
	weight float64       //occupancy times scattering weight
}

//cartesianU converts the displacement tensor of an atom from the
//crystallographic frame to the cartesian one, as B U Bᵀ, with B the rows of
//the lattice base normalized.
func cartesianU(L structure.Lattice, U [3][3]float64) [3][3]float64 {
	base := L.Base()
	var nb [3][3]float64
	for i := range base {
		nb[i] = v3.Unit(base[i])
	}
	var ret [3][3]float64
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			var s float64
			for k := 0; k < 3; k++ {
				for l := 0; l < 3; l++ {
					s += nb[k][i] * U[k][l] * nb[l][j]
				}
			}
			ret[i][j] = s
		}
	}
	return ret
}

//project returns nᵀ U n.
func project(U [3][3]float64, n [3]float64) float64 {
	var s float64
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			s += n[i] * U[i][j] * n[j]
		}
	}
	return s
}

func sites(S *structure.Structure, stype string) ([]site, float64, error) {
	ret := make([]site, len(S.Atoms))
	for i, a := range S.Atoms {
		b, err := pdfgui.ScatteringWeight(a.Element, stype)
		if err != nil {
			return nil, 0, pdfgui.ErrDecorate(err, "engine.sites")
		}
		ret[i] = site{xyz: S.Lattice.Cartesian(a.XYZ), u: cartesianU(S.Lattice, a.U), weight: a.Occupancy * b}
	}
	var occ, wsum float64
	for i, a := range S.Atoms {
		occ += a.Occupancy
		wsum += ret[i].weight
	}
	if occ <= 0 || wsum == 0 {
		return nil, 0, pdfgui.NewError(pdfgui.ConfigError, "structure %q has no scatterers", S.Title)
	}
	return ret, wsum / occ, nil
}

//PhasePDF returns the reduced PDF G(r) of a single phase on the grid r,
//scaled by the phase scale factor. pairs, when not nil, selects the atom
//pairs that contribute peaks; the baseline always includes the whole phase.
func PhasePDF(S *structure.Structure, pairs [][]bool, r []float64, in Instrument) ([]float64, error) {
	g := make([]float64, len(r))
	if len(r) == 0 {
		return g, nil
	}
	if len(S.Atoms) == 0 {
		return nil, pdfgui.NewError(pdfgui.ConfigError, "structure %q has no atoms", S.Title)
	}
	at, bavg, err := sites(S, in.Stype)
	if err != nil {
		return nil, err
	}
	vol := S.Lattice.Volume()
	if !(vol > 0) {
		return nil, pdfgui.NewError(pdfgui.ConfigError, "invalid unit cell volume %g", vol)
	}
	var natoms float64
	for _, a := range S.Atoms {
		natoms += a.Occupancy
	}
	rho0 := natoms / vol
	norm := 1 / (natoms * bavg * bavg)

	var umax float64
	for _, s := range at {
		umax = math.Max(umax, math.Max(s.u[0][0], math.Max(s.u[1][1], s.u[2][2])))
	}
	rlo, rhi := r[0], r[len(r)-1]
	reach := rhi + peakExtent*math.Sqrt(2*umax+minSigma*minSigma)*math.Max(1, 1+in.Qbroad*rhi)
	spacing, err := S.Lattice.PlaneSpacings()
	if err != nil {
		return nil, err
	}
	var ncell [3]int
	for k := range ncell {
		ncell[k] = int(math.Ceil(reach/spacing[k])) + 1
	}
	base := S.Lattice.Base()
	step := 0.0
	if len(r) > 1 {
		step = (rhi - rlo) / float64(len(r)-1)
	}
	for i, si := range at {
		for j, sj := range at {
			if pairs != nil && !pairs[i][j] {
				continue
			}
			for a := -ncell[0]; a <= ncell[0]; a++ {
				for b := -ncell[1]; b <= ncell[1]; b++ {
					for c := -ncell[2]; c <= ncell[2]; c++ {
						if i == j && a == 0 && b == 0 && c == 0 {
							continue
						}
						shift := v3.Add(v3.Add(v3.Scale(float64(a), base[0]), v3.Scale(float64(b), base[1])), v3.Scale(float64(c), base[2]))
						d := v3.Sub(v3.Add(sj.xyz, shift), si.xyz)
						rij := v3.Norm(d)
						if rij > reach || rij < 1e-8 {
							continue
						}
						n := v3.Scale(1/rij, d)
						s2 := project(si.u, n) + project(sj.u, n)
						corr := 1 - S.Delta1/rij - S.Delta2/(rij*rij) + in.Qbroad*in.Qbroad*rij*rij
						if corr > 0 {
							s2 *= corr
						}
						if S.Rcut > 0 && rij < S.Rcut {
							s2 *= S.Sratio * S.Sratio
						}
						sigma := math.Max(math.Sqrt(math.Max(s2, 0)), minSigma)
						addPeak(g, r, rlo, step, rij, sigma, norm*si.weight*sj.weight)
					}
				}
			}
		}
	}
	for k, x := range r {
		if x > 0 {
			g[k] = g[k]/x - 4*math.Pi*rho0*x
		} else {
			g[k] = 0
		}
	}
	envelope(g, r, S, in)
	return g, nil
}

//addPeak adds a gaussian of unit area, times w, centered at center.
func addPeak(g, r []float64, rlo, step, center, sigma, w float64) {
	lo, hi := 0, len(r)-1
	if step > 0 {
		lo = int(math.Floor((center - peakExtent*sigma - rlo) / step))
		hi = int(math.Ceil((center + peakExtent*sigma - rlo) / step))
	}
	if lo < 0 {
		lo = 0
	}
	if hi > len(r)-1 {
		hi = len(r) - 1
	}
	pre := w / (math.Sqrt(2*math.Pi) * sigma)
	for k := lo; k <= hi; k++ {
		x := (r[k] - center) / sigma
		g[k] += pre * math.Exp(-x*x/2)
	}
}

//envelope applies the resolution damping, the particle shape and the scale
//factors to g.
func envelope(g, r []float64, S *structure.Structure, in Instrument) {
	for k, x := range r {
		e := 1.0
		if in.Qdamp > 0 {
			e *= math.Exp(-(in.Qdamp * x) * (in.Qdamp * x) / 2)
		}
		if d := S.Spdiameter; d > 0 {
			if x >= d {
				e = 0
			} else {
				t := x / d
				e *= 1 - 1.5*t + 0.5*t*t*t
			}
		}
		if S.Stepcut > 0 && x > S.Stepcut {
			e = 0
		}
		g[k] *= e
	}
	floats.Scale(S.Pscale*in.Dscale, g)
}

//TotalPDF sums the PDFs of the phases on the grid r.
func TotalPDF(phases []*structure.FitStructure, r []float64, in Instrument) ([]float64, error) {
	total := make([]float64, len(r))
	for _, p := range phases {
		flags, err := p.PairFlags()
		if err != nil {
			return nil, err
		}
		g, err := PhasePDF(p.Initial, flags, r, in)
		if err != nil {
			return nil, pdfgui.ErrDecorate(err, "engine.TotalPDF")
		}
		floats.Add(total, g)
	}
	return total, nil
}
