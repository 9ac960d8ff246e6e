/*
 * kernel.go, part of gopdfgui.
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
	"math"

	pdfgui "github.com/rmera/gopdfgui"
	"github.com/rmera/gopdfgui/histo"
	v3 "github.com/rmera/gopdfgui/v3"
	"gonum.org/v1/gonum/floats"
)

//electronic prefactor (γ r0 / 2)², γ = 1.913 and r0 = 2.81794 fm.
var magPrefactor = math.Pow(1.913*2.81794/2, 2)

//SpinOnlyK1 returns the K1 normalization for ions of Landé factor g and
//total angular momentum J.
func SpinOnlyK1(g, J float64) float64 {
	return 0.66667 * magPrefactor * g * g * J * (J + 1)
}

//Options holds the parameters of an mPDF calculation.
type Options struct {
	//indices of the atoms whose pairs are summed
	CalcList []int
	Rmin     float64
	Rmax     float64
	Rstep    float64
	//gaussian broadening width
	Psigma float64
	//termination ripples are applied only if 0 <= Qmin < Qmax
	Qmin         float64
	Qmax         float64
	DampRate     float64
	DampPower    float64
	MaxExtension float64
	OrdScale     float64
	K1           float64
	//paramagnetic baseline scale of the unnormalized mPDF
	K2 float64
}

//DefaultOptions returns the options for a spin-1/2 system with g=2, no
//termination and no damping.
func DefaultOptions() Options {
	k := SpinOnlyK1(2, 0.5)
	return Options{
		CalcList:     []int{0},
		Rmin:         0,
		Rmax:         20,
		Rstep:        0.01,
		Psigma:       0.1,
		Qmin:         0,
		Qmax:         -1,
		DampPower:    2,
		MaxExtension: 10,
		OrdScale:     1,
		K1:           k,
		K2:           k,
	}
}

func (o Options) check() error {
	if o.Rstep <= 0 {
		return pdfgui.NewError(pdfgui.ConfigError, "rstep must be positive, got %g", o.Rstep)
	}
	if o.Rmin < 0 || o.Rmax <= o.Rmin {
		return pdfgui.NewError(pdfgui.ConfigError, "invalid r range [%g, %g]", o.Rmin, o.Rmax)
	}
	if o.MaxExtension < 0 {
		return pdfgui.NewError(pdfgui.ConfigError, "maxextension must not be negative")
	}
	if o.K1 == 0 {
		return pdfgui.NewError(pdfgui.ConfigError, "K1 must not be zero")
	}
	return nil
}

//grid returns the r grid extended by MaxExtension and the number of points
//up to Rmax.
func (o Options) grid() ([]float64, int) {
	n0 := int(math.Round((o.Rmax-o.Rmin)/o.Rstep)) + 1
	n := n0 + int(math.Ceil(o.MaxExtension/o.Rstep))
	r := make([]float64, n)
	for i := range r {
		r[i] = o.Rmin + float64(i)*o.Rstep
	}
	return r, n0
}

func (o Options) terminates() bool {
	return o.Qmin >= 0 && o.Qmax > o.Qmin
}

//pairTerms returns the a and b coefficients of the spin pair (si, sj)
//separated by d.
func pairTerms(si, sj, d [3]float64) (a, b float64) {
	x := v3.Unit(d)
	y := v3.Sub(si, v3.Scale(v3.Dot(si, x), x))
	if yy := v3.Dot(y, y); yy > 0 {
		a = v3.Dot(si, y) * v3.Dot(sj, y) / yy
	}
	b = 2*v3.Dot(si, x)*v3.Dot(sj, x) - a
	return a, b
}

func checkShapes(atoms, spins *v3.Matrix, gfactors []float64, calcList []int) ([]float64, error) {
	if atoms.NVecs() != spins.NVecs() {
		return nil, pdfgui.NewError(pdfgui.ConfigError, "%d atoms but %d spins", atoms.NVecs(), spins.NVecs())
	}
	if len(gfactors) != atoms.NVecs() {
		gfactors = make([]float64, atoms.NVecs())
		floats.AddConst(2, gfactors)
	}
	for _, i := range calcList {
		if i < 0 || i >= atoms.NVecs() {
			return nil, pdfgui.NewError(pdfgui.KeyError, "calculation index %d out of range", i)
		}
	}
	if len(calcList) == 0 {
		return nil, pdfgui.NewError(pdfgui.ConfigError, "empty calculation list")
	}
	return gfactors, nil
}

//CalculateMPDF returns the normalized mPDF f(r) of the given atoms (rows of
//cartesian positions) and spins, on the grid Rmin:Rstep:Rmax. If gfactors
//does not have one entry per atom, every atom gets g=2.
func CalculateMPDF(atoms, spins *v3.Matrix, gfactors []float64, o Options) (r, fr []float64, err error) {
	if err := o.check(); err != nil {
		return nil, nil, err
	}
	gfactors, err = checkShapes(atoms, spins, gfactors, o.CalcList)
	if err != nil {
		return nil, nil, err
	}
	r, n0 := o.grid()
	fr = normalizedMPDF(atoms, spins, gfactors, r, o)
	if o.terminates() {
		fr = terminate(fr, o)
	}
	return r[:n0], fr[:n0], nil
}

//normalizedMPDF applies the K1 normalization, the damping envelope and the
//ordered scale to the pair sum.
func normalizedMPDF(atoms, spins *v3.Matrix, gfactors []float64, r []float64, o Options) []float64 {
	fr := rawMPDF(atoms, spins, gfactors, r, o)
	floats.Scale(magPrefactor/(float64(len(o.CalcList))*o.K1), fr)
	for i, x := range r {
		if o.DampRate != 0 && o.DampPower != 0 {
			fr[i] *= math.Exp(-math.Pow(o.DampRate*x, o.DampPower) / o.DampPower)
		}
		fr[i] *= o.OrdScale
	}
	return fr
}

//rawMPDF bins the pair terms, broadens them and combines them into the
//unnormalized pair sum.
func rawMPDF(atoms, spins *v3.Matrix, gfactors []float64, r []float64, o Options) []float64 {
	s1 := histo.Centered(r)
	s2 := histo.Centered(r)
	n := atoms.NVecs()
	dist := make([]float64, 0, n)
	w1 := make([]float64, 0, n)
	w2 := make([]float64, 0, n)
	for _, i := range o.CalcList {
		ri, si := atoms.Vec(i), spins.Vec(i)
		dist, w1, w2 = dist[:0], w1[:0], w2[:0]
		for j := 0; j < n; j++ {
			if j == i {
				continue
			}
			d := v3.Sub(atoms.Vec(j), ri)
			rij := v3.Norm(d)
			if rij == 0 {
				continue
			}
			a, b := pairTerms(si, spins.Vec(j), d)
			gg := gfactors[i] * gfactors[j]
			dist = append(dist, rij)
			w1 = append(w1, gg*a)
			w2 = append(w2, gg*b/(rij*rij*rij))
		}
		s1.AddWeighted(dist, w1)
		s2.AddWeighted(dist, w2)
	}
	h1, h2 := s1.Counts(), s2.Counts()
	if o.Psigma > 0 {
		k := gaussianKernel(o.Psigma, o.Rstep)
		h1 = convolveSame(h1, k)
		h2 = convolveSame(h2, k)
	}
	ss2 := make([]float64, len(h2))
	floats.CumSum(ss2, h2)
	total := ss2[len(ss2)-1]
	fr := make([]float64, len(r))
	for i, x := range r {
		if x == 0 {
			x = 1e-4 * o.Rstep
		}
		fr[i] = h1[i]/x + x*(total-ss2[i])
	}
	return fr
}

//terminate convolves f with the termination function of the q range and
//rescales it to keep its L¹ norm.
func terminate(f []float64, o Options) []float64 {
	before := l1(f)
	th := terminationKernel(o.Qmin, o.Qmax, o.Rstep, len(f))
	ret := convolveSame(f, th)
	floats.Scale(o.Rstep, ret)
	if after := l1(ret); after > 0 {
		floats.Scale(before/after, ret)
	}
	return ret
}

//CalculateDr returns the unnormalized mPDF D(r): the normalized mPDF
//convolved with the cosine transform S(r) of the squared form factor ff,
//sampled on the grid q, minus the paramagnetic baseline K2/π dS/dr.
func CalculateDr(atoms, spins *v3.Matrix, gfactors []float64, q, ff []float64, o Options) (r, dr []float64, err error) {
	if len(q) != len(ff) {
		return nil, nil, pdfgui.NewError(pdfgui.ConfigError, "form factor has %d points but the q grid %d", len(ff), len(q))
	}
	if err := o.check(); err != nil {
		return nil, nil, err
	}
	gfactors, err = checkShapes(atoms, spins, gfactors, o.CalcList)
	if err != nil {
		return nil, nil, err
	}
	r, n0 := o.grid()
	fr := normalizedMPDF(atoms, spins, gfactors, r, o)
	//S(r) is even, sample it on ±len(r) steps
	half := len(r)
	x := make([]float64, 2*half+1)
	for i := range x {
		x[i] = float64(i-half) * o.Rstep
	}
	sr, _ := cosineTransform(q, ff, x)
	dr = convolveSame(fr, sr)
	floats.Scale(0.5*o.Rstep, dr)
	_, dsr := cosineTransform(q, ff, r)
	floats.AddScaled(dr, -o.K2/math.Pi, dsr)
	return r[:n0], dr[:n0], nil
}
