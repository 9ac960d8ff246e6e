/*
 * generate.go, part of gopdfgui.
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
	"math/cmplx"

	pdfgui "github.com/rmera/gopdfgui"
	"github.com/rmera/gopdfgui/structure"
	v3 "github.com/rmera/gopdfgui/v3"
)

//ImagTolerance is the largest imaginary spin component accepted as
//numerical noise.
const ImagTolerance = 1e-4

func checkMagIdxs(S *structure.Structure, magIdxs []int) error {
	if len(magIdxs) == 0 {
		return pdfgui.NewError(pdfgui.ConfigError, "no magnetic atoms given")
	}
	for _, i := range magIdxs {
		if i < 0 || i >= len(S.Atoms) {
			return pdfgui.NewError(pdfgui.KeyError, "magnetic atom index %d out of range", i)
		}
	}
	return nil
}

//GenerateAtomsXYZ returns the cartesian positions of the images of the
//magnetic atoms magIdxs of S needed for an mPDF up to rmax. The first row is
//the seed, the first magnetic atom in the home cell. Without square, every
//image within rmax + |a+b+c| of the seed is included; with square, a
//(2n+1)-cell block along each axis, n = ceil(rmax/|axis|).
func GenerateAtomsXYZ(S *structure.Structure, rmax float64, magIdxs []int, square bool) (*v3.Matrix, error) {
	if err := checkMagIdxs(S, magIdxs); err != nil {
		return nil, err
	}
	base := S.Lattice.Base()
	seed := S.Lattice.Cartesian(S.Atoms[magIdxs[0]].XYZ)
	var ncell [3]int
	limit := math.Inf(1)
	if square {
		for i := range ncell {
			ncell[i] = int(math.Ceil(rmax / v3.Norm(base[i])))
		}
	} else {
		limit = rmax + v3.Norm(v3.Add(base[0], v3.Add(base[1], base[2])))
		d, err := S.Lattice.PlaneSpacings()
		if err != nil {
			return nil, err
		}
		for i := range ncell {
			ncell[i] = int(math.Ceil(limit/d[i])) + 1
		}
	}
	pos := [][3]float64{seed}
	for i := -ncell[0]; i <= ncell[0]; i++ {
		for j := -ncell[1]; j <= ncell[1]; j++ {
			for k := -ncell[2]; k <= ncell[2]; k++ {
				t := v3.Add(v3.Scale(float64(i), base[0]), v3.Add(v3.Scale(float64(j), base[1]), v3.Scale(float64(k), base[2])))
				for n, m := range magIdxs {
					if n == 0 && i == 0 && j == 0 && k == 0 {
						continue
					}
					p := v3.Add(S.Lattice.Cartesian(S.Atoms[m].XYZ), t)
					if v3.Norm(v3.Sub(p, seed)) <= limit {
						pos = append(pos, p)
					}
				}
			}
		}
	}
	return v3.FromVecs(pos), nil
}

//GenerateSpinsXYZ returns the spin of each atom, the real part of
//Σ_k basisvecs[k] exp(-2πi k·(r-origin)), where kvecs are in reciprocal
//lattice units of L and atoms and origin are cartesian. It also returns the
//largest imaginary component that was discarded.
func GenerateSpinsXYZ(L structure.Lattice, atoms *v3.Matrix, kvecs [][3]float64, basisvecs [][3]complex128, origin [3]float64) (*v3.Matrix, float64, error) {
	if len(kvecs) != len(basisvecs) {
		return nil, 0, pdfgui.NewError(pdfgui.ConfigError, "%d propagation vectors but %d basis vectors", len(kvecs), len(basisvecs))
	}
	recip, err := L.Reciprocal()
	if err != nil {
		return nil, 0, err
	}
	kcart := make([][3]float64, len(kvecs))
	for n, k := range kvecs {
		for i := 0; i < 3; i++ {
			kcart[n] = v3.Add(kcart[n], v3.Scale(k[i], recip[i]))
		}
	}
	N := atoms.NVecs()
	spins := v3.Zeros(N)
	var maxImag float64
	for a := 0; a < N; a++ {
		d := v3.Sub(atoms.Vec(a), origin)
		var s [3]complex128
		for n, k := range kcart {
			phase := cmplx.Exp(complex(0, -2*math.Pi*v3.Dot(k, d)))
			for i := range s {
				s[i] += basisvecs[n][i] * phase
			}
		}
		var re [3]float64
		for i, v := range s {
			re[i] = real(v)
			maxImag = math.Max(maxImag, math.Abs(imag(v)))
		}
		spins.SetVec(a, re)
	}
	return spins, maxImag, nil
}
