/*
 * lattice.go, part of gopdfgui.
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

package structure

import (
	"math"

	pdfgui "github.com/rmera/gopdfgui"
	v3 "github.com/rmera/gopdfgui/v3"
	"gonum.org/v1/gonum/mat"
)

const deg2rad = math.Pi / 180

//Lattice holds the unit cell lengths (Å) and angles (degrees).
type Lattice struct {
	A, B, C            float64
	Alpha, Beta, Gamma float64
}

//CubicLattice returns a cubic lattice with cell length a.
func CubicLattice(a float64) Lattice {
	return Lattice{a, a, a, 90, 90, 90}
}

//Base returns the cell vectors as rows, with a along x and b in the xy plane.
func (L Lattice) Base() [3][3]float64 {
	ca, cb, cg := math.Cos(L.Alpha*deg2rad), math.Cos(L.Beta*deg2rad), math.Cos(L.Gamma*deg2rad)
	sg := math.Sin(L.Gamma * deg2rad)
	cy := (ca - cb*cg) / sg
	cz := math.Sqrt(math.Max(0, 1-cb*cb-cy*cy))
	return [3][3]float64{
		{L.A, 0, 0},
		{L.B * cg, L.B * sg, 0},
		{L.C * cb, L.C * cy, L.C * cz},
	}
}

//Volume returns the unit cell volume.
func (L Lattice) Volume() float64 {
	b := L.Base()
	return math.Abs(v3.Dot(b[0], v3.Cross(b[1], b[2])))
}

//Cartesian converts fractional coordinates to cartesian ones.
func (L Lattice) Cartesian(xyz [3]float64) [3]float64 {
	b := L.Base()
	var ret [3]float64
	for i := 0; i < 3; i++ {
		ret = v3.Add(ret, v3.Scale(xyz[i], b[i]))
	}
	return ret
}

func (L Lattice) inverseBase() (*mat.Dense, error) {
	b := L.Base()
	B := mat.NewDense(3, 3, []float64{
		b[0][0], b[0][1], b[0][2],
		b[1][0], b[1][1], b[1][2],
		b[2][0], b[2][1], b[2][2],
	})
	var inv mat.Dense
	if err := inv.Inverse(B); err != nil {
		return nil, pdfgui.WrapError(pdfgui.ConfigError, err, "degenerate lattice %v", L)
	}
	return &inv, nil
}

//Fractional converts cartesian coordinates to fractional ones.
func (L Lattice) Fractional(cart [3]float64) ([3]float64, error) {
	inv, err := L.inverseBase()
	if err != nil {
		return [3]float64{}, err
	}
	var ret [3]float64
	for j := 0; j < 3; j++ {
		for i := 0; i < 3; i++ {
			ret[j] += cart[i] * inv.At(i, j)
		}
	}
	return ret, nil
}

//Reciprocal returns the reciprocal cell vectors as rows, without the 2π
//factor, so that Reciprocal()[i]·Base()[j] is 1 when i==j and 0 otherwise.
func (L Lattice) Reciprocal() ([3][3]float64, error) {
	inv, err := L.inverseBase()
	if err != nil {
		return [3][3]float64{}, err
	}
	var ret [3][3]float64
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			ret[i][j] = inv.At(j, i)
		}
	}
	return ret, nil
}

//PlaneSpacings returns the distances between the lattice planes spanned by
//(b,c), (a,c) and (a,b).
func (L Lattice) PlaneSpacings() ([3]float64, error) {
	r, err := L.Reciprocal()
	if err != nil {
		return [3]float64{}, err
	}
	return [3]float64{1 / v3.Norm(r[0]), 1 / v3.Norm(r[1]), 1 / v3.Norm(r[2])}, nil
}
