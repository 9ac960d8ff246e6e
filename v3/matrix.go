/*
 * matrix.go, part of gopdfgui.
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

package v3

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

//Matrix is a set of vectors in 3D space. Within the package it is understood
//that a "vector" is a row vector, i.e. the cartesian coordinates of a point.
type Matrix struct {
	*mat.Dense
}

//NewMatrix generates and returns a Matrix with 3 columns from data.
//data is used as backing storage, not copied.
func NewMatrix(data []float64) (*Matrix, error) {
	const cols int = 3
	l := len(data)
	if l%cols != 0 {
		return nil, Error{fmt.Sprintf("input slice length %d not divisible by %d", l, cols), []string{"NewMatrix"}, true}
	}
	if l == 0 {
		return Zeros(0), nil
	}
	return &Matrix{mat.NewDense(l/cols, cols, data)}, nil
}

//Zeros returns a zero-filled Matrix with vecs vectors.
func Zeros(vecs int) *Matrix {
	if vecs == 0 {
		return &Matrix{new(mat.Dense)}
	}
	return &Matrix{mat.NewDense(vecs, 3, nil)}
}

//FromVecs builds a Matrix from a slice of 3D vectors.
func FromVecs(vecs [][3]float64) *Matrix {
	F := Zeros(len(vecs))
	for i, v := range vecs {
		F.SetVec(i, v)
	}
	return F
}

//NVecs returns the number of vecs in F.
func (F *Matrix) NVecs() int {
	if F == nil || F.Dense == nil || F.Dense.IsEmpty() {
		return 0
	}
	r, c := F.Dims()
	if c != 3 {
		panic(ErrNotXx3Matrix)
	}
	return r
}

//VecView returns a view of the ith vector of F. Changes to the view
//change F.
func (F *Matrix) VecView(i int) *Matrix {
	if i >= F.NVecs() {
		panic(ErrIndexOutOfRange)
	}
	return &Matrix{F.Dense.Slice(i, i+1, 0, 3).(*mat.Dense)}
}

//Vec returns a copy of the ith vector of F.
func (F *Matrix) Vec(i int) [3]float64 {
	if i >= F.NVecs() {
		panic(ErrIndexOutOfRange)
	}
	var v [3]float64
	copy(v[:], F.RawRowView(i))
	return v
}

//SetVec sets the ith vector of F to v.
func (F *Matrix) SetVec(i int, v [3]float64) {
	if i >= F.NVecs() {
		panic(ErrIndexOutOfRange)
	}
	copy(F.RawRowView(i), v[:])
}

//SomeVecs returns a new Matrix with the vectors of F whose indexes are in clist,
//in that order.
func (F *Matrix) SomeVecs(clist []int) *Matrix {
	R := Zeros(len(clist))
	for k, i := range clist {
		R.SetVec(k, F.Vec(i))
	}
	return R
}

//Stack returns a new Matrix with the vectors of F followed by those of A.
func (F *Matrix) Stack(A *Matrix) *Matrix {
	n, m := F.NVecs(), A.NVecs()
	R := Zeros(n + m)
	for i := 0; i < n; i++ {
		R.SetVec(i, F.Vec(i))
	}
	for i := 0; i < m; i++ {
		R.SetVec(n+i, A.Vec(i))
	}
	return R
}

//AddVec adds vec to every vector in F, in place.
func (F *Matrix) AddVec(vec [3]float64) {
	for i := 0; i < F.NVecs(); i++ {
		floats.Add(F.RawRowView(i), vec[:])
	}
}

//Norms returns the euclidean norm of each vector in F.
func (F *Matrix) Norms() []float64 {
	ret := make([]float64, F.NVecs())
	for i := range ret {
		ret[i] = floats.Norm(F.RawRowView(i), 2)
	}
	return ret
}

//String returns a neat string representation of a Matrix.
func (F *Matrix) String() string {
	n := F.NVecs()
	lines := make([]string, 0, n)
	for i := 0; i < n; i++ {
		v := F.RawRowView(i)
		lines = append(lines, fmt.Sprintf("[%8.4f %8.4f %8.4f]", v[0], v[1], v[2]))
	}
	return strings.Join(lines, "\n")
}

//Dot returns the dot product of two 3D vectors.
func Dot(a, b [3]float64) float64 {
	return a[0]*b[0] + a[1]*b[1] + a[2]*b[2]
}

//Sub returns a-b.
func Sub(a, b [3]float64) [3]float64 {
	return [3]float64{a[0] - b[0], a[1] - b[1], a[2] - b[2]}
}

//Add returns a+b.
func Add(a, b [3]float64) [3]float64 {
	return [3]float64{a[0] + b[0], a[1] + b[1], a[2] + b[2]}
}

//Scale returns s*a.
func Scale(s float64, a [3]float64) [3]float64 {
	return [3]float64{s * a[0], s * a[1], s * a[2]}
}

//Norm returns the euclidean norm of a.
func Norm(a [3]float64) float64 {
	return math.Sqrt(Dot(a, a))
}

//Cross returns the cross product axb.
func Cross(a, b [3]float64) [3]float64 {
	return [3]float64{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}

//Unit returns a/|a|. The zero vector is returned unchanged.
func Unit(a [3]float64) [3]float64 {
	n := Norm(a)
	if n <= appzero {
		return a
	}
	return Scale(1/n, a)
}

const appzero float64 = 0.000000000001 //Everything equal or less than this is considered zero.

//Errors

type Error struct {
	message  string
	deco     []string
	critical bool
}

//Error returns a string with an error message.
func (err Error) Error() string {
	return err.message
}

//Decorate will add the dec string to the decoration slice of strings of the error,
//and return the resulting slice.
func (err Error) Decorate(dec string) []string {
	err.deco = append(err.deco, dec)
	return err.deco
}

//Critical return whether the error is critical or it can be ignored
func (err Error) Critical() bool { return err.critical }

//PanicMsg is a message used for panics, even though it does satisfy the error interface.
//for errors use Error.
type PanicMsg string

func (v PanicMsg) Error() string { return string(v) }

const (
	ErrNotXx3Matrix    = PanicMsg("goPDFgui/v3: A VecMatrix should have 3 columns")
	ErrShape           = PanicMsg("goPDFgui/v3: Dimension mismatch")
	ErrIndexOutOfRange = PanicMsg("goPDFgui/v3: index out of range")
)
