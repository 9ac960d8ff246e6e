/*
 * constraint.go, part of gopdfgui.
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

package param

import (
	"math"
	"sort"

	pdfgui "github.com/rmera/gopdfgui"
)

//Constraint binds a variable of a phase or dataset to a formula over
//refinement parameters. Constraints are immutable.
type Constraint struct {
	formula string
	expr    Expr
	indices []int
}

//NewConstraint parses formula and returns the constraint.
func NewConstraint(formula string) (*Constraint, error) {
	e, err := Parse(formula)
	if err != nil {
		return nil, pdfgui.ErrDecorate(err, "NewConstraint")
	}
	set := make(map[int]bool)
	e.refs(set)
	idx := make([]int, 0, len(set))
	for k := range set {
		idx = append(idx, k)
	}
	sort.Ints(idx)
	return &Constraint{formula: formula, expr: e, indices: idx}, nil
}

//Formula returns the formula as it was given.
func (C *Constraint) Formula() string {
	return C.formula
}

func (C *Constraint) String() string {
	return C.formula
}

//Indices returns the sorted, distinct parameter indices referenced
//by the formula.
func (C *Constraint) Indices() []int {
	ret := make([]int, len(C.indices))
	copy(ret, C.indices)
	return ret
}

//Evaluate computes the formula with the parameter values given.
//A referenced index missing from values is a KeyError.
func (C *Constraint) Evaluate(values map[int]float64) (float64, error) {
	v, err := C.expr.Eval(values)
	if err != nil {
		return 0, pdfgui.ErrDecorate(err, "Constraint.Evaluate")
	}
	return v, nil
}

//Renumber returns a new constraint where the @N tokens with N a key in
//mapping are replaced by @mapping[N].
func (C *Constraint) Renumber(mapping map[int]int) (*Constraint, error) {
	f, err := RenumberFormula(C.formula, mapping)
	if err != nil {
		return nil, err
	}
	return NewConstraint(f)
}

//Guess returns the parameter value that makes the formula evaluate to value,
//when the formula is linear in a single parameter. Otherwise it returns
//an empty map.
func (C *Constraint) Guess(value float64) map[int]float64 {
	ret := make(map[int]float64)
	if len(C.indices) != 1 {
		return ret
	}
	idx := C.indices[0]
	f0, err0 := C.expr.Eval(map[int]float64{idx: 0})
	f1, err1 := C.expr.Eval(map[int]float64{idx: 1})
	if err0 != nil || err1 != nil {
		return ret
	}
	slope := f1 - f0
	if slope == 0 || math.IsNaN(slope) || math.IsInf(slope, 0) {
		return ret
	}
	p := (value - f0) / slope
	check, err := C.expr.Eval(map[int]float64{idx: p})
	if err != nil || math.Abs(check-value) > 1e-8*math.Max(1, math.Abs(value)) {
		return ret
	}
	ret[idx] = p
	return ret
}
