/*
 * symmetry.go, part of gopdfgui.
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
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	pdfgui "github.com/rmera/gopdfgui"
	"github.com/rmera/gopdfgui/param"
)

//uVar names the U tensor element (i,j), i<=j.
var uVar = [3][3]string{
	{"u11", "u12", "u13"},
	{"u12", "u22", "u23"},
	{"u13", "u23", "u33"},
}

//linearTerm is coef times formula, or times value when formula is empty.
type linearTerm struct {
	coef    float64
	formula string
	value   float64
}

//linearFormula builds Σ terms + c. It returns "" when no term is
//constrained.
func linearFormula(terms []linearTerm, c float64) string {
	var parts []string
	constrained := false
	for _, t := range terms {
		if math.Abs(t.coef) < 1e-12 {
			continue
		}
		if t.formula == "" {
			c += t.coef * t.value
			continue
		}
		constrained = true
		switch {
		case t.coef == 1:
			parts = append(parts, fmt.Sprintf("+(%s)", t.formula))
		case t.coef == -1:
			parts = append(parts, fmt.Sprintf("-(%s)", t.formula))
		default:
			parts = append(parts, fmt.Sprintf("+%s*(%s)", strconv.FormatFloat(t.coef, 'g', 12, 64), t.formula))
		}
	}
	if !constrained {
		return ""
	}
	if math.Abs(c) > 1e-12 {
		parts = append(parts, "+"+strconv.FormatFloat(c, 'g', 12, 64))
	}
	s := strings.Join(parts, "")
	s = strings.ReplaceAll(s, "+-", "-")
	return strings.TrimPrefix(s, "+")
}

//ExpandAsymmetricUnit generates the atoms equivalent to the selected ones
//(0-based indices) under the operations of sg, applied about origin offset.
//The new atoms are inserted right after the atom they come from and inherit
//its constraints, rewritten through the symmetry operation. The lattice is
//made consistent with the crystal system of sg, and constraints on a and α
//are propagated to the lattice parameters they fix.
func (F *FitStructure) ExpandAsymmetricUnit(sg *SpaceGroup, indices []int, offset [3]float64) error {
	S := F.Initial
	sel := append([]int(nil), indices...)
	sort.Sort(sort.Reverse(sort.IntSlice(sel)))
	for n, i := range sel {
		if i < 0 || i >= len(S.Atoms) {
			return pdfgui.NewError(pdfgui.KeyError, "atom position %d out of range", i)
		}
		if n > 0 && sel[n-1] == i {
			return pdfgui.NewError(pdfgui.ConfigError, "atom %d selected twice", i+1)
		}
	}
	for _, i := range sel {
		a := S.Atoms[i]
		var shifted [3]float64
		for k := range shifted {
			shifted[k] = a.XYZ[k] - offset[k]
		}
		orbit, ops := sg.Orbit(shifted)
		var newAtoms []*Atom
		newConstraints := make(map[string]*param.Constraint)
		for n := 1; n < len(orbit); n++ {
			op := ops[n]
			b := a.Copy()
			for k := 0; k < 3; k++ {
				b.XYZ[k] = wrap(orbit[n][k] + offset[k])
			}
			for k := 0; k < 3; k++ {
				for l := 0; l < 3; l++ {
					var u float64
					for p := 0; p < 3; p++ {
						for q := 0; q < 3; q++ {
							u += op.R[k][p] * op.R[l][q] * a.U[p][q]
						}
					}
					b.U[k][l] = u
				}
			}
			newAtoms = append(newAtoms, b)
			idx := i + 1 + n
			for k, fam := range [3]string{"x", "y", "z"} {
				terms := make([]linearTerm, 3)
				for j, src := range [3]string{"x", "y", "z"} {
					terms[j] = linearTerm{coef: op.R[k][j], value: a.XYZ[j], formula: F.formulaOf(VarName(src, i+1))}
				}
				if f := linearFormula(terms, b.XYZ[k]-dotRow(op.R[k], a.XYZ)); f != "" {
					c, err := param.NewConstraint(f)
					if err != nil {
						return err
					}
					newConstraints[VarName(fam, idx)] = c
				}
			}
			for k := 0; k < 3; k++ {
				for l := k; l < 3; l++ {
					var terms []linearTerm
					for p := 0; p < 3; p++ {
						for q := 0; q < 3; q++ {
							terms = append(terms, linearTerm{
								coef:    op.R[k][p] * op.R[l][q],
								value:   a.U[p][q],
								formula: F.formulaOf(VarName(uVar[p][q], i+1)),
							})
						}
					}
					if f := linearFormula(terms, 0); f != "" {
						c, err := param.NewConstraint(f)
						if err != nil {
							return err
						}
						newConstraints[VarName(uVar[k][l], idx)] = c
					}
				}
			}
			if c, ok := F.constraints[VarName("occ", i+1)]; ok {
				newConstraints[VarName("occ", idx)] = c
			}
		}
		if len(newAtoms) == 0 {
			continue
		}
		if err := F.InsertAtoms(i+1, newAtoms...); err != nil {
			return err
		}
		for k, c := range newConstraints {
			F.constraints[k] = c
		}
	}
	F.symmetrizeLattice(sg.System)
	if sg.Name != "" {
		S.SpaceGroup = sg.Name
	}
	F.Refined = nil
	return nil
}

func dotRow(r [3]float64, x [3]float64) float64 {
	return r[0]*x[0] + r[1]*x[1] + r[2]*x[2]
}

func (F *FitStructure) formulaOf(key string) string {
	if c, ok := F.constraints[key]; ok {
		return c.Formula()
	}
	return ""
}

//symmetrizeLattice imposes the metric of a crystal system.
func (F *FitStructure) symmetrizeLattice(system CrystalSystem) {
	L := &F.Initial.Lattice
	tie := func(dst, src string) {
		if c, ok := F.constraints[src]; ok {
			F.constraints[dst] = c
		}
	}
	switch system {
	case Monoclinic:
		L.Alpha, L.Gamma = 90, 90
	case Orthorhombic:
		L.Alpha, L.Beta, L.Gamma = 90, 90, 90
	case Tetragonal:
		L.B = L.A
		L.Alpha, L.Beta, L.Gamma = 90, 90, 90
		tie("lat(2)", "lat(1)")
	case Trigonal, Hexagonal:
		L.B = L.A
		L.Alpha, L.Beta, L.Gamma = 90, 90, 120
		tie("lat(2)", "lat(1)")
	case Cubic:
		L.B, L.C = L.A, L.A
		L.Alpha, L.Beta, L.Gamma = 90, 90, 90
		tie("lat(2)", "lat(1)")
		tie("lat(3)", "lat(1)")
	}
	switch system {
	case Monoclinic:
		delete(F.constraints, "lat(4)")
		delete(F.constraints, "lat(6)")
	case Orthorhombic, Tetragonal, Trigonal, Hexagonal, Cubic:
		for i := 4; i <= 6; i++ {
			delete(F.constraints, VarName("lat", i))
		}
	}
}
