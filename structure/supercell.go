/*
 * supercell.go, part of gopdfgui.
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

	pdfgui "github.com/rmera/gopdfgui"
	"github.com/rmera/gopdfgui/param"
)

var axisOf = map[string]int{"x": 0, "y": 1, "z": 2}

//ExpandSuperCell replaces the structure with an m×n×o supercell. The copies
//of each atom follow it, and the constraints of an atom are carried over to
//its copies with the position formulas shifted and rescaled. Lattice
//constraints on a, b and c are scaled too.
func (F *FitStructure) ExpandSuperCell(m, n, o int) error {
	if m < 1 || n < 1 || o < 1 {
		return pdfgui.NewError(pdfgui.ConfigError, "invalid supercell dimensions %dx%dx%d", m, n, o)
	}
	S := F.Initial
	mno := [3]int{m, n, o}
	ncopies := m * n * o
	atoms := make([]*Atom, 0, len(S.Atoms)*ncopies)
	for _, a := range S.Atoms {
		for i := 0; i < m; i++ {
			for j := 0; j < n; j++ {
				for k := 0; k < o; k++ {
					b := a.Copy()
					b.XYZ = [3]float64{
						(a.XYZ[0] + float64(i)) / float64(m),
						(a.XYZ[1] + float64(j)) / float64(n),
						(a.XYZ[2] + float64(k)) / float64(o),
					}
					atoms = append(atoms, b)
				}
			}
		}
	}
	nc := make(map[string]*param.Constraint, len(F.constraints))
	for key, c := range F.constraints {
		family, idx, err := ParseVar(key)
		if err != nil {
			continue
		}
		switch {
		case family == "lat" && idx <= 3:
			f := mno[idx-1]
			if f == 1 {
				nc[key] = c
				continue
			}
			scaled, err := param.NewConstraint(fmt.Sprintf("(%s)*%d", c.Formula(), f))
			if err != nil {
				return err
			}
			nc[key] = scaled
		case idx == 0 || family == "lat":
			nc[key] = c
		default:
			ax, isPos := axisOf[family]
			copyIdx := 0
			for i := 0; i < m; i++ {
				for j := 0; j < n; j++ {
					for k := 0; k < o; k++ {
						newIdx := (idx-1)*ncopies + copyIdx + 1
						copyIdx++
						if !isPos || mno[ax] == 1 {
							nc[VarName(family, newIdx)] = c
							continue
						}
						shift := [3]int{i, j, k}[ax]
						formula := fmt.Sprintf("(%s)/%d", c.Formula(), mno[ax])
						if shift != 0 {
							formula = fmt.Sprintf("((%s)+%d)/%d", c.Formula(), shift, mno[ax])
						}
						pc, err := param.NewConstraint(formula)
						if err != nil {
							return err
						}
						nc[VarName(family, newIdx)] = pc
					}
				}
			}
		}
	}
	S.Atoms = atoms
	S.Lattice.A *= float64(m)
	S.Lattice.B *= float64(n)
	S.Lattice.C *= float64(o)
	F.constraints = nc
	F.Refined = nil
	return nil
}
