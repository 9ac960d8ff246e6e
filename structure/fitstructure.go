/*
 * fitstructure.go, part of gopdfgui.
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
	"sort"

	pdfgui "github.com/rmera/gopdfgui"
	"github.com/rmera/gopdfgui/param"
)

//FitStructure is a phase in a fit: an initial structure, the structure
//refined from it, constraints binding its variables to parameters, and the
//selection of atom pairs that contribute to the PDF.
type FitStructure struct {
	name          string
	Initial       *Structure
	Refined       *Structure
	selectedPairs string
	constraints   map[string]*param.Constraint
}

//NewFitStructure returns a phase built on S. A nil S gives an empty P1
//structure.
func NewFitStructure(name string, S *Structure) *FitStructure {
	if S == nil {
		S = NewStructure()
	}
	return &FitStructure{
		name:          name,
		Initial:       S,
		selectedPairs: AllPairs,
		constraints:   make(map[string]*param.Constraint),
	}
}

func (F *FitStructure) Name() string { return F.name }

func (F *FitStructure) SetName(name string) { F.name = name }

//Current returns the refined structure if there is one, the initial one
//otherwise.
func (F *FitStructure) Current() *Structure {
	if F.Refined != nil {
		return F.Refined
	}
	return F.Initial
}

//GetVar reads a variable of the initial structure.
func (F *FitStructure) GetVar(name string) (float64, error) {
	return F.Initial.GetVar(name)
}

//SetVar sets a variable of the initial structure.
func (F *FitStructure) SetVar(name string, v float64) error {
	return F.Initial.SetVar(name, v)
}

func (F *FitStructure) ListVars() []string {
	return F.Initial.ListVars()
}

//SetConstraint binds a structure variable to a formula. Constraining an
//off-diagonal ADP makes the atom anisotropic.
func (F *FitStructure) SetConstraint(name, formula string) error {
	if _, err := F.Initial.varPtr(name); err != nil {
		return pdfgui.ErrDecorate(err, "FitStructure.SetConstraint")
	}
	c, err := param.NewConstraint(formula)
	if err != nil {
		return pdfgui.ErrDecorate(err, "FitStructure.SetConstraint")
	}
	F.constraints[name] = c
	family, idx, _ := ParseVar(name)
	switch family {
	case "u12", "u13", "u23":
		F.Initial.Atoms[idx-1].Anisotropic = true
	}
	return nil
}

func (F *FitStructure) Constraint(name string) (*param.Constraint, bool) {
	c, ok := F.constraints[name]
	return c, ok
}

func (F *FitStructure) RemoveConstraint(name string) {
	delete(F.constraints, name)
}

//ConstraintKeys returns the constrained variables sorted by family and then
//by atom index, so x(2) comes before x(10).
func (F *FitStructure) ConstraintKeys() []string {
	keys := make([]string, 0, len(F.constraints))
	for k := range F.constraints {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		fi, ii, _ := ParseVar(keys[i])
		fj, ij, _ := ParseVar(keys[j])
		if fi != fj {
			return fi < fj
		}
		return ii < ij
	})
	return keys
}

//RenumberParameters renumbers the parameter references in all constraints.
func (F *FitStructure) RenumberParameters(mapping map[int]int) error {
	for k, c := range F.constraints {
		nc, err := c.Renumber(mapping)
		if err != nil {
			return pdfgui.ErrDecorate(err, "FitStructure.RenumberParameters "+k)
		}
		F.constraints[k] = nc
	}
	return nil
}

//ApplyParameters evaluates every constraint with the given parameter values
//and writes the results into the initial structure.
func (F *FitStructure) ApplyParameters(values map[int]float64) error {
	for _, k := range F.ConstraintKeys() {
		v, err := F.constraints[k].Evaluate(values)
		if err != nil {
			return pdfgui.ErrDecorate(err, "FitStructure.ApplyParameters "+k)
		}
		if err := F.Initial.SetVar(k, v); err != nil {
			return err
		}
	}
	return nil
}

//FindParameters guesses parameter values from the initial structure, for
//the constraints that are linear in one parameter. The first guess for a
//parameter wins.
func (F *FitStructure) FindParameters() map[int]float64 {
	ret := make(map[int]float64)
	for _, k := range F.ConstraintKeys() {
		v, err := F.Initial.GetVar(k)
		if err != nil {
			continue
		}
		for idx, g := range F.constraints[k].Guess(v) {
			if _, ok := ret[idx]; !ok {
				ret[idx] = g
			}
		}
	}
	return ret
}

//Copy returns a deep copy of the phase.
func (F *FitStructure) Copy() *FitStructure {
	ret := *F
	ret.Initial = F.Initial.Copy()
	if F.Refined != nil {
		ret.Refined = F.Refined.Copy()
	}
	ret.constraints = make(map[string]*param.Constraint, len(F.constraints))
	for k, c := range F.constraints {
		ret.constraints[k] = c
	}
	return &ret
}

//remapAtoms moves the per-atom constraints according to mapping, from old
//to new 1-based atom indices. Constraints of unmapped atoms are dropped.
func (F *FitStructure) remapAtoms(mapping map[int]int) {
	nc := make(map[string]*param.Constraint, len(F.constraints))
	for k, c := range F.constraints {
		family, idx, err := ParseVar(k)
		if err != nil {
			continue
		}
		if idx == 0 || family == "lat" {
			nc[k] = c
			continue
		}
		if n, ok := mapping[idx]; ok {
			nc[VarName(family, n)] = c
		}
	}
	F.constraints = nc
}

//InsertAtoms inserts atoms before the 0-based position at, shifting the
//constraints of the atoms that follow.
func (F *FitStructure) InsertAtoms(at int, atoms ...*Atom) error {
	S := F.Initial
	if at < 0 || at > len(S.Atoms) {
		return pdfgui.NewError(pdfgui.KeyError, "atom position %d out of range", at)
	}
	mapping := make(map[int]int, len(S.Atoms))
	for i := 1; i <= len(S.Atoms); i++ {
		if i <= at {
			mapping[i] = i
		} else {
			mapping[i] = i + len(atoms)
		}
	}
	S.Atoms = append(S.Atoms[:at], append(append([]*Atom(nil), atoms...), S.Atoms[at:]...)...)
	F.remapAtoms(mapping)
	F.Refined = nil
	return nil
}

//DeleteAtoms removes the atoms at the given 0-based positions together with
//their constraints.
func (F *FitStructure) DeleteAtoms(indices ...int) error {
	S := F.Initial
	del := make(map[int]bool, len(indices))
	for _, i := range indices {
		if i < 0 || i >= len(S.Atoms) {
			return pdfgui.NewError(pdfgui.KeyError, "atom position %d out of range", i)
		}
		del[i] = true
	}
	mapping := make(map[int]int)
	var kept []*Atom
	for i, a := range S.Atoms {
		if del[i] {
			continue
		}
		kept = append(kept, a)
		mapping[i+1] = len(kept)
	}
	S.Atoms = kept
	F.remapAtoms(mapping)
	F.Refined = nil
	return nil
}
