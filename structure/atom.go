/*
 * atom.go, part of gopdfgui.
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

//Atom is an atom in a crystal structure. XYZ are fractional coordinates.
type Atom struct {
	Element     string
	XYZ         [3]float64
	U           [3][3]float64
	Occupancy   float64
	Anisotropic bool
}

//NewAtom returns an isotropic atom.
func NewAtom(element string, xyz [3]float64, uiso, occ float64) *Atom {
	A := &Atom{Element: element, XYZ: xyz, Occupancy: occ}
	A.SetUiso(uiso)
	return A
}

//Copy returns a copy of the atom.
func (A *Atom) Copy() *Atom {
	ret := *A
	return &ret
}

//Uiso returns the isotropic displacement parameter, the mean of the
//diagonal of U.
func (A *Atom) Uiso() float64 {
	return (A.U[0][0] + A.U[1][1] + A.U[2][2]) / 3
}

//SetUiso makes the atom isotropic with the given Uiso.
func (A *Atom) SetUiso(u float64) {
	A.U = [3][3]float64{{u, 0, 0}, {0, u, 0}, {0, 0, u}}
	A.Anisotropic = false
}

//Structure is a crystal structure with the PDF-specific parameters of a
//phase.
type Structure struct {
	Title      string
	SpaceGroup string
	Lattice    Lattice
	Atoms      []*Atom
	Pscale     float64
	Delta1     float64
	Delta2     float64
	Sratio     float64
	Rcut       float64
	Stepcut    float64
	Spdiameter float64
}

//NewStructure returns an empty P1 structure in a unit cubic cell.
func NewStructure() *Structure {
	return &Structure{
		SpaceGroup: "P1",
		Lattice:    CubicLattice(1),
		Pscale:     1,
		Sratio:     1,
	}
}

//Len returns the number of atoms.
func (S *Structure) Len() int {
	return len(S.Atoms)
}

//Copy returns a deep copy of the structure.
func (S *Structure) Copy() *Structure {
	ret := *S
	ret.Atoms = make([]*Atom, len(S.Atoms))
	for i, a := range S.Atoms {
		ret.Atoms[i] = a.Copy()
	}
	return &ret
}

//Elements returns the distinct elements in the structure, in order of
//appearance.
func (S *Structure) Elements() []string {
	seen := make(map[string]bool)
	var ret []string
	for _, a := range S.Atoms {
		if !seen[a.Element] {
			seen[a.Element] = true
			ret = append(ret, a.Element)
		}
	}
	return ret
}
