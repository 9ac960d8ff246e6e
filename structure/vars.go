/*
 * vars.go, part of gopdfgui.
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
	"regexp"
	"strconv"

	pdfgui "github.com/rmera/gopdfgui"
)

var indexedVar = regexp.MustCompile(`^(lat|x|y|z|occ|u11|u22|u33|u12|u13|u23)\((\d+)\)$`)

//phase-wide variables
var structureVars = []string{"pscale", "spdiameter", "stepcut", "delta1", "delta2", "sratio", "rcut"}

//atomVars are the per-atom variable families, in listing order.
var atomVars = []string{"x", "y", "z", "occ", "u11", "u22", "u33", "u12", "u13", "u23"}

//uIndex maps the ADP variable names to the U tensor elements.
var uIndex = map[string][2]int{
	"u11": {0, 0}, "u22": {1, 1}, "u33": {2, 2},
	"u12": {0, 1}, "u13": {0, 2}, "u23": {1, 2},
}

//ParseVar splits a structure variable name into its family and 1-based
//index. Index is 0 for phase-wide variables.
func ParseVar(name string) (family string, index int, err error) {
	for _, v := range structureVars {
		if v == name {
			return name, 0, nil
		}
	}
	m := indexedVar.FindStringSubmatch(name)
	if m == nil {
		return "", 0, pdfgui.NewError(pdfgui.ConfigError, "invalid structure variable %q", name)
	}
	index, _ = strconv.Atoi(m[2])
	if index < 1 || (m[1] == "lat" && index > 6) {
		return "", 0, pdfgui.NewError(pdfgui.KeyError, "variable %q is out of range", name)
	}
	return m[1], index, nil
}

//VarName builds an indexed variable name.
func VarName(family string, index int) string {
	if index == 0 {
		return family
	}
	return fmt.Sprintf("%s(%d)", family, index)
}

func (S *Structure) varPtr(name string) (*float64, error) {
	family, idx, err := ParseVar(name)
	if err != nil {
		return nil, err
	}
	switch family {
	case "pscale":
		return &S.Pscale, nil
	case "spdiameter":
		return &S.Spdiameter, nil
	case "stepcut":
		return &S.Stepcut, nil
	case "delta1":
		return &S.Delta1, nil
	case "delta2":
		return &S.Delta2, nil
	case "sratio":
		return &S.Sratio, nil
	case "rcut":
		return &S.Rcut, nil
	case "lat":
		return [...]*float64{&S.Lattice.A, &S.Lattice.B, &S.Lattice.C,
			&S.Lattice.Alpha, &S.Lattice.Beta, &S.Lattice.Gamma}[idx-1], nil
	}
	if idx > len(S.Atoms) {
		return nil, pdfgui.NewError(pdfgui.KeyError, "variable %q refers to a missing atom", name)
	}
	a := S.Atoms[idx-1]
	switch family {
	case "x":
		return &a.XYZ[0], nil
	case "y":
		return &a.XYZ[1], nil
	case "z":
		return &a.XYZ[2], nil
	case "occ":
		return &a.Occupancy, nil
	}
	ij := uIndex[family]
	return &a.U[ij[0]][ij[1]], nil
}

//GetVar returns the value of a structure variable such as "lat(1)",
//"x(3)", "u23(2)" or "delta2".
func (S *Structure) GetVar(name string) (float64, error) {
	p, err := S.varPtr(name)
	if err != nil {
		return 0, err
	}
	return *p, nil
}

//SetVar sets a structure variable. Off-diagonal ADPs are kept symmetric
//and make the atom anisotropic.
func (S *Structure) SetVar(name string, v float64) error {
	p, err := S.varPtr(name)
	if err != nil {
		return err
	}
	*p = v
	family, idx, _ := ParseVar(name)
	if ij, ok := uIndex[family]; ok {
		a := S.Atoms[idx-1]
		a.U[ij[1]][ij[0]] = v
		if ij[0] != ij[1] || a.U[0][0] != a.U[1][1] || a.U[1][1] != a.U[2][2] {
			a.Anisotropic = true
		}
	}
	return nil
}

//ListVars returns every variable of the structure.
func (S *Structure) ListVars() []string {
	ret := make([]string, 0, 6+len(structureVars)+len(atomVars)*len(S.Atoms))
	for i := 1; i <= 6; i++ {
		ret = append(ret, VarName("lat", i))
	}
	for i := range S.Atoms {
		for _, f := range atomVars {
			ret = append(ret, VarName(f, i+1))
		}
	}
	return append(ret, structureVars...)
}
