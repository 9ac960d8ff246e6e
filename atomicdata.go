/*
 * atomicdata.go, part of gopdfgui.
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

package pdfgui

import (
	"strings"
	"unicode"
)

//Element symbols ordered by atomic number, starting at H.
var symbols = []string{
	"H", "He", "Li", "Be", "B", "C", "N", "O", "F", "Ne",
	"Na", "Mg", "Al", "Si", "P", "S", "Cl", "Ar", "K", "Ca",
	"Sc", "Ti", "V", "Cr", "Mn", "Fe", "Co", "Ni", "Cu", "Zn",
	"Ga", "Ge", "As", "Se", "Br", "Kr", "Rb", "Sr", "Y", "Zr",
	"Nb", "Mo", "Tc", "Ru", "Rh", "Pd", "Ag", "Cd", "In", "Sn",
	"Sb", "Te", "I", "Xe", "Cs", "Ba", "La", "Ce", "Pr", "Nd",
	"Pm", "Sm", "Eu", "Gd", "Tb", "Dy", "Ho", "Er", "Tm", "Yb",
	"Lu", "Hf", "Ta", "W", "Re", "Os", "Ir", "Pt", "Au", "Hg",
	"Tl", "Pb", "Bi", "Po", "At", "Rn", "Fr", "Ra", "Ac", "Th",
	"Pa", "U", "Np", "Pu", "Am", "Cm", "Bk", "Cf",
}

var symbolZ = func() map[string]int {
	m := make(map[string]int, len(symbols)+1)
	for i, s := range symbols {
		m[s] = i + 1
	}
	m["D"] = 1
	return m
}()

//Coherent neutron scattering lengths in fm (NIST, natural abundance).
//Only common elements are present.
var symbolNeutronLength = map[string]float64{
	"H":  -3.739,
	"D":  6.671,
	"He": 3.26,
	"Li": -1.90,
	"Be": 7.79,
	"B":  5.30,
	"C":  6.646,
	"N":  9.36,
	"O":  5.803,
	"F":  5.654,
	"Na": 3.63,
	"Mg": 5.375,
	"Al": 3.449,
	"Si": 4.1491,
	"P":  5.13,
	"S":  2.847,
	"Cl": 9.577,
	"K":  3.67,
	"Ca": 4.70,
	"Sc": 12.29,
	"Ti": -3.438,
	"V":  -0.3824,
	"Cr": 3.635,
	"Mn": -3.73,
	"Fe": 9.45,
	"Co": 2.49,
	"Ni": 10.3,
	"Cu": 7.718,
	"Zn": 5.68,
	"Ga": 7.288,
	"Ge": 8.185,
	"As": 6.58,
	"Se": 7.970,
	"Br": 6.795,
	"Sr": 7.02,
	"Y":  7.75,
	"Zr": 7.16,
	"Nb": 7.054,
	"Mo": 6.715,
	"Ag": 5.922,
	"Cd": 4.87,
	"In": 4.065,
	"Sn": 6.225,
	"Sb": 5.57,
	"Te": 5.80,
	"I":  5.28,
	"Ba": 5.07,
	"La": 8.24,
	"Ce": 4.84,
	"Pr": 4.58,
	"Nd": 7.69,
	"Gd": 6.5,
	"Hf": 7.7,
	"Ta": 6.91,
	"W":  4.86,
	"Pt": 9.60,
	"Au": 7.63,
	"Pb": 9.405,
	"Bi": 8.532,
	"U":  8.417,
}

//NormalizeSymbol turns labels such as "NI", "ni", "Mn2+" or "O1"
//into element symbols ("Ni", "Mn", "O"). It does not check that the
//result is a known element.
func NormalizeSymbol(label string) string {
	label = strings.TrimSpace(label)
	var letters []rune
	for _, r := range label {
		if !unicode.IsLetter(r) {
			break
		}
		letters = append(letters, r)
	}
	if len(letters) == 0 {
		return ""
	}
	if len(letters) > 2 {
		letters = letters[:2]
	}
	s := strings.ToUpper(string(letters[0]))
	if len(letters) == 2 {
		s += strings.ToLower(string(letters[1]))
		//"NI" is nickel but "NA" followed by nothing known could be N + A.
		if _, ok := symbolZ[s]; !ok {
			s = s[:1]
		}
	}
	return s
}

//IsElement reports whether symbol names a chemical element. The symbol
//is normalized first, so "NI" and "Fe3+" are accepted.
func IsElement(symbol string) bool {
	_, ok := symbolZ[NormalizeSymbol(symbol)]
	return ok
}

//AtomicNumber returns the atomic number of the element, and false
//if the symbol is not known.
func AtomicNumber(symbol string) (int, bool) {
	z, ok := symbolZ[NormalizeSymbol(symbol)]
	return z, ok
}

//NeutronLength returns the coherent neutron scattering length of the
//element in fm, and false if it is not tabulated.
func NeutronLength(symbol string) (float64, bool) {
	b, ok := symbolNeutronLength[NormalizeSymbol(symbol)]
	return b, ok
}

//ScatteringWeight returns the scattering power of an element for the
//radiation type stype: the neutron scattering length for "N" and the
//atomic number (the forward x-ray form factor) for "X".
func ScatteringWeight(symbol, stype string) (float64, error) {
	switch stype {
	case "N":
		if b, ok := NeutronLength(symbol); ok {
			return b, nil
		}
		return 0, NewError(KeyError, "no neutron scattering length for %q", symbol)
	case "X":
		if z, ok := AtomicNumber(symbol); ok {
			return float64(z), nil
		}
		return 0, NewError(KeyError, "unknown element %q", symbol)
	}
	return 0, NewError(ConfigError, "invalid scattering type %q", stype)
}
