/*
 * pairs.go, part of gopdfgui.
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
	"strconv"
	"strings"

	pdfgui "github.com/rmera/gopdfgui"
)

//AllPairs selects every atom pair.
const AllPairs = "all-all"

type pairToken struct {
	exclude bool
	a, b    string
}

//parsePairs splits a selection like "all-all, !Ni-O, 1-2" into tokens.
//Each side of a token is "all", an element symbol or a 1-based atom index.
func parsePairs(s string) ([]pairToken, error) {
	var ret []pairToken
	for _, w := range strings.Fields(strings.ReplaceAll(s, ",", " ")) {
		t := pairToken{}
		if strings.HasPrefix(w, "!") {
			t.exclude = true
			w = w[1:]
		}
		a, b, ok := strings.Cut(w, "-")
		if !ok {
			return nil, pdfgui.NewError(pdfgui.ConfigError, "invalid pair selection %q", w)
		}
		for _, side := range []*string{&a, &b} {
			switch {
			case strings.EqualFold(*side, "all"):
				*side = "all"
			case isIndex(*side):
			case pdfgui.IsElement(pdfgui.NormalizeSymbol(*side)):
				*side = pdfgui.NormalizeSymbol(*side)
			default:
				return nil, pdfgui.NewError(pdfgui.ConfigError, "invalid pair selection %q", w)
			}
		}
		t.a, t.b = a, b
		ret = append(ret, t)
	}
	return ret, nil
}

func isIndex(s string) bool {
	n, err := strconv.Atoi(s)
	return err == nil && n > 0
}

//SelectedPairs returns the pair selection string.
func (F *FitStructure) SelectedPairs() string {
	return F.selectedPairs
}

//SetSelectedPairs validates and stores a pair selection. An empty string
//selects all pairs.
func (F *FitStructure) SetSelectedPairs(s string) error {
	toks, err := parsePairs(s)
	if err != nil {
		return err
	}
	if len(toks) == 0 {
		s = AllPairs
	}
	F.selectedPairs = strings.Join(strings.Fields(s), " ")
	return nil
}

//matches reports whether the atom at 0-based position i fits a selection
//side.
func (S *Structure) matches(side string, i int) (bool, error) {
	switch {
	case side == "all":
		return true, nil
	case isIndex(side):
		n, _ := strconv.Atoi(side)
		if n > len(S.Atoms) {
			return false, pdfgui.NewError(pdfgui.KeyError, "pair selection refers to missing atom %d", n)
		}
		return n == i+1, nil
	}
	return S.Atoms[i].Element == side, nil
}

//PairFlags materializes the pair selection into a symmetric matrix: flag
//[i][j] is true when the pair of atoms i and j contributes to the PDF.
//Tokens are applied in order, a "!" token clearing what earlier ones set.
func (F *FitStructure) PairFlags() ([][]bool, error) {
	S := F.Initial
	toks, err := parsePairs(F.selectedPairs)
	if err != nil {
		return nil, err
	}
	n := len(S.Atoms)
	flags := make([][]bool, n)
	for i := range flags {
		flags[i] = make([]bool, n)
	}
	for _, t := range toks {
		for i := 0; i < n; i++ {
			mi, err := S.matches(t.a, i)
			if err != nil {
				return nil, err
			}
			for j := 0; j < n; j++ {
				mj, err := S.matches(t.b, j)
				if err != nil {
					return nil, err
				}
				if mi && mj {
					flags[i][j] = !t.exclude
					flags[j][i] = !t.exclude
				}
			}
		}
	}
	return flags, nil
}
