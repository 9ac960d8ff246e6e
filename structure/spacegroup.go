/*
 * spacegroup.go, part of gopdfgui.
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
	"strconv"
	"strings"

	pdfgui "github.com/rmera/gopdfgui"
)

//symEps is the tolerance used to compare fractional positions.
const symEps = 1e-3

//CrystalSystem determines the symmetry constraints on the lattice.
type CrystalSystem int

const (
	Triclinic CrystalSystem = iota
	Monoclinic
	Orthorhombic
	Tetragonal
	Trigonal
	Hexagonal
	Cubic
)

func (C CrystalSystem) String() string {
	return [...]string{"triclinic", "monoclinic", "orthorhombic", "tetragonal", "trigonal", "hexagonal", "cubic"}[C]
}

//SymOp is a symmetry operation on fractional coordinates, x' = R x + T.
type SymOp struct {
	R [3][3]float64
	T [3]float64
}

//Identity returns the identity operation.
func Identity() SymOp {
	return SymOp{R: [3][3]float64{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}}
}

//Apply transforms a fractional position.
func (O SymOp) Apply(x [3]float64) [3]float64 {
	var ret [3]float64
	for i := 0; i < 3; i++ {
		ret[i] = O.T[i]
		for j := 0; j < 3; j++ {
			ret[i] += O.R[i][j] * x[j]
		}
	}
	return ret
}

//Compose returns the operation that applies B and then O.
func (O SymOp) Compose(B SymOp) SymOp {
	var ret SymOp
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			for k := 0; k < 3; k++ {
				ret.R[i][j] += O.R[i][k] * B.R[k][j]
			}
		}
	}
	ret.T = O.Apply(B.T)
	for i := range ret.T {
		ret.T[i] = wrap(ret.T[i])
	}
	return ret
}

func (O SymOp) equal(B SymOp) bool {
	for i := 0; i < 3; i++ {
		if math.Abs(wrapDiff(O.T[i]-B.T[i])) > symEps {
			return false
		}
		for j := 0; j < 3; j++ {
			if math.Abs(O.R[i][j]-B.R[i][j]) > symEps {
				return false
			}
		}
	}
	return true
}

//wrap maps v into [0, 1).
func wrap(v float64) float64 {
	v -= math.Floor(v)
	if v > 1-1e-9 {
		v = 0
	}
	return v
}

//wrapDiff maps a difference of fractional coordinates into [-0.5, 0.5).
func wrapDiff(d float64) float64 {
	return d - math.Floor(d+0.5)
}

//ParseSymOp parses an operation in the "x+1/2,-y,z" notation.
func ParseSymOp(s string) (SymOp, error) {
	var op SymOp
	comps := strings.Split(strings.ReplaceAll(strings.ToLower(s), " ", ""), ",")
	if len(comps) != 3 {
		return op, pdfgui.NewError(pdfgui.ConfigError, "invalid symmetry operation %q", s)
	}
	for i, c := range comps {
		if err := parseSymComponent(c, &op.R[i], &op.T[i]); err != nil {
			return op, pdfgui.WrapError(pdfgui.ConfigError, err, "invalid symmetry operation %q", s)
		}
	}
	return op, nil
}

func parseSymComponent(c string, row *[3]float64, t *float64) error {
	if c == "" {
		return pdfgui.NewError(pdfgui.ConfigError, "empty component")
	}
	i := 0
	for i < len(c) {
		sign := 1.0
		if c[i] == '+' || c[i] == '-' {
			if c[i] == '-' {
				sign = -1
			}
			i++
		}
		j := i
		for j < len(c) && strings.IndexByte("0123456789./", c[j]) >= 0 {
			j++
		}
		coef := 1.0
		if j > i {
			v, err := parseFraction(c[i:j])
			if err != nil {
				return err
			}
			coef = v
		}
		if j < len(c) && strings.IndexByte("xyz", c[j]) >= 0 {
			row[c[j]-'x'] += sign * coef
			j++
		} else if j == i {
			return pdfgui.NewError(pdfgui.ConfigError, "unexpected %q in %q", c[i:], c)
		} else {
			*t += sign * coef
		}
		i = j
	}
	return nil
}

func parseFraction(s string) (float64, error) {
	if num, den, ok := strings.Cut(s, "/"); ok {
		n, err := strconv.ParseFloat(num, 64)
		if err != nil {
			return 0, err
		}
		d, err := strconv.ParseFloat(den, 64)
		if err != nil || d == 0 {
			return 0, pdfgui.NewError(pdfgui.ConfigError, "invalid fraction %q", s)
		}
		return n / d, nil
	}
	return strconv.ParseFloat(s, 64)
}

//SpaceGroup is a named set of symmetry operations closed under composition.
type SpaceGroup struct {
	Name   string
	System CrystalSystem
	Ops    []SymOp
}

//maximum order of a crystallographic space group in a conventional cell
const maxOrder = 192

//NewSpaceGroup builds a space group from its generators, given in the
//"x+1/2,-y,z" notation.
func NewSpaceGroup(name string, system CrystalSystem, generators ...string) (*SpaceGroup, error) {
	ops := []SymOp{Identity()}
	var gens []SymOp
	for _, g := range generators {
		op, err := ParseSymOp(g)
		if err != nil {
			return nil, err
		}
		gens = append(gens, op)
	}
	for n := 0; n < len(ops); n++ {
		for _, g := range gens {
			p := g.Compose(ops[n])
			found := false
			for _, o := range ops {
				if o.equal(p) {
					found = true
					break
				}
			}
			if !found {
				ops = append(ops, p)
				if len(ops) > maxOrder {
					return nil, pdfgui.NewError(pdfgui.ConfigError, "generators of %s do not form a space group", name)
				}
			}
		}
	}
	return &SpaceGroup{Name: name, System: system, Ops: ops}, nil
}

type sgEntry struct {
	name   string
	system CrystalSystem
	gens   []string
}

var spaceGroupTable = []sgEntry{
	{"P1", Triclinic, nil},
	{"P-1", Triclinic, []string{"-x,-y,-z"}},
	{"P2_1/c", Monoclinic, []string{"-x,y+1/2,-z+1/2", "-x,-y,-z"}},
	{"C2/c", Monoclinic, []string{"-x,y,-z+1/2", "-x,-y,-z", "x+1/2,y+1/2,z"}},
	{"Pmmm", Orthorhombic, []string{"-x,-y,z", "-x,y,-z", "-x,-y,-z"}},
	{"Pnma", Orthorhombic, []string{"-x+1/2,-y,z+1/2", "-x,y+1/2,-z", "-x,-y,-z"}},
	{"P4/mmm", Tetragonal, []string{"-y,x,z", "-x,y,-z", "-x,-y,-z"}},
	{"I4/mmm", Tetragonal, []string{"-y,x,z", "-x,y,-z", "-x,-y,-z", "x+1/2,y+1/2,z+1/2"}},
	{"R-3m", Trigonal, []string{"-y,x-y,z", "y,x,-z", "-x,-y,-z", "x+2/3,y+1/3,z+1/3"}},
	{"P6/mmm", Hexagonal, []string{"x-y,x,z", "y,x,-z", "-x,-y,-z"}},
	{"P6_3/mmc", Hexagonal, []string{"x-y,x,z+1/2", "y,x,-z", "-x,-y,-z"}},
	{"Pm-3m", Cubic, []string{"z,x,y", "-y,x,z", "-x,-y,-z"}},
	{"Fm-3m", Cubic, []string{"z,x,y", "-y,x,z", "-x,-y,-z", "x,y+1/2,z+1/2", "x+1/2,y,z+1/2"}},
	{"Im-3m", Cubic, []string{"z,x,y", "-y,x,z", "-x,-y,-z", "x+1/2,y+1/2,z+1/2"}},
}

func sgKey(name string) string {
	r := strings.NewReplacer(" ", "", "_", "")
	return strings.ToLower(r.Replace(name))
}

//LookupSpaceGroup returns one of the built-in space groups by its
//Hermann-Mauguin symbol. Blanks and underscores are ignored, so "P 21/c"
//and "P2_1/c" are the same group.
func LookupSpaceGroup(name string) (*SpaceGroup, error) {
	key := sgKey(name)
	for _, e := range spaceGroupTable {
		if sgKey(e.name) == key {
			return NewSpaceGroup(e.name, e.system, e.gens...)
		}
	}
	return nil, pdfgui.NewError(pdfgui.KeyError, "unknown space group %q", name)
}

//SpaceGroupNames lists the built-in space groups.
func SpaceGroupNames() []string {
	ret := make([]string, len(spaceGroupTable))
	for i, e := range spaceGroupTable {
		ret[i] = e.name
	}
	return ret
}

//Orbit returns the distinct positions, wrapped into [0,1), equivalent to x,
//along with the operation that produces each one. x itself comes first.
func (G *SpaceGroup) Orbit(x [3]float64) ([][3]float64, []SymOp) {
	var pos [][3]float64
	var ops []SymOp
	for _, o := range G.Ops {
		p := o.Apply(x)
		for i := range p {
			p[i] = wrap(p[i])
		}
		dup := false
		for _, q := range pos {
			if samePosition(p, q) {
				dup = true
				break
			}
		}
		if !dup {
			pos = append(pos, p)
			ops = append(ops, o)
		}
	}
	return pos, ops
}

func samePosition(p, q [3]float64) bool {
	for i := 0; i < 3; i++ {
		if math.Abs(wrapDiff(p[i]-q[i])) > symEps {
			return false
		}
	}
	return true
}
