/*
 * stru.go, part of gopdfgui.
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
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	pdfgui "github.com/rmera/gopdfgui"
)

//fields splits a STRU line on blanks and commas.
func struFields(l string) []string {
	return strings.Fields(strings.ReplaceAll(l, ",", " "))
}

func parseFloats(f []string) ([]float64, error) {
	ret := make([]float64, len(f))
	for i, s := range f {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, err
		}
		ret[i] = v
	}
	return ret, nil
}

//ReadSTRU reads a structure in the PDFfit STRU format.
func ReadSTRU(r io.Reader) (*Structure, error) {
	S := NewStructure()
	var lines []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return nil, pdfgui.WrapError(pdfgui.FileError, err, "reading STRU file")
	}
	bad := func(n int, err error) error {
		return pdfgui.WrapError(pdfgui.FileError, err, "invalid STRU record at line %d: %q", n+1, lines[n])
	}
	i := 0
	for ; i < len(lines); i++ {
		f := struFields(lines[i])
		if len(f) == 0 {
			continue
		}
		key := strings.ToLower(f[0])
		if key == "atoms" {
			i++
			break
		}
		v, err := parseFloats(f[1:])
		switch key {
		case "title":
			S.Title = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(lines[i]), f[0]))
		case "format", "dcell", "ncell":
		case "spcgr":
			S.SpaceGroup = strings.Join(f[1:], "")
		case "scale":
			if err != nil || len(v) < 1 {
				return nil, bad(i, err)
			}
			S.Pscale = v[0]
		case "sharp":
			if err != nil || len(v) < 3 {
				return nil, bad(i, err)
			}
			if len(v) == 3 {
				S.Delta2, S.Sratio, S.Rcut = v[0], v[1], v[2]
			} else {
				S.Delta2, S.Delta1, S.Sratio, S.Rcut = v[0], v[1], v[2], v[3]
			}
		case "shape":
			if len(f) < 3 {
				return nil, bad(i, nil)
			}
			val, err := strconv.ParseFloat(f[2], 64)
			if err != nil {
				return nil, bad(i, err)
			}
			switch strings.ToLower(f[1]) {
			case "sphere":
				S.Spdiameter = val
			case "stepcut":
				S.Stepcut = val
			default:
				return nil, bad(i, nil)
			}
		case "cell":
			if err != nil || len(v) != 6 {
				return nil, bad(i, err)
			}
			S.Lattice = Lattice{v[0], v[1], v[2], v[3], v[4], v[5]}
		default:
			return nil, bad(i, nil)
		}
	}
	var a *Atom
	cont := 0
	for ; i < len(lines); i++ {
		f := struFields(lines[i])
		if len(f) == 0 {
			continue
		}
		if _, err := strconv.ParseFloat(f[0], 64); err != nil {
			if len(f) < 4 {
				return nil, bad(i, nil)
			}
			v, err := parseFloats(f[1:])
			if err != nil {
				return nil, bad(i, err)
			}
			occ := 1.0
			if len(v) > 3 {
				occ = v[3]
			}
			a = NewAtom(pdfgui.NormalizeSymbol(f[0]), [3]float64{v[0], v[1], v[2]}, 0, occ)
			S.Atoms = append(S.Atoms, a)
			cont = 0
			continue
		}
		cont++
		if a == nil || cont > 5 {
			return nil, bad(i, nil)
		}
		v, err := parseFloats(f)
		if err != nil || len(v) < 3 {
			return nil, bad(i, err)
		}
		//continuation lines: sigmas, diagonal U, sigmas, off-diagonal U, sigmas
		switch cont {
		case 2:
			a.U[0][0], a.U[1][1], a.U[2][2] = v[0], v[1], v[2]
		case 4:
			a.U[0][1], a.U[0][2], a.U[1][2] = v[0], v[1], v[2]
			a.U[1][0], a.U[2][0], a.U[2][1] = v[0], v[1], v[2]
		}
		a.Anisotropic = a.U[0][1] != 0 || a.U[0][2] != 0 || a.U[1][2] != 0 ||
			a.U[0][0] != a.U[1][1] || a.U[1][1] != a.U[2][2]
	}
	return S, nil
}

//WriteSTRU writes the structure in the PDFfit STRU format.
func WriteSTRU(S *Structure, w io.Writer) error {
	out := bufio.NewWriter(w)
	l := S.Lattice
	fmt.Fprintf(out, "title  %s\n", S.Title)
	fmt.Fprintf(out, "format pdffit\n")
	fmt.Fprintf(out, "scale  %f\n", S.Pscale)
	fmt.Fprintf(out, "sharp  %f, %f, %f, %f\n", S.Delta2, S.Delta1, S.Sratio, S.Rcut)
	if S.Spdiameter > 0 {
		fmt.Fprintf(out, "shape  sphere, %g\n", S.Spdiameter)
	}
	if S.Stepcut > 0 {
		fmt.Fprintf(out, "shape  stepcut, %g\n", S.Stepcut)
	}
	sg := S.SpaceGroup
	if sg == "" {
		sg = "P1"
	}
	fmt.Fprintf(out, "spcgr  %s\n", sg)
	fmt.Fprintf(out, "cell   %.8g, %.8g, %.8g, %.8g, %.8g, %.8g\n", l.A, l.B, l.C, l.Alpha, l.Beta, l.Gamma)
	fmt.Fprintf(out, "dcell  %f, %f, %f, %f, %f, %f\n", 0., 0., 0., 0., 0., 0.)
	fmt.Fprintf(out, "ncell  %d, %d, %d, %d\n", 1, 1, 1, len(S.Atoms))
	fmt.Fprintf(out, "atoms\n")
	for _, a := range S.Atoms {
		fmt.Fprintf(out, "%-4s %17.8f %17.8f %17.8f %12.4f\n", strings.ToUpper(a.Element), a.XYZ[0], a.XYZ[1], a.XYZ[2], a.Occupancy)
		fmt.Fprintf(out, "     %17.8f %17.8f %17.8f %12.4f\n", 0., 0., 0., 0.)
		fmt.Fprintf(out, "     %17.8f %17.8f %17.8f\n", a.U[0][0], a.U[1][1], a.U[2][2])
		fmt.Fprintf(out, "     %17.8f %17.8f %17.8f\n", 0., 0., 0.)
		fmt.Fprintf(out, "     %17.8f %17.8f %17.8f\n", a.U[0][1], a.U[0][2], a.U[1][2])
		fmt.Fprintf(out, "     %17.8f %17.8f %17.8f\n", 0., 0., 0.)
	}
	return out.Flush()
}
