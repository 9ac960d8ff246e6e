/*
 * xyz.go, part of gopdfgui.
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

//ReadXYZ reads an XYZ file: the number of atoms, a title line and one
//"Symbol x y z" line per atom, in cartesian Å. The structure gets a unit
//cubic lattice, so fractional and cartesian coordinates coincide.
func ReadXYZ(r io.Reader) (*Structure, error) {
	xyz := bufio.NewScanner(r)
	if !xyz.Scan() {
		return nil, pdfgui.NewError(pdfgui.FileError, "ill formatted XYZ file: empty")
	}
	natoms, err := strconv.Atoi(strings.TrimSpace(xyz.Text()))
	if err != nil || natoms < 0 {
		return nil, pdfgui.NewError(pdfgui.FileError, "ill formatted XYZ file: bad atom count %q", xyz.Text())
	}
	S := NewStructure()
	if xyz.Scan() {
		S.Title = strings.TrimSpace(xyz.Text())
	}
	for i := 0; i < natoms; i++ {
		if !xyz.Scan() {
			return nil, pdfgui.NewError(pdfgui.FileError, "ill formatted XYZ file: expected %d atoms, found %d", natoms, i)
		}
		fields := strings.Fields(xyz.Text())
		if len(fields) < 4 {
			return nil, pdfgui.NewError(pdfgui.FileError, "line number %d of XYZ file ill formed", i+3)
		}
		var c [3]float64
		for j := range c {
			c[j], err = strconv.ParseFloat(fields[j+1], 64)
			if err != nil {
				return nil, pdfgui.WrapError(pdfgui.FileError, err, "line number %d of XYZ file ill formed", i+3)
			}
		}
		S.Atoms = append(S.Atoms, NewAtom(pdfgui.NormalizeSymbol(fields[0]), c, 0, 1))
	}
	if err := xyz.Err(); err != nil {
		return nil, pdfgui.WrapError(pdfgui.FileError, err, "reading XYZ file")
	}
	return S, nil
}

//WriteXYZ writes the structure in cartesian coordinates.
func WriteXYZ(S *Structure, out io.Writer) error {
	if _, err := fmt.Fprintf(out, "%-4d\n%s\n", len(S.Atoms), S.Title); err != nil {
		return err
	}
	for _, a := range S.Atoms {
		c := S.Lattice.Cartesian(a.XYZ)
		_, err := fmt.Fprintf(out, "%-2s  %8.3f%8.3f%8.3f \n", a.Element, c[0], c[1], c[2])
		if err != nil {
			return err
		}
	}
	return nil
}
