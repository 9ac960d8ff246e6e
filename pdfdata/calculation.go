/*
 * calculation.go, part of gopdfgui.
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

package pdfdata

import (
	"math"

	pdfgui "github.com/rmera/gopdfgui"
)

//Calculation is a PDF computed from the phases of a fit on an explicit grid.
//Calculations cannot be constrained.
type Calculation struct {
	name   string
	Stype  string
	Qmax   float64
	Qdamp  float64
	Qbroad float64
	Dscale float64

	//Spdiameter is only set by old projects, and is moved to a phase on load.
	Spdiameter float64

	rmin, rstep, rmax float64
	Rcalc             []float64
	Gcalc             []float64
}

//NewCalculation returns a neutron calculation on the grid 0.01:0.01:10.
func NewCalculation(name string) *Calculation {
	C := &Calculation{name: name, Stype: "N", Dscale: 1}
	if err := C.SetRGrid(0.01, 0.01, 10); err != nil {
		panic(err)
	}
	return C
}

func (C *Calculation) Name() string { return C.name }

//SetName renames the calculation. Uniqueness is checked by the owner.
func (C *Calculation) SetName(name string) { C.name = name }

//RGrid returns rmin, rstep and rmax.
func (C *Calculation) RGrid() (rmin, rstep, rmax float64) {
	return C.rmin, C.rstep, C.rmax
}

//Rlen returns the number of grid points.
func (C *Calculation) Rlen() int {
	return len(C.Rcalc)
}

//SetRGrid sets the calculation grid. rmax is adjusted so that it lies on the
//grid: rlen = round((rmax-rmin)/rstep)+1 and rmax = rmin+(rlen-1)*rstep.
func (C *Calculation) SetRGrid(rmin, rstep, rmax float64) error {
	if rstep <= 0 {
		return pdfgui.NewError(pdfgui.ConfigError, "rstep must be positive")
	}
	if rmin < 0 || rmax <= rmin {
		return pdfgui.NewError(pdfgui.ConfigError, "invalid calculation range [%g, %g]", rmin, rmax)
	}
	rlen := int(math.Round((rmax-rmin)/rstep)) + 1
	C.rmin, C.rstep = rmin, rstep
	C.rmax = rmin + float64(rlen-1)*rstep
	C.Rcalc = make([]float64, rlen)
	for i := range C.Rcalc {
		C.Rcalc[i] = rmin + float64(i)*rstep
	}
	C.Gcalc = nil
	return nil
}

//SetConstraint always fails: calculations are not refined.
func (C *Calculation) SetConstraint(name, formula string) error {
	return pdfgui.NewError(pdfgui.StatusError, "calculation %q cannot be constrained", C.name)
}

//Copy returns a deep copy of the calculation.
func (C *Calculation) Copy() *Calculation {
	ret := *C
	ret.Rcalc = cp(C.Rcalc)
	ret.Gcalc = cp(C.Gcalc)
	return &ret
}
