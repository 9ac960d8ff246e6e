/*
 * engine.go, part of gopdfgui.
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

package fitting

import (
	"context"
	"sort"

	pdfgui "github.com/rmera/gopdfgui"
	"github.com/rmera/gopdfgui/param"
	"github.com/rmera/gopdfgui/pdfdata"
	"github.com/rmera/gopdfgui/structure"
)

//ParamSpec is a parameter as handed to an engine.
type ParamSpec struct {
	Index int
	Value float64
	Fixed bool
}

//Progress is reported by an engine after each refinement step.
type Progress struct {
	Step   int
	Rw     float64
	Values map[int]float64
}

//Problem is a refinement job. Phases and DataSets are copies owned by the
//engine for the duration of the refinement.
type Problem struct {
	Phases   []*structure.FitStructure
	DataSets []*pdfdata.DataSet
	Params   []ParamSpec
}

//Free returns the indices of the parameters that are refined.
func (P *Problem) Free() []int {
	var ret []int
	for _, p := range P.Params {
		if !p.Fixed {
			ret = append(ret, p.Index)
		}
	}
	return ret
}

//Initial returns the starting values of the free parameters, in the order
//of Free.
func (P *Problem) Initial() []float64 {
	var ret []float64
	for _, p := range P.Params {
		if !p.Fixed {
			ret = append(ret, p.Value)
		}
	}
	return ret
}

//Values maps a vector of free parameter values, in the order of Free, to a
//map of every parameter value.
func (P *Problem) Values(x []float64) map[int]float64 {
	ret := make(map[int]float64, len(P.Params))
	n := 0
	for _, p := range P.Params {
		if p.Fixed || n >= len(x) {
			ret[p.Index] = p.Value
			continue
		}
		ret[p.Index] = x[n]
		n++
	}
	return ret
}

//Apply evaluates every constraint of the phases and datasets with values.
func (P *Problem) Apply(values map[int]float64) error {
	for _, s := range P.Phases {
		if err := s.ApplyParameters(values); err != nil {
			return err
		}
	}
	for _, d := range P.DataSets {
		if err := d.ApplyParameters(values); err != nil {
			return err
		}
	}
	return nil
}

//constrained is implemented by phases and datasets.
type constrained interface {
	ConstraintKeys() []string
	Constraint(name string) (*param.Constraint, bool)
}

//usedIndices returns the parameter indices used by the constraints of e.
func usedIndices(e constrained) []int {
	var ret []int
	for _, k := range e.ConstraintKeys() {
		c, _ := e.Constraint(k)
		ret = append(ret, c.Indices()...)
	}
	return ret
}

//check verifies that every parameter a constraint uses is defined.
func (P *Problem) check() error {
	defined := make(map[int]bool, len(P.Params))
	for _, p := range P.Params {
		defined[p.Index] = true
	}
	var used []int
	for _, s := range P.Phases {
		used = append(used, usedIndices(s)...)
	}
	for _, d := range P.DataSets {
		used = append(used, usedIndices(d)...)
	}
	missing := make(map[int]bool)
	for _, i := range used {
		if !defined[i] {
			missing[i] = true
		}
	}
	if len(missing) > 0 {
		idx := make([]int, 0, len(missing))
		for i := range missing {
			idx = append(idx, i)
		}
		sort.Ints(idx)
		return pdfgui.NewError(pdfgui.KeyError, "constraints use undefined parameters %v", idx)
	}
	return nil
}

//Result is the outcome of a refinement.
type Result struct {
	Values map[int]float64
	Rw     float64
	//refined structure of each phase
	Phases []*structure.Structure
	//datasets with the calculated PDF and refined variables
	DataSets []*pdfdata.DataSet
}

//Engine refines fits and computes PDFs. Engines must return promptly, with
//ctx.Err(), once ctx is cancelled.
type Engine interface {
	Refine(ctx context.Context, p *Problem, progress func(Progress)) (*Result, error)
	//Calculate returns G(r) on the grid of c for the given phases.
	Calculate(ctx context.Context, phases []*structure.FitStructure, c *pdfdata.Calculation) ([]float64, error)
}
