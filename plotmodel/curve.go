/*
 * curve.go, part of gopdfgui.
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

package plotmodel

import (
	"math"
	"strconv"
	"strings"

	pdfgui "github.com/rmera/gopdfgui"
	"github.com/rmera/gopdfgui/fitting"
	"github.com/rmera/gopdfgui/pdfdata"
	"github.com/rmera/gopdfgui/structure"
	"gonum.org/v1/plot/plotter"
)

//Kind is the shape of a curve.
type Kind int

const (
	//RCurve plots arrays of one dataset or calculation against r.
	RCurve Kind = iota
	//StepCurve plots scalars of one fit along its refinement steps.
	StepCurve
	//ScalarCurve plots a scalar of several entities against their index or
	//another scalar.
	ScalarCurve
)

var rNames = map[string]bool{"r": true, "rcalc": true, "robs": true}

var rArrays = map[string]bool{"Gobs": true, "Gcalc": true, "Gdiff": true, "Gtrunc": true, "crw": true}

//Curve is a set of y series drawn against a common x. IDs are the
//entities the data is taken from: fits, phases, datasets or calculations.
type Curve struct {
	XName  string
	YNames []string
	IDs    []any
	//Steps selects refinement steps, counted from 0; nil means all steps
	//for step curves and the last step otherwise.
	Steps  []int
	Offset float64
	Style  string
	kind   Kind
	//Data holds one series per y name.
	Data []plotter.XYs
}

//NewCurve validates the combination of names and entities and returns the
//curve, without data.
func NewCurve(xName string, yNames []string, ids []any, steps []int, offset float64, style string) (*Curve, error) {
	C := &Curve{XName: xName, YNames: append([]string(nil), yNames...), IDs: append([]any(nil), ids...), Steps: append([]int(nil), steps...), Offset: offset, Style: style}
	if len(yNames) == 0 {
		return nil, pdfgui.NewError(pdfgui.ConfigError, "a curve needs at least one y")
	}
	if len(ids) == 0 {
		return nil, pdfgui.NewError(pdfgui.ConfigError, "a curve needs at least one entity")
	}
	switch {
	case rNames[xName]:
		C.kind = RCurve
		for _, y := range yNames {
			if !rArrays[y] {
				return nil, pdfgui.NewError(pdfgui.ConfigError, "%s cannot be plotted against %s", y, xName)
			}
		}
		if len(ids) != 1 || len(steps) > 1 {
			return nil, pdfgui.NewError(pdfgui.ConfigError, "%s curves take a single entity and a single step", xName)
		}
		switch ids[0].(type) {
		case *pdfdata.DataSet, *pdfdata.Calculation:
		default:
			return nil, pdfgui.NewError(pdfgui.TypeError, "cannot plot %T against %s", ids[0], xName)
		}
	case xName == "step":
		C.kind = StepCurve
		if len(ids) != 1 {
			return nil, pdfgui.NewError(pdfgui.ConfigError, "step curves take a single fit")
		}
		if _, ok := ids[0].(*fitting.Fitting); !ok {
			return nil, pdfgui.NewError(pdfgui.TypeError, "cannot plot %T against steps", ids[0])
		}
		for _, y := range yNames {
			if rArrays[y] || rNames[y] {
				return nil, pdfgui.NewError(pdfgui.ConfigError, "%s is not a scalar", y)
			}
		}
	default:
		C.kind = ScalarCurve
		if rArrays[xName] {
			return nil, pdfgui.NewError(pdfgui.ConfigError, "%s is not a scalar", xName)
		}
		for _, y := range yNames {
			if rArrays[y] || rNames[y] || y == "step" {
				return nil, pdfgui.NewError(pdfgui.ConfigError, "%s is not a scalar", y)
			}
		}
		for _, id := range ids {
			switch id.(type) {
			case *fitting.Fitting, *structure.FitStructure, *pdfdata.DataSet, *pdfdata.Calculation:
			default:
				return nil, pdfgui.NewError(pdfgui.TypeError, "cannot plot %T", id)
			}
		}
	}
	return C, nil
}

//Kind returns the shape of the curve.
func (C *Curve) Kind() Kind {
	return C.kind
}

//Refers reports whether the curve takes data from entity, directly or
//through the fit that owns it.
func (C *Curve) Refers(entity any) bool {
	for _, id := range C.IDs {
		if id == entity {
			return true
		}
	}
	f, ok := entity.(*fitting.Fitting)
	if !ok {
		return false
	}
	for _, id := range C.IDs {
		switch v := id.(type) {
		case *pdfdata.DataSet:
			for _, d := range f.DataSets() {
				if d == v {
					return true
				}
			}
		case *pdfdata.Calculation:
			for _, c := range f.Calculations() {
				if c == v {
					return true
				}
			}
		case *structure.FitStructure:
			for _, p := range f.Phases() {
				if p == v {
					return true
				}
			}
		}
	}
	return false
}

//Update recomputes the data of the curve from its entities.
func (C *Curve) Update() error {
	var data []plotter.XYs
	var err error
	switch C.kind {
	case RCurve:
		data, err = C.rData()
	case StepCurve:
		data, err = C.stepData()
	default:
		data, err = C.scalarData()
	}
	if err != nil {
		return err
	}
	for _, xy := range data {
		for i := range xy {
			xy[i].Y += C.Offset
		}
	}
	C.Data = data
	return nil
}

func (C *Curve) rData() ([]plotter.XYs, error) {
	var x []float64
	arrays := make(map[string][]float64)
	switch v := C.IDs[0].(type) {
	case *pdfdata.DataSet:
		if C.XName == "robs" {
			x = v.Robs
		} else {
			x = v.Rcalc
		}
		arrays["Gobs"] = v.Gobs
		arrays["Gcalc"] = v.Gcalc
		arrays["Gdiff"] = v.Gdiff()
		arrays["Gtrunc"] = v.Gtrunc
		arrays["crw"] = v.Crw()
	case *pdfdata.Calculation:
		x = v.Rcalc
		arrays["Gcalc"] = v.Gcalc
	}
	ret := make([]plotter.XYs, len(C.YNames))
	for k, y := range C.YNames {
		ys := arrays[y]
		if len(ys) == 0 {
			ret[k] = plotter.XYs{}
			continue
		}
		if len(ys) != len(x) {
			return nil, pdfgui.NewError(pdfgui.ConfigError, "%s and %s have different lengths", C.XName, y)
		}
		xy := make(plotter.XYs, len(x))
		for i := range x {
			xy[i].X, xy[i].Y = x[i], ys[i]
		}
		ret[k] = xy
	}
	return ret, nil
}

func (C *Curve) stepData() ([]plotter.XYs, error) {
	f := C.IDs[0].(*fitting.Fitting)
	steps := C.Steps
	if steps == nil {
		n := f.Steps()
		steps = make([]int, n)
		for i := range steps {
			steps[i] = i
		}
	}
	ret := make([]plotter.XYs, len(C.YNames))
	for k, y := range C.YNames {
		xy := make(plotter.XYs, 0, len(steps))
		for _, s := range steps {
			v, err := f.GetData(y, s)
			if err != nil {
				return nil, err
			}
			xy = append(xy, plotter.XY{X: float64(s), Y: v})
		}
		ret[k] = xy
	}
	return ret, nil
}

func (C *Curve) step() int {
	if len(C.Steps) > 0 {
		return C.Steps[0]
	}
	return -1
}

func (C *Curve) scalarData() ([]plotter.XYs, error) {
	xs := make([]float64, len(C.IDs))
	for i, id := range C.IDs {
		if C.XName == "index" {
			xs[i] = float64(i)
			continue
		}
		v, err := Scalar(id, C.XName, C.step())
		if err != nil {
			return nil, err
		}
		xs[i] = v
	}
	ret := make([]plotter.XYs, len(C.YNames))
	for k, y := range C.YNames {
		xy := make(plotter.XYs, 0, len(C.IDs))
		for i, id := range C.IDs {
			v, err := Scalar(id, y, C.step())
			if err != nil {
				return nil, err
			}
			xy = append(xy, plotter.XY{X: xs[i], Y: v})
		}
		ret[k] = xy
	}
	return ret, nil
}

//Scalar returns the value called name of an entity: a variable, a metadata
//entry ("temperature", "doping"), "rw", or for fits a parameter "@N" at
//a refinement step. Missing values are NaN.
func Scalar(entity any, name string, step int) (float64, error) {
	switch v := entity.(type) {
	case *fitting.Fitting:
		if v.Steps() == 0 {
			if name == "rw" {
				return math.NaN(), nil
			}
			if strings.HasPrefix(name, "@") {
				idx, err := strconv.Atoi(name[1:])
				if err != nil {
					return 0, pdfgui.NewError(pdfgui.ConfigError, "invalid parameter name %q", name)
				}
				if p, ok := v.Parameter(idx); ok {
					return p.Value()
				}
				return 0, pdfgui.NewError(pdfgui.KeyError, "fit %s has no parameter %s", v.Name(), name)
			}
		}
		return v.GetData(name, step)
	case *structure.FitStructure:
		return v.GetVar(name)
	case *pdfdata.DataSet:
		if name == "rw" {
			return v.Rw(), nil
		}
		if m, ok := v.Metadata[name]; ok {
			return m, nil
		}
		if name == "temperature" || name == "doping" {
			return math.NaN(), nil
		}
		if r, ok := v.Refined[name]; ok {
			return r, nil
		}
		return v.GetVar(name)
	case *pdfdata.Calculation:
		switch name {
		case "qmax":
			return v.Qmax, nil
		case "qdamp":
			return v.Qdamp, nil
		case "qbroad":
			return v.Qbroad, nil
		case "dscale":
			return v.Dscale, nil
		}
		return 0, pdfgui.NewError(pdfgui.KeyError, "calculation has no value %q", name)
	}
	return 0, pdfgui.NewError(pdfgui.TypeError, "cannot read %q from %T", name, entity)
}
