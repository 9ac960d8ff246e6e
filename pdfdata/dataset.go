/*
 * dataset.go, part of gopdfgui.
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
	"sort"
	"strings"

	pdfgui "github.com/rmera/gopdfgui"
	"github.com/rmera/gopdfgui/param"
	"gonum.org/v1/gonum/floats"
)

//SamplingMode selects how the calculation grid of a DataSet is built.
type SamplingMode string

const (
	SamplingData    SamplingMode = "data"
	SamplingNyquist SamplingMode = "Nyquist"
	SamplingCustom  SamplingMode = "custom"
)

//ParseSampling returns the sampling mode named s.
func ParseSampling(s string) (SamplingMode, error) {
	switch strings.ToLower(s) {
	case "data", "":
		return SamplingData, nil
	case "nyquist":
		return SamplingNyquist, nil
	case "custom":
		return SamplingCustom, nil
	}
	return "", pdfgui.NewError(pdfgui.ConfigError, "unknown sampling mode %q", s)
}

var dataSetVars = []string{"dscale", "qdamp", "qbroad"}

//DataSet is an observed PDF with the instrument settings needed to compute
//the model, the fit range and sampling, and the calculated curves.
type DataSet struct {
	name     string
	Filename string
	Stype    string
	Qmax     float64
	Qdamp    float64
	Qbroad   float64
	Dscale   float64
	Robs     []float64
	Gobs     []float64
	DRobs    []float64
	DGobs    []float64
	Metadata map[string]float64

	//Spdiameter is only set by old projects, and is moved to a phase on load.
	Spdiameter float64

	//Refined holds the refined values of the dataset variables.
	Refined map[string]float64

	fitrmin  float64
	fitrmax  float64
	fitrstep float64
	sampling SamplingMode

	Rcalc   []float64
	Gcalc   []float64
	DGcalc  []float64
	Gtrunc  []float64
	DGtrunc []float64

	constraints map[string]*param.Constraint
}

//NewDataSet returns an empty neutron dataset.
func NewDataSet(name string) *DataSet {
	return &DataSet{
		name:        name,
		Stype:       "N",
		Dscale:      1,
		Metadata:    make(map[string]float64),
		Refined:     make(map[string]float64),
		sampling:    SamplingData,
		constraints: make(map[string]*param.Constraint),
	}
}

func (D *DataSet) Name() string { return D.name }

//SetName renames the dataset. Uniqueness is checked by the owner.
func (D *DataSet) SetName(name string) { D.name = name }

//Len returns the number of observed points.
func (D *DataSet) Len() int { return len(D.Robs) }

//SetObserved replaces the observed data. dr and dg may be nil, in which case
//they are zero. r must be ascending. The fit range is reset to the whole data
//and the calculation grid is rebuilt.
func (D *DataSet) SetObserved(r, g, dr, dg []float64) error {
	n := len(r)
	if len(g) != n || (dr != nil && len(dr) != n) || (dg != nil && len(dg) != n) {
		return pdfgui.NewError(pdfgui.ConfigError, "observed arrays of different lengths")
	}
	for i := 1; i < n; i++ {
		if r[i] <= r[i-1] {
			return pdfgui.NewError(pdfgui.ConfigError, "r values must be ascending")
		}
	}
	if dr == nil {
		dr = make([]float64, n)
	}
	if dg == nil {
		dg = make([]float64, n)
	}
	D.Robs, D.Gobs, D.DRobs, D.DGobs = r, g, dr, dg
	if n == 0 {
		D.fitrmin, D.fitrmax, D.fitrstep = 0, 0, 0
		D.Rcalc, D.Gcalc, D.DGcalc, D.Gtrunc, D.DGtrunc = nil, nil, nil, nil, nil
		return nil
	}
	D.fitrmin, D.fitrmax = r[0], r[n-1]
	if D.sampling == SamplingCustom && D.fitrstep > 0 {
		D.updateRcalcSampling()
		return nil
	}
	if D.sampling == SamplingNyquist && D.Qmax <= 0 {
		D.sampling = SamplingData
	}
	D.setStep()
	D.updateRcalcSampling()
	return nil
}

//FitRange returns fitrmin, fitrmax and fitrstep.
func (D *DataSet) FitRange() (rmin, rmax, rstep float64) {
	return D.fitrmin, D.fitrmax, D.fitrstep
}

//SetFitRange sets the fit range. Values beyond the observed data are clamped
//to it; an empty resulting range is a ConfigError.
func (D *DataSet) SetFitRange(rmin, rmax float64) error {
	n := len(D.Robs)
	if n == 0 {
		return pdfgui.NewError(pdfgui.ConfigError, "dataset %q has no data", D.name)
	}
	rmin = math.Max(rmin, D.Robs[0])
	rmax = math.Min(rmax, D.Robs[n-1])
	if rmin >= rmax {
		return pdfgui.NewError(pdfgui.ConfigError, "fit range [%g, %g] is empty", rmin, rmax)
	}
	D.fitrmin, D.fitrmax = rmin, rmax
	if D.sampling == SamplingData {
		D.setStep()
	}
	D.updateRcalcSampling()
	return nil
}

//SetFitRmin sets the lower end of the fit range.
func (D *DataSet) SetFitRmin(v float64) error {
	return D.SetFitRange(v, D.fitrmax)
}

//SetFitRmax sets the upper end of the fit range.
func (D *DataSet) SetFitRmax(v float64) error {
	return D.SetFitRange(D.fitrmin, v)
}

//Sampling returns the sampling mode.
func (D *DataSet) Sampling() SamplingMode {
	return D.sampling
}

//SetFitSamplingType sets the sampling mode. Custom sampling needs a positive
//step, Nyquist sampling a positive Qmax.
func (D *DataSet) SetFitSamplingType(mode SamplingMode, step ...float64) error {
	switch mode {
	case SamplingData:
	case SamplingNyquist:
		if D.Qmax <= 0 {
			return pdfgui.NewError(pdfgui.ConfigError, "Nyquist sampling needs qmax > 0")
		}
	case SamplingCustom:
		if len(step) == 0 || step[0] <= 0 {
			return pdfgui.NewError(pdfgui.ConfigError, "custom sampling needs a positive step")
		}
	default:
		return pdfgui.NewError(pdfgui.ConfigError, "unknown sampling mode %q", mode)
	}
	D.sampling = mode
	if mode == SamplingCustom {
		D.fitrstep = step[0]
	} else {
		D.setStep()
	}
	D.updateRcalcSampling()
	return nil
}

//setStep derives fitrstep from the sampling mode.
func (D *DataSet) setStep() {
	switch D.sampling {
	case SamplingNyquist:
		D.fitrstep = math.Pi / D.Qmax
	case SamplingData:
		n := len(D.Robs)
		if n > 1 {
			D.fitrstep = (D.Robs[n-1] - D.Robs[0]) / float64(n-1)
		}
	}
}

//updateRcalcSampling rebuilds the calculation grid and drops the stale
//calculated curve.
func (D *DataSet) updateRcalcSampling() {
	D.Gcalc, D.DGcalc = nil, nil
	D.Rcalc = nil
	if len(D.Robs) == 0 || D.fitrstep <= 0 {
		return
	}
	if D.sampling == SamplingData {
		eps := 1e-8 * D.fitrstep
		for _, r := range D.Robs {
			if r >= D.fitrmin-eps && r <= D.fitrmax+eps {
				D.Rcalc = append(D.Rcalc, r)
			}
		}
	} else {
		n := int(math.Floor((D.fitrmax-D.fitrmin)/D.fitrstep+1e-8)) + 1
		D.Rcalc = make([]float64, n)
		for i := range D.Rcalc {
			D.Rcalc[i] = D.fitrmin + float64(i)*D.fitrstep
		}
	}
	D.ResampledObs()
}

//ResampledObs resamples the observed G and dG onto the calculation grid,
//stores them in Gtrunc and DGtrunc and returns them. Data sampling copies the
//observed points; evenly spaced data is resampled with a truncated sinc
//and uneven data linearly.
func (D *DataSet) ResampledObs() (g, dg []float64) {
	switch {
	case len(D.Rcalc) == 0:
		g, dg = nil, nil
	case D.sampling == SamplingData:
		i0 := sort.SearchFloat64s(D.Robs, D.Rcalc[0]-1e-8*D.fitrstep)
		g = append([]float64(nil), D.Gobs[i0:i0+len(D.Rcalc)]...)
		dg = append([]float64(nil), D.DGobs[i0:i0+len(D.Rcalc)]...)
	case evenlySpaced(D.Robs):
		g = SincInterpolation(D.Robs, D.Gobs, D.Rcalc, SincWindow, 0, 0)
		dg = SincInterpolation(D.Robs, D.DGobs, D.Rcalc, SincWindow, 0, 0)
	default:
		g = GridInterpolation(D.Robs, D.Gobs, D.Rcalc, 0, 0)
		dg = GridInterpolation(D.Robs, D.DGobs, D.Rcalc, 0, 0)
	}
	D.Gtrunc, D.DGtrunc = g, dg
	return g, dg
}

//Weights returns the fit weights on the calculation grid: 1/dG² where the
//uncertainty is positive, 1 where it is not.
func (D *DataSet) Weights() []float64 {
	w := make([]float64, len(D.Gtrunc))
	for i := range w {
		w[i] = 1
		if i < len(D.DGtrunc) && D.DGtrunc[i] > 0 {
			w[i] = 1 / (D.DGtrunc[i] * D.DGtrunc[i])
		}
	}
	return w
}

//Gdiff returns Gtrunc - Gcalc, or nil if there is no calculated curve.
func (D *DataSet) Gdiff() []float64 {
	if len(D.Gcalc) != len(D.Gtrunc) || len(D.Gcalc) == 0 {
		return nil
	}
	ret := make([]float64, len(D.Gcalc))
	floats.SubTo(ret, D.Gtrunc, D.Gcalc)
	return ret
}

//Crw returns the cumulative weighted residual along the calculation grid.
//Its last value is Rw.
func (D *DataSet) Crw() []float64 {
	diff := D.Gdiff()
	if diff == nil {
		return nil
	}
	w := D.Weights()
	norm := 0.0
	for i, g := range D.Gtrunc {
		norm += w[i] * g * g
	}
	ret := make([]float64, len(diff))
	if norm == 0 {
		return ret
	}
	acc := 0.0
	for i, d := range diff {
		acc += w[i] * d * d
		ret[i] = math.Sqrt(acc / norm)
	}
	return ret
}

//Rw returns the weighted residual of the calculated curve, or NaN.
func (D *DataSet) Rw() float64 {
	c := D.Crw()
	if len(c) == 0 {
		return math.NaN()
	}
	return c[len(c)-1]
}

//GetVar returns the value of a dataset variable.
func (D *DataSet) GetVar(name string) (float64, error) {
	switch name {
	case "dscale":
		return D.Dscale, nil
	case "qdamp":
		return D.Qdamp, nil
	case "qbroad":
		return D.Qbroad, nil
	case "spdiameter":
		return D.Spdiameter, nil
	}
	return 0, pdfgui.NewError(pdfgui.ConfigError, "invalid dataset variable %q", name)
}

//SetVar sets a dataset variable.
func (D *DataSet) SetVar(name string, v float64) error {
	switch name {
	case "dscale":
		D.Dscale = v
	case "qdamp":
		D.Qdamp = v
	case "qbroad":
		D.Qbroad = v
	case "spdiameter":
		D.Spdiameter = v
	default:
		return pdfgui.NewError(pdfgui.ConfigError, "invalid dataset variable %q", name)
	}
	return nil
}

//ListVars returns the constrainable dataset variables.
func (D *DataSet) ListVars() []string {
	return append([]string(nil), dataSetVars...)
}

//SetConstraint constrains a dataset variable to a formula. "spdiameter" is
//accepted for old projects only; it is moved to a phase on load.
func (D *DataSet) SetConstraint(name, formula string) error {
	if _, err := D.GetVar(name); err != nil {
		return err
	}
	c, err := param.NewConstraint(formula)
	if err != nil {
		return pdfgui.ErrDecorate(err, "DataSet.SetConstraint")
	}
	D.constraints[name] = c
	return nil
}

//Constraint returns the constraint of a variable, if any.
func (D *DataSet) Constraint(name string) (*param.Constraint, bool) {
	c, ok := D.constraints[name]
	return c, ok
}

//RemoveConstraint removes the constraint of a variable.
func (D *DataSet) RemoveConstraint(name string) {
	delete(D.constraints, name)
}

//ConstraintKeys returns the constrained variable names, sorted.
func (D *DataSet) ConstraintKeys() []string {
	keys := make([]string, 0, len(D.constraints))
	for k := range D.constraints {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

//RenumberParameters renumbers the parameter references in all constraints.
func (D *DataSet) RenumberParameters(mapping map[int]int) error {
	for k, c := range D.constraints {
		nc, err := c.Renumber(mapping)
		if err != nil {
			return err
		}
		D.constraints[k] = nc
	}
	return nil
}

//ApplyParameters evaluates the constraints with the given parameter values
//and sets the constrained variables.
func (D *DataSet) ApplyParameters(values map[int]float64) error {
	for _, k := range D.ConstraintKeys() {
		v, err := D.constraints[k].Evaluate(values)
		if err != nil {
			return pdfgui.ErrDecorate(err, "DataSet.ApplyParameters "+k)
		}
		if err := D.SetVar(k, v); err != nil {
			return err
		}
	}
	return nil
}

//FindParameters guesses parameter values from the current variable values,
//for the constraints that are linear in a single parameter.
func (D *DataSet) FindParameters() map[int]float64 {
	ret := make(map[int]float64)
	for _, k := range D.ConstraintKeys() {
		v, _ := D.GetVar(k)
		for idx, g := range D.constraints[k].Guess(v) {
			if _, ok := ret[idx]; !ok {
				ret[idx] = g
			}
		}
	}
	return ret
}

//Copy returns a deep copy of the dataset.
func (D *DataSet) Copy() *DataSet {
	ret := *D
	ret.Robs = cp(D.Robs)
	ret.Gobs = cp(D.Gobs)
	ret.DRobs = cp(D.DRobs)
	ret.DGobs = cp(D.DGobs)
	ret.Rcalc = cp(D.Rcalc)
	ret.Gcalc = cp(D.Gcalc)
	ret.DGcalc = cp(D.DGcalc)
	ret.Gtrunc = cp(D.Gtrunc)
	ret.DGtrunc = cp(D.DGtrunc)
	ret.Metadata = make(map[string]float64, len(D.Metadata))
	for k, v := range D.Metadata {
		ret.Metadata[k] = v
	}
	ret.Refined = make(map[string]float64, len(D.Refined))
	for k, v := range D.Refined {
		ret.Refined[k] = v
	}
	ret.constraints = make(map[string]*param.Constraint, len(D.constraints))
	for k, v := range D.constraints {
		ret.constraints[k] = v
	}
	return &ret
}

//RestoreFitSettings sets the fit range, sampling mode and step saved in a
//project without clamping. The calculation grid is rebuilt.
func (D *DataSet) RestoreFitSettings(rmin, rmax, rstep float64, mode SamplingMode) error {
	if _, err := ParseSampling(string(mode)); err != nil {
		return err
	}
	if len(D.Robs) > 0 && rmin >= rmax {
		return pdfgui.NewError(pdfgui.ConfigError, "fit range [%g, %g] is empty", rmin, rmax)
	}
	D.fitrmin, D.fitrmax, D.fitrstep, D.sampling = rmin, rmax, rstep, mode
	gcalc, dgcalc := D.Gcalc, D.DGcalc
	D.updateRcalcSampling()
	if len(gcalc) == len(D.Rcalc) {
		D.Gcalc, D.DGcalc = gcalc, dgcalc
	}
	return nil
}

func cp(s []float64) []float64 {
	if s == nil {
		return nil
	}
	return append([]float64(nil), s...)
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
