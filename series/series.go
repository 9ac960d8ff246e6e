/*
 * series.go, part of gopdfgui.
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

//Package series builds families of fits derived from a prototype fit: fit
//range series, temperature series and doping series. Every new fit is a
//stripped copy of the prototype whose parameters are linked to the previous
//fit of the series, so each refinement starts where the last one ended.
package series

import (
	"context"
	"math"
	"path/filepath"
	"runtime"
	"strconv"

	pdfgui "github.com/rmera/gopdfgui"
	"github.com/rmera/gopdfgui/fitting"
	"github.com/rmera/gopdfgui/pdfdata"
	"github.com/rmera/gopdfgui/project"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

//Range is an ascending arithmetic sequence from First to Last, both
//included when Last falls on the grid.
type Range struct {
	First, Last, Step float64
}

//values expands the range. A nil range expands to nil.
func (R *Range) values(what string) ([]float64, error) {
	if R == nil {
		return nil, nil
	}
	if R.Step <= 0 {
		return nil, pdfgui.NewError(pdfgui.ConfigError, "%s step must be positive", what)
	}
	if R.First >= R.Last {
		return nil, pdfgui.NewError(pdfgui.ConfigError, "%s range: first value %g must be below last value %g", what, R.First, R.Last)
	}
	n := int(math.Floor((R.Last-R.First)/R.Step+1e-9)) + 1
	ret := make([]float64, n)
	for i := range ret {
		ret[i] = R.First + float64(i)*R.Step
	}
	return ret, nil
}

func fmtf(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

//chain inserts each fit after the previous one, links its parameters to
//that fit and returns the fits that made it into the project.
func chain(P *project.Project, proto *fitting.Fitting, fits []*fitting.Fitting) ([]*fitting.Fitting, error) {
	prev := proto.Name()
	ret := make([]*fitting.Fitting, 0, len(fits))
	for _, f := range fits {
		f.SetName(P.UniqueName(f.Name()))
		if err := P.Insert(f, P.Index(prev)+1); err != nil {
			return ret, pdfgui.ErrDecorate(err, "series.chain")
		}
		for _, p := range f.Parameters() {
			if _, err := f.SetParameter(p.Index, "="+prev); err != nil {
				return ret, pdfgui.ErrDecorate(err, "series.chain")
			}
		}
		ret = append(ret, f)
		prev = f.Name()
	}
	return ret, nil
}

func checkProto(P *project.Project, proto *fitting.Fitting) error {
	if proto == nil {
		return pdfgui.NewError(pdfgui.TypeError, "nil prototype fit")
	}
	if f, ok := P.Fit(proto.Name()); !ok || f != proto {
		return pdfgui.NewError(pdfgui.KeyError, "fit %s is not in the project", proto.Name())
	}
	return nil
}

//MakeRSeries appends to the project a series of copies of proto whose fit
//ranges step through the given upper (max) and lower (min) limits. A nil
//range leaves that limit of every dataset unchanged. When both are given
//the series is as long as the shorter one. Nothing is created unless every
//fit range of the series lies within the observed data.
func MakeRSeries(P *project.Project, proto *fitting.Fitting, max, min *Range) ([]*fitting.Fitting, error) {
	if err := checkProto(P, proto); err != nil {
		return nil, err
	}
	if max == nil && min == nil {
		return nil, pdfgui.NewError(pdfgui.ConfigError, "r-series needs a range for fitrmin or fitrmax")
	}
	maxv, err := max.values("fitrmax")
	if err != nil {
		return nil, err
	}
	minv, err := min.values("fitrmin")
	if err != nil {
		return nil, err
	}
	n := len(maxv)
	switch {
	case max == nil:
		n = len(minv)
	case min != nil:
		if max.First <= min.First || max.Last <= min.Last {
			return nil, pdfgui.NewError(pdfgui.ConfigError, "fitrmax range [%g, %g] must lie above fitrmin range [%g, %g]", max.First, max.Last, min.First, min.Last)
		}
		if len(minv) < n {
			n = len(minv)
		}
	}
	datasets := proto.DataSets()
	if len(datasets) == 0 {
		return nil, pdfgui.NewError(pdfgui.ConfigError, "fit %s has no datasets", proto.Name())
	}
	//limits[k][i] is the fit range of dataset i in the k-th fit
	limits := make([][][2]float64, n)
	for k := range limits {
		limits[k] = make([][2]float64, len(datasets))
		for i, d := range datasets {
			rmin, rmax, _ := d.FitRange()
			if minv != nil {
				rmin = minv[k]
			}
			if maxv != nil {
				rmax = maxv[k]
			}
			if err := checkRange(d, rmin, rmax); err != nil {
				return nil, err
			}
			limits[k][i] = [2]float64{rmin, rmax}
		}
	}
	fits := make([]*fitting.Fitting, n)
	for k := range fits {
		lo, hi := limits[k][0][0], limits[k][0][1]
		f := proto.Copy(proto.Name()+"-r"+fmtf(lo)+"-"+fmtf(hi), true)
		for i, d := range f.DataSets() {
			if err := d.SetFitRange(limits[k][i][0], limits[k][i][1]); err != nil {
				return nil, pdfgui.ErrDecorate(err, "MakeRSeries")
			}
		}
		fits[k] = f
	}
	ret, err := chain(P, proto, fits)
	if err != nil {
		return ret, err
	}
	P.Logger().Info("r-series created", zap.String("prototype", proto.Name()), zap.Int("fits", len(ret)))
	return ret, nil
}

func checkRange(d *pdfdata.DataSet, rmin, rmax float64) error {
	n := d.Len()
	if n == 0 {
		return pdfgui.NewError(pdfgui.ConfigError, "dataset %s has no data", d.Name())
	}
	eps := 1e-8 * math.Max(1, math.Abs(d.Robs[n-1]))
	switch {
	case rmin < d.Robs[0]-eps:
		return pdfgui.NewError(pdfgui.ConfigError, "fitrmin %g is below the data of %s", rmin, d.Name())
	case rmax > d.Robs[n-1]+eps:
		return pdfgui.NewError(pdfgui.ConfigError, "fitrmax %g is beyond the data of %s", rmax, d.Name())
	case rmin >= rmax:
		return pdfgui.NewError(pdfgui.ConfigError, "fit range [%g, %g] of %s is empty", rmin, rmax, d.Name())
	}
	return nil
}

//readAll reads the data files concurrently, keeping their order.
func readAll(ctx context.Context, paths []string) ([]*pdfdata.DataSet, error) {
	ret := make([]*pdfdata.DataSet, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for i, p := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			d, err := pdfdata.ReadFile(p)
			if err != nil {
				return err
			}
			ret[i] = d
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, pdfgui.ErrDecorate(err, "series.readAll")
	}
	return ret, nil
}

//replaceData gives the only dataset of f the observed data and metadata
//of d. The instrument settings, constraints and fit range of the dataset
//are kept; the fit range is clamped to the new data.
func replaceData(f *fitting.Fitting, d *pdfdata.DataSet) error {
	old := f.DataSets()[0]
	rmin, rmax, _ := old.FitRange()
	if err := old.SetObserved(d.Robs, d.Gobs, d.DRobs, d.DGobs); err != nil {
		return err
	}
	if err := old.SetFitRange(rmin, rmax); err != nil {
		return err
	}
	old.Filename = d.Filename
	for k, v := range d.Metadata {
		old.Metadata[k] = v
	}
	name := filepath.Base(d.Filename)
	if name == old.Name() {
		return nil
	}
	return f.RenameEntity(old.Name(), name)
}

//dataSeries makes one copy of proto per data file, with the metadata key
//set to the matching value. edit, if not nil, is applied to each new fit.
func dataSeries(ctx context.Context, P *project.Project, proto *fitting.Fitting, key string, paths []string, values []float64, edit func(*fitting.Fitting, float64)) ([]*fitting.Fitting, error) {
	if err := checkProto(P, proto); err != nil {
		return nil, err
	}
	if len(paths) != len(values) {
		return nil, pdfgui.NewError(pdfgui.ConfigError, "%d files but %d %s values", len(paths), len(values), key)
	}
	if len(paths) == 0 {
		return nil, pdfgui.NewError(pdfgui.ConfigError, "%s series needs at least one data file", key)
	}
	if n := len(proto.DataSets()); n != 1 {
		return nil, pdfgui.NewError(pdfgui.ConfigError, "%s series needs a prototype with exactly one dataset, fit %s has %d", key, proto.Name(), n)
	}
	data, err := readAll(ctx, paths)
	if err != nil {
		return nil, err
	}
	fits := make([]*fitting.Fitting, len(data))
	for i, d := range data {
		f := proto.Copy(proto.Name()+"-"+key+fmtf(values[i]), true)
		if err := replaceData(f, d); err != nil {
			return nil, pdfgui.ErrDecorate(err, "series.dataSeries")
		}
		f.DataSets()[0].Metadata[key] = values[i]
		if edit != nil {
			edit(f, values[i])
		}
		fits[i] = f
	}
	ret, err := chain(P, proto, fits)
	if err != nil {
		return ret, err
	}
	P.Logger().Info(key+" series created", zap.String("prototype", proto.Name()), zap.Int("fits", len(ret)))
	return ret, nil
}

//MakeTemperatureSeries appends to the project one copy of proto per data
//file, with the file replacing the single dataset of proto and the matching
//temperature stored in the dataset metadata.
func MakeTemperatureSeries(ctx context.Context, P *project.Project, proto *fitting.Fitting, paths []string, temperatures []float64) ([]*fitting.Fitting, error) {
	return dataSeries(ctx, P, proto, "temperature", paths, temperatures, nil)
}

//MakeDopingSeries works like MakeTemperatureSeries with the doping level
//x stored in the metadata. In every phase of the new fits atoms of dopant
//get occupancy x and atoms of base get occupancy 1-x.
func MakeDopingSeries(ctx context.Context, P *project.Project, proto *fitting.Fitting, base, dopant string, paths []string, doping []float64) ([]*fitting.Fitting, error) {
	if err := checkProto(P, proto); err != nil {
		return nil, err
	}
	base, dopant = pdfgui.NormalizeSymbol(base), pdfgui.NormalizeSymbol(dopant)
	found := make(map[string]bool)
	for _, s := range proto.Phases() {
		for _, a := range s.Initial.Atoms {
			found[a.Element] = true
		}
	}
	for _, e := range []string{base, dopant} {
		if !pdfgui.IsElement(e) {
			return nil, pdfgui.NewError(pdfgui.ConfigError, "%q is not an element symbol", e)
		}
		if !found[e] {
			return nil, pdfgui.NewError(pdfgui.ConfigError, "fit %s has no %s atoms", proto.Name(), e)
		}
	}
	for _, x := range doping {
		if x < 0 || x > 1 {
			return nil, pdfgui.NewError(pdfgui.ConfigError, "doping %g is not between 0 and 1", x)
		}
	}
	return dataSeries(ctx, P, proto, "doping", paths, doping, func(f *fitting.Fitting, x float64) {
		for _, s := range f.Phases() {
			for _, a := range s.Initial.Atoms {
				switch a.Element {
				case dopant:
					a.Occupancy = x
				case base:
					a.Occupancy = 1 - x
				}
			}
		}
	})
}
