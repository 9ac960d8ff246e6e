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

package engine

import (
	"context"
	"math"
	"runtime"

	pdfgui "github.com/rmera/gopdfgui"
	"github.com/rmera/gopdfgui/fitting"
	"github.com/rmera/gopdfgui/pdfdata"
	"github.com/rmera/gopdfgui/structure"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/optimize"
)

//Engine refines fits by minimizing the weighted residual of all the
//datasets of a fit with the Nelder-Mead simplex method.
type Engine struct {
	//MaxIterations bounds the number of simplex steps, 0 means no bound.
	MaxIterations int
	//MaxEvaluations bounds the number of PDF evaluations, 0 means no bound.
	MaxEvaluations int
	//Tolerance is the relative change in the residual, over Stall
	//iterations, under which the refinement is converged.
	Tolerance float64
	Stall     int
	logger    *zap.Logger
}

//New returns an engine with the default settings.
func New(logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{MaxIterations: 2000, Tolerance: 1e-8, Stall: 50, logger: logger}
}

func instrument(d *pdfdata.DataSet) Instrument {
	return Instrument{Stype: d.Stype, Qdamp: d.Qdamp, Qbroad: d.Qbroad, Dscale: d.Dscale}
}

//Calculate computes the PDF of the phases on the grid of c.
func (E *Engine) Calculate(ctx context.Context, phases []*structure.FitStructure, c *pdfdata.Calculation) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	in := Instrument{Stype: c.Stype, Qdamp: c.Qdamp, Qbroad: c.Qbroad, Dscale: c.Dscale}
	return TotalPDF(phases, c.Rcalc, in)
}

//objective evaluates the residual of a problem.
type objective struct {
	ctx  context.Context
	prob *fitting.Problem
	//observed curves and weights on the calculation grids
	gobs, w [][]float64
	norm    float64
	err     error
}

func newObjective(ctx context.Context, P *fitting.Problem) *objective {
	O := &objective{ctx: ctx, prob: P}
	for _, d := range P.DataSets {
		g, _ := d.ResampledObs()
		w := d.Weights()
		O.gobs = append(O.gobs, g)
		O.w = append(O.w, w)
		for i, v := range g {
			O.norm += w[i] * v * v
		}
	}
	return O
}

//calc applies values to the problem and computes the PDF of every dataset.
func (O *objective) calc(values map[int]float64) error {
	if err := O.prob.Apply(values); err != nil {
		return err
	}
	g, ctx := errgroup.WithContext(O.ctx)
	g.SetLimit(runtime.NumCPU())
	for _, d := range O.prob.DataSets {
		d := d
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			gc, err := TotalPDF(O.prob.Phases, d.Rcalc, instrument(d))
			if err != nil {
				return err
			}
			d.Gcalc = gc
			return nil
		})
	}
	return g.Wait()
}

//rw2 returns the squared combined residual of the last calculation.
func (O *objective) rw2() float64 {
	if O.norm == 0 {
		return 0
	}
	var s float64
	for k, d := range O.prob.DataSets {
		for i, gc := range d.Gcalc {
			diff := O.gobs[k][i] - gc
			s += O.w[k][i] * diff * diff
		}
	}
	return s / O.norm
}

//Func is the function minimized. Errors make it infinite; the first one is
//kept and reported at the end.
func (O *objective) Func(x []float64) float64 {
	if err := O.calc(O.prob.Values(x)); err != nil {
		if O.err == nil {
			O.err = err
		}
		return math.Inf(1)
	}
	return O.rw2()
}

//recorder reports the simplex steps and stops the minimization when the
//context is done.
type recorder struct {
	ctx      context.Context
	prob     *fitting.Problem
	progress func(fitting.Progress)
	step     int
	logger   *zap.Logger
}

func (R *recorder) Init() error { return nil }

func (R *recorder) Record(loc *optimize.Location, op optimize.Operation, _ *optimize.Stats) error {
	if err := R.ctx.Err(); err != nil {
		return err
	}
	if op != optimize.MajorIteration || math.IsInf(loc.F, 1) {
		return nil
	}
	R.step++
	rw := math.Sqrt(loc.F)
	R.logger.Debug("refinement step", zap.Int("step", R.step), zap.Float64("rw", rw))
	if R.progress != nil {
		R.progress(fitting.Progress{Step: R.step, Rw: rw, Values: R.prob.Values(loc.X)})
	}
	return nil
}

//Refine minimizes the residual of P and returns the best parameters, with
//the phases and datasets computed at them.
func (E *Engine) Refine(ctx context.Context, P *fitting.Problem, progress func(fitting.Progress)) (*fitting.Result, error) {
	O := newObjective(ctx, P)
	x0 := P.Initial()
	best := x0
	if len(x0) > 0 {
		settings := &optimize.Settings{
			MajorIterations: E.MaxIterations,
			FuncEvaluations: E.MaxEvaluations,
			Converger: &optimize.FunctionConverge{
				Absolute:   1e-12,
				Relative:   E.Tolerance,
				Iterations: E.Stall,
			},
			Recorder: &recorder{ctx: ctx, prob: P, progress: progress, logger: E.logger},
		}
		res, err := optimize.Minimize(optimize.Problem{Func: O.Func}, x0, settings, &optimize.NelderMead{})
		if cerr := ctx.Err(); cerr != nil {
			return nil, cerr
		}
		if O.err != nil {
			return nil, O.err
		}
		if err != nil && res == nil {
			return nil, pdfgui.WrapError(pdfgui.RuntimeError, err, "minimization failed")
		}
		if err != nil {
			E.logger.Warn("minimization ended early", zap.Error(err))
		}
		best = res.X
		E.logger.Info("minimization done", zap.Stringer("status", res.Status), zap.Int("iterations", res.MajorIterations), zap.Int("evaluations", res.FuncEvaluations))
	}
	values := P.Values(best)
	if err := O.calc(values); err != nil {
		if cerr := ctx.Err(); cerr != nil {
			return nil, cerr
		}
		return nil, pdfgui.ErrDecorate(err, "Engine.Refine")
	}
	ret := &fitting.Result{Values: values, Rw: math.Sqrt(O.rw2()), DataSets: P.DataSets}
	for _, s := range P.Phases {
		ret.Phases = append(ret.Phases, s.Initial.Copy())
	}
	if len(x0) == 0 && progress != nil {
		progress(fitting.Progress{Step: 1, Rw: ret.Rw, Values: values})
	}
	return ret, nil
}

var _ fitting.Engine = (*Engine)(nil)
