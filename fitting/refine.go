/*
 * refine.go, part of gopdfgui.
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
	"errors"

	pdfgui "github.com/rmera/gopdfgui"
	"github.com/rmera/gopdfgui/pdfdata"
	"github.com/rmera/gopdfgui/structure"
	"go.uber.org/zap"
)

//problem builds the refinement job from copies of the fit state. Parameter
//links are resolved here, without holding the lock of the fit, since they
//may point to other fits.
func (F *Fitting) problem() (*Problem, error) {
	P := &Problem{}
	for _, s := range F.Phases() {
		P.Phases = append(P.Phases, s.Copy())
	}
	for _, d := range F.DataSets() {
		P.DataSets = append(P.DataSets, d.Copy())
	}
	if len(P.DataSets) == 0 {
		return nil, pdfgui.NewError(pdfgui.ConfigError, "fit %s has no datasets", F.Name())
	}
	for _, p := range F.Parameters() {
		v, err := p.InitialValue()
		if err != nil {
			return nil, pdfgui.ErrDecorate(err, "Fitting.problem")
		}
		P.Params = append(P.Params, ParamSpec{Index: p.Index, Value: v, Fixed: p.Fixed})
	}
	if err := P.check(); err != nil {
		return nil, err
	}
	return P, nil
}

//Refine runs the refinement of the fit and blocks until it ends. The fit is
//Running meanwhile. Every engine step is stored as a snapshot and
//published to the sink. On success the refined values are stored in the
//parameters, phases and datasets. A refinement stopped with Stop, or by
//cancelling ctx, ends Cancelled and returns nil. So does a queued fit that
//was stopped before Refine was called, without running the engine.
func (F *Fitting) Refine(ctx context.Context) error {
	F.mu.Lock()
	if F.status == Running {
		F.mu.Unlock()
		return pdfgui.NewError(pdfgui.StatusError, "fit %s is already running", F.name)
	}
	if F.engine == nil {
		F.mu.Unlock()
		return pdfgui.NewError(pdfgui.ConfigError, "fit %s has no refinement engine", F.name)
	}
	if F.stopPending {
		F.stopPending = false
		F.status = Cancelled
		logger, name := F.logger, F.name
		F.mu.Unlock()
		logger.Info("refinement cancelled before start", zap.String("fit", name))
		F.sink.Update(F)
		return nil
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	F.status = Running
	F.cancel = cancel
	F.stopRequested = false
	F.snapshots = nil
	engine, logger, name := F.engine, F.logger, F.name
	F.mu.Unlock()
	F.sink.Update(F)

	logger.Info("refinement started", zap.String("fit", name))
	res, err := F.run(ctx, engine)

	F.mu.Lock()
	F.cancel = nil
	stopped := F.stopRequested || errors.Is(err, context.Canceled) || (err != nil && ctx.Err() != nil)
	switch {
	case stopped:
		F.status = Cancelled
		err = nil
	case err != nil:
		F.status = Failed
	default:
		F.status = Completed
		F.rw = res.Rw
	}
	status := F.status
	F.mu.Unlock()

	if status == Completed {
		F.store(res)
	}
	if err != nil {
		logger.Error("refinement failed", zap.String("fit", name), zap.Error(err))
		F.sink.Error(err.Error())
	} else {
		logger.Info("refinement ended", zap.String("fit", name), zap.Stringer("status", status))
	}
	F.sink.Update(F)
	return err
}

func (F *Fitting) run(ctx context.Context, engine Engine) (*Result, error) {
	P, err := F.problem()
	if err != nil {
		return nil, err
	}
	progress := func(p Progress) {
		s := Snapshot{Step: p.Step, Rw: p.Rw, Values: p.Values}.copy()
		F.mu.Lock()
		F.snapshots = append(F.snapshots, s)
		F.rw = p.Rw
		F.mu.Unlock()
		F.sink.Update(F)
	}
	res, err := engine.Refine(ctx, P, progress)
	if err != nil {
		return nil, pdfgui.ErrDecorate(err, "Fitting.Refine")
	}
	if res == nil {
		return nil, pdfgui.NewError(pdfgui.RuntimeError, "engine returned no result")
	}
	return res, nil
}

//store copies the results of a refinement into the fit.
func (F *Fitting) store(res *Result) {
	for idx, v := range res.Values {
		if p, ok := F.Parameter(idx); ok {
			p.SetRefined(v)
		}
	}
	F.mu.Lock()
	defer F.mu.Unlock()
	for i, s := range F.strucs {
		if i < len(res.Phases) && res.Phases[i] != nil {
			s.Refined = res.Phases[i].Copy()
		}
	}
	for i, d := range F.datasets {
		if i >= len(res.DataSets) || res.DataSets[i] == nil {
			continue
		}
		r := res.DataSets[i]
		d.Gcalc = append([]float64(nil), r.Gcalc...)
		d.DGcalc = append([]float64(nil), r.DGcalc...)
		d.Refined = make(map[string]float64)
		for _, k := range r.ListVars() {
			if v, err := r.GetVar(k); err == nil {
				d.Refined[k] = v
			}
		}
	}
}

//Stop asks a running refinement to end. It returns at once; the fit becomes
//Cancelled when the engine returns. A queued fit is cancelled when its
//refinement is about to start. Stopping any other fit does nothing.
func (F *Fitting) Stop() {
	F.mu.Lock()
	defer F.mu.Unlock()
	switch {
	case F.status == Queued:
		F.stopPending = true
	case F.status == Running && F.cancel != nil:
		F.stopRequested = true
		F.cancel()
	}
}

//CalculateAll computes every calculation of the fit with the current
//values of the phases, using the refined structures when present.
func (F *Fitting) CalculateAll(ctx context.Context) error {
	F.mu.Lock()
	engine, logger := F.engine, F.logger
	F.mu.Unlock()
	if engine == nil {
		return pdfgui.NewError(pdfgui.ConfigError, "fit %s has no engine", F.Name())
	}
	phases := make([]*structure.FitStructure, 0)
	for _, s := range F.Phases() {
		c := s.Copy()
		c.Initial = s.Current().Copy()
		phases = append(phases, c)
	}
	if len(phases) == 0 {
		return pdfgui.NewError(pdfgui.ConfigError, "fit %s has no phases", F.Name())
	}
	for _, c := range F.Calculations() {
		g, err := engine.Calculate(ctx, phases, c)
		if err != nil {
			return pdfgui.ErrDecorate(err, "Fitting.CalculateAll")
		}
		F.setGcalc(c, g)
		logger.Debug("calculation done", zap.String("calculation", c.Name()), zap.Int("points", len(g)))
		F.sink.Update(c)
	}
	return nil
}

func (F *Fitting) setGcalc(c *pdfdata.Calculation, g []float64) {
	F.mu.Lock()
	c.Gcalc = g
	F.mu.Unlock()
}
