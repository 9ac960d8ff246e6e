/*
 * migrate.go, part of gopdfgui.
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

package project

import (
	"github.com/rmera/gopdfgui/fitting"
	"go.uber.org/zap"
)

//spdSource is one place an old project kept a particle diameter.
type spdSource struct {
	name    string
	value   float64
	formula string
	dataset bool
}

//pickSpdiameter returns the source to migrate: the first constrained one,
//else the first dataset with a value, else the first calculation with a
//value. ok is false when there are no sources.
func pickSpdiameter(srcs []spdSource) (best spdSource, ok bool) {
	for _, s := range srcs {
		if s.formula != "" {
			return s, true
		}
	}
	for _, s := range srcs {
		if s.dataset && s.value != 0 {
			return s, true
		}
	}
	for _, s := range srcs {
		if !s.dataset && s.value != 0 {
			return s, true
		}
	}
	return best, false
}

//migrateSpdiameter moves the particle diameter, and its constraint, from
//the datasets and calculations of old projects to the first phase of the
//same fit that has neither. Sources that disagree with the chosen one are
//logged and dropped.
func migrateSpdiameter(fits []*fitting.Fitting, logger *zap.Logger) {
	for _, f := range fits {
		var srcs []spdSource
		for _, d := range f.DataSets() {
			s := spdSource{name: d.Name(), value: d.Spdiameter, dataset: true}
			if c, ok := d.Constraint("spdiameter"); ok {
				s.formula = c.Formula()
				d.RemoveConstraint("spdiameter")
			}
			d.Spdiameter = 0
			if s.value != 0 || s.formula != "" {
				srcs = append(srcs, s)
			}
		}
		for _, c := range f.Calculations() {
			if c.Spdiameter != 0 {
				srcs = append(srcs, spdSource{name: c.Name(), value: c.Spdiameter})
			}
			c.Spdiameter = 0
		}
		best, ok := pickSpdiameter(srcs)
		if !ok {
			continue
		}
		for _, s := range srcs {
			if s != best && (s.value != best.value || s.formula != best.formula) {
				logger.Warn("inconsistent spdiameter ignored", zap.String("fit", f.Name()), zap.String("source", s.name), zap.String("used", best.name))
			}
		}
		moved := false
		for _, p := range f.Phases() {
			if _, ok := p.Constraint("spdiameter"); ok || p.Initial.Spdiameter != 0 {
				continue
			}
			p.Initial.Spdiameter = best.value
			if best.formula != "" {
				if err := p.SetConstraint("spdiameter", best.formula); err != nil {
					logger.Warn("spdiameter constraint not moved", zap.String("fit", f.Name()), zap.Error(err))
				}
			}
			moved = true
			break
		}
		if !moved {
			logger.Warn("no phase free for spdiameter", zap.String("fit", f.Name()), zap.String("source", best.name))
			continue
		}
		logger.Info("spdiameter moved to phase", zap.String("fit", f.Name()), zap.String("source", best.name))
	}
}
