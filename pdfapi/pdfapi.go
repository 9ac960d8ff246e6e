/*
 * pdfapi.go, part of gopdfgui.
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

//Package pdfapi gives scripts read access to saved projects.
package pdfapi

import (
	pdfgui "github.com/rmera/gopdfgui"
	"github.com/rmera/gopdfgui/fitting"
	"github.com/rmera/gopdfgui/pdfdata"
	"github.com/rmera/gopdfgui/project"
	"github.com/rmera/gopdfgui/structure"
	"go.uber.org/zap"
)

//Project is a loaded project archive.
type Project struct {
	*project.Project
}

//LoadProject opens the project archive at path. Options are passed to the
//underlying project. Reading a project starts no goroutines; a caller that
//enqueues fits must call Exit when done.
func LoadProject(path string, opts ...project.Option) (*Project, error) {
	P := project.New("", opts...)
	if err := P.Load(path); err != nil {
		P.Exit()
		return nil, pdfgui.ErrDecorate(err, "LoadProject")
	}
	P.Logger().Debug("project opened for scripting", zap.String("path", path))
	return &Project{P}, nil
}

//orAll returns fits, or every fit of the project when fits is empty.
func (P *Project) orAll(fits []*fitting.Fitting) []*fitting.Fitting {
	if len(fits) == 0 {
		return P.Fits()
	}
	return fits
}

//DataSets returns the datasets of the given fits, or of every fit, in
//project order.
func (P *Project) DataSets(fits ...*fitting.Fitting) []*pdfdata.DataSet {
	var ret []*pdfdata.DataSet
	for _, f := range P.orAll(fits) {
		ret = append(ret, f.DataSets()...)
	}
	return ret
}

//Phases returns the phases of the given fits, or of every fit.
func (P *Project) Phases(fits ...*fitting.Fitting) []*structure.FitStructure {
	var ret []*structure.FitStructure
	for _, f := range P.orAll(fits) {
		ret = append(ret, f.Phases()...)
	}
	return ret
}

//Calculations returns the calculations of the given fits, or of every fit.
func (P *Project) Calculations(fits ...*fitting.Fitting) []*pdfdata.Calculation {
	var ret []*pdfdata.Calculation
	for _, f := range P.orAll(fits) {
		ret = append(ret, f.Calculations()...)
	}
	return ret
}

func (P *Project) metadata(key string, datasets []*pdfdata.DataSet) []*float64 {
	if len(datasets) == 0 {
		datasets = P.DataSets()
	}
	ret := make([]*float64, len(datasets))
	for i, d := range datasets {
		if v, ok := d.Metadata[key]; ok {
			ret[i] = &v
		}
	}
	return ret
}

//Temperatures returns the temperature of each dataset, nil where it is
//not known. With no datasets given every dataset of the project is used.
func (P *Project) Temperatures(datasets ...*pdfdata.DataSet) []*float64 {
	return P.metadata("temperature", datasets)
}

//Dopings returns the doping of each dataset, nil where it is not known.
func (P *Project) Dopings(datasets ...*pdfdata.DataSet) []*float64 {
	return P.metadata("doping", datasets)
}
