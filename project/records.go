/*
 * records.go, part of gopdfgui.
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
	"github.com/google/uuid"
	pdfgui "github.com/rmera/gopdfgui"
	"github.com/rmera/gopdfgui/fitting"
	"github.com/rmera/gopdfgui/param"
	"github.com/rmera/gopdfgui/pdfdata"
	"github.com/rmera/gopdfgui/structure"
)

//The records are the yaml documents stored in project archives.

type paramRecord struct {
	Index   int      `yaml:"index"`
	Initial string   `yaml:"initial"`
	Fixed   bool     `yaml:"fixed,omitempty"`
	Refined *float64 `yaml:"refined,omitempty"`
	LinkID  string   `yaml:"link_id,omitempty"`
}

type snapshotRecord struct {
	Step   int             `yaml:"step"`
	Rw     float64         `yaml:"rw"`
	Values map[int]float64 `yaml:"values,flow"`
}

type fitRecord struct {
	ID           string           `yaml:"id"`
	Status       string           `yaml:"status"`
	Rw           float64          `yaml:"rw"`
	Parameters   []paramRecord    `yaml:"parameters"`
	Snapshots    []snapshotRecord `yaml:"snapshots,omitempty"`
	Structures   []string         `yaml:"structures"`
	DataSets     []string         `yaml:"datasets"`
	Calculations []string         `yaml:"calculations"`
}

type atomRecord struct {
	Element     string    `yaml:"element"`
	XYZ         []float64 `yaml:"xyz,flow"`
	U           []float64 `yaml:"u,flow"`
	Occupancy   float64   `yaml:"occupancy"`
	Anisotropic bool      `yaml:"anisotropic,omitempty"`
}

type structureRecord struct {
	Title      string       `yaml:"title"`
	SpaceGroup string       `yaml:"spacegroup"`
	Lattice    []float64    `yaml:"lattice,flow"`
	Atoms      []atomRecord `yaml:"atoms"`
	Pscale     float64      `yaml:"pscale"`
	Delta1     float64      `yaml:"delta1"`
	Delta2     float64      `yaml:"delta2"`
	Sratio     float64      `yaml:"sratio"`
	Rcut       float64      `yaml:"rcut"`
	Stepcut    float64      `yaml:"stepcut"`
	Spdiameter float64      `yaml:"spdiameter"`
}

type phaseRecord struct {
	SelectedPairs string            `yaml:"selected_pairs"`
	Constraints   map[string]string `yaml:"constraints,omitempty"`
	Initial       structureRecord   `yaml:"initial"`
	Refined       *structureRecord  `yaml:"refined,omitempty"`
}

type dataSetRecord struct {
	Filename    string             `yaml:"filename,omitempty"`
	Stype       string             `yaml:"stype"`
	Qmax        float64            `yaml:"qmax"`
	Qdamp       float64            `yaml:"qdamp"`
	Qbroad      float64            `yaml:"qbroad"`
	Dscale      float64            `yaml:"dscale"`
	Spdiameter  float64            `yaml:"spdiameter,omitempty"`
	FitRmin     float64            `yaml:"fitrmin"`
	FitRmax     float64            `yaml:"fitrmax"`
	FitRstep    float64            `yaml:"fitrstep"`
	Sampling    string             `yaml:"sampling"`
	Metadata    map[string]float64 `yaml:"metadata,omitempty"`
	Refined     map[string]float64 `yaml:"refined,omitempty"`
	Constraints map[string]string  `yaml:"constraints,omitempty"`
}

type calculationRecord struct {
	Stype      string  `yaml:"stype"`
	Qmax       float64 `yaml:"qmax"`
	Qdamp      float64 `yaml:"qdamp"`
	Qbroad     float64 `yaml:"qbroad"`
	Dscale     float64 `yaml:"dscale"`
	Spdiameter float64 `yaml:"spdiameter,omitempty"`
	Rmin       float64 `yaml:"rmin"`
	Rstep      float64 `yaml:"rstep"`
	Rmax       float64 `yaml:"rmax"`
}

type constrainer interface {
	ConstraintKeys() []string
	Constraint(name string) (*param.Constraint, bool)
	SetConstraint(name, formula string) error
}

func constraintsOf(c constrainer) map[string]string {
	keys := c.ConstraintKeys()
	if len(keys) == 0 {
		return nil
	}
	ret := make(map[string]string, len(keys))
	for _, k := range keys {
		f, _ := c.Constraint(k)
		ret[k] = f.Formula()
	}
	return ret
}

func setConstraints(c constrainer, m map[string]string) error {
	for k, f := range m {
		if err := c.SetConstraint(k, f); err != nil {
			return err
		}
	}
	return nil
}

func paramToRecord(p *param.Parameter) paramRecord {
	r := paramRecord{Index: p.Index, Initial: p.InitialStr(), Fixed: p.Fixed}
	if v, ok := p.Refined(); ok {
		r.Refined = &v
	}
	if l, ok := p.Link(); ok && l.FitID != uuid.Nil {
		r.LinkID = l.FitID.String()
	}
	return r
}

func paramFromRecord(r paramRecord) (*param.Parameter, error) {
	p, err := param.NewParameter(r.Index, r.Initial)
	if err != nil {
		return nil, err
	}
	p.Fixed = r.Fixed
	if r.Refined != nil {
		p.SetRefined(*r.Refined)
	}
	if r.LinkID != "" {
		id, err := uuid.Parse(r.LinkID)
		if err != nil {
			return nil, pdfgui.WrapError(pdfgui.FileError, err, "invalid link id of parameter @%d", r.Index)
		}
		p.SetLinkID(id)
	}
	return p, nil
}

func fitToRecord(f *fitting.Fitting) fitRecord {
	r := fitRecord{ID: f.ID().String(), Status: f.Status().String(), Rw: f.Rw()}
	for _, p := range f.Parameters() {
		r.Parameters = append(r.Parameters, paramToRecord(p))
	}
	for _, s := range f.Snapshots() {
		r.Snapshots = append(r.Snapshots, snapshotRecord{Step: s.Step, Rw: s.Rw, Values: s.Values})
	}
	r.Structures = []string{}
	for _, s := range f.Phases() {
		r.Structures = append(r.Structures, s.Name())
	}
	r.DataSets = []string{}
	for _, d := range f.DataSets() {
		r.DataSets = append(r.DataSets, d.Name())
	}
	r.Calculations = []string{}
	for _, c := range f.Calculations() {
		r.Calculations = append(r.Calculations, c.Name())
	}
	return r
}

func structureToRecord(S *structure.Structure) structureRecord {
	L := S.Lattice
	r := structureRecord{
		Title:      S.Title,
		SpaceGroup: S.SpaceGroup,
		Lattice:    []float64{L.A, L.B, L.C, L.Alpha, L.Beta, L.Gamma},
		Pscale:     S.Pscale,
		Delta1:     S.Delta1,
		Delta2:     S.Delta2,
		Sratio:     S.Sratio,
		Rcut:       S.Rcut,
		Stepcut:    S.Stepcut,
		Spdiameter: S.Spdiameter,
	}
	for _, a := range S.Atoms {
		u := make([]float64, 0, 9)
		for _, row := range a.U {
			u = append(u, row[:]...)
		}
		r.Atoms = append(r.Atoms, atomRecord{
			Element:     a.Element,
			XYZ:         []float64{a.XYZ[0], a.XYZ[1], a.XYZ[2]},
			U:           u,
			Occupancy:   a.Occupancy,
			Anisotropic: a.Anisotropic,
		})
	}
	return r
}

func structureFromRecord(r structureRecord) (*structure.Structure, error) {
	if len(r.Lattice) != 6 {
		return nil, pdfgui.NewError(pdfgui.FileError, "lattice needs 6 values, got %d", len(r.Lattice))
	}
	S := structure.NewStructure()
	S.Title, S.SpaceGroup = r.Title, r.SpaceGroup
	S.Lattice = structure.Lattice{A: r.Lattice[0], B: r.Lattice[1], C: r.Lattice[2], Alpha: r.Lattice[3], Beta: r.Lattice[4], Gamma: r.Lattice[5]}
	S.Pscale, S.Delta1, S.Delta2 = r.Pscale, r.Delta1, r.Delta2
	S.Sratio, S.Rcut, S.Stepcut, S.Spdiameter = r.Sratio, r.Rcut, r.Stepcut, r.Spdiameter
	for i, a := range r.Atoms {
		if len(a.XYZ) != 3 || len(a.U) != 9 {
			return nil, pdfgui.NewError(pdfgui.FileError, "atom %d needs 3 coordinates and 9 U components", i+1)
		}
		at := &structure.Atom{Element: pdfgui.NormalizeSymbol(a.Element), Occupancy: a.Occupancy, Anisotropic: a.Anisotropic}
		copy(at.XYZ[:], a.XYZ)
		for k := 0; k < 3; k++ {
			copy(at.U[k][:], a.U[3*k:3*k+3])
		}
		S.Atoms = append(S.Atoms, at)
	}
	return S, nil
}

func phaseToRecord(p *structure.FitStructure) phaseRecord {
	r := phaseRecord{
		SelectedPairs: p.SelectedPairs(),
		Constraints:   constraintsOf(p),
		Initial:       structureToRecord(p.Initial),
	}
	if p.Refined != nil {
		s := structureToRecord(p.Refined)
		r.Refined = &s
	}
	return r
}

func phaseFromRecord(name string, r phaseRecord) (*structure.FitStructure, error) {
	S, err := structureFromRecord(r.Initial)
	if err != nil {
		return nil, err
	}
	p := structure.NewFitStructure(name, S)
	if r.Refined != nil {
		if p.Refined, err = structureFromRecord(*r.Refined); err != nil {
			return nil, err
		}
	}
	if err := p.SetSelectedPairs(r.SelectedPairs); err != nil {
		return nil, err
	}
	if err := setConstraints(p, r.Constraints); err != nil {
		return nil, err
	}
	return p, nil
}

func dataSetToRecord(d *pdfdata.DataSet) dataSetRecord {
	rmin, rmax, rstep := d.FitRange()
	return dataSetRecord{
		Filename:    d.Filename,
		Stype:       d.Stype,
		Qmax:        d.Qmax,
		Qdamp:       d.Qdamp,
		Qbroad:      d.Qbroad,
		Dscale:      d.Dscale,
		Spdiameter:  d.Spdiameter,
		FitRmin:     rmin,
		FitRmax:     rmax,
		FitRstep:    rstep,
		Sampling:    string(d.Sampling()),
		Metadata:    d.Metadata,
		Refined:     d.Refined,
		Constraints: constraintsOf(d),
	}
}

//dataSetFromRecord rebuilds a dataset from its record and its observed
//columns r, G, dr, dG.
func dataSetFromRecord(name string, r dataSetRecord, obs [][]float64) (*pdfdata.DataSet, error) {
	d := pdfdata.NewDataSet(name)
	d.Filename, d.Stype = r.Filename, r.Stype
	d.Qmax, d.Qdamp, d.Qbroad, d.Dscale = r.Qmax, r.Qdamp, r.Qbroad, r.Dscale
	d.Spdiameter = r.Spdiameter
	for k, v := range r.Metadata {
		d.Metadata[k] = v
	}
	for k, v := range r.Refined {
		d.Refined[k] = v
	}
	if len(obs) != 4 {
		return nil, pdfgui.NewError(pdfgui.FileError, "dataset %s needs 4 observed columns", name)
	}
	if err := d.SetObserved(obs[0], obs[1], obs[2], obs[3]); err != nil {
		return nil, err
	}
	mode, err := pdfdata.ParseSampling(r.Sampling)
	if err != nil {
		return nil, err
	}
	if err := d.RestoreFitSettings(r.FitRmin, r.FitRmax, r.FitRstep, mode); err != nil {
		return nil, err
	}
	if err := setConstraints(d, r.Constraints); err != nil {
		return nil, err
	}
	return d, nil
}

func calculationToRecord(c *pdfdata.Calculation) calculationRecord {
	rmin, rstep, rmax := c.RGrid()
	return calculationRecord{
		Stype:      c.Stype,
		Qmax:       c.Qmax,
		Qdamp:      c.Qdamp,
		Qbroad:     c.Qbroad,
		Dscale:     c.Dscale,
		Spdiameter: c.Spdiameter,
		Rmin:       rmin,
		Rstep:      rstep,
		Rmax:       rmax,
	}
}

func calculationFromRecord(name string, r calculationRecord) (*pdfdata.Calculation, error) {
	c := pdfdata.NewCalculation(name)
	c.Stype, c.Qmax, c.Qdamp, c.Qbroad, c.Dscale = r.Stype, r.Qmax, r.Qdamp, r.Qbroad, r.Dscale
	c.Spdiameter = r.Spdiameter
	if err := c.SetRGrid(r.Rmin, r.Rstep, r.Rmax); err != nil {
		return nil, err
	}
	return c, nil
}
