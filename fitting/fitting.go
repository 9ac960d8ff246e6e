/*
 * fitting.go, part of gopdfgui.
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
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
	pdfgui "github.com/rmera/gopdfgui"
	"github.com/rmera/gopdfgui/param"
	"github.com/rmera/gopdfgui/pdfdata"
	"github.com/rmera/gopdfgui/structure"
	"go.uber.org/zap"
)

//Fitting pairs phases with datasets and calculations, and owns the
//parameters their constraints refer to. All methods are safe for
//concurrent use.
type Fitting struct {
	mu        sync.Mutex
	id        uuid.UUID
	name      string
	strucs    []*structure.FitStructure
	datasets  []*pdfdata.DataSet
	calcs     []*pdfdata.Calculation
	params    map[int]*param.Parameter
	journal   string
	status    Status
	rw        float64
	snapshots []Snapshot

	resolver param.Resolver
	engine   Engine
	sink     pdfgui.EventSink
	logger   *zap.Logger

	cancel        func()
	stopRequested bool
	//stopPending is a Stop that arrived while the fit was Queued.
	stopPending bool
}

//Option configures a Fitting.
type Option func(*Fitting)

func WithEngine(e Engine) Option { return func(F *Fitting) { F.engine = e } }

func WithSink(s pdfgui.EventSink) Option { return func(F *Fitting) { F.sink = s } }

func WithLogger(l *zap.Logger) Option { return func(F *Fitting) { F.logger = l } }

//WithResolver sets the object that resolves parameter links, usually the
//project that owns the fit.
func WithResolver(r param.Resolver) Option { return func(F *Fitting) { F.resolver = r } }

//New returns an empty fit.
func New(name string, opts ...Option) *Fitting {
	F := &Fitting{
		id:     uuid.New(),
		name:   name,
		params: make(map[int]*param.Parameter),
		sink:   pdfgui.NopSink{},
		logger: zap.NewNop(),
	}
	F.Configure(opts...)
	return F
}

//Configure applies options to an existing fit.
func (F *Fitting) Configure(opts ...Option) {
	F.mu.Lock()
	for _, o := range opts {
		o(F)
	}
	r := F.resolver
	params := F.paramList()
	F.mu.Unlock()
	for _, p := range params {
		p.SetResolver(r)
	}
}

func (F *Fitting) Name() string {
	F.mu.Lock()
	defer F.mu.Unlock()
	return F.name
}

//SetName changes the name of the fit. Links in other fits are not updated,
//the project does that on rename.
func (F *Fitting) SetName(name string) {
	F.mu.Lock()
	F.name = name
	F.mu.Unlock()
}

//ID returns the identity token of the fit, which survives renames.
func (F *Fitting) ID() uuid.UUID {
	return F.id
}

//SetID replaces the identity token, for fits restored from an archive.
func (F *Fitting) SetID(id uuid.UUID) {
	F.mu.Lock()
	F.id = id
	F.mu.Unlock()
}

func (F *Fitting) Journal() string {
	F.mu.Lock()
	defer F.mu.Unlock()
	return F.journal
}

func (F *Fitting) SetJournal(j string) {
	F.mu.Lock()
	F.journal = j
	F.mu.Unlock()
}

func (F *Fitting) Status() Status {
	F.mu.Lock()
	defer F.mu.Unlock()
	return F.status
}

//SetStatus sets the status and notifies the sink. A running fit can only
//be changed by its refinement. Any Stop pending on a queued fit is dropped.
func (F *Fitting) SetStatus(s Status) error {
	F.mu.Lock()
	if F.status == Running && s != Running {
		F.mu.Unlock()
		return pdfgui.NewError(pdfgui.StatusError, "fit %s is running", F.name)
	}
	F.status = s
	F.stopPending = false
	F.mu.Unlock()
	F.sink.Update(F)
	return nil
}

//Rw returns the residual of the last refinement.
func (F *Fitting) Rw() float64 {
	F.mu.Lock()
	defer F.mu.Unlock()
	return F.rw
}

//Parameter returns the parameter idx.
func (F *Fitting) Parameter(idx int) (*param.Parameter, bool) {
	F.mu.Lock()
	defer F.mu.Unlock()
	p, ok := F.params[idx]
	return p, ok
}

func (F *Fitting) paramList() []*param.Parameter {
	ret := make([]*param.Parameter, 0, len(F.params))
	for _, p := range F.params {
		ret = append(ret, p)
	}
	sort.Slice(ret, func(i, j int) bool { return ret[i].Index < ret[j].Index })
	return ret
}

//Parameters returns the parameters sorted by index.
func (F *Fitting) Parameters() []*param.Parameter {
	F.mu.Lock()
	defer F.mu.Unlock()
	return F.paramList()
}

//SetParameter creates parameter idx, or changes its initial value if it
//exists. initial follows the rules of param.Parameter.SetInitial.
func (F *Fitting) SetParameter(idx int, initial any) (*param.Parameter, error) {
	F.mu.Lock()
	p, ok := F.params[idx]
	r := F.resolver
	F.mu.Unlock()
	if ok {
		if err := p.SetInitial(initial); err != nil {
			return nil, err
		}
		return p, nil
	}
	p, err := param.NewParameter(idx, initial)
	if err != nil {
		return nil, err
	}
	p.SetResolver(r)
	F.mu.Lock()
	F.params[idx] = p
	F.mu.Unlock()
	return p, nil
}

//AddParameter adopts an existing parameter, replacing any with the same
//index.
func (F *Fitting) AddParameter(p *param.Parameter) {
	F.mu.Lock()
	F.params[p.Index] = p
	r := F.resolver
	F.mu.Unlock()
	p.SetResolver(r)
}

func (F *Fitting) RemoveParameter(idx int) {
	F.mu.Lock()
	delete(F.params, idx)
	F.mu.Unlock()
}

//names returns every entity name of the fit. The lock must be held.
func (F *Fitting) names() map[string]bool {
	ret := make(map[string]bool)
	for _, s := range F.strucs {
		ret[s.Name()] = true
	}
	for _, d := range F.datasets {
		ret[d.Name()] = true
	}
	for _, c := range F.calcs {
		ret[c.Name()] = true
	}
	return ret
}

//HasEntity reports whether a phase, dataset or calculation has the name.
func (F *Fitting) HasEntity(name string) bool {
	F.mu.Lock()
	defer F.mu.Unlock()
	return F.names()[name]
}

func insertAt[T any](s []T, v T, pos int) []T {
	if pos < 0 || pos > len(s) {
		pos = len(s)
	}
	s = append(s, v)
	copy(s[pos+1:], s[pos:])
	s[pos] = v
	return s
}

//Insert adds a phase, dataset or calculation at position pos of its list.
//A negative pos appends. Names must be unique among all the entities of
//the fit.
func (F *Fitting) Insert(entity any, pos int) error {
	F.mu.Lock()
	defer F.mu.Unlock()
	var name string
	switch e := entity.(type) {
	case *structure.FitStructure:
		name = e.Name()
	case *pdfdata.DataSet:
		name = e.Name()
	case *pdfdata.Calculation:
		name = e.Name()
	default:
		return pdfgui.NewError(pdfgui.TypeError, "cannot insert %T into a fit", entity)
	}
	if name == "" {
		return pdfgui.NewError(pdfgui.ConfigError, "entity name must not be empty")
	}
	if F.names()[name] {
		return pdfgui.NewError(pdfgui.ConfigError, "fit %s already has an entity named %q", F.name, name)
	}
	switch e := entity.(type) {
	case *structure.FitStructure:
		F.strucs = insertAt(F.strucs, e, pos)
	case *pdfdata.DataSet:
		F.datasets = insertAt(F.datasets, e, pos)
	case *pdfdata.Calculation:
		F.calcs = insertAt(F.calcs, e, pos)
	}
	return nil
}

//Remove deletes the entity with the given name and returns it.
func (F *Fitting) Remove(name string) (any, error) {
	F.mu.Lock()
	defer F.mu.Unlock()
	for i, s := range F.strucs {
		if s.Name() == name {
			F.strucs = append(F.strucs[:i], F.strucs[i+1:]...)
			return s, nil
		}
	}
	for i, d := range F.datasets {
		if d.Name() == name {
			F.datasets = append(F.datasets[:i], F.datasets[i+1:]...)
			return d, nil
		}
	}
	for i, c := range F.calcs {
		if c.Name() == name {
			F.calcs = append(F.calcs[:i], F.calcs[i+1:]...)
			return c, nil
		}
	}
	return nil, pdfgui.NewError(pdfgui.KeyError, "fit %s has no entity named %q", F.name, name)
}

//Entity returns the phase, dataset or calculation with the given name.
func (F *Fitting) Entity(name string) (any, bool) {
	F.mu.Lock()
	defer F.mu.Unlock()
	for _, s := range F.strucs {
		if s.Name() == name {
			return s, true
		}
	}
	for _, d := range F.datasets {
		if d.Name() == name {
			return d, true
		}
	}
	for _, c := range F.calcs {
		if c.Name() == name {
			return c, true
		}
	}
	return nil, false
}

//RenameEntity renames a phase, dataset or calculation.
func (F *Fitting) RenameEntity(oldName, newName string) error {
	e, ok := F.Entity(oldName)
	if !ok {
		return pdfgui.NewError(pdfgui.KeyError, "fit %s has no entity named %q", F.Name(), oldName)
	}
	if oldName == newName {
		return nil
	}
	if newName == "" || F.HasEntity(newName) {
		return pdfgui.NewError(pdfgui.ConfigError, "invalid or duplicate name %q", newName)
	}
	F.mu.Lock()
	defer F.mu.Unlock()
	switch v := e.(type) {
	case *structure.FitStructure:
		v.SetName(newName)
	case *pdfdata.DataSet:
		v.SetName(newName)
	case *pdfdata.Calculation:
		v.SetName(newName)
	}
	return nil
}

//UniqueName returns name, or name with a numeric suffix if the fit already
//has an entity with that name.
func (F *Fitting) UniqueName(name string) string {
	F.mu.Lock()
	defer F.mu.Unlock()
	return uniqueName(name, F.names())
}

func uniqueName(name string, taken map[string]bool) string {
	if !taken[name] {
		return name
	}
	base := name
	if k := strings.LastIndex(name, "-"); k >= 0 {
		if _, err := strconv.Atoi(name[k+1:]); err == nil {
			base = name[:k]
		}
	}
	for i := 1; ; i++ {
		n := base + "-" + strconv.Itoa(i)
		if !taken[n] {
			return n
		}
	}
}

//Phases returns the phases of the fit in order.
func (F *Fitting) Phases() []*structure.FitStructure {
	F.mu.Lock()
	defer F.mu.Unlock()
	return append([]*structure.FitStructure(nil), F.strucs...)
}

//DataSets returns the datasets of the fit in order.
func (F *Fitting) DataSets() []*pdfdata.DataSet {
	F.mu.Lock()
	defer F.mu.Unlock()
	return append([]*pdfdata.DataSet(nil), F.datasets...)
}

//Calculations returns the calculations of the fit in order.
func (F *Fitting) Calculations() []*pdfdata.Calculation {
	F.mu.Lock()
	defer F.mu.Unlock()
	return append([]*pdfdata.Calculation(nil), F.calcs...)
}

//UsedParameters returns the sorted indices of the parameters referenced by
//the constraints of the phases and datasets.
func (F *Fitting) UsedParameters() []int {
	seen := make(map[int]bool)
	for _, s := range F.Phases() {
		for _, i := range usedIndices(s) {
			seen[i] = true
		}
	}
	for _, d := range F.DataSets() {
		for _, i := range usedIndices(d) {
			seen[i] = true
		}
	}
	ret := make([]int, 0, len(seen))
	for i := range seen {
		ret = append(ret, i)
	}
	sort.Ints(ret)
	return ret
}

//UpdateParameters creates the parameters that constraints use but that do
//not exist yet, with initial values guessed from the current state of the
//phases and datasets, or 0. Existing parameters are not changed. It
//returns the indices of the new parameters.
func (F *Fitting) UpdateParameters() []int {
	guess := make(map[int]float64)
	for _, s := range F.Phases() {
		for k, v := range s.FindParameters() {
			if _, ok := guess[k]; !ok {
				guess[k] = v
			}
		}
	}
	for _, d := range F.DataSets() {
		for k, v := range d.FindParameters() {
			if _, ok := guess[k]; !ok {
				guess[k] = v
			}
		}
	}
	var added []int
	for _, idx := range F.UsedParameters() {
		if _, ok := F.Parameter(idx); ok {
			continue
		}
		if _, err := F.SetParameter(idx, guess[idx]); err == nil {
			added = append(added, idx)
		}
	}
	return added
}

//RenumberParameters changes parameter indices according to mapping, in the
//parameters and in every constraint. Indices may not collide with
//unmapped parameters.
func (F *Fitting) RenumberParameters(mapping map[int]int) error {
	F.mu.Lock()
	defer F.mu.Unlock()
	next := make(map[int]*param.Parameter, len(F.params))
	for idx, p := range F.params {
		n, ok := mapping[idx]
		if !ok {
			n = idx
		}
		if n <= 0 {
			return pdfgui.NewError(pdfgui.ConfigError, "invalid parameter index %d", n)
		}
		if _, dup := next[n]; dup {
			return pdfgui.NewError(pdfgui.ConfigError, "parameter index %d used twice", n)
		}
		next[n] = p
	}
	for _, s := range F.strucs {
		if err := s.RenumberParameters(mapping); err != nil {
			return err
		}
	}
	for _, d := range F.datasets {
		if err := d.RenumberParameters(mapping); err != nil {
			return err
		}
	}
	for n, p := range next {
		p.Index = n
	}
	F.params = next
	return nil
}

//RenameLinks points the parameter links to the fit oldName to newName and
//returns how many were changed.
func (F *Fitting) RenameLinks(oldName, newName string) int {
	var n int
	for _, p := range F.Parameters() {
		if p.RenameLinkTarget(oldName, newName) {
			n++
		}
	}
	return n
}

//Snapshots returns a copy of the refinement history.
func (F *Fitting) Snapshots() []Snapshot {
	F.mu.Lock()
	defer F.mu.Unlock()
	ret := make([]Snapshot, len(F.snapshots))
	for i, s := range F.snapshots {
		ret[i] = s.copy()
	}
	return ret
}

//SetSnapshots replaces the refinement history, for fits restored from an
//archive. The residual becomes that of the last snapshot.
func (F *Fitting) SetSnapshots(s []Snapshot) {
	F.mu.Lock()
	defer F.mu.Unlock()
	F.snapshots = make([]Snapshot, len(s))
	for i, v := range s {
		F.snapshots[i] = v.copy()
	}
	if len(s) > 0 {
		F.rw = s[len(s)-1].Rw
	}
}

//Steps returns the number of recorded refinement steps.
func (F *Fitting) Steps() int {
	F.mu.Lock()
	defer F.mu.Unlock()
	return len(F.snapshots)
}

//GetData returns "rw", "step" or a parameter "@N" at a refinement step,
//counted from 0. A negative step counts from the end, -1 being the last.
func (F *Fitting) GetData(name string, step int) (float64, error) {
	F.mu.Lock()
	defer F.mu.Unlock()
	n := len(F.snapshots)
	if step < 0 {
		step += n
	}
	if step < 0 || step >= n {
		return 0, pdfgui.NewError(pdfgui.KeyError, "fit %s has no step %d", F.name, step)
	}
	s := F.snapshots[step]
	switch {
	case name == "rw":
		return s.Rw, nil
	case name == "step":
		return float64(s.Step), nil
	case strings.HasPrefix(name, "@"):
		idx, err := strconv.Atoi(name[1:])
		if err != nil {
			return 0, pdfgui.NewError(pdfgui.ConfigError, "invalid parameter name %q", name)
		}
		v, ok := s.Values[idx]
		if !ok {
			return 0, pdfgui.NewError(pdfgui.KeyError, "parameter %s not in step %d", name, step)
		}
		return v, nil
	}
	return 0, pdfgui.NewError(pdfgui.ConfigError, "unknown fit data %q", name)
}

//Copy returns a deep copy of the fit with a new identity and the given
//name. With strip, the copy has no refinement results: no snapshots,
//refined values, refined structures or calculated curves.
func (F *Fitting) Copy(name string, strip bool) *Fitting {
	F.mu.Lock()
	defer F.mu.Unlock()
	C := &Fitting{
		id:       uuid.New(),
		name:     name,
		params:   make(map[int]*param.Parameter, len(F.params)),
		journal:  F.journal,
		resolver: F.resolver,
		engine:   F.engine,
		sink:     F.sink,
		logger:   F.logger,
	}
	for idx, p := range F.params {
		cp := p.Copy()
		if strip {
			cp.ClearRefined()
		}
		C.params[idx] = cp
	}
	for _, s := range F.strucs {
		cs := s.Copy()
		if strip {
			cs.Refined = nil
		}
		C.strucs = append(C.strucs, cs)
	}
	for _, d := range F.datasets {
		cd := d.Copy()
		if strip {
			cd.Gcalc, cd.DGcalc = nil, nil
			cd.Refined = make(map[string]float64)
		}
		C.datasets = append(C.datasets, cd)
	}
	for _, c := range F.calcs {
		cc := c.Copy()
		if strip {
			cc.Gcalc = nil
		}
		C.calcs = append(C.calcs, cc)
	}
	if !strip {
		C.status = F.status
		if C.status == Running || C.status == Queued {
			C.status = Pending
		}
		C.rw = F.rw
		for _, s := range F.snapshots {
			C.snapshots = append(C.snapshots, s.copy())
		}
	}
	return C
}
