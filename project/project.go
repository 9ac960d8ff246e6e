/*
 * project.go, part of gopdfgui.
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
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	pdfgui "github.com/rmera/gopdfgui"
	"github.com/rmera/gopdfgui/fitting"
	"github.com/rmera/gopdfgui/param"
	"github.com/rmera/gopdfgui/pdfdata"
	"github.com/rmera/gopdfgui/plotmodel"
	"github.com/rmera/gopdfgui/structure"
	"go.uber.org/zap"
)

//Host describes a remote machine where fits can be run.
type Host struct {
	Name string `yaml:"name"`
	Port int    `yaml:"port"`
	User string `yaml:"user"`
	Path string `yaml:"path"`
}

//Project is the ordered collection of fits of a modeling session, with the
//plots that observe them, a journal and the fit queue. It resolves the
//parameter links between its fits. All methods are safe for concurrent use.
type Project struct {
	mu      sync.RWMutex
	name    string
	fits    []*fitting.Fitting
	plots   []*plotmodel.Plot
	journal string
	host    *Host
	path    string
	altered bool

	engine      fitting.Engine
	sink        pdfgui.EventSink
	logger      *zap.Logger
	registerer  prometheus.Registerer
	compression Compression
	queue       *FitQueue
}

//Option configures a Project.
type Option func(*Project)

//WithEngine sets the refinement engine given to the fits of the project.
func WithEngine(e fitting.Engine) Option { return func(P *Project) { P.engine = e } }

//WithSink sets the receiver of the update and error events.
func WithSink(s pdfgui.EventSink) Option { return func(P *Project) { P.sink = s } }

func WithLogger(l *zap.Logger) Option { return func(P *Project) { P.logger = l } }

//WithRegisterer registers the fit queue metrics with r.
func WithRegisterer(r prometheus.Registerer) Option {
	return func(P *Project) { P.registerer = r }
}

//WithCompression sets the compression of saved archives.
func WithCompression(c Compression) Option { return func(P *Project) { P.compression = c } }

//New returns an empty project. Its fit queue starts a worker goroutine
//when the first fit is enqueued; Exit stops it.
func New(name string, opts ...Option) *Project {
	P := &Project{
		name:        name,
		sink:        pdfgui.NopSink{},
		logger:      zap.NewNop(),
		compression: Deflate,
	}
	for _, o := range opts {
		o(P)
	}
	P.queue = NewFitQueue(P.events(), P.logger, P.registerer)
	return P
}

//eventSink forwards events to the sink of the project and updates the
//plots that show the changed entity.
type eventSink struct {
	P *Project
}

func (E eventSink) Update(entity any) {
	E.P.mu.RLock()
	plots := append([]*plotmodel.Plot(nil), E.P.plots...)
	sink := E.P.sink
	E.P.mu.RUnlock()
	for _, p := range plots {
		p.Notify(entity)
	}
	sink.Update(entity)
}

func (E eventSink) Error(msg string) {
	E.P.mu.RLock()
	sink := E.P.sink
	E.P.mu.RUnlock()
	sink.Error(msg)
}

func (P *Project) events() pdfgui.EventSink {
	return eventSink{P}
}

func (P *Project) Name() string {
	P.mu.RLock()
	defer P.mu.RUnlock()
	return P.name
}

func (P *Project) SetName(name string) {
	P.mu.Lock()
	P.name = name
	P.altered = true
	P.mu.Unlock()
}

func (P *Project) Journal() string {
	P.mu.RLock()
	defer P.mu.RUnlock()
	return P.journal
}

func (P *Project) SetJournal(j string) {
	P.mu.Lock()
	P.journal = j
	P.altered = true
	P.mu.Unlock()
}

//Host returns a copy of the host descriptor, or nil.
func (P *Project) Host() *Host {
	P.mu.RLock()
	defer P.mu.RUnlock()
	if P.host == nil {
		return nil
	}
	h := *P.host
	return &h
}

func (P *Project) SetHost(h *Host) {
	P.mu.Lock()
	defer P.mu.Unlock()
	P.altered = true
	if h == nil {
		P.host = nil
		return
	}
	c := *h
	P.host = &c
}

//Path returns the file the project was last loaded from or saved to.
func (P *Project) Path() string {
	P.mu.RLock()
	defer P.mu.RUnlock()
	return P.path
}

//Altered reports whether the project changed since it was last loaded or
//saved.
func (P *Project) Altered() bool {
	P.mu.RLock()
	defer P.mu.RUnlock()
	return P.altered
}

//SetAltered marks the project as changed, for edits made directly on its
//fits.
func (P *Project) SetAltered() {
	P.mu.Lock()
	P.altered = true
	P.mu.Unlock()
}

//Logger returns the logger of the project.
func (P *Project) Logger() *zap.Logger { return P.logger }

//Queue returns the fit queue of the project.
func (P *Project) Queue() *FitQueue {
	return P.queue
}

//FitByName returns the fit with the given name.
func (P *Project) FitByName(name string) (param.Owner, bool) {
	f, ok := P.Fit(name)
	if !ok {
		return nil, false
	}
	return f, true
}

//FitByID returns the fit with the given identity.
func (P *Project) FitByID(id uuid.UUID) (param.Owner, bool) {
	P.mu.RLock()
	defer P.mu.RUnlock()
	for _, f := range P.fits {
		if f.ID() == id {
			return f, true
		}
	}
	return nil, false
}

//Fit returns the fit with the given name.
func (P *Project) Fit(name string) (*fitting.Fitting, bool) {
	P.mu.RLock()
	defer P.mu.RUnlock()
	i := P.index(name)
	if i < 0 {
		return nil, false
	}
	return P.fits[i], true
}

//Fits returns the fits in project order.
func (P *Project) Fits() []*fitting.Fitting {
	P.mu.RLock()
	defer P.mu.RUnlock()
	return append([]*fitting.Fitting(nil), P.fits...)
}

//Len returns the number of fits.
func (P *Project) Len() int {
	P.mu.RLock()
	defer P.mu.RUnlock()
	return len(P.fits)
}

func (P *Project) index(name string) int {
	for i, f := range P.fits {
		if f.Name() == name {
			return i
		}
	}
	return -1
}

//Index returns the position of the fit with the given name, or -1.
func (P *Project) Index(name string) int {
	P.mu.RLock()
	defer P.mu.RUnlock()
	return P.index(name)
}

func (P *Project) takenNames() map[string]bool {
	ret := make(map[string]bool, len(P.fits))
	for _, f := range P.fits {
		ret[f.Name()] = true
	}
	return ret
}

//UniqueName returns name, or name with a numeric suffix if a fit already
//has that name.
func (P *Project) UniqueName(name string) string {
	P.mu.RLock()
	defer P.mu.RUnlock()
	return uniqueName(name, P.takenNames())
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

//adopt gives f the engine, sink, logger and link resolver of the project.
func (P *Project) adopt(f *fitting.Fitting) {
	opts := []fitting.Option{fitting.WithResolver(P), fitting.WithSink(P.events()), fitting.WithLogger(P.logger)}
	if P.engine != nil {
		opts = append(opts, fitting.WithEngine(P.engine))
	}
	f.Configure(opts...)
}

//NewFit creates an empty fit with a unique name based on name and appends
//it to the project.
func (P *Project) NewFit(name string) *fitting.Fitting {
	f := fitting.New(P.UniqueName(name))
	if err := P.Insert(f, -1); err != nil {
		//the name was unique a moment ago
		f.SetName(P.UniqueName(name))
		if err := P.Insert(f, -1); err != nil {
			panic(err)
		}
	}
	return f
}

//Add appends f to the project.
func (P *Project) Add(f *fitting.Fitting) error {
	return P.Insert(f, -1)
}

//Insert adds f at position pos; a negative or too large pos appends. The
//name of f must be unique in the project.
func (P *Project) Insert(f *fitting.Fitting, pos int) error {
	if f == nil {
		return pdfgui.NewError(pdfgui.TypeError, "nil fit")
	}
	name := f.Name()
	if name == "" {
		return pdfgui.NewError(pdfgui.ConfigError, "fit name must not be empty")
	}
	P.mu.Lock()
	if P.index(name) >= 0 {
		P.mu.Unlock()
		return pdfgui.NewError(pdfgui.ConfigError, "project already has a fit named %q", name)
	}
	for _, g := range P.fits {
		if g == f {
			P.mu.Unlock()
			return pdfgui.NewError(pdfgui.ConfigError, "fit %q is already in the project", name)
		}
	}
	if pos < 0 || pos > len(P.fits) {
		pos = len(P.fits)
	}
	P.fits = append(P.fits, nil)
	copy(P.fits[pos+1:], P.fits[pos:])
	P.fits[pos] = f
	P.altered = true
	P.mu.Unlock()
	P.adopt(f)
	P.logger.Debug("fit added", zap.String("fit", name), zap.Int("position", pos))
	P.events().Update(P)
	return nil
}

//Remove takes the fit with the given name out of the project and its queue.
//A running fit is stopped.
func (P *Project) Remove(name string) (*fitting.Fitting, error) {
	P.mu.Lock()
	i := P.index(name)
	if i < 0 {
		P.mu.Unlock()
		return nil, pdfgui.NewError(pdfgui.KeyError, "no fit named %q", name)
	}
	f := P.fits[i]
	P.fits = append(P.fits[:i], P.fits[i+1:]...)
	P.altered = true
	P.mu.Unlock()
	P.queue.Enqueue([]*fitting.Fitting{f}, false)
	f.Stop()
	f.Configure(fitting.WithResolver(nil))
	P.events().Update(P)
	return f, nil
}

//Rename renames a fit and rewrites every parameter link in the project
//that pointed to the old name. Links keep resolving during the rename
//through the identity of the fit.
func (P *Project) Rename(oldName, newName string) error {
	if newName == "" {
		return pdfgui.NewError(pdfgui.ConfigError, "fit name must not be empty")
	}
	P.mu.Lock()
	defer P.mu.Unlock()
	i := P.index(oldName)
	if i < 0 {
		return pdfgui.NewError(pdfgui.KeyError, "no fit named %q", oldName)
	}
	if oldName == newName {
		return nil
	}
	if P.index(newName) >= 0 {
		return pdfgui.NewError(pdfgui.ConfigError, "project already has a fit named %q", newName)
	}
	P.fits[i].SetName(newName)
	var n int
	for _, f := range P.fits {
		n += f.RenameLinks(oldName, newName)
	}
	P.altered = true
	P.logger.Debug("fit renamed", zap.String("old", oldName), zap.String("new", newName), zap.Int("links", n))
	return nil
}

//Copy returns a detached deep copy of a fit, phase, dataset or calculation,
//to be given to Paste. Copied fits carry no refinement results.
func (P *Project) Copy(src any) (any, error) {
	switch v := src.(type) {
	case *fitting.Fitting:
		return v.Copy(v.Name(), true), nil
	case *structure.FitStructure:
		return v.Copy(), nil
	case *pdfdata.DataSet:
		return v.Copy(), nil
	case *pdfdata.Calculation:
		return v.Copy(), nil
	}
	return nil, pdfgui.NewError(pdfgui.TypeError, "cannot copy %T", src)
}

//Paste inserts a copy of src. A fit is pasted into the project, a phase,
//dataset or calculation into the target fit. newName, when not empty,
//names the pasted object; otherwise the name of src is used. Names are
//made unique. A negative pos appends. It returns the pasted object.
func (P *Project) Paste(src any, target *fitting.Fitting, newName string, pos int) (any, error) {
	obj, err := P.Copy(src)
	if err != nil {
		return nil, err
	}
	if f, ok := obj.(*fitting.Fitting); ok {
		if target != nil {
			return nil, pdfgui.NewError(pdfgui.TypeError, "a fit can only be pasted into the project")
		}
		if newName == "" {
			newName = f.Name()
		}
		P.mu.Lock()
		f.SetName(uniqueName(newName, P.takenNames()))
		P.mu.Unlock()
		if err := P.Insert(f, pos); err != nil {
			return nil, err
		}
		return f, nil
	}
	if target == nil {
		return nil, pdfgui.NewError(pdfgui.TypeError, "%T must be pasted into a fit", obj)
	}
	if P.Index(target.Name()) < 0 {
		return nil, pdfgui.NewError(pdfgui.KeyError, "fit %q is not in the project", target.Name())
	}
	switch v := obj.(type) {
	case *structure.FitStructure:
		if newName == "" {
			newName = v.Name()
		}
		v.SetName(target.UniqueName(newName))
	case *pdfdata.DataSet:
		if newName == "" {
			newName = v.Name()
		}
		v.SetName(target.UniqueName(newName))
	case *pdfdata.Calculation:
		if newName == "" {
			newName = v.Name()
		}
		v.SetName(target.UniqueName(newName))
	}
	if err := target.Insert(obj, pos); err != nil {
		return nil, err
	}
	P.SetAltered()
	P.events().Update(target)
	return obj, nil
}

//AddPlot makes p observe the updates of the project.
func (P *Project) AddPlot(p *plotmodel.Plot) {
	P.mu.Lock()
	P.plots = append(P.plots, p)
	P.altered = true
	P.mu.Unlock()
}

//RemovePlot closes p and stops updating it.
func (P *Project) RemovePlot(p *plotmodel.Plot) {
	P.mu.Lock()
	for i, q := range P.plots {
		if q == p {
			P.plots = append(P.plots[:i], P.plots[i+1:]...)
			break
		}
	}
	P.altered = true
	P.mu.Unlock()
	p.Close()
}

//Plots returns the plots of the project.
func (P *Project) Plots() []*plotmodel.Plot {
	P.mu.RLock()
	defer P.mu.RUnlock()
	return append([]*plotmodel.Plot(nil), P.plots...)
}

//Close empties the project: plots are closed and fits removed. Unless
//force is set, Close fails with a StatusError while a fit is running.
func (P *Project) Close(force bool) error {
	for _, f := range P.Fits() {
		if f.Status() == fitting.Running && !force {
			return pdfgui.NewError(pdfgui.StatusError, "fit %s is running", f.Name())
		}
	}
	P.queue.Stop()
	P.mu.Lock()
	plots, fits := P.plots, P.fits
	P.plots, P.fits = nil, nil
	P.journal, P.host, P.path = "", nil, ""
	P.altered = false
	P.mu.Unlock()
	for _, p := range plots {
		p.Close()
	}
	for _, f := range fits {
		f.Stop()
		f.Configure(fitting.WithResolver(nil))
	}
	P.logger.Debug("project closed", zap.Int("fits", len(fits)))
	return nil
}

//Exit closes the project and stops the fit queue worker. The project
//cannot run fits afterwards.
func (P *Project) Exit() {
	if err := P.Close(true); err != nil {
		P.logger.Warn("closing project", zap.Error(err))
	}
	P.queue.Exit()
}
