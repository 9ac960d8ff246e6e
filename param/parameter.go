/*
 * parameter.go, part of gopdfgui.
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

package param

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
	pdfgui "github.com/rmera/gopdfgui"
)

//MaxLinkDepth is the maximum number of links followed when resolving
//the initial value of a parameter.
const MaxLinkDepth = 64

//Owner is a fit that owns parameters, as seen by a link.
type Owner interface {
	Name() string
	ID() uuid.UUID
	Parameter(idx int) (*Parameter, bool)
}

//Resolver finds the fits that parameter links point to.
type Resolver interface {
	FitByName(name string) (Owner, bool)
	FitByID(id uuid.UUID) (Owner, bool)
}

//Link is the initial value of a parameter that is taken from a parameter of another
//fit. FitID caches the identity of the target, which is used when the name
//no longer resolves.
type Link struct {
	FitName  string
	SrcIndex int
	FitID    uuid.UUID
}

func (L Link) String() string {
	return fmt.Sprintf("=%s:%d", L.FitName, L.SrcIndex)
}

//Parameter is a refinable scalar identified by a positive index.
//Its initial value is either a number or a link. The initial value, link
//and refined value are guarded, so a parameter can be resolved while its
//project renames fits.
type Parameter struct {
	Index      int
	Fixed      bool
	mu         sync.RWMutex
	initial    float64
	link       *Link
	refined    float64
	hasRefined bool
	resolver   Resolver
}

//NewParameter creates the parameter idx with the given initial value,
//with the same rules as SetInitial.
func NewParameter(idx int, initial any) (*Parameter, error) {
	if idx <= 0 {
		return nil, pdfgui.NewError(pdfgui.ConfigError, "parameter index must be positive, got %d", idx)
	}
	P := &Parameter{Index: idx}
	if err := P.SetInitial(initial); err != nil {
		return nil, err
	}
	return P, nil
}

//SetResolver sets the object used to resolve links.
func (P *Parameter) SetResolver(r Resolver) {
	P.mu.Lock()
	P.resolver = r
	P.mu.Unlock()
	P.cacheLinkID()
}

//cacheLinkID stores the identity of the link target when it is not known
//yet. The resolver is called without holding the parameter lock.
func (P *Parameter) cacheLinkID() {
	P.mu.RLock()
	l, r := P.link, P.resolver
	var name string
	need := l != nil && l.FitID == uuid.Nil && r != nil
	if need {
		name = l.FitName
	}
	P.mu.RUnlock()
	if !need {
		return
	}
	o, ok := r.FitByName(name)
	if !ok {
		return
	}
	P.mu.Lock()
	if P.link == l && l.FitID == uuid.Nil && l.FitName == name {
		l.FitID = o.ID()
	}
	P.mu.Unlock()
}

//SetInitial sets the initial value. x can be a number, a numeric string,
//a link string "=fitname" or "=fitname:idx", or an Owner, which links to the
//parameter with the same index in that fit. Anything else is a TypeError.
func (P *Parameter) SetInitial(x any) error {
	switch v := x.(type) {
	case float64:
		P.setInitial(v, nil)
	case float32:
		P.setInitial(float64(v), nil)
	case int:
		P.setInitial(float64(v), nil)
	case Owner:
		P.setInitial(0, &Link{FitName: v.Name(), SrcIndex: P.Index, FitID: v.ID()})
	case string:
		s := strings.TrimSpace(v)
		if !strings.HasPrefix(s, "=") {
			f, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return pdfgui.NewError(pdfgui.TypeError, "invalid initial value %q", v)
			}
			P.setInitial(f, nil)
			return nil
		}
		l, err := parseLink(s[1:], P.Index)
		if err != nil {
			return err
		}
		P.setInitial(0, l)
		P.cacheLinkID()
	default:
		return pdfgui.NewError(pdfgui.TypeError, "invalid initial value of type %T", x)
	}
	return nil
}

//setInitial stores a number or, when l is not nil, a link. A link keeps
//the previous number.
func (P *Parameter) setInitial(v float64, l *Link) {
	P.mu.Lock()
	defer P.mu.Unlock()
	if l != nil {
		P.link = l
		return
	}
	P.initial, P.link = v, nil
}

//parseLink parses "name" or "name:idx". The index defaults to own.
func parseLink(s string, own int) (*Link, error) {
	name, idx := s, own
	if k := strings.LastIndex(s, ":"); k >= 0 {
		if n, err := strconv.Atoi(strings.TrimSpace(s[k+1:])); err == nil {
			name, idx = s[:k], n
		}
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, pdfgui.NewError(pdfgui.TypeError, "link %q has no fit name", "="+s)
	}
	if idx <= 0 {
		return nil, pdfgui.NewError(pdfgui.TypeError, "link %q has an invalid parameter index", "="+s)
	}
	return &Link{FitName: name, SrcIndex: idx}, nil
}

//InitialStr returns the initial value as text. Links always render as
//"=name:idx".
func (P *Parameter) InitialStr() string {
	P.mu.RLock()
	defer P.mu.RUnlock()
	if P.link != nil {
		return P.link.String()
	}
	return strconv.FormatFloat(P.initial, 'g', -1, 64)
}

//IsLinked reports whether the initial value is a link.
func (P *Parameter) IsLinked() bool {
	P.mu.RLock()
	defer P.mu.RUnlock()
	return P.link != nil
}

//Link returns a copy of the link of the parameter, if any.
func (P *Parameter) Link() (Link, bool) {
	P.mu.RLock()
	defer P.mu.RUnlock()
	if P.link == nil {
		return Link{}, false
	}
	return *P.link, true
}

//RenameLinkTarget makes a link that points to the fit oldName point to newName.
//It reports whether the parameter was changed.
func (P *Parameter) RenameLinkTarget(oldName, newName string) bool {
	P.mu.Lock()
	defer P.mu.Unlock()
	if P.link == nil || P.link.FitName != oldName {
		return false
	}
	P.link.FitName = newName
	return true
}

//SetLinkID sets the cached identity of the link target, for parameters
//restored from an archive. It does nothing if the parameter is not linked.
func (P *Parameter) SetLinkID(id uuid.UUID) {
	P.mu.Lock()
	defer P.mu.Unlock()
	if P.link != nil {
		P.link.FitID = id
	}
}

//InitialValue resolves the numeric initial value of the parameter, following
//links. Refined values of link targets are preferred over their initial values.
//Chains longer than MaxLinkDepth, and links to the parameter itself, are
//RuntimeErrors; missing targets are KeyErrors.
func (P *Parameter) InitialValue() (float64, error) {
	P.mu.RLock()
	r := P.resolver
	P.mu.RUnlock()
	return P.initialValue(r, 0)
}

//initialValue works on a copy of the link taken under the lock, so the
//resolver is never called with the parameter locked.
func (P *Parameter) initialValue(r Resolver, depth int) (float64, error) {
	P.mu.RLock()
	if P.link == nil {
		v := P.initial
		P.mu.RUnlock()
		return v, nil
	}
	link := *P.link
	P.mu.RUnlock()
	if depth >= MaxLinkDepth {
		return 0, pdfgui.NewError(pdfgui.RuntimeError, pdfgui.SelfDependent)
	}
	if r == nil {
		return 0, pdfgui.NewError(pdfgui.KeyError, "cannot resolve link %s outside a project", link)
	}
	owner, ok := r.FitByName(link.FitName)
	if !ok && link.FitID != uuid.Nil {
		owner, ok = r.FitByID(link.FitID)
	}
	if !ok {
		return 0, pdfgui.NewError(pdfgui.KeyError, "fit %q not found", link.FitName)
	}
	src, ok := owner.Parameter(link.SrcIndex)
	if !ok {
		return 0, pdfgui.NewError(pdfgui.KeyError, "fit %q has no parameter @%d", owner.Name(), link.SrcIndex)
	}
	if src == P {
		return 0, pdfgui.NewError(pdfgui.RuntimeError, pdfgui.SelfDependent)
	}
	if v, ok := src.Refined(); ok {
		return v, nil
	}
	return src.initialValue(r, depth+1)
}

//Refined returns the refined value and whether there is one.
func (P *Parameter) Refined() (float64, bool) {
	P.mu.RLock()
	defer P.mu.RUnlock()
	return P.refined, P.hasRefined
}

//SetRefined sets the refined value.
func (P *Parameter) SetRefined(v float64) {
	P.mu.Lock()
	P.refined, P.hasRefined = v, true
	P.mu.Unlock()
}

//ClearRefined removes the refined value.
func (P *Parameter) ClearRefined() {
	P.mu.Lock()
	P.refined, P.hasRefined = 0, false
	P.mu.Unlock()
}

//Value returns the refined value if there is one, or the initial value.
func (P *Parameter) Value() (float64, error) {
	if v, ok := P.Refined(); ok {
		return v, nil
	}
	return P.InitialValue()
}

//Copy returns a deep copy of the parameter, sharing the resolver.
func (P *Parameter) Copy() *Parameter {
	P.mu.RLock()
	defer P.mu.RUnlock()
	ret := &Parameter{
		Index:      P.Index,
		Fixed:      P.Fixed,
		initial:    P.initial,
		refined:    P.refined,
		hasRefined: P.hasRefined,
		resolver:   P.resolver,
	}
	if P.link != nil {
		l := *P.link
		ret.link = &l
	}
	return ret
}
