/*
 * interfaces.go, part of gopdfgui.
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

package pdfgui

//EventSink receives the notifications the kernel publishes. Update is
//called after an entity (fit, phase, dataset, calculation, plot) changed,
//Error when a background operation failed. Implementations must be safe
//for concurrent use; the fit queue calls them from its worker goroutine.
type EventSink interface {
	Update(entity any)
	Error(msg string)
}

//NopSink discards all notifications.
type NopSink struct{}

func (NopSink) Update(any)   {}
func (NopSink) Error(string) {}

//Variabler is implemented by the entities whose scalar attributes can be
//read, written and constrained by name ("lat(1)", "x(3)", "dscale"...).
type Variabler interface {
	GetVar(name string) (float64, error)
	SetVar(name string, value float64) error
	ListVars() []string
}
