/*
 * status.go, part of gopdfgui.
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
	pdfgui "github.com/rmera/gopdfgui"
)

//Status is the refinement state of a fit.
type Status int

const (
	Pending Status = iota
	Queued
	Running
	Completed
	Failed
	Cancelled
)

var statusNames = [...]string{"PENDING", "QUEUED", "RUNNING", "COMPLETED", "FAILED", "CANCELLED"}

func (S Status) String() string {
	if S < 0 || int(S) >= len(statusNames) {
		return "UNKNOWN"
	}
	return statusNames[S]
}

//Finished reports whether the status is the end of a refinement.
func (S Status) Finished() bool {
	return S == Completed || S == Failed || S == Cancelled
}

//ParseStatus is the inverse of Status.String.
func ParseStatus(s string) (Status, error) {
	for i, n := range statusNames {
		if n == s {
			return Status(i), nil
		}
	}
	return Pending, pdfgui.NewError(pdfgui.ConfigError, "unknown fit status %q", s)
}

//Snapshot holds the parameter values and residual at a refinement step.
type Snapshot struct {
	Step   int
	Rw     float64
	Values map[int]float64
}

func (S Snapshot) copy() Snapshot {
	v := make(map[int]float64, len(S.Values))
	for k, x := range S.Values {
		v[k] = x
	}
	S.Values = v
	return S
}
