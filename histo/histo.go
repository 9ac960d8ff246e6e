/*
 * histo.go, part of gopdfgui.
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

package histo

import (
	"fmt"
	"sort"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

//Data is a weighted histogram with fixed dividers. Bin i collects the
//weight of the points x with dividers[i] <= x < dividers[i+1].
type Data struct {
	dividers []float64
	histo    []float64
	dropped  int
}

//NewData returns an empty histogram with the given dividers,
//which are copied. It panics if there are fewer than 2 dividers or
//they are not sorted.
func NewData(dividers []float64) *Data {
	if len(dividers) < 2 || !sort.Float64sAreSorted(dividers) {
		panic("goPDFgui/histo.NewData: dividers must be at least 2 and sorted")
	}
	D := &Data{dividers: make([]float64, len(dividers))}
	copy(D.dividers, dividers)
	D.histo = make([]float64, len(dividers)-1)
	return D
}

//Centered returns an empty histogram whose bins are centered on the
//evenly spaced values in centers, each bin being one step wide.
func Centered(centers []float64) *Data {
	n := len(centers)
	if n < 2 {
		panic("goPDFgui/histo.Centered: at least 2 centers are needed")
	}
	step := (centers[n-1] - centers[0]) / float64(n-1)
	div := make([]float64, n+1)
	for i, c := range centers {
		div[i] = c - step/2
	}
	div[n] = centers[n-1] + step/2
	return NewData(div)
}

type sortable struct {
	x, w []float64
}

func (s sortable) Len() int           { return len(s.x) }
func (s sortable) Less(i, j int) bool { return s.x[i] < s.x[j] }
func (s sortable) Swap(i, j int) {
	s.x[i], s.x[j] = s.x[j], s.x[i]
	s.w[i], s.w[j] = s.w[j], s.w[i]
}

//AddWeighted adds the points in x, each one with the corresponding weight,
//to the histogram. Points outside the dividers are dropped and counted.
//x and weights are not modified.
func (D *Data) AddWeighted(x, weights []float64) {
	if len(x) != len(weights) {
		panic("goPDFgui/histo.AddWeighted: slice length mismatch")
	}
	lo, hi := D.dividers[0], D.dividers[len(D.dividers)-1]
	s := sortable{x: make([]float64, 0, len(x)), w: make([]float64, 0, len(x))}
	for i, v := range x {
		if v < lo || v >= hi {
			D.dropped++
			continue
		}
		s.x = append(s.x, v)
		s.w = append(s.w, weights[i])
	}
	if len(s.x) == 0 {
		return
	}
	sort.Sort(s)
	counts := stat.Histogram(nil, D.dividers, s.x, s.w)
	floats.Add(D.histo, counts)
}

//Counts returns the histogram. The slice is not a copy.
func (D *Data) Counts() []float64 {
	return D.histo
}

//Dividers returns a copy of the dividers of the histogram.
func (D *Data) Dividers() []float64 {
	ret := make([]float64, len(D.dividers))
	copy(ret, D.dividers)
	return ret
}

//Dropped returns the number of points that fell outside the histogram.
func (D *Data) Dropped() int {
	return D.dropped
}

//Total returns the sum of the weights in the histogram.
func (D *Data) Total() float64 {
	return floats.Sum(D.histo)
}

//Reset empties the histogram, keeping the dividers.
func (D *Data) Reset() {
	for i := range D.histo {
		D.histo[i] = 0
	}
	D.dropped = 0
}

//String prints a -hopefully- pretty string representation of the histogram.
func (D *Data) String() string {
	lines := make([]string, 0, len(D.histo))
	for i, v := range D.histo {
		lines = append(lines, fmt.Sprintf("[%6.3f,%6.3f) %8.4f", D.dividers[i], D.dividers[i+1], v))
	}
	return strings.Join(lines, "\n")
}
