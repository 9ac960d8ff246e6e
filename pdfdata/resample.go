/*
 * resample.go, part of gopdfgui.
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

package pdfdata

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
)

//SincWindow is the half-width, in samples, of the truncated sinc kernel
//used by SincInterpolation.
const SincWindow = 32

//GridInterpolation resamples (x0, y0) onto x1. x0 must be ascending.
//Points of x1 that coincide with x0 return the y0 value exactly, interior
//points are interpolated linearly, and points below or above the x0 range
//get left and right. An empty x0 gives left everywhere.
func GridInterpolation(x0, y0, x1 []float64, left, right float64) []float64 {
	y1 := make([]float64, len(x1))
	n := len(x0)
	for i, x := range x1 {
		switch {
		case n == 0 || x < x0[0]:
			y1[i] = left
		case x > x0[n-1]:
			y1[i] = right
		default:
			k := sort.SearchFloat64s(x0, x)
			if x0[k] == x {
				y1[i] = y0[k]
				continue
			}
			t := (x - x0[k-1]) / (x0[k] - x0[k-1])
			y1[i] = y0[k-1] + t*(y0[k]-y0[k-1])
		}
	}
	return y1
}

func sinc(t float64) float64 {
	if t == 0 {
		return 1
	}
	return math.Sin(math.Pi*t) / (math.Pi * t)
}

//SincInterpolation resamples the band-limited signal (x0, y0), sampled on the
//evenly spaced ascending grid x0, onto x1 with a Whittaker-Shannon sum
//truncated to ncut samples on each side. Grid points are returned exactly.
//Points outside the x0 range get left and right; an empty x0 gives left.
func SincInterpolation(x0, y0, x1 []float64, ncut int, left, right float64) []float64 {
	y1 := make([]float64, len(x1))
	n := len(x0)
	if n < 2 {
		for i, x := range x1 {
			switch {
			case n == 1 && x == x0[0]:
				y1[i] = y0[0]
			case n == 1 && x > x0[0]:
				y1[i] = right
			default:
				y1[i] = left
			}
		}
		return y1
	}
	h := (x0[n-1] - x0[0]) / float64(n-1)
	eps := 1e-8 * h
	for i, x := range x1 {
		if x < x0[0]-eps {
			y1[i] = left
			continue
		}
		if x > x0[n-1]+eps {
			y1[i] = right
			continue
		}
		u := (x - x0[0]) / h
		k := math.Round(u)
		if math.Abs(u-k) < 1e-8 {
			y1[i] = y0[int(k)]
			continue
		}
		lo := int(math.Max(0, math.Ceil(u-float64(ncut))))
		hi := int(math.Min(float64(n-1), math.Floor(u+float64(ncut))))
		s := 0.0
		for j := lo; j <= hi; j++ {
			s += y0[j] * sinc(u-float64(j))
		}
		y1[i] = s
	}
	return y1
}

//evenlySpaced reports whether x is an evenly spaced ascending grid.
func evenlySpaced(x []float64) bool {
	n := len(x)
	if n < 3 {
		return n == 2 && x[1] > x[0]
	}
	h := (x[n-1] - x[0]) / float64(n-1)
	if h <= 0 {
		return false
	}
	d := make([]float64, n-1)
	for i := range d {
		d[i] = x[i+1] - x[i]
	}
	return floats.Max(d)-floats.Min(d) < 1e-6*h
}
